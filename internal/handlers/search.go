package handlers

import (
	"log/slog"
	"net/http"
	"strings"
)

const searchLimit = 50

// Search handles full-text search over message bodies and numbers.
// HTMX requests get the result list only.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	results, err := h.db.SearchMessages(query, searchLimit)
	if err != nil {
		slog.Error("search failed", "q", query, "error", err)
		http.Error(w, "Search failed", http.StatusInternalServerError)
		return
	}

	data := map[string]interface{}{
		"PageTitle": "Search - VMSG Viewer",
		"Query":     query,
		"Results":   results,
	}

	if r.Header.Get("HX-Request") == "true" {
		h.render(w, "search-results", data)
		return
	}
	h.render(w, "search.html", data)
}
