package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
)

// Suggestion is one autocomplete entry
type Suggestion struct {
	Name string `json:"name"`
	Tel  string `json:"tel"`
}

// AutocompleteContacts suggests contacts whose name, reading or number
// starts with q
func (h *Handlers) AutocompleteContacts(w http.ResponseWriter, r *http.Request) {
	// Parse limit parameter (default 20)
	limitParam := r.URL.Query().Get("limit")
	limit := 20
	if limitParam != "" {
		if parsed, err := strconv.Atoi(limitParam); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	suggestions := make([]Suggestion, 0)
	if q := r.URL.Query().Get("q"); q != "" {
		contacts, err := h.db.SuggestContacts(q, limit)
		if err != nil {
			slog.Error("failed to suggest contacts", "q", q, "error", err)
			http.Error(w, "Failed to load contacts", http.StatusInternalServerError)
			return
		}
		for _, c := range contacts {
			suggestions = append(suggestions, Suggestion{Name: c.FormattedName, Tel: c.Tel})
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(suggestions); err != nil {
		slog.Error("failed to encode suggestions", "error", err)
	}
}
