package handlers

import (
	"log/slog"
	"net/http"

	"github.com/felo/vmsg-viewer/internal/db"
)

// Index handles the home page: every indexed file grouped by kind
func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	stats, err := h.db.GetStats()
	if err != nil {
		slog.Error("failed to get stats", "error", err)
		http.Error(w, "Failed to get stats", http.StatusInternalServerError)
		return
	}

	files, err := h.db.ListFiles("")
	if err != nil {
		slog.Error("failed to list files", "error", err)
		http.Error(w, "Failed to load files", http.StatusInternalServerError)
		return
	}

	var contactFiles, messageFiles []*db.File
	for _, f := range files {
		if f.Kind == db.KindContacts {
			contactFiles = append(contactFiles, f)
		} else {
			messageFiles = append(messageFiles, f)
		}
	}

	data := map[string]interface{}{
		"PageTitle":    "Archive - VMSG Viewer",
		"Stats":        stats,
		"ContactFiles": contactFiles,
		"MessageFiles": messageFiles,
	}

	h.render(w, "index.html", data)
}
