package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/felo/vmsg-viewer/internal/db"
	"github.com/felo/vmsg-viewer/internal/parser"
)

// FileTree re-parses an indexed file and returns its block tree as JSON
func (h *Handlers) FileTree(w http.ResponseWriter, r *http.Request) {
	f := h.fileParam(w, r)
	if f == nil {
		return
	}

	path, err := h.db.ResolvePath(f.FilePath)
	if err != nil {
		slog.Warn("refusing to open file", "path", f.FilePath, "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, db.ErrPathTraversal) {
			status = http.StatusForbidden
		}
		http.Error(w, "Invalid file path", status)
		return
	}

	container := parser.ContainerVCard
	if f.Kind == db.KindMessages {
		container = parser.ContainerVMsg
	}

	roots, err := parser.ParseFileTree(path, h.cfg.Charset, container)
	if err != nil {
		slog.Error("failed to parse file", "path", f.FilePath, "error", err)
		http.Error(w, "Failed to read file", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(roots); err != nil {
		slog.Error("failed to encode tree", "path", f.FilePath, "error", err)
	}
}
