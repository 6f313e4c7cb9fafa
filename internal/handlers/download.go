package handlers

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/felo/vmsg-viewer/internal/db"
)

const maxFilenameBytes = 255

// sanitizeFilename removes dangerous characters from download filenames
func sanitizeFilename(filename string) string {
	// Remove path separators
	filename = filepath.Base(filename)

	// Remove any control characters and quotes
	cleaned := strings.Map(func(r rune) rune {
		if r < 32 || r == 127 || r == '"' || r == '\'' {
			return -1
		}
		return r
	}, filename)

	if len(cleaned) > maxFilenameBytes {
		cut := maxFilenameBytes
		for cut > 0 && !utf8.RuneStart(cleaned[cut]) {
			cut--
		}
		cleaned = cleaned[:cut]
	}

	if cleaned == "" || cleaned == "." || cleaned == string(filepath.Separator) {
		cleaned = "download.bin"
	}

	return cleaned
}

// contentTypes maps archive kinds to the media types phones export them as
var contentTypes = map[string]string{
	db.KindContacts: "text/x-vcard",
	db.KindMessages: "text/x-vmessage",
}

// DownloadFile serves an indexed archive file as it is on disk
func (h *Handlers) DownloadFile(w http.ResponseWriter, r *http.Request) {
	f := h.fileParam(w, r)
	if f == nil {
		return
	}

	path, err := h.db.ResolvePath(f.FilePath)
	if err != nil {
		slog.Warn("refusing to serve file", "path", f.FilePath, "error", err)
		http.Error(w, "Invalid file path", http.StatusForbidden)
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			http.Error(w, "File no longer exists", http.StatusNotFound)
			return
		}
		slog.Error("failed to read file", "path", f.FilePath, "error", err)
		http.Error(w, "Failed to read file", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{
			"filename": sanitizeFilename(f.Name()),
		}))
	w.Header().Set("Content-Type", contentTypes[f.Kind])
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("X-Content-Type-Options", "nosniff")

	w.Write(data)
}
