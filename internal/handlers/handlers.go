package handlers

import (
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/felo/vmsg-viewer/internal/config"
	"github.com/felo/vmsg-viewer/internal/db"
	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"
)

// Handlers holds all HTTP handlers and their dependencies
type Handlers struct {
	db        *db.DB
	cfg       *config.Config
	templates *template.Template
	snippets  *bluemonday.Policy
	scans     *ScanProgress
	shutdown  chan<- os.Signal
}

// New creates a new Handlers instance
func New(database *db.DB, cfg *config.Config) *Handlers {
	return &Handlers{
		db:       database,
		cfg:      cfg,
		snippets: snippetPolicy(),
		scans:    newScanProgress(),
	}
}

// snippetPolicy keeps the <mark> tags search adds around matches and
// nothing else
func snippetPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("mark")
	return p
}

// LoadTemplates loads HTML templates from the given filesystem
func (h *Handlers) LoadTemplates(files fs.FS) error {
	tmpl, err := template.New("").Funcs(h.funcMap()).ParseFS(files,
		"templates/*.html",
		"templates/components/*.html",
	)
	if err != nil {
		return err
	}
	h.templates = tmpl
	return nil
}

func (h *Handlers) funcMap() template.FuncMap {
	return template.FuncMap{
		"formatDate": h.formatDate,
		"nl2br":      nl2br,
		"snippet": func(s string) template.HTML {
			return template.HTML(h.snippets.Sanitize(s))
		},
	}
}

// formatDate renders t in the configured zone. Zero and epoch times are
// what messages without a readable date carry, so they render empty.
func (h *Handlers) formatDate(t time.Time) string {
	if t.IsZero() || t.Unix() == 0 {
		return ""
	}
	loc := time.Local
	if h.cfg != nil && h.cfg.Location != nil {
		loc = h.cfg.Location
	}
	return t.In(loc).Format("2006/01/02 15:04")
}

// nl2br escapes s and turns line breaks into <br>
func nl2br(s string) template.HTML {
	s = strings.TrimRight(s, "\n")
	escaped := template.HTMLEscapeString(s)
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
}

// render executes a named template and logs failures
func (h *Handlers) render(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("template error", "template", name, "error", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

// fileParam loads the file named by the {fileID} URL parameter. It writes
// the error response itself and returns nil when the request cannot go on.
func (h *Handlers) fileParam(w http.ResponseWriter, r *http.Request) *db.File {
	id, err := strconv.ParseInt(chi.URLParam(r, "fileID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid file ID", http.StatusBadRequest)
		return nil
	}

	f, err := h.db.GetFileByID(id)
	if err != nil {
		slog.Error("failed to load file", "id", id, "error", err)
		http.Error(w, "Failed to load file", http.StatusInternalServerError)
		return nil
	}
	if f == nil {
		http.Error(w, "File not found", http.StatusNotFound)
		return nil
	}
	return f
}
