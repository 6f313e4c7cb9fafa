package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/felo/vmsg-viewer/internal/config"
	"github.com/felo/vmsg-viewer/internal/db"
	"github.com/felo/vmsg-viewer/internal/handlers"
	"github.com/felo/vmsg-viewer/internal/indexer"
	"github.com/felo/vmsg-viewer/internal/metrics"
	"github.com/felo/vmsg-viewer/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
)

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	if _, err := os.Stat(cfg.ArchivePath); os.IsNotExist(err) {
		slog.Warn("archive directory not found, creating it", "path", cfg.ArchivePath)
		if err := os.MkdirAll(cfg.ArchivePath, 0755); err != nil {
			return fmt.Errorf("failed to create archive directory: %w", err)
		}
		slog.Info("place your .vcf and .vmg files in the archive directory and rescan", "path", cfg.ArchivePath)
	} else {
		slog.Info("indexing archive", "path", cfg.ArchivePath)
		if _, err := newIndexer(database, cfg, true).IndexAll(cmd.Context()); err != nil {
			slog.Warn("indexing failed", "error", err)
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	h := handlers.New(database, cfg)
	h.SetShutdownChannel(sigChan)
	if err := h.LoadTemplates(web.Assets); err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}

	r, err := newRouter(h)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Address(),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // SSE connections stay open for a whole scan
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "url", cfg.URL())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	if cfg.OpenBrowser {
		time.Sleep(500 * time.Millisecond) // Give server time to start
		if err := openBrowser(cfg.URL()); err != nil {
			slog.Warn("failed to open browser", "error", err, "url", cfg.URL())
		}
	}

	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	case <-sigChan:
	}
	slog.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("server stopped")
	return nil
}

// openDatabase opens the index and points it at the archive folder
func openDatabase(cfg *config.Config) (*db.DB, error) {
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Stored file paths are relative to the archive folder
	database.SetArchivePath(cfg.ArchivePath)

	slog.Info("database opened", "path", cfg.DBPath)
	slog.Debug("archive configured", "path", cfg.ArchivePath, "charset", cfg.Charset)
	return database, nil
}

func newIndexer(database *db.DB, cfg *config.Config, verbose bool) *indexer.Indexer {
	return indexer.NewIndexer(database, cfg.ArchivePath, verbose).
		WithConcurrency(cfg.Workers).
		WithCharset(cfg.Charset).
		WithLocation(cfg.Location)
}

func newRouter(h *handlers.Handlers) (http.Handler, error) {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Get("/", h.Index)
	r.Get("/messages/{fileID}", h.Partners)
	r.Get("/messages/{fileID}/{tel}", h.Conversation)
	r.Get("/contacts", h.Contacts)
	r.Get("/search", h.Search)
	r.Get("/files/{fileID}/download", h.DownloadFile)
	r.Post("/scan", h.Scan)
	r.Get("/scan", h.ScanPage)
	r.Get("/scan/progress", h.ScanProgressSSE)
	r.Post("/shutdown", h.Shutdown)

	r.Route("/api", func(r chi.Router) {
		r.Get("/files/{fileID}/tree", h.FileTree)
		r.Get("/contacts/suggest", h.AutocompleteContacts)
	})

	r.Handle("/metrics", metrics.Handler())

	staticFS, err := fs.Sub(web.Assets, "static")
	if err != nil {
		return nil, fmt.Errorf("failed to get static files: %w", err)
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	return r, nil
}

// openBrowser opens the default browser to the specified URL
func openBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}

	return cmd.Start()
}
