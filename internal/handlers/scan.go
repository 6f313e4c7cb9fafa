package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/felo/vmsg-viewer/internal/db"
	"github.com/felo/vmsg-viewer/internal/indexer"
	"github.com/felo/vmsg-viewer/internal/metrics"
	"github.com/google/uuid"
)

// ScanProgress holds the current scan progress state
type ScanProgress struct {
	mu              sync.RWMutex
	runID           string
	isScanning      bool
	current         int
	total           int
	currentFile     string
	totalFound      int
	newIndexed      int
	skipped         int
	failed          int
	completed       bool
	err             error
	lastUpdate      time.Time
	progressClients []chan ProgressEvent
}

// ProgressEvent represents a progress update event
type ProgressEvent struct {
	Type string      `json:"type"` // "progress", "complete", "error"
	Data interface{} `json:"data"`
}

func newScanProgress() *ScanProgress {
	return &ScanProgress{
		progressClients: make([]chan ProgressEvent, 0),
	}
}

// ScanPage displays the scan page
func (h *Handlers) ScanPage(w http.ResponseWriter, r *http.Request) {
	stats, err := h.db.GetStats()
	if err != nil {
		slog.Error("failed to get stats", "error", err)
		stats = &db.Stats{}
	}

	lastIndexed := "Never"
	if !stats.LastIndexed.IsZero() {
		lastIndexed = h.formatDate(stats.LastIndexed)
	}

	data := map[string]interface{}{
		"PageTitle":   "Scan - VMSG Viewer",
		"ArchivePath": h.cfg.ArchivePath,
		"Stats":       stats,
		"LastIndexed": lastIndexed,
	}

	h.render(w, "scan.html", data)
}

// Scan starts a background re-scan of the archive folder
func (h *Handlers) Scan(w http.ResponseWriter, r *http.Request) {
	sp := h.scans

	sp.mu.Lock()
	if sp.isScanning {
		sp.mu.Unlock()
		http.Error(w, "Scan already in progress", http.StatusConflict)
		return
	}

	runID := uuid.NewString()
	sp.runID = runID
	sp.isScanning = true
	sp.current = 0
	sp.total = 0
	sp.currentFile = ""
	sp.totalFound = 0
	sp.newIndexed = 0
	sp.skipped = 0
	sp.failed = 0
	sp.completed = false
	sp.err = nil
	sp.lastUpdate = time.Now()
	sp.mu.Unlock()

	metrics.ScanStarted()
	logger := slog.With("run", runID)
	logger.Info("scan started", "path", h.cfg.ArchivePath)

	// The request context ends with this response; the scan outlives it
	go func() {
		defer func() {
			sp.mu.Lock()
			sp.isScanning = false
			sp.completed = true
			sp.mu.Unlock()
		}()

		idx := indexer.NewIndexer(h.db, h.cfg.ArchivePath, false).
			WithConcurrency(h.cfg.Workers).
			WithCharset(h.cfg.Charset).
			WithLocation(h.cfg.Location)

		result, err := idx.IndexWithProgress(context.Background(), func(current, total int, filePath string) {
			sp.mu.Lock()
			sp.current = current
			sp.total = total
			sp.currentFile = filePath
			sp.lastUpdate = time.Now()
			sp.mu.Unlock()

			sp.broadcastProgress()
		})

		sp.mu.Lock()
		if err != nil {
			sp.err = err
			sp.mu.Unlock()
			logger.Error("scan failed", "error", err)
			sp.broadcastError(err)
			return
		}

		sp.totalFound = result.TotalFound
		sp.newIndexed = result.NewIndexed
		sp.skipped = result.Skipped
		sp.failed = result.Failed
		sp.mu.Unlock()

		logger.Info("scan complete",
			"found", result.TotalFound, "new", result.NewIndexed,
			"skipped", result.Skipped, "failed", result.Failed)
		sp.broadcastComplete(result)
	}()

	w.WriteHeader(http.StatusAccepted)
	fmt.Fprintf(w, "Scan started: %s", runID)
}

// ScanProgressSSE handles Server-Sent Events for scan progress
func (h *Handlers) ScanProgressSSE(w http.ResponseWriter, r *http.Request) {
	sp := h.scans

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	clientChan := make(chan ProgressEvent, 10)

	sp.mu.Lock()
	sp.progressClients = append(sp.progressClients, clientChan)
	var initial map[string]interface{}
	if sp.isScanning {
		initial = sp.progressData()
	}
	sp.mu.Unlock()

	// Send initial state if scan is in progress
	if initial != nil {
		sendSSE(w, flusher, "progress", initial)
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			sp.removeClient(clientChan)
			return

		case event := <-clientChan:
			sendSSE(w, flusher, event.Type, event.Data)

			// Close connection after complete or error
			if event.Type == "complete" || event.Type == "error" {
				sp.removeClient(clientChan)
				return
			}
		}
	}
}

func (sp *ScanProgress) removeClient(clientChan chan ProgressEvent) {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	for i, ch := range sp.progressClients {
		if ch == clientChan {
			sp.progressClients = append(sp.progressClients[:i], sp.progressClients[i+1:]...)
			break
		}
	}
}

// progressData snapshots the state; callers hold mu
func (sp *ScanProgress) progressData() map[string]interface{} {
	return map[string]interface{}{
		"run":     sp.runID,
		"current": sp.current,
		"total":   sp.total,
		"file":    sp.currentFile,
		"stats": map[string]int{
			"found":   sp.totalFound,
			"new":     sp.newIndexed,
			"skipped": sp.skipped,
			"failed":  sp.failed,
		},
	}
}

// broadcast sends an event to every connected client without blocking
func (sp *ScanProgress) broadcast(event ProgressEvent) {
	for _, client := range sp.progressClients {
		select {
		case client <- event:
		default:
			// Client channel full, skip
		}
	}
}

// broadcastFinal delivers a terminal event to every client, evicting
// stale progress events from full buffers to make room
func (sp *ScanProgress) broadcastFinal(event ProgressEvent) {
	for _, client := range sp.progressClients {
		for delivered := false; !delivered; {
			select {
			case client <- event:
				delivered = true
			default:
				select {
				case <-client:
				default:
				}
			}
		}
	}
}

// broadcastProgress sends progress update to all connected clients
func (sp *ScanProgress) broadcastProgress() {
	sp.mu.RLock()
	defer sp.mu.RUnlock()

	sp.broadcast(ProgressEvent{Type: "progress", Data: sp.progressData()})
}

// broadcastComplete sends completion event to all connected clients
func (sp *ScanProgress) broadcastComplete(result *indexer.IndexResult) {
	sp.mu.RLock()
	defer sp.mu.RUnlock()

	sp.broadcastFinal(ProgressEvent{Type: "complete", Data: map[string]interface{}{
		"run":     sp.runID,
		"found":   result.TotalFound,
		"new":     result.NewIndexed,
		"skipped": result.Skipped,
		"failed":  result.Failed,
	}})
}

// broadcastError sends error event to all connected clients
func (sp *ScanProgress) broadcastError(err error) {
	sp.mu.RLock()
	defer sp.mu.RUnlock()

	sp.broadcastFinal(ProgressEvent{Type: "error", Data: map[string]interface{}{
		"run":   sp.runID,
		"error": err.Error(),
	}})
}

// sendSSE sends an SSE message to the client
func sendSSE(w http.ResponseWriter, flusher http.Flusher, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		slog.Error("failed to marshal SSE data", "error", err)
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
	flusher.Flush()
}
