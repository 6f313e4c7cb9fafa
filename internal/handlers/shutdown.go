package handlers

import (
	"log/slog"
	"net/http"
	"os"
	"syscall"
)

// SetShutdownChannel wires the signal channel main waits on, so the
// browser can stop the server
func (h *Handlers) SetShutdownChannel(ch chan<- os.Signal) {
	h.shutdown = ch
}

// Shutdown asks main to stop the server
func (h *Handlers) Shutdown(w http.ResponseWriter, r *http.Request) {
	if h.shutdown == nil {
		http.Error(w, "Shutdown not available", http.StatusNotImplemented)
		return
	}

	slog.Info("shutdown requested from browser")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(`<p>VMSG Viewer has stopped. You can close this tab.</p>`))

	select {
	case h.shutdown <- syscall.SIGTERM:
	default:
		// A shutdown is already pending
	}
}
