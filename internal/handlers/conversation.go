package handlers

import (
	"log/slog"
	"net/http"

	"github.com/felo/vmsg-viewer/internal/db"
	"github.com/felo/vmsg-viewer/internal/parser"
	"github.com/go-chi/chi/v5"
)

// MessageView is a conversation entry
type MessageView struct {
	*db.Message
	Received bool
}

// Conversation shows the SMS exchanged with one partner, oldest first
func (h *Handlers) Conversation(w http.ResponseWriter, r *http.Request) {
	f := h.fileParam(w, r)
	if f == nil {
		return
	}
	if f.Kind != db.KindMessages {
		http.Error(w, "Not a message file", http.StatusNotFound)
		return
	}

	tel := chi.URLParam(r, "tel")
	if tel == "" {
		http.Error(w, "Missing number", http.StatusBadRequest)
		return
	}

	msgs, err := h.db.ListConversation(f.ID, tel)
	if err != nil {
		slog.Error("failed to load conversation", "file", f.FilePath, "tel", tel, "error", err)
		http.Error(w, "Failed to load conversation", http.StatusInternalServerError)
		return
	}

	contact, err := h.db.FindContactByTel(tel)
	if err != nil {
		slog.Warn("failed to look up contact", "tel", tel, "error", err)
	}
	name := tel
	if contact != nil {
		name = displayName(parser.Contact{FormattedName: contact.FormattedName, Tel: tel})
	}

	views := make([]MessageView, len(msgs))
	for i, m := range msgs {
		views[i] = MessageView{Message: m, Received: m.Box == parser.BoxInbox}
	}

	data := map[string]interface{}{
		"PageTitle": name + " - VMSG Viewer",
		"File":      f,
		"Tel":       tel,
		"Name":      name,
		"Messages":  views,
	}

	h.render(w, "conversation.html", data)
}
