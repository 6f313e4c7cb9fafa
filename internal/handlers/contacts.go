package handlers

import (
	"log/slog"
	"net/http"

	"github.com/felo/vmsg-viewer/internal/db"
	"github.com/felo/vmsg-viewer/internal/parser"
)

// ContactView is a contact row with the name to show for it
type ContactView struct {
	*db.Contact
	Name string
}

// Contacts lists every indexed contact in collation order
func (h *Handlers) Contacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.db.ListContacts()
	if err != nil {
		slog.Error("failed to list contacts", "error", err)
		http.Error(w, "Failed to load contacts", http.StatusInternalServerError)
		return
	}

	views := make([]ContactView, len(contacts))
	keys := make([]string, len(contacts))
	for i, c := range contacts {
		pc := parser.Contact{FormattedName: c.FormattedName, SortString: c.SortString, Tel: c.Tel}
		views[i] = ContactView{Contact: c, Name: displayName(pc)}
		keys[i] = parser.ContactSortKey(pc)
	}
	sortByKey(h.collator(), views, keys)

	data := map[string]interface{}{
		"PageTitle": "Contacts - VMSG Viewer",
		"Contacts":  views,
	}

	h.render(w, "contacts.html", data)
}
