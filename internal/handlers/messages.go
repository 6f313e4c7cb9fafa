package handlers

import (
	"log/slog"
	"net/http"
	"sort"

	"github.com/felo/vmsg-viewer/internal/db"
	"github.com/felo/vmsg-viewer/internal/parser"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// PartnerView is a partner row with the name to show for it
type PartnerView struct {
	*db.Partner
	Name string
}

// Partners lists everyone a message file has messages with, in contact
// order
func (h *Handlers) Partners(w http.ResponseWriter, r *http.Request) {
	f := h.fileParam(w, r)
	if f == nil {
		return
	}
	if f.Kind != db.KindMessages {
		http.Error(w, "Not a message file", http.StatusNotFound)
		return
	}

	partners, err := h.db.ListPartners(f.ID)
	if err != nil {
		slog.Error("failed to list partners", "file", f.FilePath, "error", err)
		http.Error(w, "Failed to load partners", http.StatusInternalServerError)
		return
	}

	views := make([]PartnerView, len(partners))
	keys := make([]string, len(partners))
	for i, p := range partners {
		c := parser.Contact{FormattedName: p.FormattedName, SortString: p.SortString, Tel: p.Tel}
		views[i] = PartnerView{Partner: p, Name: displayName(c)}
		keys[i] = parser.ContactSortKey(c)
	}
	sortByKey(h.collator(), views, keys)

	data := map[string]interface{}{
		"PageTitle": f.Name() + " - VMSG Viewer",
		"File":      f,
		"Partners":  views,
	}

	h.render(w, "messages.html", data)
}

// collator orders names for the configured language. A Collator is not
// safe for concurrent use, so every request builds its own.
func (h *Handlers) collator() *collate.Collator {
	tag := language.Und
	if h.cfg != nil {
		tag = h.cfg.Language
	}
	return collate.New(tag)
}

// sortByKey sorts items by the matching entries of keys
func sortByKey[T any](c *collate.Collator, items []T, keys []string) {
	sort.Sort(&keyed[T]{c: c, items: items, keys: keys})
}

type keyed[T any] struct {
	c     *collate.Collator
	items []T
	keys  []string
}

func (k *keyed[T]) Len() int { return len(k.items) }

func (k *keyed[T]) Less(i, j int) bool {
	return k.c.CompareString(k.keys[i], k.keys[j]) < 0
}

func (k *keyed[T]) Swap(i, j int) {
	k.items[i], k.items[j] = k.items[j], k.items[i]
	k.keys[i], k.keys[j] = k.keys[j], k.keys[i]
}

// displayName is the contact's name, or its number when it has none
func displayName(c parser.Contact) string {
	if c.FormattedName != "" {
		return c.FormattedName
	}
	return c.Tel
}
