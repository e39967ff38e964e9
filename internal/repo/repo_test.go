package repo

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/roach88/quickbill/internal/model"
	"github.com/roach88/quickbill/internal/session"
	"github.com/roach88/quickbill/internal/settings"
	"github.com/roach88/quickbill/internal/store"
	"github.com/roach88/quickbill/internal/testutil"
)

var today = time.Date(2025, 1, 15, 9, 30, 0, 0, time.UTC)

type fixture struct {
	store    *store.Store
	prefs    *settings.Store
	clock    *testutil.ManualClock
	docs     *Documents
	contacts *Contacts
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	prefs := settings.New(st, time.Hour, zerolog.Nop())
	require.NoError(t, prefs.Load(context.Background()))
	t.Cleanup(prefs.Cancel)

	contacts := NewContacts(st, zerolog.Nop())
	return &fixture{
		store:    st,
		prefs:    prefs,
		clock:    testutil.NewManualClock(today),
		docs:     NewDocuments(st, contacts, zerolog.Nop()),
		contacts: contacts,
	}
}

func (f *fixture) session() *session.Session {
	return session.New(f.prefs, f.clock)
}

// put stores doc directly, bypassing the session and counters.
func (f *fixture) put(t *testing.T, doc model.Document) int64 {
	t.Helper()
	id, err := f.store.PutDocument(context.Background(), doc)
	require.NoError(t, err)
	return id
}

func storedDoc(number string, typ model.DocType, status model.Status, savedAt string) model.Document {
	return model.Document{
		Type:          typ,
		Status:        status,
		Currency:      "$",
		ClientName:    "Acme Corp",
		ClientEmail:   "billing@acme.test",
		InvoiceNumber: number,
		InvoiceDate:   "2025-01-01",
		DueDate:       "2025-01-31",
		Items:         []model.LineItem{{Desc: "Design", Qty: 2, Rate: 50}},
		Total:         100,
		SavedAt:       savedAt,
	}
}
