package backup

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/quickbill/internal/apperr"
	"github.com/roach88/quickbill/internal/model"
	"github.com/roach88/quickbill/internal/settings"
	"github.com/roach88/quickbill/internal/store"
	"github.com/roach88/quickbill/internal/testutil"
)

var exportTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *store.Store, *settings.Store) {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	prefs := settings.New(st, time.Hour, zerolog.Nop())
	require.NoError(t, prefs.Load(context.Background()))
	t.Cleanup(prefs.Cancel)

	return NewService(st, prefs, testutil.NewManualClock(exportTime), zerolog.Nop()), st, prefs
}

func sampleDocument(number string) model.Document {
	return model.Document{
		Type:          model.TypeInvoice,
		Status:        model.StatusSent,
		Template:      "modern",
		AccentColor:   "#6c63ff",
		Currency:      "$",
		Sender:        model.Sender{SenderName: "Studio"},
		ClientName:    "Acme Corp",
		ClientEmail:   "billing@acme.test",
		InvoiceNumber: number,
		InvoiceDate:   "2025-02-01",
		DueDate:       "2025-03-03",
		Items:         []model.LineItem{{Desc: "Consulting", Qty: 2, Rate: 120}},
		TaxRate:       10,
		Total:         264,
		Notes:         "Thanks",
		PaymentDetails: model.PaymentDetails{
			ShowPayment: true,
		},
		SavedAt: "2025-02-01T10:00:00.000Z",
	}
}

func TestExport_Golden(t *testing.T) {
	svc, st, prefs := newTestService(t)
	ctx := context.Background()

	_, err := st.PutDocument(ctx, sampleDocument("INV-001"))
	require.NoError(t, err)
	_, err = st.PutContact(ctx, model.Contact{Name: "Acme Corp", Email: "billing@acme.test"})
	require.NoError(t, err)
	prefs.Update(func(s *model.Settings) {
		s.SenderName = "Studio"
		s.NextInvoiceNum = 2
	})

	b, err := svc.Export(ctx)
	require.NoError(t, err)
	assert.False(t, prefs.Pending(), "export flushes pending settings")

	var buf bytes.Buffer
	_, err = b.WriteTo(&buf)
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "export", buf.Bytes())
}

func TestExport_EmptyStore(t *testing.T) {
	svc, _, _ := newTestService(t)

	b, err := svc.Export(context.Background())
	require.NoError(t, err)

	assert.Equal(t, model.BackupVersion, b.Version)
	assert.Equal(t, "2025-03-01T12:00:00.000Z", b.ExportedAt)
	assert.NotNil(t, b.Documents)
	assert.Empty(t, b.Documents)
	assert.Nil(t, b.Settings)

	var buf bytes.Buffer
	_, err = b.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"documents": []`)
	assert.NotContains(t, buf.String(), `"settings"`)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "quickbill-backup-2025-03-01.json", FileName(exportTime))
}

func TestImport_MintsNewIDs(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	existingID, err := st.PutDocument(ctx, sampleDocument("INV-001"))
	require.NoError(t, err)

	payload := `{
		"version": 4,
		"documents": [
			{"id": 1, "type": "invoice", "invoiceNumber": "INV-010", "items": []},
			{"id": 2, "type": "estimate", "invoiceNumber": "EST-004", "items": []},
			{"id": 1, "type": "invoice", "invoiceNumber": "INV-011", "items": []}
		],
		"contacts": [
			{"id": 1, "name": "Acme Corp"},
			{"id": 9, "name": "Globex"}
		]
	}`

	res, err := svc.Import(ctx, strings.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, Result{Documents: 3, Contacts: 2}, res)

	docs, err := st.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 4)

	seen := map[int64]bool{}
	for _, d := range docs {
		assert.False(t, seen[d.ID], "duplicate id %d", d.ID)
		seen[d.ID] = true
	}
	assert.Equal(t, existingID, docs[0].ID)
	assert.Equal(t, "INV-001", docs[0].InvoiceNumber, "existing record untouched")
	for _, d := range docs[1:] {
		assert.NotEqual(t, existingID, d.ID)
	}

	contacts, err := st.ListContacts(ctx)
	require.NoError(t, err)
	assert.Len(t, contacts, 2)
}

func TestImport_LegacyKeys(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	f, err := os.Open(filepath.Join("testdata", "legacy-v3.json"))
	require.NoError(t, err)
	defer f.Close()

	res, err := svc.Import(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, Result{Documents: 1, Contacts: 1}, res)

	docs, err := st.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "INV-007", docs[0].InvoiceNumber)
	assert.Equal(t, model.StatusPaid, docs[0].Status)
	assert.Equal(t, []model.LineItem{{Desc: "Retainer", Qty: 1, Rate: 500}}, docs[0].Items)
}

func TestImport_ReplacesSettings(t *testing.T) {
	svc, st, prefs := newTestService(t)
	ctx := context.Background()

	prefs.Update(func(s *model.Settings) { s.SenderName = "Local edit" })

	payload := `{
		"contacts": [],
		"settings": {"key": "other", "senderName": "Imported", "nextInvoiceNum": 42}
	}`
	res, err := svc.Import(ctx, strings.NewReader(payload))
	require.NoError(t, err)
	assert.True(t, res.SettingsReplaced)

	cur := prefs.Current()
	assert.Equal(t, "Imported", cur.SenderName)
	assert.Equal(t, 42, cur.NextInvoiceNum)
	assert.Equal(t, 1, cur.NextEstimateNum, "missing fields take defaults")
	assert.Equal(t, model.SettingsKey, cur.Key)
	assert.False(t, prefs.Pending(), "pending local edit is discarded")

	stored, err := st.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Imported", stored.SenderName)
}

func TestImport_Invalid(t *testing.T) {
	cases := map[string]string{
		"no collections": `{"version": 4, "settings": {"senderName": "x"}}`,
		"null lists":     `{"documents": null, "contacts": null}`,
		"not json":       `quickbill`,
		"array":          `[{"id": 1}]`,
		"bad settings":   `{"documents": [], "settings": "nope"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			svc, st, prefs := newTestService(t)
			ctx := context.Background()

			_, err := svc.Import(ctx, strings.NewReader(body))
			require.Error(t, err)
			assert.True(t, apperr.IsInvalidBackup(err), "got %v", err)

			docs, err := st.ListDocuments(ctx)
			require.NoError(t, err)
			assert.Empty(t, docs)
			assert.Equal(t, "", prefs.Current().SenderName)
		})
	}
}

// contactFaultStore fails every contact put after the first okContacts.
type contactFaultStore struct {
	*store.Store
	okContacts int
	puts       int
}

func (s *contactFaultStore) PutContact(ctx context.Context, c model.Contact) (int64, error) {
	s.puts++
	if s.puts > s.okContacts {
		return 0, apperr.StorageFailure("put "+store.TableContacts, errors.New("disk full"))
	}
	return s.Store.PutContact(ctx, c)
}

func TestImport_FailureKeepsEarlierRecords(t *testing.T) {
	_, st, prefs := newTestService(t)
	ctx := context.Background()
	svc := NewService(&contactFaultStore{Store: st, okContacts: 1}, prefs,
		testutil.NewManualClock(exportTime), zerolog.Nop())

	payload := `{
		"documents": [
			{"type": "invoice", "invoiceNumber": "INV-010", "items": []},
			{"type": "estimate", "invoiceNumber": "EST-004", "items": []}
		],
		"contacts": [
			{"name": "Acme Corp"},
			{"name": "Globex"},
			{"name": "Initech"}
		],
		"settings": {"senderName": "Imported", "nextInvoiceNum": 11}
	}`

	res, err := svc.Import(ctx, strings.NewReader(payload))
	require.Error(t, err)
	assert.True(t, apperr.IsStorageFailure(err))
	assert.Equal(t, Result{Documents: 2, Contacts: 1}, res)

	docs, err := st.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	contacts, err := st.ListContacts(ctx)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Acme Corp", contacts[0].Name)

	// the settings step is never reached
	assert.Equal(t, "", prefs.Current().SenderName)
	_, err = st.GetSettings(ctx)
	assert.True(t, apperr.IsNotFound(err))
}
