// Package backup exports all three tables as one versioned JSON document and
// imports such documents back.
//
// Import always mints new ids: records in the payload never overwrite
// existing records. It is not transactional; a failure part way leaves the
// records inserted so far in place.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/roach88/quickbill/internal/apperr"
	"github.com/roach88/quickbill/internal/clock"
	"github.com/roach88/quickbill/internal/model"
	"github.com/roach88/quickbill/internal/settings"
)

// Store is the storage a backup reads from and writes to.
type Store interface {
	ListDocuments(ctx context.Context) ([]model.Document, error)
	ListContacts(ctx context.Context) ([]model.Contact, error)
	GetSettings(ctx context.Context) (model.Settings, error)
	PutDocument(ctx context.Context, doc model.Document) (int64, error)
	PutContact(ctx context.Context, c model.Contact) (int64, error)
	PutSettings(ctx context.Context, st model.Settings) error
}

// Backup is the exported snapshot.
type Backup struct {
	Version    int              `json:"version"`
	ExportedAt string           `json:"exportedAt"`
	Documents  []model.Document `json:"documents"`
	Contacts   []model.Contact  `json:"contacts"`
	Settings   *model.Settings  `json:"settings,omitempty"`
}

// WriteTo writes b as indented JSON followed by a newline.
func (b Backup) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return 0, fmt.Errorf("encode backup: %w", err)
	}
	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// FileName is the default name for a backup exported at now.
func FileName(now time.Time) string {
	return "quickbill-backup-" + now.UTC().Format(model.DateLayout) + ".json"
}

// Result summarizes an import.
type Result struct {
	Documents        int  `json:"documents"`
	Contacts         int  `json:"contacts"`
	SettingsReplaced bool `json:"settingsReplaced"`
}

// Service runs exports and imports.
type Service struct {
	store Store
	prefs *settings.Store
	clock clock.Clock
	log   zerolog.Logger
}

// NewService creates a backup service. prefs is flushed before export and
// reloaded after an import that carries settings.
func NewService(st Store, prefs *settings.Store, clk clock.Clock, log zerolog.Logger) *Service {
	return &Service{store: st, prefs: prefs, clock: clk, log: log}
}

// Export reads every document, contact and the settings record.
// Settings are omitted when none were ever stored.
func (s *Service) Export(ctx context.Context) (Backup, error) {
	if err := s.prefs.Flush(ctx); err != nil {
		return Backup{}, err
	}

	docs, err := s.store.ListDocuments(ctx)
	if err != nil {
		return Backup{}, err
	}
	contacts, err := s.store.ListContacts(ctx)
	if err != nil {
		return Backup{}, err
	}

	b := Backup{
		Version:    model.BackupVersion,
		ExportedAt: model.FormatTimestamp(s.clock.Now()),
		Documents:  docs,
		Contacts:   contacts,
	}
	st, err := s.store.GetSettings(ctx)
	switch {
	case err == nil:
		b.Settings = &st
	case apperr.IsNotFound(err):
	default:
		return Backup{}, err
	}

	s.log.Info().
		Int("documents", len(docs)).
		Int("contacts", len(contacts)).
		Msg("backup exported")
	return b, nil
}

// payload is the accepted import shape. invoices and clients are the key
// names used by older exports.
type payload struct {
	Documents *[]model.Document `json:"documents"`
	Contacts  *[]model.Contact  `json:"contacts"`
	Invoices  *[]model.Document `json:"invoices"`
	Clients   *[]model.Contact  `json:"clients"`
	Settings  json.RawMessage   `json:"settings"`
}

func (p payload) documents() ([]model.Document, bool) {
	if p.Documents != nil {
		return *p.Documents, true
	}
	if p.Invoices != nil {
		return *p.Invoices, true
	}
	return nil, false
}

func (p payload) contacts() ([]model.Contact, bool) {
	if p.Contacts != nil {
		return *p.Contacts, true
	}
	if p.Clients != nil {
		return *p.Clients, true
	}
	return nil, false
}

// Import reads a backup from r and inserts its documents, then its contacts,
// as new records. A settings block replaces the stored settings, counters
// included, and reloads the in-memory mirror.
func (s *Service) Import(ctx context.Context, r io.Reader) (Result, error) {
	var p payload
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return Result{}, apperr.InvalidBackup("not a JSON backup object", err)
	}
	docs, hasDocs := p.documents()
	contacts, hasContacts := p.contacts()
	if !hasDocs && !hasContacts {
		return Result{}, apperr.InvalidBackup("no documents or contacts collection", nil)
	}

	var st *model.Settings
	if len(p.Settings) > 0 && !bytes.Equal(p.Settings, []byte("null")) {
		v := model.DefaultSettings()
		if err := json.Unmarshal(p.Settings, &v); err != nil {
			return Result{}, apperr.InvalidBackup("malformed settings block", err)
		}
		st = &v
	}

	var res Result
	for _, d := range docs {
		d.ID = 0
		if _, err := s.store.PutDocument(ctx, d); err != nil {
			return res, err
		}
		res.Documents++
	}
	for _, c := range contacts {
		c.ID = 0
		if _, err := s.store.PutContact(ctx, c); err != nil {
			return res, err
		}
		res.Contacts++
	}

	if st != nil {
		s.prefs.Cancel()
		if err := s.store.PutSettings(ctx, *st); err != nil {
			return res, err
		}
		if err := s.prefs.Load(ctx); err != nil {
			return res, err
		}
		res.SettingsReplaced = true
	}

	s.log.Info().
		Int("documents", res.Documents).
		Int("contacts", res.Contacts).
		Bool("settings", res.SettingsReplaced).
		Msg("backup imported")
	return res, nil
}
