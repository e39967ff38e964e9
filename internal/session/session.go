// Package session owns the Working Document: the single in-memory document
// being edited, plus the identity its next save will target.
//
// A Session is never persisted piecemeal. The repository snapshots it whole
// on save. Preference fields (sender identity, theme, currency, payment
// defaults) are mirrored into the settings store as they are edited.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/roach88/quickbill/internal/calc"
	"github.com/roach88/quickbill/internal/clock"
	"github.com/roach88/quickbill/internal/model"
	"github.com/roach88/quickbill/internal/settings"
)

// DefaultDueDays is the default offset from issue date to due date.
const DefaultDueDays = 30

// Session is one edit session. It is owned by a single caller and is not
// safe for concurrent use.
type Session struct {
	id        string
	doc       model.Document
	editingID int64

	prefs   *settings.Store
	clock   clock.Clock
	dueDays int
}

// Option configures a Session.
type Option func(*Session)

// WithDueDays overrides the due-date offset.
func WithDueDays(days int) Option {
	return func(s *Session) { s.dueDays = days }
}

// WithID pins the session id. Used when a draft file is resumed.
func WithID(id string) Option {
	return func(s *Session) { s.id = id }
}

// New starts a session holding a blank invoice built from the current settings.
func New(prefs *settings.Store, clk clock.Clock, opts ...Option) *Session {
	s := &Session{
		prefs:   prefs,
		clock:   clk,
		dueDays: DefaultDueDays,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.id == "" {
		s.id = uuid.Must(uuid.NewV7()).String()
	}
	s.Reset(model.TypeInvoice)
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Document returns a snapshot of the Working Document. Mutating the
// snapshot does not affect the session.
func (s *Session) Document() model.Document {
	return s.doc.Clone()
}

// EditingID returns the id the next save will overwrite, or 0 for an insert.
func (s *Session) EditingID() int64 { return s.editingID }

// Totals derives the live totals of the Working Document.
func (s *Session) Totals() calc.Totals {
	return calc.DocumentTotals(s.doc)
}

// Settings returns the settings store backing this session.
func (s *Session) Settings() *settings.Store { return s.prefs }

// Now returns the session clock's current time.
func (s *Session) Now() time.Time { return s.clock.Now() }

// Reset discards the Working Document and starts a blank one of type t.
// Sender, theme and payment fields come from settings.
func (s *Session) Reset(t model.DocType) {
	if !t.Valid() {
		t = model.TypeInvoice
	}
	st := s.prefs.Current()
	issue, due := s.DefaultDates()

	s.editingID = 0
	s.doc = model.Document{
		Type:           t,
		Status:         model.StatusDraft,
		Template:       st.Template,
		AccentColor:    st.AccentColor,
		Currency:       st.Currency,
		Sender:         st.Sender,
		InvoiceNumber:  s.prefs.PreviewNumber(t),
		InvoiceDate:    issue,
		DueDate:        due,
		Items:          []model.LineItem{model.BlankItem()},
		Logo:           st.Logo,
		PaymentDetails: st.PaymentDetails,
	}
}

// SetDocType switches the document series and previews that series' number.
func (s *Session) SetDocType(t model.DocType) {
	s.doc.Type = t
	s.doc.InvoiceNumber = s.prefs.PreviewNumber(t)
}

// DefaultDates returns today and today plus the due offset, as YYYY-MM-DD.
func (s *Session) DefaultDates() (issue, due string) {
	now := s.clock.Now()
	return now.Format(model.DateLayout), now.AddDate(0, 0, s.dueDays).Format(model.DateLayout)
}

// Load replaces the Working Document. editingID 0 makes the next save an insert.
// The document's items are deep-copied; an empty list becomes one blank item.
func (s *Session) Load(doc model.Document, editingID int64) {
	doc.ID = 0
	doc.Items = model.CloneItems(doc.Items)
	s.doc = doc
	s.editingID = editingID
}

// MarkSaved records the identity assigned by the store and the values
// stamped at save time.
func (s *Session) MarkSaved(saved model.Document) {
	s.editingID = saved.ID
	s.doc.InvoiceNumber = saved.InvoiceNumber
	s.doc.Total = saved.Total
	s.doc.SavedAt = saved.SavedAt
}
