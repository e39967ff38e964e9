package repo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"

	"github.com/roach88/quickbill/internal/apperr"
	"github.com/roach88/quickbill/internal/calc"
	"github.com/roach88/quickbill/internal/model"
	"github.com/roach88/quickbill/internal/prompt"
	"github.com/roach88/quickbill/internal/session"
	"github.com/roach88/quickbill/internal/store"
)

// DocumentStore is the storage the document repository needs.
type DocumentStore interface {
	PutDocument(ctx context.Context, doc model.Document) (int64, error)
	GetDocument(ctx context.Context, id int64) (model.Document, error)
	ListDocuments(ctx context.Context) ([]model.Document, error)
	ListDocumentsBy(ctx context.Context, idx store.Index, value string) ([]model.Document, error)
	DeleteDocument(ctx context.Context, id int64) error
}

// Documents operates on saved invoices and estimates.
type Documents struct {
	store    DocumentStore
	contacts *Contacts
	log      zerolog.Logger
}

// NewDocuments creates a document repository. contacts receives the
// optional contact upsert on save.
func NewDocuments(s DocumentStore, contacts *Contacts, log zerolog.Logger) *Documents {
	return &Documents{store: s, contacts: contacts, log: log}
}

// SaveOptions controls the side effects of Save.
type SaveOptions struct {
	// SaveContact upserts the client as a contact when the client name is set.
	SaveContact bool
}

// Save persists the session's Working Document.
//
// The document is stamped with the current time and its computed total,
// then written under the session's editing id (insert when zero). On success
// the session adopts the assigned id, the client is optionally upserted as a
// contact, and the counter for the document's series advances by one.
// Every save advances the counter, updates included. When the document write
// fails the session is left as it was.
func (r *Documents) Save(ctx context.Context, s *session.Session, opts SaveOptions) (model.Document, error) {
	doc := copyDocument(s.Document())
	if !doc.Type.Valid() {
		return model.Document{}, apperr.ConstraintViolation("save document", fmt.Sprintf("unknown document type %q", doc.Type))
	}
	if !doc.Status.Valid() {
		return model.Document{}, apperr.ConstraintViolation("save document", fmt.Sprintf("unknown status %q", doc.Status))
	}

	var contact *model.Contact
	if opts.SaveContact && strings.TrimSpace(doc.ClientName) != "" {
		contact = &model.Contact{Name: doc.ClientName, Email: doc.ClientEmail, Address: doc.ClientAddress}
		if err := r.contacts.Validate(*contact); err != nil {
			return model.Document{}, err
		}
	}

	doc.ID = s.EditingID()
	if doc.ID == 0 {
		doc.InvoiceNumber = claimNumber(s, doc)
	}
	doc.SavedAt = model.FormatTimestamp(s.Now())
	doc.Total = calc.DocumentTotals(doc).Total

	id, err := r.store.PutDocument(ctx, doc)
	if err != nil {
		return model.Document{}, err
	}
	doc.ID = id
	s.MarkSaved(doc)

	// the document is stored; its counter advances even when the contact
	// upsert fails
	var contactErr error
	if contact != nil {
		if _, err := r.contacts.UpsertByName(ctx, *contact); err != nil {
			contactErr = fmt.Errorf("save client contact: %w", err)
		}
	}

	if err := s.Settings().Advance(ctx, doc.Type); err != nil {
		return doc, errors.Join(contactErr, err)
	}
	if contactErr != nil {
		return doc, contactErr
	}

	r.log.Info().
		Int64("id", doc.ID).
		Str("number", doc.InvoiceNumber).
		Str("session", s.ID()).
		Msg("document saved")
	return doc, nil
}

// claimNumber returns the number an inserted document is stored under. A
// previewed number that a save elsewhere has already used since the preview
// is replaced by the live counter's next number. Hand-edited numbers are kept.
func claimNumber(s *session.Session, doc model.Document) string {
	n, ok := model.ParseNumber(doc.Type, doc.InvoiceNumber)
	if !ok || n >= s.Settings().Current().Counter(doc.Type) {
		return doc.InvoiceNumber
	}
	return s.Settings().PreviewNumber(doc.Type)
}

// Filter narrows List. Empty fields and "all" match everything.
type Filter struct {
	// Type is "invoice", "estimate" or "all". "invoice" matches every
	// document that is not an estimate.
	Type string
	// Status is "draft", "sent", "paid" or "all". A status filter only
	// matches invoices.
	Status string
	// Search is a case-insensitive substring of the number, client name
	// or client email.
	Search string
	// Client restricts to one client name, compared case-insensitively.
	Client string
}

func (f Filter) validate() error {
	const op = "list documents"
	switch f.Type {
	case "", "all", string(model.TypeInvoice), string(model.TypeEstimate):
	default:
		return apperr.ConstraintViolation(op, fmt.Sprintf("unknown type filter %q", f.Type))
	}
	switch f.Status {
	case "", "all":
	default:
		if !model.Status(f.Status).Valid() {
			return apperr.ConstraintViolation(op, fmt.Sprintf("unknown status filter %q", f.Status))
		}
	}
	return nil
}

func (f Filter) match(d model.Document, needle string) bool {
	switch f.Type {
	case string(model.TypeInvoice):
		if d.IsEstimate() {
			return false
		}
	case string(model.TypeEstimate):
		if !d.IsEstimate() {
			return false
		}
	}

	if f.Status != "" && f.Status != "all" {
		if d.IsEstimate() || string(d.Status) != f.Status {
			return false
		}
	}

	if needle == "" {
		return true
	}
	fold := cases.Fold()
	for _, field := range []string{d.InvoiceNumber, d.ClientName, d.ClientEmail} {
		if strings.Contains(fold.String(field), needle) {
			return true
		}
	}
	return false
}

// List returns the documents matching f, most recently saved first.
// Documents without a save timestamp sort last.
func (r *Documents) List(ctx context.Context, f Filter) ([]model.Document, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}

	var (
		docs []model.Document
		err  error
	)
	if f.Client != "" {
		docs, err = r.store.ListDocumentsBy(ctx, store.IndexClientName, f.Client)
	} else {
		docs, err = r.store.ListDocuments(ctx)
	}
	if err != nil {
		return nil, err
	}

	needle := cases.Fold().String(strings.TrimSpace(f.Search))
	out := make([]model.Document, 0, len(docs))
	for _, d := range docs {
		if f.match(d, needle) {
			out = append(out, d)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SavedTime().After(out[j].SavedTime())
	})
	return out, nil
}

// LoadForEdit makes the stored document id the session's Working Document.
// The next save overwrites id.
func (r *Documents) LoadForEdit(ctx context.Context, s *session.Session, id int64) error {
	doc, err := r.store.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	s.Load(normalize(copyDocument(doc)), id)
	r.log.Debug().Int64("id", id).Str("session", s.ID()).Msg("document loaded for edit")
	return nil
}

// Duplicate starts a new unsaved document from a copy of id. The copy gets
// fresh dates, a previewed number for its series and draft status.
func (r *Documents) Duplicate(ctx context.Context, s *session.Session, id int64) error {
	doc, err := r.store.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	r.startCopy(s, normalize(doc))
	r.log.Debug().Int64("source", id).Str("session", s.ID()).Msg("document duplicated")
	return nil
}

// ConvertToInvoice starts a new unsaved invoice from the estimate id.
// The estimate itself is left untouched.
func (r *Documents) ConvertToInvoice(ctx context.Context, s *session.Session, id int64) error {
	doc, err := r.store.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	if !doc.IsEstimate() {
		return apperr.ConstraintViolation("convert to invoice",
			fmt.Sprintf("document %d is not an estimate", id))
	}
	doc.Type = model.TypeInvoice
	r.startCopy(s, doc)
	r.log.Debug().Int64("source", id).Str("session", s.ID()).Msg("estimate converted")
	return nil
}

func (r *Documents) startCopy(s *session.Session, src model.Document) {
	doc := copyDocument(src)
	doc.InvoiceDate, doc.DueDate = s.DefaultDates()
	doc.InvoiceNumber = s.Settings().PreviewNumber(doc.Type)
	doc.Status = model.StatusDraft
	doc.Total = 0
	doc.SavedAt = ""
	s.Load(doc, 0)
}

// Delete removes document id after the confirmer approves. A declined
// confirmation returns false without touching the store. A missing id is
// NotFound.
func (r *Documents) Delete(ctx context.Context, id int64, confirm prompt.Confirmer) (bool, error) {
	ok, err := confirm.Confirm(ctx, "Delete Document",
		"Are you sure you want to delete this document? This action cannot be undone.")
	if err != nil || !ok {
		return false, err
	}
	if _, err := r.store.GetDocument(ctx, id); err != nil {
		return false, err
	}
	if err := r.store.DeleteDocument(ctx, id); err != nil {
		return false, err
	}
	r.log.Info().Int64("id", id).Msg("document deleted")
	return true, nil
}

// Stats summarizes the saved documents.
type Stats struct {
	Total   int     `json:"total"`
	Paid    int     `json:"paid"`
	Pending int     `json:"pending"`
	Revenue float64 `json:"revenue"`
}

// Stats counts all documents, paid and unpaid invoices, and sums the totals
// of paid invoices.
func (r *Documents) Stats(ctx context.Context) (Stats, error) {
	docs, err := r.store.ListDocuments(ctx)
	if err != nil {
		return Stats{}, err
	}

	var st Stats
	st.Total = len(docs)
	for _, d := range docs {
		if d.IsEstimate() {
			continue
		}
		if d.Status == model.StatusPaid {
			st.Paid++
			st.Revenue += d.Total
		} else {
			st.Pending++
		}
	}
	return st, nil
}

// normalize fills in type and status for records written without them.
func normalize(d model.Document) model.Document {
	if !d.Type.Valid() {
		d.Type = model.TypeInvoice
	}
	if !d.Status.Valid() {
		d.Status = model.StatusDraft
	}
	return d
}

// copyDocument builds a Working Document from a stored one field by field,
// so adding a field to model.Document forces a decision here.
func copyDocument(src model.Document) model.Document {
	return model.Document{
		ID:     src.ID,
		Type:   src.Type,
		Status: src.Status,

		Template:    src.Template,
		AccentColor: src.AccentColor,
		Currency:    src.Currency,

		Sender: model.Sender{
			SenderName:    src.SenderName,
			SenderEmail:   src.SenderEmail,
			SenderPhone:   src.SenderPhone,
			SenderWebsite: src.SenderWebsite,
			SenderAddress: src.SenderAddress,
		},
		ClientName:    src.ClientName,
		ClientEmail:   src.ClientEmail,
		ClientAddress: src.ClientAddress,

		InvoiceNumber: src.InvoiceNumber,
		InvoiceDate:   src.InvoiceDate,
		DueDate:       src.DueDate,

		Items:        model.CloneItems(src.Items),
		TaxRate:      src.TaxRate,
		DiscountRate: src.DiscountRate,
		Total:        src.Total,

		Notes:     src.Notes,
		Logo:      src.Logo,
		Signature: src.Signature,

		PaymentDetails: model.PaymentDetails{
			PaymentBankName:      src.PaymentBankName,
			PaymentAccountName:   src.PaymentAccountName,
			PaymentAccountNumber: src.PaymentAccountNumber,
			PaymentRouting:       src.PaymentRouting,
			PaymentUpi:           src.PaymentUpi,
			ShowPayment:          src.ShowPayment,
		},

		SavedAt: src.SavedAt,
	}
}
