package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/text/cases"

	"github.com/roach88/quickbill/internal/apperr"
	"github.com/roach88/quickbill/internal/model"
	"github.com/roach88/quickbill/internal/prompt"
	"github.com/roach88/quickbill/internal/session"
)

// ContactStore is the storage the contact repository needs.
type ContactStore interface {
	PutContact(ctx context.Context, c model.Contact) (int64, error)
	GetContact(ctx context.Context, id int64) (model.Contact, error)
	ListContacts(ctx context.Context) ([]model.Contact, error)
	DeleteContact(ctx context.Context, id int64) error
}

// Contacts manages the address book. The contact name is a case-insensitive
// natural key; uniqueness is enforced here, not by the store.
type Contacts struct {
	store     ContactStore
	validator *validator.Validate
	log       zerolog.Logger
}

// NewContacts creates a contact repository.
func NewContacts(s ContactStore, log zerolog.Logger) *Contacts {
	return &Contacts{store: s, validator: validator.New(), log: log}
}

// UpsertByName overwrites the contact whose name matches c.Name under Unicode
// case folding, or inserts c when none does. The stored name takes c's
// spelling.
func (r *Contacts) UpsertByName(ctx context.Context, c model.Contact) (model.Contact, error) {
	c, err := r.check("upsert contact", c)
	if err != nil {
		return model.Contact{}, err
	}

	existing, err := r.store.ListContacts(ctx)
	if err != nil {
		return model.Contact{}, err
	}
	c.ID = 0
	key := foldName(c.Name)
	for _, e := range existing {
		if foldName(e.Name) == key {
			c.ID = e.ID
			break
		}
	}

	id, err := r.store.PutContact(ctx, c)
	if err != nil {
		return model.Contact{}, err
	}
	c.ID = id
	r.log.Info().Int64("id", id).Str("name", c.Name).Msg("contact saved")
	return c, nil
}

// Save writes c under c.ID, or inserts it when c.ID is zero.
func (r *Contacts) Save(ctx context.Context, c model.Contact) (model.Contact, error) {
	c, err := r.check("save contact", c)
	if err != nil {
		return model.Contact{}, err
	}
	id, err := r.store.PutContact(ctx, c)
	if err != nil {
		return model.Contact{}, err
	}
	c.ID = id
	r.log.Info().Int64("id", id).Str("name", c.Name).Msg("contact saved")
	return c, nil
}

// Get returns contact id.
func (r *Contacts) Get(ctx context.Context, id int64) (model.Contact, error) {
	return r.store.GetContact(ctx, id)
}

// Pick copies contact id's name, email and address into the session's
// Working Document.
func (r *Contacts) Pick(ctx context.Context, s *session.Session, id int64) error {
	c, err := r.store.GetContact(ctx, id)
	if err != nil {
		return err
	}
	s.ApplyContact(c)
	r.log.Debug().Int64("id", id).Str("session", s.ID()).Msg("contact picked")
	return nil
}

// List returns every contact.
func (r *Contacts) List(ctx context.Context) ([]model.Contact, error) {
	return r.store.ListContacts(ctx)
}

// Delete removes contact id after the confirmer approves. A missing id is
// NotFound.
func (r *Contacts) Delete(ctx context.Context, id int64, confirm prompt.Confirmer) (bool, error) {
	ok, err := confirm.Confirm(ctx, "Delete Client", "Are you sure you want to delete this client?")
	if err != nil || !ok {
		return false, err
	}
	if _, err := r.store.GetContact(ctx, id); err != nil {
		return false, err
	}
	if err := r.store.DeleteContact(ctx, id); err != nil {
		return false, err
	}
	r.log.Info().Int64("id", id).Msg("contact deleted")
	return true, nil
}

// Validate reports whether c could be saved.
func (r *Contacts) Validate(c model.Contact) error {
	_, err := r.check("validate contact", c)
	return err
}

// check trims c and validates it before any storage call.
func (r *Contacts) check(op string, c model.Contact) (model.Contact, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)

	err := r.validator.Struct(c)
	if err == nil {
		return c, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return c, fmt.Errorf("%s: %w", op, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return c, apperr.ConstraintViolation(op, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

func foldName(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}
