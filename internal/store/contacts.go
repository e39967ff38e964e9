package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/quickbill/internal/apperr"
	"github.com/roach88/quickbill/internal/model"
)

// PutContact inserts c when c.ID is zero, otherwise overwrites the record
// under c.ID. Returns the record's id.
func (s *Store) PutContact(ctx context.Context, c model.Contact) (int64, error) {
	const op = "put " + TableContacts

	id := c.ID
	c.ID = 0
	data, err := marshalRecord(c)
	if err != nil {
		return 0, apperr.StorageFailure(op, err)
	}

	if id == 0 {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO contacts (name, data) VALUES (?, ?)`, c.Name, data)
		if err != nil {
			return 0, apperr.StorageFailure(op, err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return 0, apperr.StorageFailure(op, fmt.Errorf("last insert id: %w", err))
		}
		s.log.Debug().Str("table", TableContacts).Int64("id", id).Msg("inserted")
		return id, nil
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO contacts (id, name, data) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, data = excluded.data
	`, id, c.Name, data)
	if err != nil {
		return 0, apperr.StorageFailure(op, err)
	}
	s.log.Debug().Str("table", TableContacts).Int64("id", id).Msg("overwritten")
	return id, nil
}

// GetContact retrieves a contact by id.
// Returns an apperr NOT_FOUND error if no such contact exists.
func (s *Store) GetContact(ctx context.Context, id int64) (model.Contact, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM contacts WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Contact{}, apperr.NotFound(TableContacts, id)
	}
	if err != nil {
		return model.Contact{}, apperr.StorageFailure("get "+TableContacts, err)
	}

	var c model.Contact
	if err := unmarshalRecord(data, &c); err != nil {
		return model.Contact{}, apperr.StorageFailure("get "+TableContacts, err)
	}
	c.ID = id
	return c, nil
}

// ListContacts returns every contact ordered by id ascending.
func (s *Store) ListContacts(ctx context.Context) ([]model.Contact, error) {
	return queryRecords(ctx, s.db, "list "+TableContacts,
		`SELECT id, data FROM contacts ORDER BY id ASC`, nil,
		func(c *model.Contact, id int64) { c.ID = id })
}

// DeleteContact removes the contact with the given id.
func (s *Store) DeleteContact(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id); err != nil {
		return apperr.StorageFailure("delete "+TableContacts, err)
	}
	s.log.Debug().Str("table", TableContacts).Int64("id", id).Msg("deleted")
	return nil
}
