package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/quickbill/internal/apperr"
	"github.com/roach88/quickbill/internal/model"
)

// Index names a secondary lookup on the documents table.
type Index string

const (
	IndexStatus     Index = "status"
	IndexType       Index = "type"
	IndexClientName Index = "client_name"
)

// PutDocument inserts doc when doc.ID is zero and returns the new id.
// When doc.ID is set the stored record under that id is replaced in full
// (or created with that id if absent) and doc.ID is returned.
func (s *Store) PutDocument(ctx context.Context, doc model.Document) (int64, error) {
	const op = "put " + TableDocuments

	id := doc.ID
	doc.ID = 0 // id lives in its own column
	data, err := marshalRecord(doc)
	if err != nil {
		return 0, apperr.StorageFailure(op, err)
	}

	if id == 0 {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO documents (type, status, client_name, data)
			VALUES (?, ?, ?, ?)
		`, string(doc.Type), string(doc.Status), doc.ClientName, data)
		if err != nil {
			return 0, apperr.StorageFailure(op, err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return 0, apperr.StorageFailure(op, fmt.Errorf("last insert id: %w", err))
		}
		s.log.Debug().Str("table", TableDocuments).Int64("id", id).Msg("inserted")
		return id, nil
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (id, type, status, client_name, data)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type,
			status = excluded.status,
			client_name = excluded.client_name,
			data = excluded.data
	`, id, string(doc.Type), string(doc.Status), doc.ClientName, data)
	if err != nil {
		return 0, apperr.StorageFailure(op, err)
	}
	s.log.Debug().Str("table", TableDocuments).Int64("id", id).Msg("overwritten")
	return id, nil
}

// GetDocument retrieves a single document by id.
// Returns an apperr NOT_FOUND error if no such document exists.
func (s *Store) GetDocument(ctx context.Context, id int64) (model.Document, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM documents WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Document{}, apperr.NotFound(TableDocuments, id)
	}
	if err != nil {
		return model.Document{}, apperr.StorageFailure("get "+TableDocuments, err)
	}

	var doc model.Document
	if err := unmarshalRecord(data, &doc); err != nil {
		return model.Document{}, apperr.StorageFailure("get "+TableDocuments, err)
	}
	doc.ID = id
	return doc, nil
}

// ListDocuments returns every document ordered by id ascending.
func (s *Store) ListDocuments(ctx context.Context) ([]model.Document, error) {
	return queryRecords(ctx, s.db, "list "+TableDocuments,
		`SELECT id, data FROM documents ORDER BY id ASC`, nil,
		func(d *model.Document, id int64) { d.ID = id })
}

// ListDocumentsBy returns documents whose indexed column equals value,
// ordered by id ascending. Client names compare case-insensitively.
func (s *Store) ListDocumentsBy(ctx context.Context, idx Index, value string) ([]model.Document, error) {
	var query string
	switch idx {
	case IndexStatus:
		query = `SELECT id, data FROM documents WHERE status = ? ORDER BY id ASC`
	case IndexType:
		query = `SELECT id, data FROM documents WHERE type = ? ORDER BY id ASC`
	case IndexClientName:
		query = `SELECT id, data FROM documents WHERE client_name = ? COLLATE NOCASE ORDER BY id ASC`
	default:
		return nil, fmt.Errorf("unknown documents index %q", idx)
	}
	return queryRecords(ctx, s.db, "list "+TableDocuments+" by "+string(idx), query,
		[]any{value}, func(d *model.Document, id int64) { d.ID = id })
}

// DeleteDocument removes the document with the given id.
// Deleting an id that does not exist is not an error.
func (s *Store) DeleteDocument(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id); err != nil {
		return apperr.StorageFailure("delete "+TableDocuments, err)
	}
	s.log.Debug().Str("table", TableDocuments).Int64("id", id).Msg("deleted")
	return nil
}

// queryRecords runs a query returning (id, data) rows and decodes each row.
// Always returns a non-nil slice on success.
func queryRecords[T any](ctx context.Context, db *sql.DB, op, query string, args []any, setID func(*T, int64)) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.StorageFailure(op, err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		var (
			id   int64
			data string
		)
		if err := rows.Scan(&id, &data); err != nil {
			return nil, apperr.StorageFailure(op, fmt.Errorf("scan: %w", err))
		}
		var rec T
		if err := unmarshalRecord(data, &rec); err != nil {
			return nil, apperr.StorageFailure(op, err)
		}
		setID(&rec, id)
		out = append(out, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, apperr.StorageFailure(op, fmt.Errorf("iterate: %w", err))
	}

	return out, nil
}
