package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/roach88/quickbill/internal/apperr"
	"github.com/roach88/quickbill/internal/model"
)

// PutSettings replaces the settings record. The key is forced to
// model.SettingsKey so there is only ever one record.
func (s *Store) PutSettings(ctx context.Context, st model.Settings) error {
	const op = "put " + TableSettings

	st.Key = model.SettingsKey
	data, err := marshalRecord(st)
	if err != nil {
		return apperr.StorageFailure(op, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settings (key, data) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data
	`, st.Key, data)
	if err != nil {
		return apperr.StorageFailure(op, err)
	}
	s.log.Debug().Str("table", TableSettings).Msg("written")
	return nil
}

// GetSettings reads the settings record.
// Returns an apperr NOT_FOUND error before the first write.
func (s *Store) GetSettings(ctx context.Context) (model.Settings, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM settings WHERE key = ?`, model.SettingsKey).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Settings{}, apperr.NotFound(TableSettings, model.SettingsKey)
	}
	if err != nil {
		return model.Settings{}, apperr.StorageFailure("get "+TableSettings, err)
	}

	// Fields missing from older records keep their defaults
	st := model.DefaultSettings()
	if err := unmarshalRecord(data, &st); err != nil {
		return model.Settings{}, apperr.StorageFailure("get "+TableSettings, err)
	}
	st.Key = model.SettingsKey
	return st, nil
}
