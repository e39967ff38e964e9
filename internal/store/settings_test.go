package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/quickbill/internal/apperr"
	"github.com/roach88/quickbill/internal/model"
)

func TestSettings_AbsentBeforeFirstWrite(t *testing.T) {
	s := createTestStore(t)

	_, err := s.GetSettings(context.Background())
	assert.True(t, apperr.IsNotFound(err))
}

func TestSettings_SingleRecord(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	st := model.DefaultSettings()
	st.SenderName = "Studio"
	st.NextInvoiceNum = 7
	require.NoError(t, s.PutSettings(ctx, st))

	st.Key = "somethingElse"
	st.NextEstimateNum = 3
	require.NoError(t, s.PutSettings(ctx, st))

	var count int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM settings").Scan(&count))
	assert.Equal(t, 1, count)

	got, err := s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.SettingsKey, got.Key)
	assert.Equal(t, "Studio", got.SenderName)
	assert.Equal(t, 7, got.NextInvoiceNum)
	assert.Equal(t, 3, got.NextEstimateNum)
}

func TestSettings_MissingFieldsKeepDefaults(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.db.Exec(`INSERT INTO settings (key, data) VALUES (?, ?)`,
		model.SettingsKey, `{"senderName":"Old Profile"}`)
	require.NoError(t, err)

	got, err := s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Old Profile", got.SenderName)
	assert.Equal(t, 1, got.NextInvoiceNum)
	assert.True(t, got.ShowPayment)
}
