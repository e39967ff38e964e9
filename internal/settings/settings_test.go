package settings

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/quickbill/internal/apperr"
	"github.com/roach88/quickbill/internal/model"
	"github.com/roach88/quickbill/internal/store"
)

// recordingBackend counts writes and can be told to fail.
type recordingBackend struct {
	mu     sync.Mutex
	stored *model.Settings
	writes int
	fail   error
}

func (b *recordingBackend) GetSettings(context.Context) (model.Settings, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stored == nil {
		return model.Settings{}, apperr.NotFound("settings", model.SettingsKey)
	}
	return *b.stored, nil
}

func (b *recordingBackend) PutSettings(_ context.Context, st model.Settings) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail != nil {
		return b.fail
	}
	b.writes++
	b.stored = &st
	return nil
}

func (b *recordingBackend) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writes
}

func TestLoad_DefaultsWhenAbsent(t *testing.T) {
	b := &recordingBackend{}
	s := New(b, time.Hour, zerolog.Nop())

	require.NoError(t, s.Load(context.Background()))
	assert.Equal(t, model.DefaultSettings(), s.Current())
	assert.Equal(t, 0, b.count())
}

func TestUpdate_CoalescesIntoOneWrite(t *testing.T) {
	b := &recordingBackend{}
	s := New(b, 20*time.Millisecond, zerolog.Nop())

	for _, name := range []string{"A", "Ab", "Abc", "Abcd"} {
		n := name
		s.Update(func(st *model.Settings) { st.SenderName = n })
	}
	assert.True(t, s.Pending())
	assert.Equal(t, 0, b.count())

	require.Eventually(t, func() bool { return b.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.False(t, s.Pending())

	stored, err := b.GetSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Abcd", stored.SenderName)
}

func TestFlush_WritesImmediatelyAndCancelsTimer(t *testing.T) {
	b := &recordingBackend{}
	s := New(b, 50*time.Millisecond, zerolog.Nop())

	s.Update(func(st *model.Settings) { st.Currency = "€" })
	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, 1, b.count())

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, b.count(), "timer must not fire after flush")

	// Nothing pending: flush is a no-op
	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, 1, b.count())
}

func TestCancel_DropsPendingWrite(t *testing.T) {
	b := &recordingBackend{}
	s := New(b, 20*time.Millisecond, zerolog.Nop())

	s.Update(func(st *model.Settings) { st.Template = "classic" })
	s.Cancel()

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 0, b.count())
	assert.Equal(t, "classic", s.Current().Template)
}

func TestAdvance_PreviewAndPersist(t *testing.T) {
	b := &recordingBackend{}
	s := New(b, time.Hour, zerolog.Nop())
	ctx := context.Background()

	assert.Equal(t, "INV-001", s.PreviewNumber(model.TypeInvoice))
	assert.Equal(t, "EST-001", s.PreviewNumber(model.TypeEstimate))
	// Previewing never advances
	assert.Equal(t, "INV-001", s.PreviewNumber(model.TypeInvoice))

	require.NoError(t, s.Advance(ctx, model.TypeInvoice))
	require.NoError(t, s.Advance(ctx, model.TypeInvoice))
	require.NoError(t, s.Advance(ctx, model.TypeEstimate))

	assert.Equal(t, "INV-003", s.PreviewNumber(model.TypeInvoice))
	assert.Equal(t, "EST-002", s.PreviewNumber(model.TypeEstimate))
	assert.Equal(t, 3, b.count())
	assert.Equal(t, 3, b.stored.NextInvoiceNum)
}

func TestAdvance_IncludesPendingEdits(t *testing.T) {
	b := &recordingBackend{}
	s := New(b, time.Hour, zerolog.Nop())

	s.Update(func(st *model.Settings) { st.SenderName = "Studio" })
	require.NoError(t, s.Advance(context.Background(), model.TypeEstimate))

	assert.False(t, s.Pending())
	assert.Equal(t, "Studio", b.stored.SenderName)
	assert.Equal(t, 2, b.stored.NextEstimateNum)
}

func TestAdvance_FailureRestoresCounter(t *testing.T) {
	boom := apperr.StorageFailure("put settings", errors.New("disk full"))
	b := &recordingBackend{fail: boom}
	s := New(b, time.Hour, zerolog.Nop())

	err := s.Advance(context.Background(), model.TypeInvoice)
	require.Error(t, err)
	assert.True(t, apperr.IsStorageFailure(err))
	assert.Equal(t, 1, s.Current().NextInvoiceNum)
	assert.False(t, s.Pending())
	assert.ErrorIs(t, s.LastError(), boom)
}

func TestStoreBacked_RoundTrip(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	ctx := context.Background()

	s := New(st, time.Hour, zerolog.Nop())
	require.NoError(t, s.Load(ctx))
	s.Update(func(cur *model.Settings) { cur.SenderEmail = "billing@studio.test" })
	require.NoError(t, s.Advance(ctx, model.TypeInvoice))

	reloaded := New(st, time.Hour, zerolog.Nop())
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, "billing@studio.test", reloaded.Current().SenderEmail)
	assert.Equal(t, "INV-002", reloaded.PreviewNumber(model.TypeInvoice))
}

func TestMigrateLegacy(t *testing.T) {
	b := &recordingBackend{}
	s := New(b, time.Hour, zerolog.Nop())
	s.Update(func(st *model.Settings) { st.SenderPhone = "555-0100" })

	blob := `{"senderName":"Old Co","senderEmail":"","accentColor":"#112233","unknown":1}`
	require.NoError(t, s.MigrateLegacy(context.Background(), strings.NewReader(blob)))

	cur := s.Current()
	assert.Equal(t, "Old Co", cur.SenderName)
	assert.Equal(t, "555-0100", cur.SenderPhone)
	assert.Equal(t, "#112233", cur.AccentColor)
	assert.Equal(t, 1, b.count())
}

func TestSetField(t *testing.T) {
	st := model.DefaultSettings()

	require.NoError(t, SetField(&st, "senderWebsite", "studio.test"))
	require.NoError(t, SetField(&st, "showPayment", "false"))
	assert.Equal(t, "studio.test", st.SenderWebsite)
	assert.False(t, st.ShowPayment)

	assert.Error(t, SetField(&st, "showPayment", "maybe"))
	assert.ErrorIs(t, SetField(&st, "nextInvoiceNum", "9"), ErrUnknownField)
}

func TestIsPreference(t *testing.T) {
	assert.True(t, IsPreference("senderName"))
	assert.True(t, IsPreference("showPayment"))
	assert.True(t, IsPreference("paymentUpi"))
	assert.False(t, IsPreference("clientName"))
	assert.False(t, IsPreference("taxRate"))
}
