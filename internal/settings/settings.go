// Package settings keeps the in-memory mirror of the settings record and
// writes it back to the store.
//
// Preference edits are coalesced: each Update reschedules one pending write
// that fires after a quiet period. Counter advances are written immediately
// because document numbering depends on them. Call Flush before the process
// exits; an unflushed pending write is lost.
package settings

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/roach88/quickbill/internal/apperr"
	"github.com/roach88/quickbill/internal/model"
)

// DefaultDelay is the quiet period before a pending write fires.
const DefaultDelay = 2 * time.Second

// Backend is the storage the settings record lives in.
type Backend interface {
	GetSettings(ctx context.Context) (model.Settings, error)
	PutSettings(ctx context.Context, st model.Settings) error
}

// Store mirrors the settings record.
//
// Thread-safety: all methods are safe for concurrent use; the pending write
// fires on a timer goroutine.
type Store struct {
	backend Backend
	delay   time.Duration
	log     zerolog.Logger

	mu      sync.Mutex
	current model.Settings
	pending bool
	timer   *time.Timer
	lastErr error
}

// New creates a settings store holding defaults until Load is called.
// A non-positive delay selects DefaultDelay.
func New(backend Backend, delay time.Duration, log zerolog.Logger) *Store {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Store{
		backend: backend,
		delay:   delay,
		log:     log,
		current: model.DefaultSettings(),
	}
}

// Load replaces the mirror with the stored record. A missing record leaves
// defaults in place and writes nothing. Any pending write is discarded.
func (s *Store) Load(ctx context.Context) error {
	st, err := s.backend.GetSettings(ctx)
	if err != nil && !apperr.IsNotFound(err) {
		return fmt.Errorf("load settings: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
	s.pending = false
	if err != nil {
		s.current = model.DefaultSettings()
		return nil
	}
	s.current = st
	return nil
}

// Current returns a copy of the mirrored settings.
func (s *Store) Current() model.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Update applies fn to the mirror and schedules a deferred write.
// Successive calls within the delay coalesce into one write.
func (s *Store) Update(fn func(*model.Settings)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&s.current)
	s.current.Key = model.SettingsKey
	s.pending = true

	s.stopTimerLocked()
	s.timer = time.AfterFunc(s.delay, s.onTimer)
}

// Pending reports whether an unwritten change is waiting.
func (s *Store) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Cancel drops the pending write without touching the mirror.
func (s *Store) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
	s.pending = false
}

// Flush writes the mirror now if a change is pending.
// On failure the change stays pending.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked(ctx)
}

// LastError returns the error from the most recent failed write, if any.
// Deferred writes have no caller to return their error to.
func (s *Store) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// PreviewNumber formats the number the next saved document of type t would
// take. It does not advance anything.
func (s *Store) PreviewNumber(t model.DocType) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.FormatNumber(t, s.current.Counter(t))
}

// Advance increments the counter for t and writes the record immediately,
// together with any pending preference edits. On failure the counter is
// restored.
func (s *Store) Advance(ctx context.Context, t model.DocType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wasPending := s.pending
	bump(&s.current, t, 1)
	s.pending = true

	if err := s.flushLocked(ctx); err != nil {
		bump(&s.current, t, -1)
		s.pending = wasPending
		return fmt.Errorf("advance %s counter: %w", t, err)
	}
	s.log.Debug().Str("type", string(t)).Int("next", s.current.Counter(t)).Msg("counter advanced")
	return nil
}

func bump(st *model.Settings, t model.DocType, delta int) {
	if t == model.TypeEstimate {
		st.NextEstimateNum += delta
	} else {
		st.NextInvoiceNum += delta
	}
}

func (s *Store) onTimer() {
	if err := s.Flush(context.Background()); err != nil {
		s.log.Error().Err(err).Msg("deferred settings write failed")
	}
}

func (s *Store) flushLocked(ctx context.Context) error {
	s.stopTimerLocked()
	if !s.pending {
		return nil
	}
	if err := s.backend.PutSettings(ctx, s.current); err != nil {
		s.lastErr = err
		return err
	}
	s.pending = false
	s.lastErr = nil
	s.log.Debug().Msg("settings written")
	return nil
}

func (s *Store) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
