package session

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/roach88/quickbill/internal/clock"
	"github.com/roach88/quickbill/internal/model"
	"github.com/roach88/quickbill/internal/settings"
)

// Draft is the on-disk form of a session, used to carry the Working
// Document between CLI invocations.
type Draft struct {
	SessionID string         `yaml:"session"`
	EditingID int64          `yaml:"editingId,omitempty"`
	Document  model.Document `yaml:"document"`
}

// Draft captures the session state.
func (s *Session) Draft() Draft {
	return Draft{
		SessionID: s.id,
		EditingID: s.editingID,
		Document:  s.Document(),
	}
}

// WriteDraft encodes the session as YAML.
func (s *Session) WriteDraft(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s.Draft()); err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	return enc.Close()
}

// ReadDraft decodes a YAML draft.
func ReadDraft(r io.Reader) (Draft, error) {
	var d Draft
	if err := yaml.NewDecoder(r).Decode(&d); err != nil {
		return Draft{}, fmt.Errorf("decode draft: %w", err)
	}
	return d, nil
}

// Resume rebuilds a session from a draft.
func Resume(d Draft, prefs *settings.Store, clk clock.Clock, opts ...Option) *Session {
	opts = append(opts, WithID(d.SessionID))
	s := New(prefs, clk, opts...)
	s.Load(d.Document, d.EditingID)
	return s
}
