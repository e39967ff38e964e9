package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/roach88/quickbill/internal/model"
)

// legacyProfile is the preference blob written by QuickBill releases that
// predate the settings table.
type legacyProfile struct {
	SenderName    string `json:"senderName"`
	SenderEmail   string `json:"senderEmail"`
	SenderPhone   string `json:"senderPhone"`
	SenderAddress string `json:"senderAddress"`
	AccentColor   string `json:"accentColor"`
	Template      string `json:"template"`
	Logo          string `json:"logo"`
}

// MigrateLegacy copies the non-empty fields of a legacy profile into the
// settings and writes them immediately. Counters are untouched.
func (s *Store) MigrateLegacy(ctx context.Context, r io.Reader) error {
	var p legacyProfile
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return fmt.Errorf("parse legacy profile: %w", err)
	}

	s.Update(func(st *model.Settings) {
		setIfNonEmpty(&st.SenderName, p.SenderName)
		setIfNonEmpty(&st.SenderEmail, p.SenderEmail)
		setIfNonEmpty(&st.SenderPhone, p.SenderPhone)
		setIfNonEmpty(&st.SenderAddress, p.SenderAddress)
		setIfNonEmpty(&st.AccentColor, p.AccentColor)
		setIfNonEmpty(&st.Template, p.Template)
		setIfNonEmpty(&st.Logo, p.Logo)
	})
	if err := s.Flush(ctx); err != nil {
		return fmt.Errorf("migrate legacy profile: %w", err)
	}
	return nil
}

func setIfNonEmpty(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
