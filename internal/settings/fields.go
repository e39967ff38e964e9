package settings

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/roach88/quickbill/internal/model"
)

// ErrUnknownField is returned by SetField for names that are not preferences.
var ErrUnknownField = errors.New("not a settings field")

// IsPreference reports whether a document field is mirrored into settings
// when edited.
func IsPreference(field string) bool {
	st := model.DefaultSettings()
	err := SetField(&st, field, "true")
	return !errors.Is(err, ErrUnknownField)
}

// SetField assigns one preference by its JSON name. Counters are not
// settable here; they only move through Advance or a backup import.
func SetField(st *model.Settings, field, value string) error {
	switch field {
	case "senderName":
		st.SenderName = value
	case "senderEmail":
		st.SenderEmail = value
	case "senderPhone":
		st.SenderPhone = value
	case "senderWebsite":
		st.SenderWebsite = value
	case "senderAddress":
		st.SenderAddress = value
	case "accentColor":
		st.AccentColor = value
	case "template":
		st.Template = value
	case "currency":
		st.Currency = value
	case "logo":
		st.Logo = value
	case "paymentBankName":
		st.PaymentBankName = value
	case "paymentAccountName":
		st.PaymentAccountName = value
	case "paymentAccountNumber":
		st.PaymentAccountNumber = value
	case "paymentRouting":
		st.PaymentRouting = value
	case "paymentUpi":
		st.PaymentUpi = value
	case "showPayment":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("showPayment: %w", err)
		}
		st.ShowPayment = b
	default:
		return fmt.Errorf("%q: %w", field, ErrUnknownField)
	}
	return nil
}
