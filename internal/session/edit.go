package session

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/quickbill/internal/apperr"
	"github.com/roach88/quickbill/internal/model"
	"github.com/roach88/quickbill/internal/settings"
)

// ApplyFieldEdit sets one field of the Working Document by its JSON name.
// Line items are addressed as items[N].desc, items[N].qty or items[N].rate.
// Unknown fields and unparseable values are constraint violations.
func (s *Session) ApplyFieldEdit(field, value string) error {
	const op = "edit field"

	if strings.HasPrefix(field, "items[") {
		return s.editItemField(field, value)
	}

	d := &s.doc
	switch field {
	case "type":
		t := model.DocType(value)
		if !t.Valid() {
			return apperr.ConstraintViolation(op, fmt.Sprintf("unknown document type %q", value))
		}
		s.SetDocType(t)
	case "status":
		st := model.Status(value)
		if !st.Valid() {
			return apperr.ConstraintViolation(op, fmt.Sprintf("unknown status %q", value))
		}
		d.Status = st
	case "template":
		d.Template = value
	case "accentColor":
		d.AccentColor = value
	case "currency":
		d.Currency = value
	case "senderName":
		d.SenderName = value
	case "senderEmail":
		d.SenderEmail = value
	case "senderPhone":
		d.SenderPhone = value
	case "senderWebsite":
		d.SenderWebsite = value
	case "senderAddress":
		d.SenderAddress = value
	case "clientName":
		d.ClientName = value
	case "clientEmail":
		d.ClientEmail = value
	case "clientAddress":
		d.ClientAddress = value
	case "invoiceNumber":
		d.InvoiceNumber = value
	case "invoiceDate", "dueDate":
		if value != "" {
			if _, err := time.Parse(model.DateLayout, value); err != nil {
				return apperr.ConstraintViolation(op, fmt.Sprintf("%s must be YYYY-MM-DD, got %q", field, value))
			}
		}
		if field == "invoiceDate" {
			d.InvoiceDate = value
		} else {
			d.DueDate = value
		}
	case "taxRate", "discountRate":
		f, err := parseNumber(field, value)
		if err != nil {
			return err
		}
		if field == "taxRate" {
			d.TaxRate = f
		} else {
			d.DiscountRate = f
		}
	case "notes":
		d.Notes = value
	case "logo":
		d.Logo = value
	case "signature":
		d.Signature = value
	case "paymentBankName":
		d.PaymentBankName = value
	case "paymentAccountName":
		d.PaymentAccountName = value
	case "paymentAccountNumber":
		d.PaymentAccountNumber = value
	case "paymentRouting":
		d.PaymentRouting = value
	case "paymentUpi":
		d.PaymentUpi = value
	case "showPayment":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return apperr.ConstraintViolation(op, fmt.Sprintf("showPayment must be true or false, got %q", value))
		}
		d.ShowPayment = b
	default:
		return apperr.ConstraintViolation(op, fmt.Sprintf("unknown field %q", field))
	}

	if settings.IsPreference(field) {
		s.prefs.Update(func(st *model.Settings) {
			_ = settings.SetField(st, field, value)
		})
	}
	return nil
}

// AddItem appends a blank line item and returns its index.
func (s *Session) AddItem() int {
	s.doc.Items = append(s.doc.Items, model.BlankItem())
	return len(s.doc.Items) - 1
}

// SetItem replaces the line item at index i.
func (s *Session) SetItem(i int, item model.LineItem) error {
	if i < 0 || i >= len(s.doc.Items) {
		return apperr.ConstraintViolation("set item", fmt.Sprintf("no line item at index %d", i))
	}
	s.doc.Items[i] = item
	return nil
}

// RemoveItem deletes the line item at index i. The last remaining item
// cannot be removed.
func (s *Session) RemoveItem(i int) error {
	const op = "remove item"
	if len(s.doc.Items) <= 1 {
		return apperr.ConstraintViolation(op, "a document needs at least one line item")
	}
	if i < 0 || i >= len(s.doc.Items) {
		return apperr.ConstraintViolation(op, fmt.Sprintf("no line item at index %d", i))
	}
	s.doc.Items = append(s.doc.Items[:i:i], s.doc.Items[i+1:]...)
	return nil
}

// editItemField handles items[N].desc|qty|rate.
func (s *Session) editItemField(field, value string) error {
	const op = "edit field"

	rest := strings.TrimPrefix(field, "items[")
	idxStr, attr, ok := strings.Cut(rest, "].")
	if !ok {
		return apperr.ConstraintViolation(op, fmt.Sprintf("malformed item field %q", field))
	}
	i, err := strconv.Atoi(idxStr)
	if err != nil || i < 0 || i >= len(s.doc.Items) {
		return apperr.ConstraintViolation(op, fmt.Sprintf("no line item at index %s", idxStr))
	}

	item := &s.doc.Items[i]
	switch attr {
	case "desc":
		item.Desc = value
	case "qty":
		f, err := parseNumber(field, value)
		if err != nil {
			return err
		}
		item.Qty = f
	case "rate":
		f, err := parseNumber(field, value)
		if err != nil {
			return err
		}
		item.Rate = f
	default:
		return apperr.ConstraintViolation(op, fmt.Sprintf("unknown item field %q", attr))
	}
	return nil
}

// parseNumber reads a float. An empty string counts as zero, matching a
// cleared input box. Negative values are accepted.
func parseNumber(field, value string) (float64, error) {
	if strings.TrimSpace(value) == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, apperr.ConstraintViolation("edit field", fmt.Sprintf("%s must be a number, got %q", field, value))
	}
	return f, nil
}

// ApplyContact fills the client block of the Working Document from c.
func (s *Session) ApplyContact(c model.Contact) {
	s.doc.ClientName = c.Name
	s.doc.ClientEmail = c.Email
	s.doc.ClientAddress = c.Address
}
