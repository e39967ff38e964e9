package model

import (
	"time"
)

// DocType classifies a document as an invoice or an estimate.
type DocType string

const (
	TypeInvoice  DocType = "invoice"
	TypeEstimate DocType = "estimate"
)

// Valid reports whether t is a known document type.
func (t DocType) Valid() bool {
	return t == TypeInvoice || t == TypeEstimate
}

// Status is the lifecycle status of a document.
type Status string

const (
	StatusDraft Status = "draft"
	StatusSent  Status = "sent"
	StatusPaid  Status = "paid"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusSent || s == StatusPaid
}

// LineItem is a single billable row.
type LineItem struct {
	Desc string  `json:"desc" yaml:"desc"`
	Qty  float64 `json:"qty" yaml:"qty"`
	Rate float64 `json:"rate" yaml:"rate"`
}

// BlankItem returns the placeholder row used when a document has no items.
func BlankItem() LineItem {
	return LineItem{Desc: "", Qty: 1, Rate: 0}
}

// PaymentDetails holds payment instructions printed on a document.
// Embedded without a tag so the fields stay flat in JSON.
type PaymentDetails struct {
	PaymentBankName      string `json:"paymentBankName" yaml:"paymentBankName"`
	PaymentAccountName   string `json:"paymentAccountName" yaml:"paymentAccountName"`
	PaymentAccountNumber string `json:"paymentAccountNumber" yaml:"paymentAccountNumber"`
	PaymentRouting       string `json:"paymentRouting" yaml:"paymentRouting"` // routing number or IFSC
	PaymentUpi           string `json:"paymentUpi" yaml:"paymentUpi"`         // alternate payer id
	ShowPayment          bool   `json:"showPayment" yaml:"showPayment"`
}

// Sender is the issuing business identity.
type Sender struct {
	SenderName    string `json:"senderName" yaml:"senderName"`
	SenderEmail   string `json:"senderEmail" yaml:"senderEmail"`
	SenderPhone   string `json:"senderPhone" yaml:"senderPhone"`
	SenderWebsite string `json:"senderWebsite" yaml:"senderWebsite"`
	SenderAddress string `json:"senderAddress" yaml:"senderAddress"`
}

// Document is a persisted invoice or estimate.
type Document struct {
	ID int64 `json:"id,omitempty" yaml:"-"`

	Type   DocType `json:"type" yaml:"type"`
	Status Status  `json:"status" yaml:"status"`

	Template    string `json:"template" yaml:"template"`
	AccentColor string `json:"accentColor" yaml:"accentColor"`
	Currency    string `json:"currency" yaml:"currency"`

	Sender        `yaml:",inline"`
	ClientName    string `json:"clientName" yaml:"clientName"`
	ClientEmail   string `json:"clientEmail" yaml:"clientEmail"`
	ClientAddress string `json:"clientAddress" yaml:"clientAddress"`

	InvoiceNumber string `json:"invoiceNumber" yaml:"invoiceNumber"`
	InvoiceDate   string `json:"invoiceDate" yaml:"invoiceDate"` // YYYY-MM-DD
	DueDate       string `json:"dueDate" yaml:"dueDate"`         // YYYY-MM-DD

	Items        []LineItem `json:"items" yaml:"items"`
	TaxRate      float64    `json:"taxRate" yaml:"taxRate"`
	DiscountRate float64    `json:"discountRate" yaml:"discountRate"`
	Total        float64    `json:"total" yaml:"total"`

	Notes     string `json:"notes" yaml:"notes"`
	Logo      string `json:"logo,omitempty" yaml:"logo,omitempty"`
	Signature string `json:"signature,omitempty" yaml:"signature,omitempty"`

	PaymentDetails `yaml:",inline"`

	SavedAt string `json:"savedAt,omitempty" yaml:"savedAt,omitempty"`
}

// IsEstimate reports whether the document belongs to the estimate series.
// Anything that is not an estimate is treated as an invoice.
func (d Document) IsEstimate() bool {
	return d.Type == TypeEstimate
}

// SavedTime parses SavedAt. Missing or unparseable timestamps yield the Unix
// epoch so they sort after every real save.
func (d Document) SavedTime() time.Time {
	if d.SavedAt == "" {
		return time.Unix(0, 0).UTC()
	}
	t, err := time.Parse(time.RFC3339Nano, d.SavedAt)
	if err != nil {
		return time.Unix(0, 0).UTC()
	}
	return t
}

// Contact is an address-book entry. Name is the case-insensitive natural key.
type Contact struct {
	ID      int64  `json:"id,omitempty"`
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// SettingsKey is the fixed key of the single settings record.
const SettingsKey = "appSettings"

// Settings holds user defaults and the numbering counters.
type Settings struct {
	Key string `json:"key"`

	Sender
	AccentColor string `json:"accentColor"`
	Template    string `json:"template"`
	Currency    string `json:"currency"`
	Logo        string `json:"logo,omitempty"`

	PaymentDetails

	NextInvoiceNum  int `json:"nextInvoiceNum"`
	NextEstimateNum int `json:"nextEstimateNum"`
}

// DefaultSettings returns the settings used before anything is stored.
func DefaultSettings() Settings {
	return Settings{
		Key:             SettingsKey,
		AccentColor:     "#6c63ff",
		Template:        "modern",
		Currency:        "$",
		PaymentDetails:  PaymentDetails{ShowPayment: true},
		NextInvoiceNum:  1,
		NextEstimateNum: 1,
	}
}

// Counter returns the next number for the given series.
func (s Settings) Counter(t DocType) int {
	if t == TypeEstimate {
		return s.NextEstimateNum
	}
	return s.NextInvoiceNum
}
