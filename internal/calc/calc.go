// Package calc derives document totals from line items and rates.
//
// Nothing here rounds. Rounding happens once, in FormatMoney, when an amount
// is shown to a person.
package calc

import (
	"github.com/shopspring/decimal"

	"github.com/roach88/quickbill/internal/model"
)

// Totals is the breakdown shown under the line items.
type Totals struct {
	Subtotal       float64 `json:"subtotal"`
	DiscountAmount float64 `json:"discountAmount"`
	TaxableBase    float64 `json:"taxableBase"`
	TaxAmount      float64 `json:"taxAmount"`
	Total          float64 `json:"total"`
}

// ComputeTotals applies the discount to the subtotal, then tax to what remains.
// Negative quantities, rates or percentages are accepted as given.
func ComputeTotals(items []model.LineItem, taxRate, discountRate float64) Totals {
	var sub float64
	for _, it := range items {
		sub += it.Qty * it.Rate
	}
	disc := sub * discountRate / 100
	base := sub - disc
	tax := base * taxRate / 100
	return Totals{
		Subtotal:       sub,
		DiscountAmount: disc,
		TaxableBase:    base,
		TaxAmount:      tax,
		Total:          base + tax,
	}
}

// DocumentTotals is ComputeTotals over a document's own fields.
func DocumentTotals(d model.Document) Totals {
	return ComputeTotals(d.Items, d.TaxRate, d.DiscountRate)
}

// FormatAmount rounds to two decimal places, half away from zero.
func FormatAmount(amount float64) string {
	return decimal.NewFromFloat(amount).StringFixed(2)
}

// FormatMoney prefixes the rounded amount with a currency symbol.
func FormatMoney(symbol string, amount float64) string {
	if symbol == "" {
		symbol = "$"
	}
	d := decimal.NewFromFloat(amount)
	if d.IsNegative() {
		return "-" + symbol + d.Neg().StringFixed(2)
	}
	return symbol + d.StringFixed(2)
}
