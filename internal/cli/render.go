package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/roach88/quickbill/internal/calc"
	"github.com/roach88/quickbill/internal/model"
	"github.com/roach88/quickbill/internal/repo"
)

// DocumentView is the JSON shape of a document with its computed totals.
type DocumentView struct {
	EditingID int64          `json:"editingId,omitempty"`
	Document  model.Document `json:"document"`
	Totals    calc.Totals    `json:"totals"`
}

func outputDocumentText(w io.Writer, v DocumentView) {
	d := v.Document
	money := func(amount float64) string { return calc.FormatMoney(d.Currency, amount) }

	fmt.Fprintf(w, "%s  %s  %s\n", d.InvoiceNumber, d.Type, d.Status)
	if v.EditingID != 0 {
		fmt.Fprintf(w, "Editing: #%d\n", v.EditingID)
	}
	fmt.Fprintf(w, "Date: %s  Due: %s\n", d.InvoiceDate, d.DueDate)
	fmt.Fprintf(w, "From: %s\n", partyLine(d.SenderName, d.SenderEmail))
	fmt.Fprintf(w, "To:   %s\n", partyLine(d.ClientName, d.ClientEmail))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  %-3s %-28s %8s %12s %12s\n", "#", "Description", "Qty", "Rate", "Amount")
	for i, it := range d.Items {
		fmt.Fprintf(w, "  %-3d %-28s %8s %12s %12s\n",
			i, it.Desc, trimFloat(it.Qty), calc.FormatAmount(it.Rate), calc.FormatAmount(it.Qty*it.Rate))
	}
	fmt.Fprintln(w)

	t := v.Totals
	fmt.Fprintf(w, "Subtotal: %s\n", money(t.Subtotal))
	if d.DiscountRate != 0 {
		fmt.Fprintf(w, "Discount (%s%%): -%s\n", trimFloat(d.DiscountRate), money(t.DiscountAmount))
	}
	if d.TaxRate != 0 {
		fmt.Fprintf(w, "Tax (%s%%): %s\n", trimFloat(d.TaxRate), money(t.TaxAmount))
	}
	fmt.Fprintf(w, "Total: %s\n", money(t.Total))
	if d.Notes != "" {
		fmt.Fprintf(w, "\nNotes: %s\n", d.Notes)
	}
}

func outputListText(w io.Writer, docs []model.Document) {
	if len(docs) == 0 {
		fmt.Fprintln(w, "No documents found")
		return
	}
	fmt.Fprintf(w, "%-5s %-9s %-9s %-6s %-24s %12s  %s\n", "ID", "NUMBER", "TYPE", "STATUS", "CLIENT", "TOTAL", "SAVED")
	for _, d := range docs {
		saved := "-"
		if d.SavedAt != "" {
			saved = d.SavedTime().Format(model.DateLayout)
		}
		fmt.Fprintf(w, "%-5d %-9s %-9s %-6s %-24s %12s  %s\n",
			d.ID, d.InvoiceNumber, typeLabel(d), d.Status, truncate(d.ClientName, 24),
			calc.FormatMoney(d.Currency, d.Total), saved)
	}
}

func outputStatsText(w io.Writer, st repo.Stats, currency string) {
	fmt.Fprintf(w, "Documents: %d\n", st.Total)
	fmt.Fprintf(w, "Paid:      %d\n", st.Paid)
	fmt.Fprintf(w, "Pending:   %d\n", st.Pending)
	fmt.Fprintf(w, "Revenue:   %s\n", calc.FormatMoney(currency, st.Revenue))
}

func outputContactsText(w io.Writer, contacts []model.Contact) {
	if len(contacts) == 0 {
		fmt.Fprintln(w, "No contacts found")
		return
	}
	for _, c := range contacts {
		fmt.Fprintf(w, "%-5d %s\n", c.ID, partyLine(c.Name, c.Email))
		if c.Phone != "" {
			fmt.Fprintf(w, "      %s\n", c.Phone)
		}
		if c.Address != "" {
			fmt.Fprintf(w, "      %s\n", strings.ReplaceAll(c.Address, "\n", ", "))
		}
	}
}

func outputSettingsText(w io.Writer, st model.Settings) {
	rows := []struct{ k, v string }{
		{"senderName", st.SenderName},
		{"senderEmail", st.SenderEmail},
		{"senderPhone", st.SenderPhone},
		{"senderWebsite", st.SenderWebsite},
		{"senderAddress", st.SenderAddress},
		{"accentColor", st.AccentColor},
		{"template", st.Template},
		{"currency", st.Currency},
		{"paymentBankName", st.PaymentBankName},
		{"paymentAccountName", st.PaymentAccountName},
		{"paymentAccountNumber", st.PaymentAccountNumber},
		{"paymentRouting", st.PaymentRouting},
		{"paymentUpi", st.PaymentUpi},
		{"showPayment", fmt.Sprint(st.ShowPayment)},
		{"nextInvoice", model.FormatNumber(model.TypeInvoice, st.NextInvoiceNum)},
		{"nextEstimate", model.FormatNumber(model.TypeEstimate, st.NextEstimateNum)},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%-21s %s\n", r.k, r.v)
	}
}

// typeLabel prints documents without a stored type as invoices.
func typeLabel(d model.Document) string {
	if d.IsEstimate() {
		return string(model.TypeEstimate)
	}
	return string(model.TypeInvoice)
}

func partyLine(name, email string) string {
	switch {
	case name == "" && email == "":
		return "-"
	case email == "":
		return name
	case name == "":
		return "<" + email + ">"
	default:
		return name + " <" + email + ">"
	}
}

func trimFloat(f float64) string {
	return fmt.Sprintf("%g", f)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
