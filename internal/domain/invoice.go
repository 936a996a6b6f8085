package domain

// InvoiceTotals is the computed money breakdown of an invoice.
type InvoiceTotals struct {
	Subtotal   float64 `json:"subtotal"`
	Tax        float64 `json:"tax"`
	Discount   float64 `json:"discount"`
	GrandTotal float64 `json:"grand_total"`
}

// ItemsSubtotal sums quantity × unit price across line items.
func ItemsSubtotal(items []InvoiceItem) float64 {
	var sum float64
	for _, it := range items {
		sum += float64(it.Quantity) * it.UnitPrice
	}
	return sum
}

// ComputeTotals applies tax and discount to a subtotal. Tax is taken on
// the pre-discount subtotal; the discount is subtracted after tax. The
// grand total is not clamped: a discount larger than subtotal+tax yields
// a negative total.
func ComputeTotals(subtotal, taxPercentage, discount float64) InvoiceTotals {
	tax := subtotal * taxPercentage / 100
	return InvoiceTotals{
		Subtotal:   subtotal,
		Tax:        tax,
		Discount:   discount,
		GrandTotal: subtotal + tax - discount,
	}
}

// Totals computes the invoice's money breakdown. When the invoice has
// line items the subtotal is derived from them; invoices created before
// line-item support fall back to the stored amount.
func (inv *Invoice) Totals() InvoiceTotals {
	subtotal := inv.Amount
	if len(inv.Items) > 0 {
		subtotal = 0
		for _, it := range inv.Items {
			subtotal += it.Total
		}
	}
	return ComputeTotals(subtotal, inv.TaxPercentage, inv.Discount)
}

// StatusColor maps an invoice status to its badge color.
func StatusColor(status string) string {
	switch status {
	case InvoiceStatusPaid:
		return "green"
	case InvoiceStatusUnpaid:
		return "orange"
	case InvoiceStatusOverdue:
		return "red"
	default:
		return "gray"
	}
}

// CreateInvoiceRequest is the payload to create an invoice with items.
type CreateInvoiceRequest struct {
	ClientID      string              `json:"client_id"`
	InvoiceNumber string              `json:"invoice_number"`
	DueDate       string              `json:"due_date"`
	Notes         string              `json:"notes,omitempty"`
	TaxPercentage float64             `json:"tax_percentage,omitempty"`
	Discount      float64             `json:"discount,omitempty"`
	Items         []CreateInvoiceItem `json:"items"`
}

// CreateInvoiceItem is one line item in a creation request.
type CreateInvoiceItem struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}
