// Package render produces the printable invoice document. The output
// is a self-contained HTML page with fixed A4-ish width and no external
// assets, so the browser's print dialog is all the client needs.
package render

import (
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/bagianprojects/client-area-api/internal/domain"
)

// InvoiceDocument is the view model for the printable invoice.
type InvoiceDocument struct {
	Invoice     *domain.Invoice
	Totals      domain.InvoiceTotals
	StatusColor string
	ClientName  string
	ClientEmail string
	CompanyName string
}

// BuildInvoiceDocument derives the document model from an invoice.
func BuildInvoiceDocument(inv *domain.Invoice) *InvoiceDocument {
	doc := &InvoiceDocument{
		Invoice:     inv,
		Totals:      inv.Totals(),
		StatusColor: domain.StatusColor(inv.Status),
	}
	if inv.Client != nil {
		doc.ClientName = inv.Client.FullName
		doc.ClientEmail = inv.Client.Email
		doc.CompanyName = inv.Client.CompanyName
	}
	return doc
}

// money formats an amount in the invoice's display currency.
func money(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := fmt.Sprintf("%.2f", v)
	parts := strings.SplitN(s, ".", 2)
	intPart := parts[0]

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}

	out := fmt.Sprintf("Rp %s,%s", b.String(), parts[1])
	if neg {
		return "-" + out
	}
	return out
}

var invoiceTmpl = template.Must(template.New("invoice").Funcs(template.FuncMap{
	"money": money,
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Invoice {{.Invoice.InvoiceNumber}}</title>
<style>
  body { font-family: Helvetica, Arial, sans-serif; color: #1f2937; margin: 0; }
  .page { width: 210mm; margin: 0 auto; padding: 20mm; box-sizing: border-box; }
  .header { display: flex; justify-content: space-between; margin-bottom: 32px; }
  .header h1 { font-size: 28px; margin: 0; }
  .badge { display: inline-block; padding: 4px 12px; border-radius: 9999px;
           color: #fff; font-size: 12px; text-transform: uppercase; }
  .badge.green { background: #16a34a; }
  .badge.orange { background: #ea580c; }
  .badge.red { background: #dc2626; }
  .badge.gray { background: #6b7280; }
  .meta { margin-bottom: 24px; font-size: 14px; }
  .meta div { margin-bottom: 4px; }
  table { width: 100%; border-collapse: collapse; font-size: 14px; page-break-inside: avoid; }
  th { text-align: left; border-bottom: 2px solid #1f2937; padding: 8px 4px; }
  th.num, td.num { text-align: right; }
  td { border-bottom: 1px solid #e5e7eb; padding: 8px 4px; }
  .totals { margin-top: 16px; margin-left: auto; width: 60%; font-size: 14px; }
  .totals .row { display: flex; justify-content: space-between; padding: 4px 0; }
  .totals .grand { border-top: 2px solid #1f2937; font-weight: bold; font-size: 16px; padding-top: 8px; }
  .notes { margin-top: 32px; font-size: 13px; color: #4b5563; page-break-inside: avoid; }
  @media print { .page { padding: 10mm; } }
</style>
</head>
<body>
<div class="page">
  <div class="header">
    <div>
      <h1>INVOICE</h1>
      <div>{{.Invoice.InvoiceNumber}}</div>
    </div>
    <span class="badge {{.StatusColor}}">{{.Invoice.Status}}</span>
  </div>

  <div class="meta">
    {{if .ClientName}}<div><strong>Billed to:</strong> {{.ClientName}}</div>{{end}}
    {{if .CompanyName}}<div>{{.CompanyName}}</div>{{end}}
    {{if .ClientEmail}}<div>{{.ClientEmail}}</div>{{end}}
    {{if .Invoice.DueDate}}<div><strong>Due date:</strong> {{.Invoice.DueDate}}</div>{{end}}
  </div>

  <table>
    <thead>
      <tr>
        <th>Description</th>
        <th class="num">Qty</th>
        <th class="num">Unit price</th>
        <th class="num">Total</th>
      </tr>
    </thead>
    <tbody>
      {{range .Invoice.Items}}
      <tr>
        <td>{{.Description}}</td>
        <td class="num">{{.Quantity}}</td>
        <td class="num">{{money .UnitPrice}}</td>
        <td class="num">{{money .Total}}</td>
      </tr>
      {{else}}
      <tr>
        <td>Invoice amount</td>
        <td class="num">1</td>
        <td class="num">{{money .Invoice.Amount}}</td>
        <td class="num">{{money .Invoice.Amount}}</td>
      </tr>
      {{end}}
    </tbody>
  </table>

  <div class="totals">
    <div class="row"><span>Subtotal</span><span>{{money .Totals.Subtotal}}</span></div>
    {{if .Invoice.TaxPercentage}}<div class="row"><span>Tax ({{.Invoice.TaxPercentage}}%)</span><span>{{money .Totals.Tax}}</span></div>{{end}}
    {{if .Totals.Discount}}<div class="row"><span>Discount</span><span>-{{money .Totals.Discount}}</span></div>{{end}}
    <div class="row grand"><span>Grand total</span><span>{{money .Totals.GrandTotal}}</span></div>
  </div>

  {{if .Invoice.Notes}}
  <div class="notes">
    <strong>Notes</strong>
    <p>{{.Invoice.Notes}}</p>
  </div>
  {{end}}
</div>
</body>
</html>
`))

// WriteInvoice renders the printable document to w.
func WriteInvoice(w io.Writer, inv *domain.Invoice) error {
	return invoiceTmpl.Execute(w, BuildInvoiceDocument(inv))
}
