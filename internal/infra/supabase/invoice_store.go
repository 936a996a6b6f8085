package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"go.opentelemetry.io/otel/attribute"

	"github.com/bagianprojects/client-area-api/internal/domain"
)

// ============================================================
// InvoiceStore implementation — invoices + invoice_items tables
// ============================================================

// invoiceSelect embeds the owning profile and the line items in one
// round trip, the way the listing pages consume them.
const invoiceSelect = "select=*,profiles!client_id(id,email,full_name,company_name),invoice_items(*)"

// ListInvoices fetches every invoice with client and items embedded,
// newest first.
func (c *Client) ListInvoices(ctx context.Context) ([]domain.Invoice, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListInvoices")
	defer span.End()

	path := fmt.Sprintf("invoices?%s&order=created_at.desc", invoiceSelect)
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/invoices", Err: err}
	}
	return decodeInvoices(body)
}

// ListInvoicesByClient fetches one client's invoices, newest first.
func (c *Client) ListInvoicesByClient(ctx context.Context, clientID string) ([]domain.Invoice, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListInvoicesByClient")
	defer span.End()
	span.SetAttributes(attribute.String("client.id", clientID))

	path := fmt.Sprintf("invoices?%s&client_id=eq.%s&order=created_at.desc", invoiceSelect, url.QueryEscape(clientID))
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/invoices", Err: err}
	}
	return decodeInvoices(body)
}

// GetInvoice fetches one invoice with client and items embedded.
// Returns (nil, nil) on no match.
func (c *Client) GetInvoice(ctx context.Context, id string) (*domain.Invoice, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetInvoice")
	defer span.End()
	span.SetAttributes(attribute.String("invoice.id", id))

	path := fmt.Sprintf("invoices?%s&id=eq.%s&limit=1", invoiceSelect, url.QueryEscape(id))
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/invoices", Err: err}
	}

	if body == nil || string(body) == "[]" {
		return nil, nil
	}
	var rows []domain.Invoice
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode invoices: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// InsertInvoice creates the invoice header row and backfills the
// generated id onto inv.
func (c *Client) InsertInvoice(ctx context.Context, inv *domain.Invoice) error {
	ctx, span := tracer.Start(ctx, "Supabase.InsertInvoice")
	defer span.End()

	data := map[string]any{
		"invoice_number": inv.InvoiceNumber,
		"client_id":      inv.ClientID,
		"amount":         inv.Amount,
		"status":         inv.Status,
		"tax_percentage": inv.TaxPercentage,
		"discount":       inv.Discount,
	}
	if inv.ID != "" {
		data["id"] = inv.ID
	}
	if inv.DueDate != "" {
		data["due_date"] = inv.DueDate
	}
	if inv.Notes != "" {
		data["notes"] = inv.Notes
	}

	body, err := c.doPost(ctx, "invoices", data)
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/invoices", Err: err}
	}

	var rows []domain.Invoice
	if err := json.Unmarshal(body, &rows); err != nil {
		return fmt.Errorf("decode inserted invoice: %w", err)
	}
	if len(rows) > 0 {
		inv.ID = rows[0].ID
		inv.CreatedAt = rows[0].CreatedAt
	}
	return nil
}

// InsertInvoiceItems batch-inserts line items for an invoice.
func (c *Client) InsertInvoiceItems(ctx context.Context, items []domain.InvoiceItem) error {
	ctx, span := tracer.Start(ctx, "Supabase.InsertInvoiceItems")
	defer span.End()
	span.SetAttributes(attribute.Int("items.count", len(items)))

	if len(items) == 0 {
		return nil
	}

	rows := make([]map[string]any, 0, len(items))
	for _, it := range items {
		rows = append(rows, map[string]any{
			"invoice_id":  it.InvoiceID,
			"description": it.Description,
			"quantity":    it.Quantity,
			"unit_price":  it.UnitPrice,
			"total":       it.Total,
		})
	}

	if _, err := c.doPost(ctx, "invoice_items", rows); err != nil {
		return &domain.ErrExternalService{Service: "supabase/invoice_items", Err: err}
	}
	return nil
}

// UpdateInvoice patches the given columns on one invoice row.
func (c *Client) UpdateInvoice(ctx context.Context, id string, updates map[string]any) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateInvoice")
	defer span.End()

	path := fmt.Sprintf("invoices?id=eq.%s", url.QueryEscape(id))
	if err := c.doPatch(ctx, path, updates); err != nil {
		return &domain.ErrExternalService{Service: "supabase/invoices", Err: err}
	}
	return nil
}

// DeleteInvoice removes an invoice header. Line items go with it via
// the store's cascade; it is also the compensation step when the item
// insert fails after the header landed.
func (c *Client) DeleteInvoice(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteInvoice")
	defer span.End()

	path := fmt.Sprintf("invoices?id=eq.%s", url.QueryEscape(id))
	if err := c.doDelete(ctx, path); err != nil {
		return &domain.ErrExternalService{Service: "supabase/invoices", Err: err}
	}
	return nil
}

func decodeInvoices(body []byte) ([]domain.Invoice, error) {
	if body == nil || string(body) == "[]" {
		return []domain.Invoice{}, nil
	}
	var rows []domain.Invoice
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode invoices: %w", err)
	}
	return rows, nil
}
