// Package service — InvoiceService owns invoice CRUD and the printable
// document model.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/bagianprojects/client-area-api/internal/domain"
	"github.com/bagianprojects/client-area-api/internal/port"
)

var invoiceTracer = otel.Tracer("service/invoice")

// InvoiceService orchestrates invoice operations. Listing is
// role-scoped: staff see every invoice, customers only their own.
type InvoiceService struct {
	invoices port.InvoiceStore
	logger   *zap.Logger
}

// NewInvoiceService creates an invoice service.
func NewInvoiceService(invoices port.InvoiceStore, logger *zap.Logger) *InvoiceService {
	return &InvoiceService{invoices: invoices, logger: logger}
}

// ============================================================
// List — GET /v1/invoices
// ============================================================

func (s *InvoiceService) List(ctx context.Context, session *domain.Session) ([]domain.Invoice, error) {
	ctx, span := invoiceTracer.Start(ctx, "InvoiceService.List")
	defer span.End()

	if session.IsAdmin {
		return s.invoices.ListInvoices(ctx)
	}
	return s.invoices.ListInvoicesByClient(ctx, session.UserID)
}

// ============================================================
// Get — GET /v1/invoices/{id}
// ============================================================

// Get fetches one invoice. Customers may only read their own; a
// foreign invoice reads as not found, not forbidden, so ids cannot be
// probed.
func (s *InvoiceService) Get(ctx context.Context, session *domain.Session, id string) (*domain.Invoice, error) {
	ctx, span := invoiceTracer.Start(ctx, "InvoiceService.Get")
	defer span.End()
	span.SetAttributes(attribute.String("invoice.id", id))

	// The frontend occasionally routes the literal string "undefined"
	// when navigation state is lost; reject it before the store sees it.
	if id == "" || id == "undefined" {
		return nil, &domain.ErrValidation{Field: "id", Message: "invalid invoice id"}
	}

	inv, err := s.invoices.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, &domain.ErrNotFound{Resource: "invoice", ID: id}
	}
	if !session.IsAdmin && inv.ClientID != session.UserID {
		return nil, &domain.ErrNotFound{Resource: "invoice", ID: id}
	}
	return inv, nil
}

// ============================================================
// Create — POST /v1/invoices
// ============================================================

// Create inserts the invoice header and its line items. The stored
// amount is the grand total (tax on the pre-discount subtotal, discount
// subtracted after tax). If the item insert fails after the header
// landed, the header is deleted so no amount-without-items orphan
// remains.
func (s *InvoiceService) Create(ctx context.Context, req *domain.CreateInvoiceRequest) (*domain.Invoice, error) {
	ctx, span := invoiceTracer.Start(ctx, "InvoiceService.Create")
	defer span.End()

	if err := validateCreateInvoice(req); err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.InvoiceNumber) == "" {
		req.InvoiceNumber = newInvoiceNumber(time.Now())
	}

	items := make([]domain.InvoiceItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, domain.InvoiceItem{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Total:       float64(it.Quantity) * it.UnitPrice,
		})
	}

	subtotal := domain.ItemsSubtotal(items)
	totals := domain.ComputeTotals(subtotal, req.TaxPercentage, req.Discount)

	inv := &domain.Invoice{
		InvoiceNumber: req.InvoiceNumber,
		ClientID:      req.ClientID,
		Amount:        totals.GrandTotal,
		Status:        domain.InvoiceStatusUnpaid,
		DueDate:       req.DueDate,
		Notes:         req.Notes,
		TaxPercentage: req.TaxPercentage,
		Discount:      req.Discount,
	}

	if err := s.invoices.InsertInvoice(ctx, inv); err != nil {
		return nil, err
	}

	for i := range items {
		items[i].InvoiceID = inv.ID
	}

	if err := s.invoices.InsertInvoiceItems(ctx, items); err != nil {
		s.logger.Error("invoice items insert failed, removing orphaned header",
			zap.String("invoice_id", inv.ID),
			zap.Error(err),
		)
		if delErr := s.invoices.DeleteInvoice(ctx, inv.ID); delErr != nil {
			s.logger.Error("compensating invoice delete failed",
				zap.String("invoice_id", inv.ID),
				zap.Error(delErr),
			)
		}
		return nil, fmt.Errorf("insert invoice items: %w", err)
	}

	inv.Items = items

	s.logger.Info("invoice created",
		zap.String("invoice_id", inv.ID),
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("client_id", inv.ClientID),
		zap.Float64("amount", inv.Amount),
	)

	return inv, nil
}

// ============================================================
// MarkPaid — POST /v1/invoices/{id}/mark-paid
// ============================================================

func (s *InvoiceService) MarkPaid(ctx context.Context, id string) error {
	ctx, span := invoiceTracer.Start(ctx, "InvoiceService.MarkPaid")
	defer span.End()
	span.SetAttributes(attribute.String("invoice.id", id))

	if id == "" || id == "undefined" {
		return &domain.ErrValidation{Field: "id", Message: "invalid invoice id"}
	}
	return s.invoices.UpdateInvoice(ctx, id, map[string]any{"status": domain.InvoiceStatusPaid})
}

// ============================================================
// Delete — DELETE /v1/invoices/{id}
// ============================================================

func (s *InvoiceService) Delete(ctx context.Context, id string) error {
	ctx, span := invoiceTracer.Start(ctx, "InvoiceService.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("invoice.id", id))

	if id == "" || id == "undefined" {
		return &domain.ErrValidation{Field: "id", Message: "invalid invoice id"}
	}
	return s.invoices.DeleteInvoice(ctx, id)
}

func validateCreateInvoice(req *domain.CreateInvoiceRequest) error {
	if strings.TrimSpace(req.ClientID) == "" {
		return &domain.ErrValidation{Field: "client_id", Message: "client is required"}
	}
	if strings.TrimSpace(req.DueDate) == "" {
		return &domain.ErrValidation{Field: "due_date", Message: "due date is required"}
	}
	if len(req.Items) == 0 {
		return &domain.ErrValidation{Field: "items", Message: "at least one line item is required"}
	}
	for i, it := range req.Items {
		if strings.TrimSpace(it.Description) == "" {
			return &domain.ErrValidation{Field: fmt.Sprintf("items[%d].description", i), Message: "description is required"}
		}
		if it.Quantity <= 0 {
			return &domain.ErrValidation{Field: fmt.Sprintf("items[%d].quantity", i), Message: "quantity must be positive"}
		}
		if it.UnitPrice < 0 {
			return &domain.ErrValidation{Field: fmt.Sprintf("items[%d].unit_price", i), Message: "unit price cannot be negative"}
		}
	}
	return nil
}

// newInvoiceNumber builds a display number like INV-202608-3f2a91c4.
// The random suffix keeps concurrent creations from colliding without
// a store round trip for a sequence.
func newInvoiceNumber(now time.Time) string {
	return fmt.Sprintf("INV-%s-%s", now.Format("200601"), uuid.New().String()[:8])
}
