package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/bagianprojects/client-area-api/internal/domain"
	"github.com/bagianprojects/client-area-api/internal/render"
	"github.com/bagianprojects/client-area-api/internal/service"
)

// ============================================================
// List — GET /v1/invoices
// ============================================================

func listInvoicesHandler(svc *service.InvoiceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/invoices")
		defer span.End()

		invoices, err := svc.List(ctx, SessionFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"invoices": invoices})
	}
}

// ============================================================
// Get — GET /v1/invoices/{id}
// ============================================================

func getInvoiceHandler(svc *service.InvoiceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/invoices/{id}")
		defer span.End()

		id := chi.URLParam(r, "id")
		span.SetAttributes(attribute.String("invoice.id", id))

		inv, err := svc.Get(ctx, SessionFromContext(ctx), id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		// Ship the computed breakdown alongside the raw row so the
		// detail page does no money math of its own.
		writeJSON(w, http.StatusOK, map[string]any{
			"invoice": inv,
			"totals":  inv.Totals(),
			"color":   domain.StatusColor(inv.Status),
		})
	}
}

// ============================================================
// Print — GET /v1/invoices/{id}/print
// ============================================================

func printInvoiceHandler(svc *service.InvoiceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/invoices/{id}/print")
		defer span.End()

		id := chi.URLParam(r, "id")
		inv, err := svc.Get(ctx, SessionFromContext(ctx), id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := render.WriteInvoice(w, inv); err != nil {
			logger.Error("invoice render failed",
				zap.String("invoice_id", id),
				zap.Error(err),
			)
		}
	}
}

// ============================================================
// Create — POST /v1/invoices
// ============================================================

func createInvoiceHandler(svc *service.InvoiceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/invoices")
		defer span.End()

		var req domain.CreateInvoiceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		inv, err := svc.Create(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, inv)
	}
}

// ============================================================
// MarkPaid — POST /v1/invoices/{id}/mark-paid
// ============================================================

func markInvoicePaidHandler(svc *service.InvoiceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/invoices/{id}/mark-paid")
		defer span.End()

		if err := svc.MarkPaid(ctx, chi.URLParam(r, "id")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": domain.InvoiceStatusPaid})
	}
}

// ============================================================
// Delete — DELETE /v1/invoices/{id}
// ============================================================

func deleteInvoiceHandler(svc *service.InvoiceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/invoices/{id}")
		defer span.End()

		if err := svc.Delete(ctx, chi.URLParam(r, "id")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
