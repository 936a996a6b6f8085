package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/bagianprojects/client-area-api/internal/domain"
	"github.com/bagianprojects/client-area-api/internal/service"
)

// ============================================================
// List — GET /v1/tickets?page=N
// ============================================================

func listTicketsHandler(svc *service.TicketService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/tickets")
		defer span.End()

		page := parsePage(r)
		span.SetAttributes(attribute.Int("page", page))

		tickets, err := svc.List(ctx, SessionFromContext(ctx), page)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"tickets":   tickets,
			"page":      page,
			"page_size": domain.TicketPageSize,
		})
	}
}

// ============================================================
// Create — POST /v1/tickets
// ============================================================

func createTicketHandler(svc *service.TicketService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/tickets")
		defer span.End()

		var t domain.Ticket
		if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		created, err := svc.Create(ctx, SessionFromContext(ctx), &t)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

// ============================================================
// SetStatus — PATCH /v1/tickets/{id}/status
// ============================================================

func setTicketStatusHandler(svc *service.TicketService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/tickets/{id}/status")
		defer span.End()

		var body struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if err := svc.SetStatus(ctx, chi.URLParam(r, "id"), body.Status); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": body.Status})
	}
}
