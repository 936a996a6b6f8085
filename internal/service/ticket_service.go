// Package service — TicketService owns support-ticket operations.
package service

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/bagianprojects/client-area-api/internal/domain"
	"github.com/bagianprojects/client-area-api/internal/port"
)

var ticketTracer = otel.Tracer("service/ticket")

// TicketService orchestrates ticket operations. Listings are paged with
// the fixed domain.TicketPageSize; staff see every ticket, customers
// only their own.
type TicketService struct {
	tickets port.TicketStore
	logger  *zap.Logger
}

// NewTicketService creates a ticket service.
func NewTicketService(tickets port.TicketStore, logger *zap.Logger) *TicketService {
	return &TicketService{tickets: tickets, logger: logger}
}

// List returns one page of tickets scoped to the caller's role.
// Pages below 1 read as page 1.
func (s *TicketService) List(ctx context.Context, session *domain.Session, page int) ([]domain.Ticket, error) {
	ctx, span := ticketTracer.Start(ctx, "TicketService.List")
	defer span.End()
	span.SetAttributes(attribute.Int("page", page))

	if page < 1 {
		page = 1
	}
	if session.IsAdmin {
		return s.tickets.ListTickets(ctx, page)
	}
	return s.tickets.ListTicketsByUser(ctx, session.UserID, page)
}

// Create opens a new ticket for the caller. Status always starts open
// regardless of the payload.
func (s *TicketService) Create(ctx context.Context, session *domain.Session, t *domain.Ticket) (*domain.Ticket, error) {
	ctx, span := ticketTracer.Start(ctx, "TicketService.Create")
	defer span.End()

	if strings.TrimSpace(t.Subject) == "" {
		return nil, &domain.ErrValidation{Field: "subject", Message: "subject is required"}
	}

	t.UserID = session.UserID
	t.Status = domain.TicketStatusOpen

	if err := s.tickets.InsertTicket(ctx, t); err != nil {
		return nil, err
	}

	s.logger.Info("ticket created",
		zap.String("ticket_id", t.ID),
		zap.String("user_id", t.UserID),
	)
	return t, nil
}

// SetStatus moves a ticket between open and closed.
func (s *TicketService) SetStatus(ctx context.Context, id, status string) error {
	ctx, span := ticketTracer.Start(ctx, "TicketService.SetStatus")
	defer span.End()
	span.SetAttributes(attribute.String("ticket.id", id), attribute.String("status", status))

	if id == "" {
		return &domain.ErrValidation{Field: "id", Message: "invalid ticket id"}
	}
	if status != domain.TicketStatusOpen && status != domain.TicketStatusClosed {
		return &domain.ErrValidation{Field: "status", Message: "status must be open or closed"}
	}
	return s.tickets.UpdateTicket(ctx, id, map[string]any{"status": status})
}
