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
// TicketStore implementation — tickets table
// ============================================================

// pageRange converts a 1-indexed page into a PostgREST row range of
// domain.TicketPageSize rows. Pages below 1 clamp to the first page.
func pageRange(page int) (int, int) {
	if page < 1 {
		page = 1
	}
	from := (page - 1) * domain.TicketPageSize
	to := page*domain.TicketPageSize - 1
	return from, to
}

// ListTickets fetches one page of all tickets, newest first.
func (c *Client) ListTickets(ctx context.Context, page int) ([]domain.Ticket, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListTickets")
	defer span.End()
	span.SetAttributes(attribute.Int("page", page))

	from, to := pageRange(page)
	path := fmt.Sprintf("tickets?select=*&order=created_at.desc&offset=%d&limit=%d", from, to-from+1)
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/tickets", Err: err}
	}
	return decodeTickets(body)
}

// ListTicketsByUser fetches one page of a user's tickets, newest first.
func (c *Client) ListTicketsByUser(ctx context.Context, userID string, page int) ([]domain.Ticket, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListTicketsByUser")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.Int("page", page))

	from, to := pageRange(page)
	path := fmt.Sprintf("tickets?select=*&user_id=eq.%s&order=created_at.desc&offset=%d&limit=%d",
		url.QueryEscape(userID), from, to-from+1)
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/tickets", Err: err}
	}
	return decodeTickets(body)
}

// ListAllTickets fetches every ticket. The dashboard reduces these
// in memory.
func (c *Client) ListAllTickets(ctx context.Context) ([]domain.Ticket, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListAllTickets")
	defer span.End()

	body, err := c.get(ctx, "tickets?select=*&order=created_at.desc")
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/tickets", Err: err}
	}
	return decodeTickets(body)
}

// ListAllTicketsByUser fetches every ticket of one user.
func (c *Client) ListAllTicketsByUser(ctx context.Context, userID string) ([]domain.Ticket, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListAllTicketsByUser")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	path := fmt.Sprintf("tickets?select=*&user_id=eq.%s&order=created_at.desc", url.QueryEscape(userID))
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/tickets", Err: err}
	}
	return decodeTickets(body)
}

// InsertTicket creates a ticket row and backfills the generated id.
func (c *Client) InsertTicket(ctx context.Context, t *domain.Ticket) error {
	ctx, span := tracer.Start(ctx, "Supabase.InsertTicket")
	defer span.End()

	data := map[string]any{
		"user_id":     t.UserID,
		"subject":     t.Subject,
		"description": t.Description,
		"status":      t.Status,
	}

	body, err := c.doPost(ctx, "tickets", data)
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/tickets", Err: err}
	}

	var rows []domain.Ticket
	if err := json.Unmarshal(body, &rows); err != nil {
		return fmt.Errorf("decode inserted ticket: %w", err)
	}
	if len(rows) > 0 {
		t.ID = rows[0].ID
		t.CreatedAt = rows[0].CreatedAt
	}
	return nil
}

// UpdateTicket patches the given columns on one ticket row.
func (c *Client) UpdateTicket(ctx context.Context, id string, updates map[string]any) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateTicket")
	defer span.End()

	path := fmt.Sprintf("tickets?id=eq.%s", url.QueryEscape(id))
	if err := c.doPatch(ctx, path, updates); err != nil {
		return &domain.ErrExternalService{Service: "supabase/tickets", Err: err}
	}
	return nil
}

func decodeTickets(body []byte) ([]domain.Ticket, error) {
	if body == nil || string(body) == "[]" {
		return []domain.Ticket{}, nil
	}
	var rows []domain.Ticket
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode tickets: %w", err)
	}
	return rows, nil
}
