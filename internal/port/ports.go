// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/bagianprojects/client-area-api/internal/domain"
)

// IdentityProvider wraps the hosted auth platform. All session state
// lives on the provider side; this service only forwards operations.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password string, metadata map[string]any) (*domain.User, error)
	SignInWithPassword(ctx context.Context, email, password string) (*domain.TokenSession, error)
	GetUser(ctx context.Context, accessToken string) (*domain.User, error)
	SignOut(ctx context.Context, accessToken string) error
	SendRecoveryEmail(ctx context.Context, email, redirectTo string) error
	UpdatePassword(ctx context.Context, accessToken, newPassword string) error
	ExchangeCode(ctx context.Context, code string) (*domain.TokenSession, error)
	AdminDeleteUser(ctx context.Context, userID string) error
}

// ProfileStore holds application user records.
// Lookups return (nil, nil) when no row matches.
type ProfileStore interface {
	GetProfile(ctx context.Context, id string) (*domain.Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (*domain.Profile, error)
	ListProfiles(ctx context.Context) ([]domain.Profile, error)
	ListClients(ctx context.Context) ([]domain.Profile, error)
	InsertProfile(ctx context.Context, p *domain.Profile) error
	UpdateProfile(ctx context.Context, id string, updates map[string]any) error
	DeleteProfile(ctx context.Context, id string) error
}

// InvoiceStore holds invoices and their line items. List results embed
// the owning profile and items, ordered by created_at descending.
type InvoiceStore interface {
	ListInvoices(ctx context.Context) ([]domain.Invoice, error)
	ListInvoicesByClient(ctx context.Context, clientID string) ([]domain.Invoice, error)
	GetInvoice(ctx context.Context, id string) (*domain.Invoice, error)
	InsertInvoice(ctx context.Context, inv *domain.Invoice) error
	InsertInvoiceItems(ctx context.Context, items []domain.InvoiceItem) error
	UpdateInvoice(ctx context.Context, id string, updates map[string]any) error
	DeleteInvoice(ctx context.Context, id string) error
}

// ProjectStore holds projects.
type ProjectStore interface {
	ListProjects(ctx context.Context) ([]domain.Project, error)
	ListProjectsByDeadline(ctx context.Context) ([]domain.Project, error)
	ListProjectsByClient(ctx context.Context, clientID string) ([]domain.Project, error)
	InsertProject(ctx context.Context, p *domain.Project) error
	UpdateProject(ctx context.Context, id string, updates map[string]any) error
	DeleteProject(ctx context.Context, id string) error
}

// TicketStore holds support tickets. Paged listings use a 1-indexed
// page with the fixed domain.TicketPageSize.
type TicketStore interface {
	ListTickets(ctx context.Context, page int) ([]domain.Ticket, error)
	ListTicketsByUser(ctx context.Context, userID string, page int) ([]domain.Ticket, error)
	ListAllTickets(ctx context.Context) ([]domain.Ticket, error)
	ListAllTicketsByUser(ctx context.Context, userID string) ([]domain.Ticket, error)
	InsertTicket(ctx context.Context, t *domain.Ticket) error
	UpdateTicket(ctx context.Context, id string, updates map[string]any) error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
