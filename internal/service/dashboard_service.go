// Package service — DashboardService assembles the admin and customer
// overview pages. Source tables are fetched concurrently and reduced in
// memory; nothing is aggregated on the store side.
package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bagianprojects/client-area-api/internal/domain"
	"github.com/bagianprojects/client-area-api/internal/infra/observability"
	"github.com/bagianprojects/client-area-api/internal/port"
)

var dashboardTracer = otel.Tracer("service/dashboard")

// recentLimit caps the "recent" lists on the admin dashboard.
const recentLimit = 5

// customerRecentLimit caps the "recent" lists on the customer dashboard.
const customerRecentLimit = 3

// upcomingProjectsLimit caps the admin upcoming-projects list.
const upcomingProjectsLimit = 5

// DashboardService aggregates dashboard statistics.
type DashboardService struct {
	profiles port.ProfileStore
	invoices port.InvoiceStore
	projects port.ProjectStore
	tickets  port.TicketStore
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewDashboardService creates a dashboard service.
func NewDashboardService(profiles port.ProfileStore, invoices port.InvoiceStore, projects port.ProjectStore, tickets port.TicketStore, metrics *observability.Metrics, logger *zap.Logger) *DashboardService {
	return &DashboardService{
		profiles: profiles,
		invoices: invoices,
		projects: projects,
		tickets:  tickets,
		metrics:  metrics,
		logger:   logger,
	}
}

// ============================================================
// AdminOverview — GET /v1/dashboard/admin
// ============================================================

// AdminOverview fetches clients, invoices, tickets and projects
// concurrently and reduces them into the management summary. Any
// source failing fails the whole page.
func (s *DashboardService) AdminOverview(ctx context.Context) (*domain.AdminStats, error) {
	ctx, span := dashboardTracer.Start(ctx, "DashboardService.AdminOverview")
	defer span.End()
	start := time.Now()

	var (
		clients  []domain.Profile
		invoices []domain.Invoice
		tickets  []domain.Ticket
		projects []domain.Project
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		clients, err = s.profiles.ListClients(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		invoices, err = s.invoices.ListInvoices(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		tickets, err = s.tickets.ListAllTickets(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		projects, err = s.projects.ListProjectsByDeadline(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.metrics.IncrExternalError("dashboard")
		return nil, err
	}

	stats := &domain.AdminStats{
		TotalClients:  len(clients),
		TotalInvoices: len(invoices),
	}

	// Revenue sums every invoice regardless of status; statuses outside
	// paid/unpaid still count toward the total row count.
	for _, inv := range invoices {
		stats.TotalRevenue += inv.Amount
		switch inv.Status {
		case domain.InvoiceStatusPaid:
			stats.PaidInvoices++
		case domain.InvoiceStatusUnpaid:
			stats.UnpaidInvoices++
		}
	}

	for _, t := range tickets {
		switch t.Status {
		case domain.TicketStatusOpen:
			stats.OpenTickets++
		case domain.TicketStatusClosed:
			stats.ClosedTickets++
		}
	}

	stats.RecentClients = headProfiles(clients, recentLimit)
	stats.RecentInvoices = headInvoices(invoices, recentLimit)
	stats.UpcomingProjects = upcomingProjects(projects, upcomingProjectsLimit)

	s.metrics.RecordRequestDuration("dashboard_admin", time.Since(start))
	span.SetAttributes(
		attribute.Int("clients", stats.TotalClients),
		attribute.Int("invoices", stats.TotalInvoices),
	)

	return stats, nil
}

// ============================================================
// CustomerOverview — GET /v1/dashboard
// ============================================================

// CustomerOverview reduces the caller's own invoices and tickets into
// the customer summary. A user with no rows gets an all-zero summary,
// not an error.
func (s *DashboardService) CustomerOverview(ctx context.Context, userID string) (*domain.CustomerStats, error) {
	ctx, span := dashboardTracer.Start(ctx, "DashboardService.CustomerOverview")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))
	start := time.Now()

	var (
		invoices []domain.Invoice
		tickets  []domain.Ticket
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		invoices, err = s.invoices.ListInvoicesByClient(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		tickets, err = s.tickets.ListAllTicketsByUser(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.metrics.IncrExternalError("dashboard")
		return nil, err
	}

	stats := &domain.CustomerStats{
		TotalInvoices: len(invoices),
	}

	for _, inv := range invoices {
		stats.TotalAmount += inv.Amount
		switch inv.Status {
		case domain.InvoiceStatusPaid:
			stats.PaidInvoices++
			stats.PaidAmount += inv.Amount
		case domain.InvoiceStatusUnpaid:
			stats.UnpaidInvoices++
			stats.UnpaidAmount += inv.Amount
		}
	}

	for _, t := range tickets {
		switch t.Status {
		case domain.TicketStatusOpen:
			stats.OpenTickets++
		case domain.TicketStatusClosed:
			stats.ClosedTickets++
		}
	}

	stats.RecentInvoices = headInvoices(invoices, customerRecentLimit)
	stats.RecentTickets = headTickets(tickets, customerRecentLimit)

	s.metrics.RecordRequestDuration("dashboard_customer", time.Since(start))
	return stats, nil
}

// ============================================================
// Reduction helpers
// ============================================================

// Source lists arrive ordered by created_at descending, so "recent" is
// a prefix. Ties on created_at keep store order.

func headProfiles(rows []domain.Profile, n int) []domain.Profile {
	if len(rows) < n {
		n = len(rows)
	}
	return rows[:n]
}

func headInvoices(rows []domain.Invoice, n int) []domain.Invoice {
	if len(rows) < n {
		n = len(rows)
	}
	return rows[:n]
}

func headTickets(rows []domain.Ticket, n int) []domain.Ticket {
	if len(rows) < n {
		n = len(rows)
	}
	return rows[:n]
}

// upcomingProjects keeps unfinished projects in deadline order.
func upcomingProjects(rows []domain.Project, n int) []domain.Project {
	out := make([]domain.Project, 0, n)
	for _, p := range rows {
		if p.Status == domain.ProjectStatusCompleted {
			continue
		}
		out = append(out, p)
		if len(out) == n {
			break
		}
	}
	return out
}
