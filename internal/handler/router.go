// Package handler wires the HTTP surface: route table, middleware
// chain, and the per-resource handlers.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/bagianprojects/client-area-api/internal/infra/observability"
	"github.com/bagianprojects/client-area-api/internal/service"
)

var tracer = otel.Tracer("handler")

// Deps bundles everything the router needs.
type Deps struct {
	Sessions   *service.SessionService
	Auth       *service.AuthService
	Dashboards *service.DashboardService
	Invoices   *service.InvoiceService
	Projects   *service.ProjectService
	Tickets    *service.TicketService
	Users      *service.UserService
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	logger := d.Logger

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger, d.Metrics))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler())
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(d.Metrics.Registry, promhttp.HandlerOpts{}))

	// --- Page gates ---
	// The frontend proxies these to decide where a visitor lands:
	// a signed-in user is bounced off /login, an anonymous one off the
	// area pages, and staff land on /admin.
	r.Get("/login", loginGateHandler(d.Sessions, logger))
	r.Get("/customer", areaGateHandler(d.Sessions, logger))
	r.Get("/admin", areaGateHandler(d.Sessions, logger))

	// --- Auth callback + email check (public, outside /v1) ---
	r.Get("/callback", callbackHandler(d.Auth, logger))
	r.Post("/api/auth/check-email", checkEmailHandler(d.Auth, logger))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// Public auth routes
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", registerHandler(d.Auth, logger))
			r.Post("/login", loginHandler(d.Auth, logger))
			r.Post("/forgot-password", forgotPasswordHandler(d.Auth, logger))
			// The recovery session is its own credential; no resolved
			// profile is required to finish a reset.
			r.Post("/reset-password", resetPasswordHandler(d.Auth, logger))

			r.Group(func(r chi.Router) {
				r.Use(SessionMiddleware(d.Sessions, logger))
				r.Post("/logout", logoutHandler(d.Auth, logger))
				r.Post("/change-password", changePasswordHandler(d.Auth, logger))
			})
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(SessionMiddleware(d.Sessions, logger))

			r.Get("/me", meHandler())

			// Dashboards
			r.Get("/dashboard", customerDashboardHandler(d.Dashboards, logger))

			// Invoices
			r.Get("/invoices", listInvoicesHandler(d.Invoices, logger))
			r.Get("/invoices/{id}", getInvoiceHandler(d.Invoices, logger))
			r.Get("/invoices/{id}/print", printInvoiceHandler(d.Invoices, logger))

			// Projects
			r.Get("/projects", listProjectsHandler(d.Projects, logger))

			// Tickets
			r.Get("/tickets", listTicketsHandler(d.Tickets, logger))
			r.Post("/tickets", createTicketHandler(d.Tickets, logger))

			// Profile self-service
			r.Patch("/profile", updateProfileHandler(d.Users, logger))

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(RequireAdmin(logger))

				r.Get("/dashboard/admin", adminDashboardHandler(d.Dashboards, logger))
				r.Get("/metrics/summary", metricsSummaryHandler(d.Metrics))

				r.Post("/invoices", createInvoiceHandler(d.Invoices, logger))
				r.Post("/invoices/{id}/mark-paid", markInvoicePaidHandler(d.Invoices, logger))
				r.Delete("/invoices/{id}", deleteInvoiceHandler(d.Invoices, logger))

				r.Post("/projects", createProjectHandler(d.Projects, logger))
				r.Patch("/projects/{id}", updateProjectHandler(d.Projects, logger))
				r.Delete("/projects/{id}", deleteProjectHandler(d.Projects, logger))

				r.Patch("/tickets/{id}/status", setTicketStatusHandler(d.Tickets, logger))

				r.Get("/users", listUsersHandler(d.Users, logger))
				r.Patch("/users/{id}", updateUserHandler(d.Users, logger))
				r.Patch("/users/{id}/role", updateUserRoleHandler(d.Users, logger))
				r.Delete("/users/{id}", deleteUserHandler(d.Users, logger))
			})
		})
	})

	return r
}

// ============================================================
// Operational endpoints
// ============================================================

func healthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// ============================================================
// Page gates
// ============================================================

// loginGateHandler bounces an already-authenticated visitor off the
// login page to their landing area.
func loginGateHandler(sessions *service.SessionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
			return
		}
		session, err := sessions.Resolve(r.Context(), token)
		if err != nil {
			// Resolve failure reads as "no user"; the login page stays up.
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
			return
		}
		dest := "/customer"
		if session.IsAdmin {
			dest = "/admin"
		}
		http.Redirect(w, r, dest, http.StatusTemporaryRedirect)
	}
}

// areaGateHandler bounces an anonymous visitor off the area pages to
// /login, and a customer off /admin to /customer.
func areaGateHandler(sessions *service.SessionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		session, err := sessions.Resolve(r.Context(), token)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		if r.URL.Path == "/admin" && !session.IsAdmin {
			http.Redirect(w, r, "/customer", http.StatusSeeOther)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// ============================================================
// Session info — GET /v1/me
// ============================================================

func meHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, SessionFromContext(r.Context()))
	}
}

// ============================================================
// Ops summary — GET /v1/metrics/summary
// ============================================================

func metricsSummaryHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.Snapshot())
	}
}
