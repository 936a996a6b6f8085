package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/bagianprojects/client-area-api/internal/domain"
	"github.com/bagianprojects/client-area-api/internal/handler"
	"github.com/bagianprojects/client-area-api/internal/infra/cache"
	"github.com/bagianprojects/client-area-api/internal/infra/observability"
	"github.com/bagianprojects/client-area-api/internal/service"
)

const testSecret = "router-test-secret"

// ============================================================
// Stub ports — just enough behavior to drive the route table.
// ============================================================

type stubProfiles struct {
	rows map[string]*domain.Profile
}

func (s *stubProfiles) GetProfile(_ context.Context, id string) (*domain.Profile, error) {
	return s.rows[id], nil
}
func (s *stubProfiles) GetProfileByEmail(_ context.Context, email string) (*domain.Profile, error) {
	for _, p := range s.rows {
		if p.Email == email {
			return p, nil
		}
	}
	return nil, nil
}
func (s *stubProfiles) ListProfiles(_ context.Context) ([]domain.Profile, error)  { return nil, nil }
func (s *stubProfiles) ListClients(_ context.Context) ([]domain.Profile, error)   { return nil, nil }
func (s *stubProfiles) InsertProfile(_ context.Context, _ *domain.Profile) error  { return nil }
func (s *stubProfiles) UpdateProfile(_ context.Context, _ string, _ map[string]any) error {
	return nil
}
func (s *stubProfiles) DeleteProfile(_ context.Context, _ string) error { return nil }

type stubIdentity struct{}

func (stubIdentity) SignUp(_ context.Context, email, _ string, _ map[string]any) (*domain.User, error) {
	return &domain.User{ID: "new", Email: email}, nil
}
func (stubIdentity) SignInWithPassword(_ context.Context, _, _ string) (*domain.TokenSession, error) {
	return &domain.TokenSession{AccessToken: "tok"}, nil
}
func (stubIdentity) GetUser(_ context.Context, _ string) (*domain.User, error) { return nil, nil }
func (stubIdentity) SignOut(_ context.Context, _ string) error                 { return nil }
func (stubIdentity) SendRecoveryEmail(_ context.Context, _, _ string) error    { return nil }
func (stubIdentity) UpdatePassword(_ context.Context, _, _ string) error       { return nil }
func (stubIdentity) ExchangeCode(_ context.Context, _ string) (*domain.TokenSession, error) {
	return &domain.TokenSession{AccessToken: "tok"}, nil
}
func (stubIdentity) AdminDeleteUser(_ context.Context, _ string) error { return nil }

type stubInvoices struct {
	rows []domain.Invoice
}

func (s *stubInvoices) ListInvoices(_ context.Context) ([]domain.Invoice, error) {
	return s.rows, nil
}
func (s *stubInvoices) ListInvoicesByClient(_ context.Context, clientID string) ([]domain.Invoice, error) {
	var out []domain.Invoice
	for _, inv := range s.rows {
		if inv.ClientID == clientID {
			out = append(out, inv)
		}
	}
	return out, nil
}
func (s *stubInvoices) GetInvoice(_ context.Context, id string) (*domain.Invoice, error) {
	for i := range s.rows {
		if s.rows[i].ID == id {
			return &s.rows[i], nil
		}
	}
	return nil, nil
}
func (s *stubInvoices) InsertInvoice(_ context.Context, inv *domain.Invoice) error {
	inv.ID = "created"
	return nil
}
func (s *stubInvoices) InsertInvoiceItems(_ context.Context, _ []domain.InvoiceItem) error {
	return nil
}
func (s *stubInvoices) UpdateInvoice(_ context.Context, _ string, _ map[string]any) error {
	return nil
}
func (s *stubInvoices) DeleteInvoice(_ context.Context, _ string) error { return nil }

type stubProjects struct{}

func (stubProjects) ListProjects(_ context.Context) ([]domain.Project, error)           { return nil, nil }
func (stubProjects) ListProjectsByDeadline(_ context.Context) ([]domain.Project, error) { return nil, nil }
func (stubProjects) ListProjectsByClient(_ context.Context, _ string) ([]domain.Project, error) {
	return nil, nil
}
func (stubProjects) InsertProject(_ context.Context, p *domain.Project) error {
	p.ID = "created"
	return nil
}
func (stubProjects) UpdateProject(_ context.Context, _ string, _ map[string]any) error { return nil }
func (stubProjects) DeleteProject(_ context.Context, _ string) error                   { return nil }

type stubTickets struct{}

func (stubTickets) ListTickets(_ context.Context, _ int) ([]domain.Ticket, error) { return nil, nil }
func (stubTickets) ListTicketsByUser(_ context.Context, _ string, _ int) ([]domain.Ticket, error) {
	return nil, nil
}
func (stubTickets) ListAllTickets(_ context.Context) ([]domain.Ticket, error) { return nil, nil }
func (stubTickets) ListAllTicketsByUser(_ context.Context, _ string) ([]domain.Ticket, error) {
	return nil, nil
}
func (stubTickets) InsertTicket(_ context.Context, t *domain.Ticket) error {
	t.ID = "created"
	return nil
}
func (stubTickets) UpdateTicket(_ context.Context, _ string, _ map[string]any) error { return nil }

// ============================================================
// Harness
// ============================================================

func signToken(t *testing.T, sub, email string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":   sub,
		"email": email,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()

	profiles := &stubProfiles{rows: map[string]*domain.Profile{
		"admin-1": {ID: "admin-1", Email: "boss@example.com", Role: domain.RoleAdmin},
		"cust-1":  {ID: "cust-1", Email: "cust@example.com", Role: domain.RoleCustomer},
	}}
	invoices := &stubInvoices{rows: []domain.Invoice{
		{ID: "i-1", InvoiceNumber: "INV-1", ClientID: "cust-1", Amount: 1000, Status: domain.InvoiceStatusUnpaid},
	}}

	sessions := service.NewSessionService(profiles, testSecret,
		cache.New[*domain.Session](time.Minute), metrics, logger)
	auth := service.NewAuthService(stubIdentity{}, profiles, sessions, "http://localhost:3000", logger)
	dashboards := service.NewDashboardService(profiles, invoices, stubProjects{}, stubTickets{}, metrics, logger)

	srv := httptest.NewServer(handler.NewRouter(handler.Deps{
		Sessions:   sessions,
		Auth:       auth,
		Dashboards: dashboards,
		Invoices:   service.NewInvoiceService(invoices, logger),
		Projects:   service.NewProjectService(stubProjects{}, logger),
		Tickets:    service.NewTicketService(stubTickets{}, logger),
		Users:      service.NewUserService(profiles, stubIdentity{}, sessions, logger),
		Metrics:    metrics,
		Logger:     logger,
	}))
	t.Cleanup(srv.Close)
	return srv
}

func doRequest(t *testing.T, method, url, token, body string) *http.Response {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

// ============================================================
// Tests
// ============================================================

func TestOperationalEndpoints(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz", "/ping", "/metrics"} {
		resp := doRequest(t, http.MethodGet, srv.URL+path, "", "")
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, resp.StatusCode)
		}
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t)

	resp := doRequest(t, http.MethodGet, srv.URL+"/v1/me", "", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("GET /v1/me without token = %d, want 401", resp.StatusCode)
	}
}

func TestMeReturnsResolvedSession(t *testing.T) {
	srv := newTestServer(t)
	token := signToken(t, "cust-1", "cust@example.com")

	resp := doRequest(t, http.MethodGet, srv.URL+"/v1/me", token, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /v1/me = %d, want 200", resp.StatusCode)
	}
	var session domain.Session
	decodeBody(t, resp, &session)
	if session.UserID != "cust-1" || session.IsAdmin {
		t.Errorf("unexpected session %+v", session)
	}
}

func TestAdminRoutesRejectCustomers(t *testing.T) {
	srv := newTestServer(t)
	token := signToken(t, "cust-1", "cust@example.com")

	resp := doRequest(t, http.MethodGet, srv.URL+"/v1/users", token, "")
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("GET /v1/users as customer = %d, want 403", resp.StatusCode)
	}

	admin := signToken(t, "admin-1", "boss@example.com")
	resp = doRequest(t, http.MethodGet, srv.URL+"/v1/users", admin, "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /v1/users as admin = %d, want 200", resp.StatusCode)
	}
}

func TestPageGates(t *testing.T) {
	srv := newTestServer(t)
	admin := signToken(t, "admin-1", "boss@example.com")
	cust := signToken(t, "cust-1", "cust@example.com")

	cases := []struct {
		path       string
		token      string
		wantStatus int
		wantDest   string
	}{
		{"/customer", "", http.StatusSeeOther, "/login"},
		{"/admin", "", http.StatusSeeOther, "/login"},
		{"/admin", cust, http.StatusSeeOther, "/customer"},
		{"/admin", admin, http.StatusOK, ""},
		{"/customer", cust, http.StatusOK, ""},
		{"/login", cust, http.StatusTemporaryRedirect, "/customer"},
		{"/login", admin, http.StatusTemporaryRedirect, "/admin"},
		{"/login", "", http.StatusOK, ""},
	}
	for _, c := range cases {
		resp := doRequest(t, http.MethodGet, srv.URL+c.path, c.token, "")
		if resp.StatusCode != c.wantStatus {
			t.Errorf("GET %s = %d, want %d", c.path, resp.StatusCode, c.wantStatus)
			continue
		}
		if loc := resp.Header.Get("Location"); loc != c.wantDest {
			t.Errorf("GET %s Location = %q, want %q", c.path, loc, c.wantDest)
		}
	}
}

func TestSessionCookieFallback(t *testing.T) {
	srv := newTestServer(t)
	token := signToken(t, "cust-1", "cust@example.com")

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/v1/me", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.AddCookie(&http.Cookie{Name: "sb-access-token", Value: token})

	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("GET /v1/me: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /v1/me with cookie = %d, want 200", resp.StatusCode)
	}
	var session domain.Session
	decodeBody(t, resp, &session)
	if session.UserID != "cust-1" {
		t.Errorf("unexpected session %+v", session)
	}
}

func TestMetricsSummaryCountsTraffic(t *testing.T) {
	srv := newTestServer(t)
	admin := signToken(t, "admin-1", "boss@example.com")
	cust := signToken(t, "cust-1", "cust@example.com")

	// Drive some traffic through the middleware chain first.
	doRequest(t, http.MethodGet, srv.URL+"/healthz", "", "")
	doRequest(t, http.MethodGet, srv.URL+"/v1/me", cust, "")
	doRequest(t, http.MethodGet, srv.URL+"/v1/me", "", "")

	resp := doRequest(t, http.MethodGet, srv.URL+"/v1/metrics/summary", admin, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /v1/metrics/summary = %d, want 200", resp.StatusCode)
	}
	var snap domain.OpsSnapshot
	decodeBody(t, resp, &snap)
	if snap.TotalRequests < 3 {
		t.Errorf("expected request counter to track traffic, got %d", snap.TotalRequests)
	}
	if snap.ErrorRate != 0 {
		t.Errorf("no 5xx responses were produced, got error rate %f", snap.ErrorRate)
	}
}

func TestCheckEmail(t *testing.T) {
	srv := newTestServer(t)

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/auth/check-email", "", `{}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing email = %d, want 400", resp.StatusCode)
	}

	resp = doRequest(t, http.MethodPost, srv.URL+"/api/auth/check-email", "", `{"email":"cust@example.com"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("check-email = %d, want 200", resp.StatusCode)
	}
	var body domain.CheckEmailResponse
	decodeBody(t, resp, &body)
	if !body.Exists {
		t.Error("expected known email to exist")
	}
}

func TestCallbackRedirects(t *testing.T) {
	srv := newTestServer(t)

	resp := doRequest(t, http.MethodGet, srv.URL+"/callback", "", "")
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("GET /callback = %d, want 302", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/login?error=missing_code" {
		t.Errorf("unexpected redirect %q", loc)
	}
}

func TestGetInvoice_UndefinedID(t *testing.T) {
	srv := newTestServer(t)
	token := signToken(t, "cust-1", "cust@example.com")

	resp := doRequest(t, http.MethodGet, srv.URL+"/v1/invoices/undefined", token, "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("GET /v1/invoices/undefined = %d, want 400", resp.StatusCode)
	}
}

func TestPrintInvoice(t *testing.T) {
	srv := newTestServer(t)
	token := signToken(t, "cust-1", "cust@example.com")

	resp := doRequest(t, http.MethodGet, srv.URL+"/v1/invoices/i-1/print", token, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("print = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("unexpected content type %q", ct)
	}
}

func TestCreateTicket(t *testing.T) {
	srv := newTestServer(t)
	token := signToken(t, "cust-1", "cust@example.com")

	resp := doRequest(t, http.MethodPost, srv.URL+"/v1/tickets", token, `{"subject":"Help"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("POST /v1/tickets = %d, want 201", resp.StatusCode)
	}
}
