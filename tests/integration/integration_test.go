// Package integration exercises the full stack end to end: real router,
// services and Supabase client against an in-process fake of the
// PostgREST and GoTrue APIs.
package integration

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/bagianprojects/client-area-api/internal/domain"
	"github.com/bagianprojects/client-area-api/internal/handler"
	"github.com/bagianprojects/client-area-api/internal/infra/cache"
	"github.com/bagianprojects/client-area-api/internal/infra/observability"
	"github.com/bagianprojects/client-area-api/internal/infra/resilience"
	"github.com/bagianprojects/client-area-api/internal/infra/supabase"
	"github.com/bagianprojects/client-area-api/internal/service"
)

const (
	jwtSecret    = "integration-test-secret"
	anonKey      = "anon-key"
	serviceKey   = "service-role-key"
	testPassword = "password123"
)

// ============================================================
// Fake backend — just enough PostgREST + GoTrue to run the flows
// ============================================================

type fakeBackend struct {
	mu     sync.Mutex
	nextID int

	profiles []map[string]any
	invoices []map[string]any
	items    []map[string]any
	projects []map[string]any
	tickets  []map[string]any
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		profiles: []map[string]any{
			{"id": "admin-1", "email": "boss@example.com", "full_name": "Boss", "role": "admin", "created_at": "2026-01-01T00:00:00Z"},
			{"id": "cust-1", "email": "cust@example.com", "full_name": "Siti Rahma", "company_name": "Rahma Studio", "role": "customer", "created_at": "2026-01-02T00:00:00Z"},
		},
	}
}

func (f *fakeBackend) table(name string) *[]map[string]any {
	switch name {
	case "profiles":
		return &f.profiles
	case "invoices":
		return &f.invoices
	case "invoice_items":
		return &f.items
	case "projects":
		return &f.projects
	case "tickets":
		return &f.tickets
	}
	return nil
}

func matches(row map[string]any, q map[string][]string) bool {
	for _, key := range []string{"id", "client_id", "email", "user_id", "invoice_id"} {
		vs, ok := q[key]
		if !ok || len(vs) == 0 {
			continue
		}
		if !strings.HasPrefix(vs[0], "eq.") {
			continue
		}
		if fmt.Sprint(row[key]) != strings.TrimPrefix(vs[0], "eq.") {
			return false
		}
	}
	if vs, ok := q["role"]; ok && len(vs) > 0 && strings.HasPrefix(vs[0], "not.in.") {
		role := fmt.Sprint(row["role"])
		if role == "admin" || role == "superadmin" {
			return false
		}
	}
	return true
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/auth/v1/") {
		f.serveAuth(w, r)
		return
	}
	if strings.HasPrefix(r.URL.Path, "/rest/v1/") {
		f.serveRest(w, r)
		return
	}
	http.NotFound(w, r)
}

func (f *fakeBackend) serveAuth(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/auth/v1/")
	switch {
	case path == "token" && r.URL.Query().Get("grant_type") == "password":
		var creds struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		json.NewDecoder(r.Body).Decode(&creds)

		f.mu.Lock()
		var profile map[string]any
		for _, p := range f.profiles {
			if p["email"] == creds.Email {
				profile = p
				break
			}
		}
		f.mu.Unlock()

		if profile == nil || creds.Password != testPassword {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error_description": "Invalid login credentials"})
			return
		}

		claims := jwt.MapClaims{
			"sub":   profile["id"],
			"email": profile["email"],
			"exp":   time.Now().Add(time.Hour).Unix(),
		}
		token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(jwtSecret))
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  token,
			"token_type":    "bearer",
			"expires_in":    3600,
			"refresh_token": "refresh-1",
			"user":          map[string]any{"id": profile["id"], "email": profile["email"]},
		})
	case path == "logout":
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeBackend) serveRest(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	name := strings.TrimPrefix(r.URL.Path, "/rest/v1/")
	rows := f.table(name)
	if rows == nil {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()

	switch r.Method {
	case http.MethodGet:
		out := make([]map[string]any, 0)
		for _, row := range *rows {
			if matches(row, q) {
				out = append(out, f.enrich(name, row))
			}
		}
		json.NewEncoder(w).Encode(out)

	case http.MethodPost:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		var inserted []map[string]any
		if strings.HasPrefix(strings.TrimSpace(string(body)), "[") {
			json.Unmarshal(body, &inserted)
		} else {
			var one map[string]any
			json.Unmarshal(body, &one)
			inserted = []map[string]any{one}
		}
		for _, row := range inserted {
			if _, ok := row["id"]; !ok {
				f.nextID++
				row["id"] = fmt.Sprintf("%s-%d", name, f.nextID)
			}
			if _, ok := row["created_at"]; !ok {
				row["created_at"] = time.Now().UTC().Format(time.RFC3339)
			}
			*rows = append(*rows, row)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(inserted)

	case http.MethodPatch:
		var updates map[string]any
		json.NewDecoder(r.Body).Decode(&updates)
		for _, row := range *rows {
			if matches(row, q) {
				for k, v := range updates {
					row[k] = v
				}
			}
		}
		w.WriteHeader(http.StatusNoContent)

	case http.MethodDelete:
		kept := (*rows)[:0]
		for _, row := range *rows {
			if !matches(row, q) {
				kept = append(kept, row)
			}
		}
		*rows = kept
		w.WriteHeader(http.StatusNoContent)
	}
}

// enrich embeds the owning profile and line items the way PostgREST
// resolves the select expression.
func (f *fakeBackend) enrich(table string, row map[string]any) map[string]any {
	if table != "invoices" {
		return row
	}
	out := make(map[string]any, len(row)+2)
	for k, v := range row {
		out[k] = v
	}
	for _, p := range f.profiles {
		if p["id"] == row["client_id"] {
			out["profiles"] = p
			break
		}
	}
	items := make([]map[string]any, 0)
	for _, it := range f.items {
		if it["invoice_id"] == row["id"] {
			items = append(items, it)
		}
	}
	out["invoice_items"] = items
	return out
}

// ============================================================
// Harness
// ============================================================

func newStack(t *testing.T) (*httptest.Server, *fakeBackend) {
	t.Helper()
	backend := newFakeBackend()
	backendSrv := httptest.NewServer(backend)
	t.Cleanup(backendSrv.Close)

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	cfg := resilience.Config{MaxRetries: 1, InitialBackoff: 5 * time.Millisecond}
	cb := resilience.NewCircuitBreaker("supabase-test")

	sb := supabase.NewClient(backendSrv.Client(), backendSrv.URL, anonKey, serviceKey, cb, cfg, logger)

	sessions := service.NewSessionService(sb, jwtSecret,
		cache.New[*domain.Session](time.Minute), metrics, logger)

	api := httptest.NewServer(handler.NewRouter(handler.Deps{
		Sessions:   sessions,
		Auth:       service.NewAuthService(sb, sb, sessions, "http://localhost:3000", logger),
		Dashboards: service.NewDashboardService(sb, sb, sb, sb, metrics, logger),
		Invoices:   service.NewInvoiceService(sb, logger),
		Projects:   service.NewProjectService(sb, logger),
		Tickets:    service.NewTicketService(sb, logger),
		Users:      service.NewUserService(sb, sb, sessions, logger),
		Metrics:    metrics,
		Logger:     logger,
	}))
	t.Cleanup(api.Close)
	return api, backend
}

func request(t *testing.T, method, url, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func login(t *testing.T, apiURL, email string) *domain.LoginResponse {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, testPassword)
	resp := request(t, http.MethodPost, apiURL+"/v1/auth/login", "", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s = %d, want 200", email, resp.StatusCode)
	}
	var out domain.LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return &out
}

// ============================================================
// Flows
// ============================================================

func TestLoginResolvesRoles(t *testing.T) {
	api, _ := newStack(t)

	admin := login(t, api.URL, "boss@example.com")
	if admin.Role != domain.RoleAdmin {
		t.Errorf("expected admin role, got %q", admin.Role)
	}

	cust := login(t, api.URL, "cust@example.com")
	if cust.Role != domain.RoleCustomer {
		t.Errorf("expected customer role, got %q", cust.Role)
	}

	resp := request(t, http.MethodPost, api.URL+"/v1/auth/login", "",
		`{"email":"boss@example.com","password":"wrong-password"}`)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad credentials = %d, want 401", resp.StatusCode)
	}
}

func TestInvoiceLifecycle(t *testing.T) {
	api, _ := newStack(t)
	admin := login(t, api.URL, "boss@example.com")
	cust := login(t, api.URL, "cust@example.com")

	// Admin creates an invoice for the customer.
	createBody := `{
		"client_id": "cust-1",
		"due_date": "2026-09-30",
		"tax_percentage": 10,
		"discount": 5000,
		"notes": "Milestone 1",
		"items": [
			{"description": "Landing page design", "quantity": 2, "unit_price": 100000}
		]
	}`
	resp := request(t, http.MethodPost, api.URL+"/v1/invoices", admin.AccessToken, createBody)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create invoice = %d, want 201", resp.StatusCode)
	}
	var created domain.Invoice
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode created invoice: %v", err)
	}
	if created.Amount != 215000 {
		t.Errorf("expected amount 215000, got %f", created.Amount)
	}
	if !strings.HasPrefix(created.InvoiceNumber, "INV-") {
		t.Errorf("expected generated invoice number, got %q", created.InvoiceNumber)
	}

	// The customer sees it in their own listing.
	resp = request(t, http.MethodGet, api.URL+"/v1/invoices", cust.AccessToken, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list invoices = %d, want 200", resp.StatusCode)
	}
	var listing struct {
		Invoices []domain.Invoice `json:"invoices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if len(listing.Invoices) != 1 || listing.Invoices[0].ID != created.ID {
		t.Fatalf("unexpected customer listing %+v", listing.Invoices)
	}
	if listing.Invoices[0].Client == nil || listing.Invoices[0].Client.FullName != "Siti Rahma" {
		t.Error("expected embedded client profile in listing")
	}

	// Customers cannot create invoices.
	resp = request(t, http.MethodPost, api.URL+"/v1/invoices", cust.AccessToken, createBody)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("customer create = %d, want 403", resp.StatusCode)
	}

	// The printable document renders with the computed totals.
	resp = request(t, http.MethodGet, api.URL+"/v1/invoices/"+created.ID+"/print", cust.AccessToken, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("print = %d, want 200", resp.StatusCode)
	}
	page, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read print body: %v", err)
	}
	for _, want := range []string{created.InvoiceNumber, "Siti Rahma", "Rp 215.000,00"} {
		if !strings.Contains(string(page), want) {
			t.Errorf("printable invoice missing %q", want)
		}
	}

	// Mark paid and confirm the status flows back on the detail read.
	resp = request(t, http.MethodPost, api.URL+"/v1/invoices/"+created.ID+"/mark-paid", admin.AccessToken, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("mark paid = %d, want 200", resp.StatusCode)
	}
	resp = request(t, http.MethodGet, api.URL+"/v1/invoices/"+created.ID, admin.AccessToken, "")
	var detail struct {
		Invoice domain.Invoice `json:"invoice"`
		Color   string         `json:"color"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	if detail.Invoice.Status != domain.InvoiceStatusPaid || detail.Color != "green" {
		t.Errorf("expected paid/green after mark-paid, got %q/%q", detail.Invoice.Status, detail.Color)
	}
}

func TestAdminDashboardAggregates(t *testing.T) {
	api, _ := newStack(t)
	admin := login(t, api.URL, "boss@example.com")
	cust := login(t, api.URL, "cust@example.com")

	// Seed one invoice and one ticket through the API.
	resp := request(t, http.MethodPost, api.URL+"/v1/invoices", admin.AccessToken,
		`{"client_id":"cust-1","due_date":"2026-09-15","items":[{"description":"Hosting","quantity":1,"unit_price":50000}]}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create invoice = %d", resp.StatusCode)
	}
	resp = request(t, http.MethodPost, api.URL+"/v1/tickets", cust.AccessToken,
		`{"subject":"DNS question"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create ticket = %d", resp.StatusCode)
	}
	var ticket domain.Ticket
	if err := json.NewDecoder(resp.Body).Decode(&ticket); err != nil {
		t.Fatalf("decode ticket: %v", err)
	}

	resp = request(t, http.MethodGet, api.URL+"/v1/dashboard/admin", admin.AccessToken, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin dashboard = %d, want 200", resp.StatusCode)
	}
	var stats domain.AdminStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.TotalClients != 1 {
		t.Errorf("expected 1 client, got %d", stats.TotalClients)
	}
	if stats.TotalInvoices != 1 || stats.UnpaidInvoices != 1 {
		t.Errorf("expected 1 unpaid invoice, got %+v", stats)
	}
	if stats.TotalRevenue != 50000 {
		t.Errorf("expected revenue 50000, got %f", stats.TotalRevenue)
	}
	if stats.OpenTickets != 1 {
		t.Errorf("expected 1 open ticket, got %d", stats.OpenTickets)
	}

	// Closing the ticket moves it between the aggregator's buckets.
	resp = request(t, http.MethodPatch, api.URL+"/v1/tickets/"+ticket.ID+"/status", admin.AccessToken,
		`{"status":"closed"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("close ticket = %d, want 200", resp.StatusCode)
	}
	resp = request(t, http.MethodGet, api.URL+"/v1/dashboard/admin", admin.AccessToken, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin dashboard = %d, want 200", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.OpenTickets != 0 || stats.ClosedTickets != 1 {
		t.Errorf("expected 0 open / 1 closed after toggle, got %d/%d", stats.OpenTickets, stats.ClosedTickets)
	}

	// The customer variant only sees the caller's own rows.
	resp = request(t, http.MethodGet, api.URL+"/v1/dashboard", cust.AccessToken, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("customer dashboard = %d, want 200", resp.StatusCode)
	}
	var cstats domain.CustomerStats
	if err := json.NewDecoder(resp.Body).Decode(&cstats); err != nil {
		t.Fatalf("decode customer stats: %v", err)
	}
	if cstats.TotalInvoices != 1 || cstats.UnpaidAmount != 50000 {
		t.Errorf("unexpected customer stats %+v", cstats)
	}
}

func TestUserManagementFlow(t *testing.T) {
	api, backend := newStack(t)
	admin := login(t, api.URL, "boss@example.com")

	// Rename the customer.
	resp := request(t, http.MethodPatch, api.URL+"/v1/users/cust-1", admin.AccessToken,
		`{"full_name":"Siti R."}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update user = %d, want 200", resp.StatusCode)
	}

	backend.mu.Lock()
	got := fmt.Sprint(backend.profiles[1]["full_name"])
	backend.mu.Unlock()
	if got != "Siti R." {
		t.Errorf("expected profile renamed, got %q", got)
	}

	// Delete removes the profile row.
	resp = request(t, http.MethodDelete, api.URL+"/v1/users/cust-1", admin.AccessToken, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete user = %d, want 204", resp.StatusCode)
	}
	backend.mu.Lock()
	remaining := len(backend.profiles)
	backend.mu.Unlock()
	if remaining != 1 {
		t.Errorf("expected 1 profile left, got %d", remaining)
	}
}
