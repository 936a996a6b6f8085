package domain

// ============================================================
// Dashboard statistics
// ============================================================

// AdminStats is the management dashboard summary, reduced in memory
// from full-table fetches. TotalRevenue sums all invoice amounts
// regardless of status; rows with statuses outside paid/unpaid (e.g.
// overdue) still count toward TotalInvoices.
type AdminStats struct {
	TotalClients     int       `json:"total_clients"`
	TotalInvoices    int       `json:"total_invoices"`
	TotalRevenue     float64   `json:"total_revenue"`
	PaidInvoices     int       `json:"paid_invoices"`
	UnpaidInvoices   int       `json:"unpaid_invoices"`
	OpenTickets      int       `json:"open_tickets"`
	ClosedTickets    int       `json:"closed_tickets"`
	RecentClients    []Profile `json:"recent_clients"`
	RecentInvoices   []Invoice `json:"recent_invoices"`
	UpcomingProjects []Project `json:"upcoming_projects"`
}

// CustomerStats is the customer dashboard summary, reduced from the
// user's own invoices and tickets.
type CustomerStats struct {
	TotalInvoices  int       `json:"total_invoices"`
	PaidInvoices   int       `json:"paid_invoices"`
	UnpaidInvoices int       `json:"unpaid_invoices"`
	TotalAmount    float64   `json:"total_amount"`
	PaidAmount     float64   `json:"paid_amount"`
	UnpaidAmount   float64   `json:"unpaid_amount"`
	OpenTickets    int       `json:"open_tickets"`
	ClosedTickets  int       `json:"closed_tickets"`
	RecentInvoices []Invoice `json:"recent_invoices"`
	RecentTickets  []Ticket  `json:"recent_tickets"`
}

// OpsSnapshot is a coarse health summary of the service itself,
// derived from the Prometheus counters for the admin console header.
type OpsSnapshot struct {
	TotalRequests int64   `json:"total_requests"`
	ErrorRate     float64 `json:"error_rate"`
	CacheHitRate  float64 `json:"cache_hit_rate"`
}
