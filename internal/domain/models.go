// Package domain defines the core entities of the client area.
// These models mirror the rows held in the external record store
// (profiles, invoices, invoice_items, projects, tickets) and are the
// canonical data structures used throughout the service.
package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// ============================================================
// Roles
// ============================================================

// Role is the closed set of user roles. The record store holds the role
// as free text; it is narrowed into this type at the deserialization
// boundary and never carried as a raw string past it.
type Role string

const (
	RoleCustomer   Role = "customer"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// ParseRole normalizes a stored role value. Null, empty and unknown
// values resolve to RoleCustomer.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin
	case "superadmin", "super admin":
		return RoleSuperAdmin
	default:
		return RoleCustomer
	}
}

// IsStaff reports whether the role grants management access.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// UnmarshalJSON accepts null and any casing from the record store.
func (r *Role) UnmarshalJSON(b []byte) error {
	var s *string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == nil {
		*r = RoleCustomer
		return nil
	}
	*r = ParseRole(*s)
	return nil
}

// AdminEmailOverrides is the canonical allow-list of privileged email
// addresses. An account on this list is treated as admin regardless of
// the role stored on its profile row.
var AdminEmailOverrides = map[string]bool{
	"superadmin@bagian.web.id": true,
	"admin@bagian.web.id":      true,
	"gilang@bagian.web.id":     true,
}

// IsOverrideEmail reports whether the email is on the admin allow-list.
func IsOverrideEmail(email string) bool {
	return AdminEmailOverrides[strings.ToLower(strings.TrimSpace(email))]
}

// ============================================================
// Profile
// ============================================================

// Profile is the application-level user record, one per identity
// provider account (Profile.ID == auth user id).
type Profile struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	FullName    string    `json:"full_name,omitempty"`
	CompanyName string    `json:"company_name,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// ============================================================
// Invoices
// ============================================================

// Invoice statuses. The set is open at the aggregation layer: rows with
// other status values still count toward totals.
const (
	InvoiceStatusUnpaid  = "unpaid"
	InvoiceStatusPaid    = "paid"
	InvoiceStatusOverdue = "overdue"
)

// Invoice is a billing record for a client. Amount holds the
// tax/discount-adjusted total computed at creation time.
type Invoice struct {
	ID            string        `json:"id"`
	InvoiceNumber string        `json:"invoice_number"`
	ClientID      string        `json:"client_id"`
	Amount        float64       `json:"amount"`
	Status        string        `json:"status"`
	DueDate       string        `json:"due_date,omitempty"`
	Notes         string        `json:"notes,omitempty"`
	TaxPercentage float64       `json:"tax_percentage,omitempty"`
	Discount      float64       `json:"discount,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	Client        *Profile      `json:"profiles,omitempty"`
	Items         []InvoiceItem `json:"invoice_items,omitempty"`
}

// InvoiceItem is a single line item belonging to an invoice.
type InvoiceItem struct {
	ID          string  `json:"id,omitempty"`
	InvoiceID   string  `json:"invoice_id,omitempty"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Total       float64 `json:"total"`
}

// ============================================================
// Projects
// ============================================================

// Project statuses.
const (
	ProjectStatusDraft      = "draft"
	ProjectStatusInProgress = "in_progress"
	ProjectStatusCompleted  = "completed"
)

// Project is a piece of work commissioned by a client.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ClientID  string    `json:"client_id"`
	Status    string    `json:"status"`
	Deadline  string    `json:"deadline,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Client    *Profile  `json:"profiles,omitempty"`
}

// ============================================================
// Tickets
// ============================================================

// Ticket statuses.
const (
	TicketStatusOpen   = "open"
	TicketStatusClosed = "closed"
)

// Ticket is a support request opened by a user.
type Ticket struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Subject     string    `json:"subject"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// TicketPageSize is the fixed page size of the ticket listing.
const TicketPageSize = 10
