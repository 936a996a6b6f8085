package domain

import "time"

// ============================================================
// Identity provider types
// ============================================================

// User is the identity-provider account, distinct from the Profile row.
type User struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// TokenSession is an authenticated session issued by the identity
// provider (password grant or auth-code exchange).
type TokenSession struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user,omitempty"`
}

// Session is the request-scoped authentication context, resolved once
// per request by the session bridge and passed to handlers explicitly.
type Session struct {
	UserID  string   `json:"user_id"`
	Email   string   `json:"email"`
	Role    Role     `json:"role"`
	IsAdmin bool     `json:"is_admin"`
	Profile *Profile `json:"profile,omitempty"`
}

// ============================================================
// Auth request/response payloads
// ============================================================

// RegisterRequest is the sign-up payload.
type RegisterRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	FullName        string `json:"full_name"`
	CompanyName     string `json:"company_name,omitempty"`
	Phone           string `json:"phone,omitempty"`
}

// LoginRequest is the password sign-in payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse proxies the identity provider's session to the client.
type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	Role         Role   `json:"role"`
}

// ChangePasswordRequest updates the password of the current session.
type ChangePasswordRequest struct {
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// ForgotPasswordRequest asks for a recovery email.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// CheckEmailRequest is the body of POST /api/auth/check-email.
type CheckEmailRequest struct {
	Email string `json:"email"`
}

// CheckEmailResponse reports whether a profile exists for the email.
type CheckEmailResponse struct {
	Exists bool   `json:"exists"`
	Error  string `json:"error,omitempty"`
}

// UpdateUserDataRequest is the admin edit-user payload.
type UpdateUserDataRequest struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	CompanyName string `json:"company_name"`
}

// UpdateProfileRequest is the self-service profile form payload.
type UpdateProfileRequest struct {
	FullName    string `json:"full_name"`
	CompanyName string `json:"company_name"`
	Phone       string `json:"phone"`
}
