// Package service — AuthService fronts the hosted identity provider:
// registration, sign-in, password recovery and the confirmation
// callback. No credentials are stored locally.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/bagianprojects/client-area-api/internal/domain"
	"github.com/bagianprojects/client-area-api/internal/port"
)

var authTracer = otel.Tracer("service/auth")

const minPasswordLen = 8

// AuthService orchestrates authentication flows against the provider.
type AuthService struct {
	identity port.IdentityProvider
	profiles port.ProfileStore
	sessions *SessionService
	siteURL  string
	logger   *zap.Logger
}

// NewAuthService creates a new auth service. siteURL is the frontend
// origin used to build recovery-link redirects.
func NewAuthService(identity port.IdentityProvider, profiles port.ProfileStore, sessions *SessionService, siteURL string, logger *zap.Logger) *AuthService {
	return &AuthService{
		identity: identity,
		profiles: profiles,
		sessions: sessions,
		siteURL:  siteURL,
		logger:   logger,
	}
}

// ============================================================
// Register — POST /v1/auth/register
// ============================================================

func (s *AuthService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Register")
	defer span.End()

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" {
		return nil, &domain.ErrValidation{Field: "email", Message: "email is required"}
	}
	if err := validatePassword(req.Password, req.ConfirmPassword); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.FullName) == "" {
		return nil, &domain.ErrValidation{Field: "full_name", Message: "full name is required"}
	}

	existing, err := s.profiles.GetProfileByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check existing profile: %w", err)
	}
	if existing != nil {
		return nil, &domain.ErrConflict{Message: "an account with this email already exists"}
	}

	metadata := map[string]any{"full_name": req.FullName}
	if req.CompanyName != "" {
		metadata["company_name"] = req.CompanyName
	}
	if req.Phone != "" {
		metadata["phone"] = req.Phone
	}

	user, err := s.identity.SignUp(ctx, email, req.Password, metadata)
	if err != nil {
		return nil, err
	}

	profile := &domain.Profile{
		ID:          user.ID,
		Email:       email,
		FullName:    req.FullName,
		CompanyName: req.CompanyName,
		Phone:       req.Phone,
		Role:        domain.RoleCustomer,
	}
	if err := s.profiles.InsertProfile(ctx, profile); err != nil {
		// The identity account exists but the profile row failed;
		// the session bridge tolerates the gap, so surface the error
		// without tearing the account down.
		s.logger.Error("register: profile insert failed after signup",
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("create profile: %w", err)
	}

	s.logger.Info("user registered",
		zap.String("user_id", user.ID),
		zap.String("email", email),
	)

	return user, nil
}

// ============================================================
// Login — POST /v1/auth/login
// ============================================================

func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Login")
	defer span.End()
	span.SetAttributes(attribute.String("email", req.Email))

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		return nil, &domain.ErrValidation{Field: "credentials", Message: "email and password are required"}
	}

	token, err := s.identity.SignInWithPassword(ctx, email, req.Password)
	if err != nil {
		return nil, err
	}

	userID := ""
	if token.User != nil {
		userID = token.User.ID
	}

	session, err := s.sessions.Resolve(ctx, token.AccessToken)
	if err != nil {
		// Sign-in succeeded but role resolution failed; fall back to
		// customer rather than failing the login.
		s.logger.Warn("login: session resolve failed, defaulting to customer",
			zap.String("email", email),
			zap.Error(err),
		)
		session = &domain.Session{UserID: userID, Email: email, Role: domain.RoleCustomer}
	}

	s.logger.Info("user logged in",
		zap.String("user_id", session.UserID),
		zap.String("role", string(session.Role)),
	)

	return &domain.LoginResponse{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresIn:    token.ExpiresIn,
		UserID:       session.UserID,
		Email:        session.Email,
		Role:         session.Role,
	}, nil
}

// ============================================================
// Logout — POST /v1/auth/logout
// ============================================================

func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	ctx, span := authTracer.Start(ctx, "AuthService.Logout")
	defer span.End()

	s.sessions.Invalidate(accessToken)
	return s.identity.SignOut(ctx, accessToken)
}

// ============================================================
// CheckEmail — POST /api/auth/check-email
// ============================================================

// CheckEmail reports whether a profile exists for the email. Used by
// the forgot-password form before a recovery mail is requested.
func (s *AuthService) CheckEmail(ctx context.Context, email string) (bool, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.CheckEmail")
	defer span.End()

	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return false, &domain.ErrValidation{Field: "email", Message: "email is required"}
	}

	profile, err := s.profiles.GetProfileByEmail(ctx, email)
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return profile != nil, nil
}

// ============================================================
// ForgotPassword — POST /v1/auth/forgot-password
// ============================================================

func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	ctx, span := authTracer.Start(ctx, "AuthService.ForgotPassword")
	defer span.End()

	exists, err := s.CheckEmail(ctx, email)
	if err != nil {
		return err
	}
	if !exists {
		return &domain.ErrNotFound{Resource: "account", ID: email}
	}

	redirectTo := fmt.Sprintf("%s/callback?next=%s", s.siteURL, url.QueryEscape("/reset-password"))
	return s.identity.SendRecoveryEmail(ctx, strings.TrimSpace(strings.ToLower(email)), redirectTo)
}

// ============================================================
// ResetPassword — POST /v1/auth/reset-password
// ============================================================

// ResetPassword sets a new password using the short-lived session from
// a recovery link. A rejected token maps to ErrRecoveryExpired so the
// UI can offer a fresh link instead of a generic failure.
func (s *AuthService) ResetPassword(ctx context.Context, accessToken string, req *domain.ChangePasswordRequest) error {
	ctx, span := authTracer.Start(ctx, "AuthService.ResetPassword")
	defer span.End()

	if err := validatePassword(req.NewPassword, req.ConfirmPassword); err != nil {
		return err
	}

	if err := s.identity.UpdatePassword(ctx, accessToken, req.NewPassword); err != nil {
		var unauth *domain.ErrUnauthorized
		if errors.As(err, &unauth) {
			return &domain.ErrRecoveryExpired{}
		}
		return err
	}

	s.sessions.Invalidate(accessToken)
	return nil
}

// ============================================================
// ChangePassword — POST /v1/auth/change-password
// ============================================================

func (s *AuthService) ChangePassword(ctx context.Context, accessToken string, req *domain.ChangePasswordRequest) error {
	ctx, span := authTracer.Start(ctx, "AuthService.ChangePassword")
	defer span.End()

	if err := validatePassword(req.NewPassword, req.ConfirmPassword); err != nil {
		return err
	}
	return s.identity.UpdatePassword(ctx, accessToken, req.NewPassword)
}

// ============================================================
// Callback — GET /callback
// ============================================================

// Callback handles the provider's confirmation link. The one-time code
// is exchanged and the resulting session immediately revoked: the user
// lands on the login page and signs in explicitly. next is the local
// path the link asked to continue to, if any.
func (s *AuthService) Callback(ctx context.Context, code, next string) string {
	ctx, span := authTracer.Start(ctx, "AuthService.Callback")
	defer span.End()

	if code == "" {
		return "/login?error=missing_code"
	}

	token, err := s.identity.ExchangeCode(ctx, code)
	if err != nil {
		s.logger.Warn("callback: code exchange failed", zap.Error(err))
		return "/login?error=confirmation_failed"
	}

	// Recovery links carry their own destination and keep the session:
	// the reset form needs it to set the new password.
	if next == "/reset-password" {
		return fmt.Sprintf("/reset-password#access_token=%s", url.QueryEscape(token.AccessToken))
	}

	if err := s.identity.SignOut(ctx, token.AccessToken); err != nil {
		s.logger.Warn("callback: sign-out after confirm failed", zap.Error(err))
	}
	// Only local paths are honored; anything else lands on the login
	// page so the link cannot bounce the browser off-site.
	if next != "" && strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") {
		return next
	}
	return "/login?message=account_confirmed"
}

// validatePassword enforces the minimum length and confirmation match.
func validatePassword(password, confirm string) error {
	if len(password) < minPasswordLen {
		return &domain.ErrValidation{Field: "password", Message: "password must be at least 8 characters"}
	}
	if password != confirm {
		return &domain.ErrValidation{Field: "confirm_password", Message: "passwords do not match"}
	}
	return nil
}
