// Package service — UserService owns the admin user-management surface
// and the self-service profile form.
package service

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/bagianprojects/client-area-api/internal/domain"
	"github.com/bagianprojects/client-area-api/internal/port"
)

var userTracer = otel.Tracer("service/user")

// UserService orchestrates user management. Deletion removes the
// profile row first, then the identity account; a missing identity
// account does not fail the delete. Every profile mutation evicts the
// target user's cached sessions so role and email changes apply on the
// next request, not after the session TTL.
type UserService struct {
	profiles port.ProfileStore
	identity port.IdentityProvider
	sessions *SessionService
	logger   *zap.Logger
}

// NewUserService creates a user service.
func NewUserService(profiles port.ProfileStore, identity port.IdentityProvider, sessions *SessionService, logger *zap.Logger) *UserService {
	return &UserService{profiles: profiles, identity: identity, sessions: sessions, logger: logger}
}

// ============================================================
// ListClients — GET /v1/users
// ============================================================

// ListClients returns non-staff profiles for the admin user table.
func (s *UserService) ListClients(ctx context.Context) ([]domain.Profile, error) {
	ctx, span := userTracer.Start(ctx, "UserService.ListClients")
	defer span.End()

	return s.profiles.ListClients(ctx)
}

// ============================================================
// UpdateUserData — PATCH /v1/users/{id}
// ============================================================

// UpdateUserData applies the admin edit-user form. Only the provided
// fields are written.
func (s *UserService) UpdateUserData(ctx context.Context, id string, req *domain.UpdateUserDataRequest) error {
	ctx, span := userTracer.Start(ctx, "UserService.UpdateUserData")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", id))

	if id == "" {
		return &domain.ErrValidation{Field: "id", Message: "invalid user id"}
	}

	updates := map[string]any{}
	if strings.TrimSpace(req.FullName) != "" {
		updates["full_name"] = req.FullName
	}
	if strings.TrimSpace(req.Email) != "" {
		updates["email"] = strings.TrimSpace(strings.ToLower(req.Email))
	}
	if strings.TrimSpace(req.CompanyName) != "" {
		updates["company_name"] = req.CompanyName
	}
	if len(updates) == 0 {
		return &domain.ErrValidation{Field: "body", Message: "nothing to update"}
	}

	if err := s.profiles.UpdateProfile(ctx, id, updates); err != nil {
		return err
	}
	// An email edit can move the user on or off the override allow-list.
	s.sessions.InvalidateUser(id)
	return nil
}

// ============================================================
// UpdateRole — PATCH /v1/users/{id}/role
// ============================================================

// UpdateRole changes the stored role. The email override list still
// applies on top of whatever is written here.
func (s *UserService) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	ctx, span := userTracer.Start(ctx, "UserService.UpdateRole")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", id), attribute.String("role", string(role)))

	if id == "" {
		return &domain.ErrValidation{Field: "id", Message: "invalid user id"}
	}
	switch role {
	case domain.RoleCustomer, domain.RoleAdmin, domain.RoleSuperAdmin:
	default:
		return &domain.ErrValidation{Field: "role", Message: "unknown role"}
	}

	if err := s.profiles.UpdateProfile(ctx, id, map[string]any{"role": string(role)}); err != nil {
		return err
	}
	s.sessions.InvalidateUser(id)

	s.logger.Info("user role updated",
		zap.String("user_id", id),
		zap.String("role", string(role)),
	)
	return nil
}

// ============================================================
// UpdateProfile — PATCH /v1/profile
// ============================================================

// UpdateProfile applies the self-service profile form for the caller.
func (s *UserService) UpdateProfile(ctx context.Context, session *domain.Session, req *domain.UpdateProfileRequest) error {
	ctx, span := userTracer.Start(ctx, "UserService.UpdateProfile")
	defer span.End()

	updates := map[string]any{}
	if strings.TrimSpace(req.FullName) != "" {
		updates["full_name"] = req.FullName
	}
	if strings.TrimSpace(req.CompanyName) != "" {
		updates["company_name"] = req.CompanyName
	}
	if strings.TrimSpace(req.Phone) != "" {
		updates["phone"] = req.Phone
	}
	if len(updates) == 0 {
		return &domain.ErrValidation{Field: "body", Message: "nothing to update"}
	}

	if err := s.profiles.UpdateProfile(ctx, session.UserID, updates); err != nil {
		return err
	}
	s.sessions.InvalidateUser(session.UserID)
	return nil
}

// ============================================================
// DeleteUser — DELETE /v1/users/{id}
// ============================================================

// DeleteUser removes a user entirely. The profile row goes first so a
// half-deleted user is an account without data rather than data without
// an account; the identity delete is idempotent.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	ctx, span := userTracer.Start(ctx, "UserService.DeleteUser")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", id))

	if id == "" {
		return &domain.ErrValidation{Field: "id", Message: "invalid user id"}
	}

	if err := s.profiles.DeleteProfile(ctx, id); err != nil {
		return err
	}
	s.sessions.InvalidateUser(id)
	if err := s.identity.AdminDeleteUser(ctx, id); err != nil {
		s.logger.Error("identity delete failed after profile removal",
			zap.String("user_id", id),
			zap.Error(err),
		)
		return err
	}

	s.logger.Info("user deleted", zap.String("user_id", id))
	return nil
}
