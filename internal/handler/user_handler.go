package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/bagianprojects/client-area-api/internal/domain"
	"github.com/bagianprojects/client-area-api/internal/service"
)

// ============================================================
// List — GET /v1/users
// ============================================================

func listUsersHandler(svc *service.UserService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users")
		defer span.End()

		users, err := svc.ListClients(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"users": users})
	}
}

// ============================================================
// Update — PATCH /v1/users/{id}
// ============================================================

func updateUserHandler(svc *service.UserService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/users/{id}")
		defer span.End()

		id := chi.URLParam(r, "id")
		span.SetAttributes(attribute.String("user.id", id))

		var req domain.UpdateUserDataRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if err := svc.UpdateUserData(ctx, id, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "user updated"})
	}
}

// ============================================================
// UpdateRole — PATCH /v1/users/{id}/role
// ============================================================

func updateUserRoleHandler(svc *service.UserService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/users/{id}/role")
		defer span.End()

		var body struct {
			Role string `json:"role"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if err := svc.UpdateRole(ctx, chi.URLParam(r, "id"), domain.Role(body.Role)); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"role": body.Role})
	}
}

// ============================================================
// Self-service profile — PATCH /v1/profile
// ============================================================

func updateProfileHandler(svc *service.UserService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/profile")
		defer span.End()

		var req domain.UpdateProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if err := svc.UpdateProfile(ctx, SessionFromContext(ctx), &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "profile updated"})
	}
}

// ============================================================
// Delete — DELETE /v1/users/{id}
// ============================================================

func deleteUserHandler(svc *service.UserService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/users/{id}")
		defer span.End()

		if err := svc.DeleteUser(ctx, chi.URLParam(r, "id")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
