package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/bagianprojects/client-area-api/internal/domain"
	"github.com/bagianprojects/client-area-api/internal/service"
)

// ============================================================
// Register — POST /v1/auth/register
// ============================================================

func registerHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/register")
		defer span.End()

		var req domain.RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		user, err := authSvc.Register(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, map[string]any{
			"user_id": user.ID,
			"email":   user.Email,
			"message": "check your email to confirm your account",
		})
	}
}

// ============================================================
// Login — POST /v1/auth/login
// ============================================================

func loginHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/login")
		defer span.End()

		var req domain.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		resp, err := authSvc.Login(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// ============================================================
// Logout — POST /v1/auth/logout
// ============================================================

func logoutHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/logout")
		defer span.End()

		if err := authSvc.Logout(ctx, AccessTokenFromContext(ctx)); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ============================================================
// CheckEmail — POST /api/auth/check-email
// ============================================================

func checkEmailHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/auth/check-email")
		defer span.End()

		var req domain.CheckEmailRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, domain.CheckEmailResponse{Error: "invalid request body"})
			return
		}
		if req.Email == "" {
			writeJSON(w, http.StatusBadRequest, domain.CheckEmailResponse{Error: "email is required"})
			return
		}

		exists, err := authSvc.CheckEmail(ctx, req.Email)
		if err != nil {
			logger.Error("check-email failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, domain.CheckEmailResponse{Error: "failed to check email"})
			return
		}
		writeJSON(w, http.StatusOK, domain.CheckEmailResponse{Exists: exists})
	}
}

// ============================================================
// ForgotPassword — POST /v1/auth/forgot-password
// ============================================================

func forgotPasswordHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/forgot-password")
		defer span.End()

		var req domain.ForgotPasswordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if err := authSvc.ForgotPassword(ctx, req.Email); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "recovery email sent"})
	}
}

// ============================================================
// ResetPassword — POST /v1/auth/reset-password
// ============================================================

// resetPasswordHandler finishes a recovery flow. The bearer token is
// the short-lived session minted by the recovery link.
func resetPasswordHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/reset-password")
		defer span.End()

		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing recovery token")
			return
		}

		var req domain.ChangePasswordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if err := authSvc.ResetPassword(ctx, token, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "password updated, sign in with your new password"})
	}
}

// ============================================================
// ChangePassword — POST /v1/auth/change-password
// ============================================================

func changePasswordHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/change-password")
		defer span.End()

		var req domain.ChangePasswordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if err := authSvc.ChangePassword(ctx, AccessTokenFromContext(ctx), &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
	}
}

// ============================================================
// Callback — GET /callback
// ============================================================

// callbackHandler lands the provider's confirmation and recovery
// links. It always redirects; errors surface as login-page messages.
func callbackHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /callback")
		defer span.End()

		code := r.URL.Query().Get("code")
		next := r.URL.Query().Get("next")
		if next == "" {
			// Older recovery mails used redirect_to for the same thing.
			next = r.URL.Query().Get("redirect_to")
		}

		dest := authSvc.Callback(ctx, code, next)
		http.Redirect(w, r, dest, http.StatusFound)
	}
}
