package handler

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/bagianprojects/client-area-api/internal/domain"
	"github.com/bagianprojects/client-area-api/internal/service"
)

type contextKey string

const sessionKey contextKey = "session"
const accessTokenKey contextKey = "accessToken"

// SessionMiddleware validates Bearer tokens and injects the resolved
// session into the request context.
func SessionMiddleware(sessions *service.SessionService, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				logger.Warn("auth: missing token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			session, err := sessions.Resolve(r.Context(), token)
			if err != nil {
				logger.Warn("auth: session resolve failed",
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				handleServiceError(w, err, logger)
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, session)
			ctx = context.WithValue(ctx, accessTokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects non-staff sessions. Must run after
// SessionMiddleware.
func RequireAdmin(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := SessionFromContext(r.Context())
			if session == nil || !session.IsAdmin {
				logger.Warn("auth: admin route denied",
					zap.String("path", r.URL.Path),
				)
				writeError(w, http.StatusForbidden, "admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionFromContext extracts the authenticated session from context.
func SessionFromContext(ctx context.Context) *domain.Session {
	v, _ := ctx.Value(sessionKey).(*domain.Session)
	return v
}

// AccessTokenFromContext extracts the raw bearer token from context.
func AccessTokenFromContext(ctx context.Context) string {
	v, _ := ctx.Value(accessTokenKey).(string)
	return v
}

// sessionCookie is the cookie name the web frontend stores the access
// token under.
const sessionCookie = "sb-access-token"

// bearerToken extracts the access token from the Authorization header,
// falling back to the session cookie for browser-facing routes.
func bearerToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
		return ""
	}
	if c, err := r.Cookie(sessionCookie); err == nil {
		return c.Value
	}
	return ""
}
