// Package service — SessionService resolves the authentication context
// for a request and decides the caller's effective role.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/bagianprojects/client-area-api/internal/domain"
	"github.com/bagianprojects/client-area-api/internal/infra/observability"
	"github.com/bagianprojects/client-area-api/internal/port"
)

var sessionTracer = otel.Tracer("service/session")

// SessionService turns a bearer token into a request-scoped session.
// Tokens are validated locally against the provider's signing secret;
// the provider is only consulted for the profile row, and that lookup
// is cached so repeated page loads do not refetch it.
type SessionService struct {
	profiles  port.ProfileStore
	jwtSecret []byte
	cache     port.Cache[*domain.Session]
	metrics   *observability.Metrics
	logger    *zap.Logger

	// mu guards byUser, the user-id index over cached session keys.
	// It lets role changes and deletions evict every session a user
	// holds instead of waiting out the TTL.
	mu     sync.Mutex
	byUser map[string][]string
}

// NewSessionService creates a session service.
func NewSessionService(profiles port.ProfileStore, jwtSecret string, cache port.Cache[*domain.Session], metrics *observability.Metrics, logger *zap.Logger) *SessionService {
	return &SessionService{
		profiles:  profiles,
		jwtSecret: []byte(jwtSecret),
		cache:     cache,
		metrics:   metrics,
		logger:    logger,
		byUser:    make(map[string][]string),
	}
}

// Resolve validates an access token and returns the session behind it.
// A valid token whose profile row is missing still yields a session:
// the caller is treated as a plain customer unless the email override
// list says otherwise.
func (s *SessionService) Resolve(ctx context.Context, accessToken string) (*domain.Session, error) {
	ctx, span := sessionTracer.Start(ctx, "SessionService.Resolve")
	defer span.End()

	if accessToken == "" {
		return nil, &domain.ErrUnauthorized{Message: "missing access token"}
	}

	key := cacheKey(accessToken)
	if cached, ok := s.cache.Get(key); ok {
		s.metrics.IncrCacheHit("session")
		return cached, nil
	}
	s.metrics.IncrCacheMiss("session")

	userID, email, err := s.parseToken(accessToken)
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "invalid or expired token"}
	}

	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	role := domain.RoleCustomer
	if profile != nil {
		role = profile.Role
		if profile.Email != "" {
			email = profile.Email
		}
	} else {
		s.logger.Warn("session: no profile row for user",
			zap.String("user_id", userID),
			zap.String("email", email),
		)
	}

	// The allow-list wins over whatever the profile row says.
	if domain.IsOverrideEmail(email) && !role.IsStaff() {
		role = domain.RoleAdmin
	}

	session := &domain.Session{
		UserID:  userID,
		Email:   email,
		Role:    role,
		IsAdmin: role.IsStaff(),
		Profile: profile,
	}

	s.cache.Set(key, session)
	s.mu.Lock()
	s.byUser[userID] = append(s.byUser[userID], key)
	s.mu.Unlock()
	return session, nil
}

// Invalidate drops the cached session for a token, e.g. on logout.
func (s *SessionService) Invalidate(accessToken string) {
	s.cache.Delete(cacheKey(accessToken))
}

// InvalidateUser drops every cached session held by a user id. Index
// entries for sessions the cache already expired are no-op deletes.
func (s *SessionService) InvalidateUser(userID string) {
	s.mu.Lock()
	keys := s.byUser[userID]
	delete(s.byUser, userID)
	s.mu.Unlock()

	for _, key := range keys {
		s.cache.Delete(key)
	}
}

// RequireAdmin returns ErrForbidden unless the session is staff.
func (s *SessionService) RequireAdmin(session *domain.Session, action string) error {
	if session == nil || !session.IsAdmin {
		return &domain.ErrForbidden{Action: action}
	}
	return nil
}

// parseToken verifies the HS256 signature and extracts the subject and
// email claims. Expiry is enforced by the parser.
func (s *SessionService) parseToken(accessToken string) (userID, email string, err error) {
	token, err := jwt.Parse(accessToken, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", "", fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", fmt.Errorf("unexpected claims type")
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", "", fmt.Errorf("token has no subject")
	}
	em, _ := claims["email"].(string)

	return sub, em, nil
}

// cacheKey hashes the token so raw credentials never sit in the cache.
func cacheKey(accessToken string) string {
	sum := sha256.Sum256([]byte(accessToken))
	return hex.EncodeToString(sum[:])
}
