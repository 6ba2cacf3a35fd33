package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"permits-platform/internal/identity"
	"permits-platform/internal/metrics"
	"permits-platform/internal/rbac"
	"permits-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

const authorizationHeader = "Authorization"
const bearerPrefix = "Bearer "

// IdentityResolver resolves a verified subject to an identity.
type IdentityResolver interface {
	Resolve(ctx context.Context, code string) (identity.Identity, error)
}

// OutcomeObserver counts authentication outcomes.
type OutcomeObserver interface {
	ObserveAuth(outcome string)
}

// Middleware authenticates requests: bearer token, signature and expiry,
// then a fresh identity lookup and role derivation. It performs no
// permission checks; those are guards in internal/rbac.
type Middleware struct {
	manager  *Manager
	resolver IdentityResolver
	observer OutcomeObserver
	now      func() time.Time
}

type MiddlewareOption func(*Middleware)

func WithOutcomeObserver(o OutcomeObserver) MiddlewareOption {
	return func(m *Middleware) { m.observer = o }
}

func WithClock(now func() time.Time) MiddlewareOption {
	return func(m *Middleware) { m.now = now }
}

func NewMiddleware(manager *Manager, resolver IdentityResolver, opts ...MiddlewareOption) *Middleware {
	m := &Middleware{manager: manager, resolver: resolver, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Handler implements rbac.Authenticator.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.FromGin(c)

		tok, ok := bearerToken(c.GetHeader(authorizationHeader))
		if !ok {
			m.reject(c, http.StatusUnauthorized, metrics.OutcomeMissingToken, "missing bearer token")
			return
		}

		claims, err := m.manager.Verify(tok, m.now())
		switch {
		case errors.Is(err, ErrTokenExpired):
			m.reject(c, http.StatusUnauthorized, metrics.OutcomeExpiredToken, "session expired")
			return
		case err != nil:
			log.DebugContext(c.Request.Context(), "token rejected", "err", err)
			m.reject(c, http.StatusUnauthorized, metrics.OutcomeInvalidToken, "invalid token")
			return
		}

		id, err := m.resolver.Resolve(c.Request.Context(), claims.Subject)
		switch {
		case errors.Is(err, identity.ErrUpstreamUnavailable):
			log.ErrorContext(c.Request.Context(), "identity lookup unavailable", "code", claims.Subject, "err", err)
			m.reject(c, http.StatusServiceUnavailable, metrics.OutcomeUpstreamError, "identity store unavailable")
			return
		case err != nil:
			log.WarnContext(c.Request.Context(), "token subject not found", "code", claims.Subject)
			m.reject(c, http.StatusUnauthorized, metrics.OutcomeUnknownSubject, "user not found")
			return
		}

		uc := rbac.NewUserContext(id)
		rbac.Attach(c, uc)
		c.Request = c.Request.WithContext(WithClaims(c.Request.Context(), claims))
		logger.Annotate(c, "code", uc.Code(), "role", uc.Role, "source", string(id.Source()))
		m.observe(metrics.OutcomeAuthenticated)

		c.Next()
	}
}

func (m *Middleware) reject(c *gin.Context, status int, outcome, msg string) {
	m.observe(outcome)
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func (m *Middleware) observe(outcome string) {
	if m.observer != nil {
		m.observer.ObserveAuth(outcome)
	}
}

func bearerToken(header string) (string, bool) {
	raw := strings.TrimSpace(header)
	if !strings.HasPrefix(raw, bearerPrefix) {
		return "", false
	}
	tok := strings.TrimSpace(strings.TrimPrefix(raw, bearerPrefix))
	return tok, tok != ""
}
