package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hms/gateway/internal/domain"
	"github.com/hms/gateway/internal/infrastructure/authservice"
	"github.com/hms/gateway/internal/infrastructure/observability"
)

const (
	authResultSuccess     = "success"
	authResultMissing     = "missing_token"
	authResultExpired     = "expired"
	authResultInvalid     = "invalid"
	authResultUnavailable = "unavailable"
	authResultError       = "error"
)

// AuthGate authenticates protected requests against the auth service and
// attaches the resulting principal as forwarded headers.
type AuthGate struct {
	verifier      authservice.Verifier
	metrics       observability.Metrics
	exposeDetails bool
	now           func() time.Time
}

func NewAuthGate(verifier authservice.Verifier, metrics observability.Metrics, exposeDetails bool) *AuthGate {
	if metrics == nil {
		metrics = observability.Noop{}
	}
	return &AuthGate{
		verifier:      verifier,
		metrics:       metrics,
		exposeDetails: exposeDetails,
		now:           time.Now,
	}
}

// AuthenticateRequest writes the error response itself and returns false
// when the request must not be forwarded.
func (a *AuthGate) AuthenticateRequest(c *gin.Context) (*domain.Principal, bool) {
	StripPrincipalHeaders(c.Request)

	token := extractBearerToken(c)
	if token == "" {
		a.reject(c, authResultMissing, domain.ErrUnauthenticated)
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "Unauthorized",
			"message": "missing or malformed authorization header",
		})
		return nil, false
	}

	if err := authservice.CheckExpiry(token, a.now()); err != nil {
		a.reject(c, authResultExpired, err)
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "Unauthorized",
			"message": "token expired",
		})
		return nil, false
	}

	principal, err := a.verifier.Verify(c.Request.Context(), token, GetRequestID(c))
	if err != nil {
		a.fail(c, err)
		return nil, false
	}

	for name, value := range principal.Headers() {
		c.Request.Header.Set(name, value)
	}
	c.Set(ContextKeyPrincipal, principal)
	c.Set(ContextKeyUserID, principal.ID)

	a.metrics.Incr(observability.MetricAuthAttempts, map[string]string{"result": authResultSuccess})
	slog.Info("request authenticated",
		"user_id", principal.ID,
		"role", principal.Role,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"request_id", GetRequestID(c),
	)

	return principal, true
}

func (a *AuthGate) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		a.reject(c, authResultInvalid, err)
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "Unauthorized",
			"message": "invalid or expired token",
		})
	case errors.Is(err, domain.ErrAuthServiceUnavailable):
		a.reject(c, authResultUnavailable, err)
		c.JSON(http.StatusServiceUnavailable, a.withDetails(gin.H{
			"error":   "Authentication service unavailable",
			"message": "please try again later",
		}, err))
	default:
		a.reject(c, authResultError, err)
		c.JSON(http.StatusInternalServerError, a.withDetails(gin.H{
			"error":   "Internal authentication error",
			"message": "authentication could not be completed",
		}, err))
	}
}

func (a *AuthGate) reject(c *gin.Context, result string, err error) {
	a.metrics.Incr(observability.MetricAuthAttempts, map[string]string{"result": result})

	attrs := []any{
		"reason", result,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"request_id", GetRequestID(c),
		"error", err,
	}
	if result == authResultUnavailable || result == authResultError {
		slog.Error("authentication failed", attrs...)
		return
	}
	slog.Warn("authentication failed", attrs...)
}

func (a *AuthGate) withDetails(body gin.H, err error) gin.H {
	if a.exposeDetails {
		body["details"] = err.Error()
	}
	return body
}

// StripPrincipalHeaders removes identity headers a client may have sent; only
// the gateway sets them.
func StripPrincipalHeaders(r *http.Request) {
	for _, h := range domain.PrincipalHeaders() {
		r.Header.Del(h)
	}
}

// StripIdentity applies StripPrincipalHeaders to every request, public
// routes included.
func StripIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		StripPrincipalHeaders(c.Request)
		c.Next()
	}
}

func GetPrincipal(c *gin.Context) (*domain.Principal, bool) {
	v, ok := c.Get(ContextKeyPrincipal)
	if !ok {
		return nil, false
	}
	p, ok := v.(*domain.Principal)
	return p, ok
}

func extractBearerToken(c *gin.Context) string {
	auth := c.GetHeader(HeaderAuthorization)
	if len(auth) <= len(BearerPrefix) || !strings.EqualFold(auth[:len(BearerPrefix)], BearerPrefix) {
		return ""
	}
	return strings.TrimSpace(auth[len(BearerPrefix):])
}
