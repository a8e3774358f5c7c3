package middleware

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hms/gateway/internal/infrastructure/observability"
	"github.com/hms/gateway/internal/infrastructure/ratelimit"
)

// RateLimit enforces the per-IP limit on every request. Limiter errors fail
// open.
func RateLimit(limiter ratelimit.RateLimiter, ipLimit int, metrics observability.Metrics) gin.HandlerFunc {
	if metrics == nil {
		metrics = observability.Noop{}
	}
	return func(c *gin.Context) {
		if !Allow(c, limiter, ratelimit.IPKey(c.ClientIP()), ipLimit, metrics) {
			return
		}
		c.Next()
	}
}

// Allow checks key against limit, sets the X-RateLimit headers and writes a
// 429 when the request is rejected.
func Allow(c *gin.Context, limiter ratelimit.RateLimiter, key string, limit int, metrics observability.Metrics) bool {
	if limit <= 0 {
		return true
	}

	result, err := limiter.Allow(c.Request.Context(), key, limit)
	if err != nil {
		slog.Warn("rate limiter unavailable, allowing request",
			"key", key,
			"request_id", GetRequestID(c),
			"error", err,
		)
		return true
	}

	c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

	if result.Allowed {
		return true
	}

	scope := "ip"
	if c.GetString(ContextKeyUserID) != "" {
		scope = "user"
	}
	metrics.Incr(observability.MetricRateLimitDenied, map[string]string{"scope": scope})

	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error":   "Too Many Requests",
		"message": "too many requests, please try again later",
	})
	return false
}
