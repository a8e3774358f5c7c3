package authservice

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hms/gateway/internal/domain"
	"github.com/redis/go-redis/v9"
)

const principalKeyPrefix = "gateway:principal:"

// CachingVerifier decorates a Verifier with a Redis cache of successful
// verifications. Keys are sha256(token) so raw tokens never reach Redis.
// Failures are never cached. Cache errors fall back to the inner verifier.
type CachingVerifier struct {
	inner Verifier
	rdb   redis.Cmdable
	ttl   time.Duration
	now   func() time.Time
}

func NewCachingVerifier(inner Verifier, rdb redis.Cmdable, ttl time.Duration) *CachingVerifier {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachingVerifier{inner: inner, rdb: rdb, ttl: ttl, now: time.Now}
}

func (c *CachingVerifier) Verify(ctx context.Context, token, requestID string) (*domain.Principal, error) {
	key := principalKey(token)

	if bs, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var p domain.Principal
		if json.Unmarshal(bs, &p) == nil && p.Valid() == nil {
			return &p, nil
		}
	} else if err != redis.Nil {
		slog.Debug("principal cache read failed", "error", err)
	}

	principal, err := c.inner.Verify(ctx, token, requestID)
	if err != nil {
		return nil, err
	}

	ttl := c.ttl
	if remaining, ok := ExpiresIn(token, c.now()); ok && remaining < ttl {
		ttl = remaining
	}
	if ttl > 0 {
		if bs, err := json.Marshal(principal); err == nil {
			if err := c.rdb.Set(ctx, key, bs, ttl).Err(); err != nil {
				slog.Debug("principal cache write failed", "error", err)
			}
		}
	}

	return principal, nil
}

func (c *CachingVerifier) Invalidate(ctx context.Context, token string) error {
	return c.rdb.Del(ctx, principalKey(token)).Err()
}

func principalKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return principalKeyPrefix + hex.EncodeToString(sum[:])
}
