package authservice

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hms/gateway/internal/domain"
)

var parser = jwt.NewParser()

// CheckExpiry rejects JWTs whose exp claim is already in the past without
// verifying the signature. Opaque or unparseable tokens pass through; the
// auth service remains the only authority on validity.
func CheckExpiry(token string, now time.Time) error {
	claims := jwt.RegisteredClaims{}
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return nil
	}
	if claims.ExpiresAt == nil {
		return nil
	}
	if !now.Before(claims.ExpiresAt.Time) {
		return domain.ErrTokenExpired
	}
	return nil
}

// ExpiresIn returns how long the token stays valid according to its exp
// claim. ok is false when the token carries no readable exp.
func ExpiresIn(token string, now time.Time) (time.Duration, bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil || claims.ExpiresAt == nil {
		return 0, false
	}
	return claims.ExpiresAt.Sub(now), true
}

func IsExpired(err error) bool {
	return errors.Is(err, domain.ErrTokenExpired)
}
