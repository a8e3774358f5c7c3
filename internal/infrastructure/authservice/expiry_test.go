package authservice

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hms/gateway/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp *time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{Subject: "u-1"}
	if exp != nil {
		claims.ExpiresAt = jwt.NewNumericDate(*exp)
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("not-the-real-secret"))
	require.NoError(t, err)
	return s
}

func TestCheckExpiry(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	tests := []struct {
		name    string
		token   string
		expired bool
	}{
		{"expired jwt", signedToken(t, &past), true},
		{"valid jwt", signedToken(t, &future), false},
		{"jwt without exp", signedToken(t, nil), false},
		{"opaque token", "good-token", false},
		{"garbage", "a.b.c", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckExpiry(tt.token, now)
			if tt.expired {
				assert.ErrorIs(t, err, domain.ErrTokenExpired)
				assert.ErrorIs(t, err, domain.ErrUnauthenticated)
				assert.True(t, IsExpired(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestExpiresIn(t *testing.T) {
	now := time.Now()
	exp := now.Add(10 * time.Minute)

	d, ok := ExpiresIn(signedToken(t, &exp), now)
	require.True(t, ok)
	assert.InDelta(t, (10 * time.Minute).Seconds(), d.Seconds(), 1)

	_, ok = ExpiresIn("opaque", now)
	assert.False(t, ok)
}
