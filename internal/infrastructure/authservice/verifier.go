package authservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/hms/gateway/internal/domain"
)

const (
	DefaultVerifyPath = "/api/auth/verify"
	DefaultTimeout    = 5 * time.Second

	headerAuthorization = "Authorization"
	headerRequestID     = "X-Request-ID"

	maxVerifyBody = 1 << 20
)

// Verifier exchanges a bearer token for the principal it belongs to.
type Verifier interface {
	Verify(ctx context.Context, token, requestID string) (*domain.Principal, error)
}

type verifyResponse struct {
	Success bool `json:"success"`
	Data    struct {
		User *verifiedUser `json:"user"`
	} `json:"data"`
	Message string `json:"message"`
}

// verifiedUser accepts numeric and string ids.
type verifiedUser struct {
	ID       json.RawMessage `json:"id"`
	Email    string          `json:"email"`
	Role     string          `json:"role"`
	FullName string          `json:"full_name"`
}

func (u *verifiedUser) principal() *domain.Principal {
	if u == nil {
		return nil
	}
	id := strings.TrimSpace(string(u.ID))
	var s string
	if err := json.Unmarshal(u.ID, &s); err == nil {
		id = s
	} else if id == "null" {
		id = ""
	}
	return &domain.Principal{ID: id, Email: u.Email, Role: u.Role, FullName: u.FullName}
}

// HTTPVerifier calls the auth service. Errors are classified as
// domain.ErrUnauthenticated, domain.ErrAuthServiceUnavailable or
// domain.ErrInternalAuth.
type HTTPVerifier struct {
	verifyURL  string
	httpClient *http.Client
}

type Option func(*HTTPVerifier)

func WithHTTPClient(client *http.Client) Option {
	return func(v *HTTPVerifier) {
		v.httpClient = client
	}
}

func NewHTTPVerifier(baseURL, verifyPath string, timeout time.Duration, opts ...Option) *HTTPVerifier {
	if verifyPath == "" {
		verifyPath = DefaultVerifyPath
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	v := &HTTPVerifier{
		verifyURL:  strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimPrefix(verifyPath, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *HTTPVerifier) Verify(ctx context.Context, token, requestID string) (*domain.Principal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.verifyURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInternalAuth, err)
	}
	req.Header.Set(headerAuthorization, "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if requestID != "" {
		req.Header.Set(headerRequestID, requestID)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxVerifyBody))
	if err != nil {
		return nil, classifyTransportError(err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: auth service rejected token (%d)", domain.ErrUnauthenticated, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%w: auth service returned %d", domain.ErrInternalAuth, resp.StatusCode)
	}

	var payload verifyResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: malformed verification response", domain.ErrUnauthenticated)
	}
	if !payload.Success {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnauthenticated, nonEmpty(payload.Message, "verification failed"))
	}
	principal := payload.Data.User.principal()
	if err := principal.Valid(); err != nil {
		return nil, err
	}

	return principal, nil
}

// classifyTransportError maps dial failures and timeouts to
// ErrAuthServiceUnavailable; anything else is an internal error.
func classifyTransportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", domain.ErrInternalAuth, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrAuthServiceUnavailable, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", domain.ErrAuthServiceUnavailable, err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return fmt.Errorf("%w: %v", domain.ErrAuthServiceUnavailable, err)
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return fmt.Errorf("%w: %v", domain.ErrAuthServiceUnavailable, err)
	}

	return fmt.Errorf("%w: %v", domain.ErrInternalAuth, err)
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
