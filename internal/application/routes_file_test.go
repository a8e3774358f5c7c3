package application

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hms/gateway/internal/domain"
)

const sampleRoutes = `
default_timeout: 20s
routes:
  - prefix: /api/auth
    service: auth-service
  - prefix: /api/doctors/health
    service: doctor-service
    timeout: 3s
    rewrite:
      pattern: ^/api/doctors/health
      replacement: /health
  - prefix: /api/payments
    service: payment-service
    auth_required: true
    public_paths:
      - /api/payments/webhooks
`

func TestParseRoutes(t *testing.T) {
	routes, err := ParseRoutes([]byte(sampleRoutes), time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(routes) != 3 {
		t.Fatalf("expected 3 routes, got %d", len(routes))
	}

	if routes[0].Timeout != 20*time.Second {
		t.Errorf("default_timeout not applied: %v", routes[0].Timeout)
	}
	if routes[1].Timeout != 3*time.Second {
		t.Errorf("explicit timeout overwritten: %v", routes[1].Timeout)
	}
	if routes[1].Rewrite.Replacement != "/health" {
		t.Errorf("rewrite not parsed: %+v", routes[1].Rewrite)
	}
	if !routes[2].AuthRequired || len(routes[2].PublicPaths) != 1 {
		t.Errorf("payments route not parsed: %+v", routes[2])
	}

	table, err := NewRouteTable(routes, nil)
	if err != nil {
		t.Fatalf("parsed routes should build a table: %v", err)
	}
	m, _ := table.Match("/api/payments/webhooks/stripe")
	if !m.Public {
		t.Error("webhook path should be public")
	}
}

func TestParseRoutes_FallbackTimeout(t *testing.T) {
	routes, err := ParseRoutes([]byte("routes:\n  - prefix: /api/rooms\n    service: department-service\n"), 45*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if routes[0].Timeout != 45*time.Second {
		t.Errorf("expected fallback timeout, got %v", routes[0].Timeout)
	}
}

func TestParseRoutes_Empty(t *testing.T) {
	_, err := ParseRoutes([]byte("default_timeout: 5s\n"), time.Second)
	if !errors.Is(err, domain.ErrInvalidRoute) {
		t.Errorf("expected ErrInvalidRoute, got %v", err)
	}
}

func TestParseRoutes_Malformed(t *testing.T) {
	if _, err := ParseRoutes([]byte("routes: [unterminated"), time.Second); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadRoutesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.yaml")
	if err := os.WriteFile(path, []byte(sampleRoutes), 0o600); err != nil {
		t.Fatal(err)
	}

	routes, err := LoadRoutesFile(path, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(routes) != 3 {
		t.Errorf("expected 3 routes, got %d", len(routes))
	}

	if _, err := LoadRoutesFile(filepath.Join(t.TempDir(), "missing.yaml"), time.Minute); err == nil {
		t.Error("expected error for missing file")
	}
}
