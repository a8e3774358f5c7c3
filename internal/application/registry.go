package application

import (
	"net/http"
	"sync"
	"time"

	"github.com/hms/gateway/internal/domain"
	"github.com/hms/gateway/internal/infrastructure/observability"
)

type RegistryConfig struct {
	HealthCheckInterval time.Duration
	ProbeTimeout        time.Duration
}

// Registry is the process-wide table of backend services. Entries are only
// ever added or updated in place; the health loop is the only writer of
// Status and LastCheck.
type Registry struct {
	config  RegistryConfig
	mu      sync.RWMutex
	entries map[string]*domain.ServiceEntry
	order   []string
	client  *http.Client
	metrics observability.Metrics

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

type RegistryOption func(*Registry)

func WithHTTPClient(client *http.Client) RegistryOption {
	return func(r *Registry) {
		r.client = client
	}
}

func WithMetrics(m observability.Metrics) RegistryOption {
	return func(r *Registry) {
		r.metrics = m
	}
}

func NewRegistry(cfg RegistryConfig, opts ...RegistryOption) *Registry {
	if cfg.HealthCheckInterval <= 0 {
		cfg.HealthCheckInterval = 30 * time.Second
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 5 * time.Second
	}

	r := &Registry{
		config:  cfg,
		entries: make(map[string]*domain.ServiceEntry),
		client:  &http.Client{},
		metrics: observability.Noop{},
		stopCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}
