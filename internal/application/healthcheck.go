package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hms/gateway/internal/domain"
	"github.com/hms/gateway/internal/infrastructure/observability"
	"golang.org/x/sync/errgroup"
)

// Start runs one probe round immediately and then one per interval until
// Stop is called.
func (r *Registry) Start() {
	ctx, cancel := context.WithCancel(context.Background())

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()
		r.healthLoop(ctx)
	}()

	go func() {
		<-r.stopCh
		cancel()
	}()
}

func (r *Registry) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
	r.wg.Wait()
}

func (r *Registry) healthLoop(ctx context.Context) {
	r.CheckNow(ctx)

	ticker := time.NewTicker(r.config.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.CheckNow(ctx)
		case <-r.stopCh:
			return
		}
	}
}

// CheckNow probes every registered service concurrently and returns once
// all probes finished or timed out.
func (r *Registry) CheckNow(ctx context.Context) {
	targets := r.GetRegisteredServices()

	var g errgroup.Group
	for _, entry := range targets {
		g.Go(func() error {
			r.probeAndRecord(ctx, entry)
			return nil
		})
	}
	_ = g.Wait()
}

func (r *Registry) probeAndRecord(ctx context.Context, entry domain.ServiceEntry) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("health probe panicked", "service", entry.Name, "panic", rec)
			r.record(entry, domain.StatusUnhealthy)
		}
	}()

	start := time.Now()
	err := r.probe(ctx, entry.HealthURL())
	r.metrics.Observe(observability.MetricProbeDuration, time.Since(start).Seconds(),
		map[string]string{"service": entry.Name})

	status := domain.StatusHealthy
	if err != nil {
		status = domain.StatusUnhealthy
		slog.Debug("health probe failed",
			"service", entry.Name,
			"url", entry.BaseURL,
			"error", err,
		)
	}
	r.record(entry, status)
}

func (r *Registry) probe(ctx context.Context, url string) error {
	ctx, cancel := context.WithTimeout(ctx, r.config.ProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("health endpoint returned %d", resp.StatusCode)
	}
	return nil
}

// record applies a probe result. A result for a URL that was re-registered
// while the probe was in flight is discarded.
func (r *Registry) record(probed domain.ServiceEntry, status domain.ServiceStatus) {
	r.mu.Lock()
	entry, ok := r.entries[probed.Name]
	if !ok || entry.BaseURL != probed.BaseURL {
		r.mu.Unlock()
		return
	}
	previous := entry.Status
	entry.Status = status
	entry.LastCheck = time.Now()
	r.mu.Unlock()

	up := 0.0
	if status == domain.StatusHealthy {
		up = 1
	}
	r.metrics.Set(observability.MetricServiceUp, up, map[string]string{"service": probed.Name})

	if previous == status {
		return
	}
	if status == domain.StatusHealthy {
		slog.Info("service healthy", "service", probed.Name, "previous", previous)
	} else {
		slog.Warn("service unhealthy", "service", probed.Name, "previous", previous, "url", probed.BaseURL)
	}
}
