package application

import (
	"log/slog"
	"time"

	"github.com/hms/gateway/internal/domain"
)

// RegisterService inserts or overwrites name. A re-registration resets the
// entry to unknown until the next probe; the position in listings is kept.
func (r *Registry) RegisterService(name, url string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; !exists {
		r.order = append(r.order, name)
	}
	r.entries[name] = &domain.ServiceEntry{
		Name:      name,
		BaseURL:   url,
		Status:    domain.StatusUnknown,
		LastCheck: time.Now(),
	}

	slog.Debug("service registered", "service", name, "url", url)
}
