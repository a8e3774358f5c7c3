package application

import "github.com/hms/gateway/internal/domain"

func (r *Registry) GetService(name string) (domain.ServiceEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[name]
	if !ok {
		return domain.ServiceEntry{}, false
	}
	return *entry, true
}

// GetRegisteredServices returns a copy of every entry in registration order.
// The health loop keeps running, so the result may be stale immediately.
func (r *Registry) GetRegisteredServices() []domain.ServiceEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.ServiceEntry, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, *r.entries[name])
	}
	return out
}
