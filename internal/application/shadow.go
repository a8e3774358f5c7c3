package application

import (
	"strings"

	"github.com/hms/gateway/internal/domain"
)

func normalizePrefix(prefix string) string {
	return strings.TrimSuffix(prefix, "/")
}

func samePrefix(a, b string) bool {
	return normalizePrefix(a) == normalizePrefix(b)
}

// findShadows lists every route that can never be selected because an
// earlier route matches a superset of its paths. Specific routes placed
// before general ones are fine; the reverse order is a configuration error.
func findShadows(routes []domain.ProxyRoute) []domain.RouteShadow {
	var shadows []domain.RouteShadow

	for i, route := range routes {
		for _, earlier := range routes[:i] {
			if !domain.HasPathPrefix(normalizePrefix(route.Prefix), earlier.Prefix) {
				continue
			}
			shadows = append(shadows, domain.RouteShadow{
				Prefix:     route.Prefix,
				Service:    route.Service,
				ShadowedBy: earlier.Prefix,
				Position:   i,
			})
			break
		}
	}

	return shadows
}
