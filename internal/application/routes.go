package application

import (
	"fmt"
	"regexp"

	"github.com/hms/gateway/internal/domain"
)

// ServiceLookup resolves a service name to its registry entry.
type ServiceLookup interface {
	GetService(name string) (domain.ServiceEntry, bool)
}

type compiledRoute struct {
	domain.ProxyRoute
	rewrite *regexp.Regexp
}

// RouteTable is the ordered, immutable list of proxy routes. The first route
// whose prefix matches wins.
type RouteTable struct {
	routes    []compiledRoute
	available []string
}

type MatchResult struct {
	Route        domain.ProxyRoute
	UpstreamPath string
	Public       bool

	route *compiledRoute
}

func NewRouteTable(routes []domain.ProxyRoute, services ServiceLookup) (*RouteTable, error) {
	t := &RouteTable{routes: make([]compiledRoute, 0, len(routes))}

	for i, route := range routes {
		if route.Prefix == "" || route.Prefix[0] != '/' {
			return nil, fmt.Errorf("%w: route #%d prefix %q must start with /", domain.ErrInvalidRoute, i, route.Prefix)
		}
		if services != nil {
			if _, ok := services.GetService(route.Service); !ok {
				return nil, fmt.Errorf("%w: route %s targets %s", domain.ErrServiceNotFound, route.Prefix, route.Service)
			}
		}

		cr := compiledRoute{ProxyRoute: route}
		if route.Rewrite.Pattern != "" {
			re, err := regexp.Compile(route.Rewrite.Pattern)
			if err != nil {
				return nil, fmt.Errorf("%w: route %s rewrite: %v", domain.ErrInvalidRoute, route.Prefix, err)
			}
			cr.rewrite = re
		}
		t.routes = append(t.routes, cr)
	}

	if shadows := findShadows(routes); len(shadows) > 0 {
		return nil, &domain.ShadowError{Shadows: shadows}
	}

	t.available = buildAvailableRoutes(routes)
	return t, nil
}

func (t *RouteTable) Match(path string) (*MatchResult, bool) {
	for i := range t.routes {
		r := &t.routes[i]
		if !r.Matches(path) {
			continue
		}
		return &MatchResult{
			Route:        r.ProxyRoute,
			UpstreamPath: r.rewritePath(path),
			Public:       r.IsPublic(path),
			route:        r,
		}, true
	}
	return nil, false
}

func (r *compiledRoute) rewritePath(path string) string {
	if r.rewrite == nil {
		return path
	}
	out := r.rewrite.ReplaceAllString(path, r.Rewrite.Replacement)
	if out == "" {
		return "/"
	}
	return out
}

// RewriteEscaped applies the route rewrite to the escaped form of the
// request path so encoded separators such as %2F survive.
func (m *MatchResult) RewriteEscaped(escaped string) string {
	if m.route == nil {
		return escaped
	}
	return m.route.rewritePath(escaped)
}

// Routes returns the configured routes in match order.
func (t *RouteTable) Routes() []domain.ProxyRoute {
	out := make([]domain.ProxyRoute, 0, len(t.routes))
	for _, r := range t.routes {
		out = append(out, r.ProxyRoute)
	}
	return out
}

// AvailableRoutes is the list advertised on a 404. It does not depend on
// the request.
func (t *RouteTable) AvailableRoutes() []string {
	out := make([]string, len(t.available))
	copy(out, t.available)
	return out
}

func buildAvailableRoutes(routes []domain.ProxyRoute) []string {
	out := []string{"/health", "/services"}
	seen := map[string]bool{}
	for i, r := range routes {
		if r.Internal || hasAncestor(routes, i) {
			continue
		}
		top := r.TopLevel()
		if seen[top] {
			continue
		}
		seen[top] = true
		out = append(out, top)
	}
	return out
}

// hasAncestor reports whether another route covers a strictly wider path
// space than routes[i], e.g. /api/doctors for /api/doctors/health.
func hasAncestor(routes []domain.ProxyRoute, i int) bool {
	for j, other := range routes {
		if j == i || samePrefix(other.Prefix, routes[i].Prefix) {
			continue
		}
		if domain.HasPathPrefix(routes[i].Prefix, other.Prefix) {
			return true
		}
	}
	return false
}
