package domain

import (
	"strings"
	"time"
)

// PathRewrite replaces the first match of Pattern (a regular expression) in
// the inbound path with Replacement. An empty Pattern leaves the path alone.
type PathRewrite struct {
	Pattern     string `json:"pattern,omitempty" yaml:"pattern"`
	Replacement string `json:"replacement,omitempty" yaml:"replacement"`
}

// ProxyRoute maps an inbound path prefix to a backend service.
type ProxyRoute struct {
	Prefix       string        `json:"prefix" yaml:"prefix"`
	Service      string        `json:"service" yaml:"service"`
	AuthRequired bool          `json:"auth_required" yaml:"auth_required"`
	PublicPaths  []string      `json:"public_paths,omitempty" yaml:"public_paths"`
	Rewrite      PathRewrite   `json:"rewrite,omitempty" yaml:"rewrite"`
	Timeout      time.Duration `json:"timeout" yaml:"timeout"`
	Internal     bool          `json:"internal,omitempty" yaml:"internal"`
}

// Matches reports whether path falls under the route prefix on a segment
// boundary: "/api/doctors" matches "/api/doctors/1" but not "/api/doctorsx".
func (r *ProxyRoute) Matches(path string) bool {
	return HasPathPrefix(path, r.Prefix)
}

// IsPublic reports whether path is exempt from authentication.
func (r *ProxyRoute) IsPublic(path string) bool {
	if !r.AuthRequired {
		return true
	}
	for _, p := range r.PublicPaths {
		if HasPathPrefix(path, p) {
			return true
		}
	}
	return false
}

// TopLevel is the prefix as advertised in route listings, e.g. "/api/doctors/*".
func (r *ProxyRoute) TopLevel() string {
	return strings.TrimSuffix(r.Prefix, "/") + "/*"
}

func HasPathPrefix(path, prefix string) bool {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return true
	}
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}
