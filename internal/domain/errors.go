package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnauthenticated        = errors.New("unauthenticated")
	ErrTokenExpired           = fmt.Errorf("%w: token expired", ErrUnauthenticated)
	ErrInvalidPrincipal       = fmt.Errorf("%w: invalid principal", ErrUnauthenticated)
	ErrAuthServiceUnavailable = errors.New("auth service unavailable")
	ErrInternalAuth           = errors.New("internal authentication error")
	ErrUpstreamUnavailable    = errors.New("upstream unavailable")
	ErrRouteNotFound          = errors.New("route not found")
	ErrServiceNotFound        = errors.New("service not found")
	ErrInvalidRoute           = errors.New("invalid route")
)

// RouteShadow describes a route that can never match because an earlier
// route already claims its whole path space.
type RouteShadow struct {
	Prefix     string `json:"prefix"`
	Service    string `json:"service"`
	ShadowedBy string `json:"shadowed_by"`
	Position   int    `json:"position"`
}

type ShadowError struct {
	Shadows []RouteShadow `json:"shadows"`
}

func (e *ShadowError) Error() string {
	var msgs []string
	for _, s := range e.Shadows {
		msgs = append(msgs, fmt.Sprintf("%s (%s, #%d) is shadowed by %s",
			s.Prefix, s.Service, s.Position, s.ShadowedBy))
	}
	return fmt.Sprintf("unreachable routes: %s", strings.Join(msgs, "; "))
}
