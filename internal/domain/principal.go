package domain

import (
	"net/url"
	"strings"
)

const (
	HeaderUserID    = "X-User-Id"
	HeaderUserEmail = "X-User-Email"
	HeaderUserRole  = "X-User-Role"
	HeaderUserName  = "X-User-Name"
)

var principalHeaders = []string{HeaderUserID, HeaderUserEmail, HeaderUserRole, HeaderUserName}

// Principal is the caller identity returned by the auth service. It lives for
// one request and is only ever passed on as forwarded headers.
type Principal struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	FullName string `json:"full_name,omitempty"`
}

func (p *Principal) Valid() error {
	if p == nil || p.ID == "" {
		return ErrInvalidPrincipal
	}
	return nil
}

// Headers returns the forwarded identity headers. Values outside printable
// ASCII are query-escaped so they survive HTTP/1.1 header encoding.
func (p *Principal) Headers() map[string]string {
	h := map[string]string{
		HeaderUserID:    HeaderSafe(p.ID),
		HeaderUserEmail: HeaderSafe(p.Email),
		HeaderUserRole:  HeaderSafe(p.Role),
	}
	if p.FullName != "" {
		h[HeaderUserName] = HeaderSafe(p.FullName)
	}
	return h
}

// PrincipalHeaders lists every header the gateway owns; inbound copies are
// dropped before authentication so clients cannot spoof an identity.
func PrincipalHeaders() []string {
	out := make([]string, len(principalHeaders))
	copy(out, principalHeaders)
	return out
}

func HeaderSafe(v string) string {
	for i := 0; i < len(v); i++ {
		if v[i] < 0x20 || v[i] > 0x7e {
			return url.QueryEscape(v)
		}
	}
	return strings.TrimSpace(v)
}
