package domain

import (
	"errors"
	"testing"
)

func TestPrincipal_Headers(t *testing.T) {
	p := &Principal{
		ID:       "u-123",
		Email:    "bs.an@benhvien.vn",
		Role:     "doctor",
		FullName: "Nguyễn Văn An",
	}

	h := p.Headers()

	if h[HeaderUserID] != "u-123" {
		t.Errorf("unexpected user id header %q", h[HeaderUserID])
	}
	if h[HeaderUserEmail] != "bs.an@benhvien.vn" {
		t.Errorf("unexpected email header %q", h[HeaderUserEmail])
	}
	if h[HeaderUserRole] != "doctor" {
		t.Errorf("unexpected role header %q", h[HeaderUserRole])
	}
	if h[HeaderUserName] != "Nguy%E1%BB%85n+V%C4%83n+An" {
		t.Errorf("display name should be escaped, got %q", h[HeaderUserName])
	}
}

func TestPrincipal_Headers_NoName(t *testing.T) {
	p := &Principal{ID: "1", Email: "a@b.c", Role: "patient"}
	if _, ok := p.Headers()[HeaderUserName]; ok {
		t.Error("name header should be omitted when empty")
	}
}

func TestPrincipal_Valid(t *testing.T) {
	var nilPrincipal *Principal
	if err := nilPrincipal.Valid(); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("nil principal: expected ErrUnauthenticated, got %v", err)
	}
	if err := (&Principal{Email: "x@y.z"}).Valid(); !errors.Is(err, ErrInvalidPrincipal) {
		t.Errorf("missing id: expected ErrInvalidPrincipal, got %v", err)
	}
	if err := (&Principal{ID: "1"}).Valid(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestHeaderSafe(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"with space", "with space"},
		{"Trần", "Tr%E1%BA%A7n"},
		{"line\nbreak", "line%0Abreak"},
	}
	for _, tt := range tests {
		if got := HeaderSafe(tt.in); got != tt.want {
			t.Errorf("HeaderSafe(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
