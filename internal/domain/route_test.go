package domain

import "testing"

func TestHasPathPrefix(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		prefix string
		want   bool
	}{
		{"exact", "/api/doctors", "/api/doctors", true},
		{"child", "/api/doctors/42", "/api/doctors", true},
		{"trailing slash on prefix", "/api/doctors/42", "/api/doctors/", true},
		{"sibling with common stem", "/api/doctorsx", "/api/doctors", false},
		{"shorter path", "/api", "/api/doctors", false},
		{"empty prefix", "/anything", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasPathPrefix(tt.path, tt.prefix); got != tt.want {
				t.Errorf("HasPathPrefix(%q, %q) = %v, want %v", tt.path, tt.prefix, got, tt.want)
			}
		})
	}
}

func TestProxyRoute_IsPublic(t *testing.T) {
	route := &ProxyRoute{
		Prefix:       "/api/payments",
		Service:      "payment-service",
		AuthRequired: true,
		PublicPaths:  []string{"/api/payments/webhooks"},
	}

	tests := []struct {
		path string
		want bool
	}{
		{"/api/payments", false},
		{"/api/payments/123", false},
		{"/api/payments/webhooks", true},
		{"/api/payments/webhooks/vnpay", true},
		{"/api/payments/webhooksx", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := route.IsPublic(tt.path); got != tt.want {
				t.Errorf("IsPublic(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}

	open := &ProxyRoute{Prefix: "/api/auth", AuthRequired: false}
	if !open.IsPublic("/api/auth/login") {
		t.Error("routes without auth should always be public")
	}
}

func TestProxyRoute_TopLevel(t *testing.T) {
	route := &ProxyRoute{Prefix: "/api/medical-records"}
	if got := route.TopLevel(); got != "/api/medical-records/*" {
		t.Errorf("TopLevel() = %q", got)
	}
}
