package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hms/gateway/internal/domain"
)

type fakeRoutes []domain.ProxyRoute

func (f fakeRoutes) Routes() []domain.ProxyRoute { return f }

func TestServicesHandler_List(t *testing.T) {
	services := fakeServices{
		entry(domain.ServiceAuth, domain.StatusHealthy),
		entry(domain.ServicePayment, domain.StatusUnhealthy),
	}
	routes := fakeRoutes{
		{Prefix: "/api/auth", Service: domain.ServiceAuth, Timeout: 30 * time.Second},
		{Prefix: "/api/payments", Service: domain.ServicePayment, AuthRequired: true,
			PublicPaths: []string{"/api/payments/webhooks"}, Timeout: 30 * time.Second},
		{Prefix: "/internal/patients", Service: domain.ServicePatient, Internal: true, Timeout: 10 * time.Second},
	}

	router := gin.New()
	router.GET("/services", NewServicesHandler(services, routes).List)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/services", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp ServicesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp.Services) != 2 || resp.Services[1].Status != domain.StatusUnhealthy {
		t.Errorf("unexpected services %+v", resp.Services)
	}
	if len(resp.Routes) != 2 || len(resp.InternalRoutes) != 1 {
		t.Fatalf("expected 2 public and 1 internal route, got %d/%d", len(resp.Routes), len(resp.InternalRoutes))
	}
	if resp.Routes[1].Prefix != "/api/payments/*" || !resp.Routes[1].AuthRequired {
		t.Errorf("unexpected route %+v", resp.Routes[1])
	}
	if resp.InternalRoutes[0].Timeout != "10s" {
		t.Errorf("unexpected internal timeout %s", resp.InternalRoutes[0].Timeout)
	}
}
