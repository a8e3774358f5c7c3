package application

import (
	"testing"
	"time"

	"github.com/hms/gateway/internal/domain"
)

func TestRegisterService_NewEntryIsUnknown(t *testing.T) {
	registry := NewRegistry(RegistryConfig{})

	before := time.Now()
	registry.RegisterService("patient-service", "http://patient-service:3003")

	entry, ok := registry.GetService("patient-service")
	if !ok {
		t.Fatal("expected service to be registered")
	}
	if entry.Status != domain.StatusUnknown {
		t.Errorf("expected status unknown, got %s", entry.Status)
	}
	if entry.BaseURL != "http://patient-service:3003" {
		t.Errorf("unexpected url %s", entry.BaseURL)
	}
	if entry.LastCheck.Before(before) {
		t.Error("lastCheck should be set to registration time")
	}
}

func TestRegisterService_Idempotent_SecondURLWins(t *testing.T) {
	registry := NewRegistry(RegistryConfig{})

	registry.RegisterService("billing-service", "http://billing-service:3008")
	registry.RegisterService("doctor-service", "http://doctor-service:3002")
	registry.RegisterService("billing-service", "http://billing-v2:3008")

	services := registry.GetRegisteredServices()
	if len(services) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(services))
	}

	count := 0
	for _, s := range services {
		if s.Name == "billing-service" {
			count++
			if s.BaseURL != "http://billing-v2:3008" {
				t.Errorf("second registration should win, got %s", s.BaseURL)
			}
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one billing-service entry, got %d", count)
	}
	if services[0].Name != "billing-service" {
		t.Errorf("re-registration should keep the original position, got %s first", services[0].Name)
	}
}

func TestRegisterService_ResetsStatus(t *testing.T) {
	registry := NewRegistry(RegistryConfig{})
	registry.RegisterService("auth-service", "http://auth-service:3001")

	registry.record(domain.ServiceEntry{Name: "auth-service", BaseURL: "http://auth-service:3001"}, domain.StatusHealthy)
	registry.RegisterService("auth-service", "http://auth-service:3001")

	entry, _ := registry.GetService("auth-service")
	if entry.Status != domain.StatusUnknown {
		t.Errorf("expected status reset to unknown, got %s", entry.Status)
	}
}
