package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hms/gateway/internal/domain"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// ServiceSource is the read side of the service registry.
type ServiceSource interface {
	GetRegisteredServices() []domain.ServiceEntry
}

type ServiceInfo struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

type HealthResponse struct {
	Status    string                `json:"status"`
	Service   ServiceInfo           `json:"service"`
	Uptime    string                `json:"uptime"`
	Timestamp time.Time             `json:"timestamp"`
	Version   string                `json:"version"`
	Services  []domain.ServiceEntry `json:"services"`
}

type HealthHandler struct {
	services  ServiceSource
	critical  []string
	info      ServiceInfo
	startTime time.Time
}

func NewHealthHandler(services ServiceSource, critical []string, info ServiceInfo, startTime time.Time) *HealthHandler {
	return &HealthHandler{
		services:  services,
		critical:  critical,
		info:      info,
		startTime: startTime,
	}
}

// Health reports "degraded" with 503 when a critical service is unhealthy.
// Other failures only show up in the services list.
func (h *HealthHandler) Health(c *gin.Context) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("health report failed", "error", r)
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": StatusUnhealthy,
				"error":  fmt.Sprint(r),
			})
		}
	}()

	report := h.Report()
	code := http.StatusOK
	if report.Status != StatusHealthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, report)
}

func (h *HealthHandler) Report() HealthResponse {
	services := h.services.GetRegisteredServices()

	status := StatusHealthy
	for _, s := range services {
		if s.IsUnhealthy() && slices.Contains(h.critical, s.Name) {
			status = StatusDegraded
			break
		}
	}

	return HealthResponse{
		Status:    status,
		Service:   h.info,
		Uptime:    time.Since(h.startTime).Truncate(time.Second).String(),
		Timestamp: time.Now().UTC(),
		Version:   h.info.Version,
		Services:  services,
	}
}

type ReadyResponse struct {
	Status string `json:"status"`
}

func ReadyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, ReadyResponse{
			Status: "ready",
		})
	}
}
