package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	ModeFull       = "full"
	ModeDoctorOnly = "doctor-only"
)

type RootResponse struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Mode      string            `json:"mode"`
	Endpoints map[string]string `json:"endpoints"`
}

// RootHandler serves the gateway banner. Doctor-only mode changes the
// advertised mode and nothing else.
func RootHandler(version string, doctorOnly bool) gin.HandlerFunc {
	mode := ModeFull
	if doctorOnly {
		mode = ModeDoctorOnly
	}
	resp := RootResponse{
		Message: "Hospital Management System API Gateway",
		Version: version,
		Mode:    mode,
		Endpoints: map[string]string{
			"health":   "/health",
			"ready":    "/ready",
			"services": "/services",
			"metrics":  "/metrics",
			"api":      "/api/*",
		},
	}

	return func(c *gin.Context) {
		c.JSON(http.StatusOK, resp)
	}
}
