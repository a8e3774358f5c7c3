package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hms/gateway/internal/domain"
)

// RouteSource is the read side of the route table.
type RouteSource interface {
	Routes() []domain.ProxyRoute
}

type RouteInfo struct {
	Prefix       string   `json:"prefix"`
	Service      string   `json:"service"`
	AuthRequired bool     `json:"authRequired"`
	PublicPaths  []string `json:"publicPaths,omitempty"`
	Timeout      string   `json:"timeout"`
}

type ServicesResponse struct {
	Services       []domain.ServiceEntry `json:"services"`
	Routes         []RouteInfo           `json:"routes"`
	InternalRoutes []RouteInfo           `json:"internalRoutes"`
	Timestamp      time.Time             `json:"timestamp"`
}

type ServicesHandler struct {
	services ServiceSource
	routes   RouteSource
}

func NewServicesHandler(services ServiceSource, routes RouteSource) *ServicesHandler {
	return &ServicesHandler{services: services, routes: routes}
}

func (h *ServicesHandler) List(c *gin.Context) {
	resp := ServicesResponse{
		Services:       h.services.GetRegisteredServices(),
		Routes:         []RouteInfo{},
		InternalRoutes: []RouteInfo{},
		Timestamp:      time.Now().UTC(),
	}

	for _, r := range h.routes.Routes() {
		info := RouteInfo{
			Prefix:       r.TopLevel(),
			Service:      r.Service,
			AuthRequired: r.AuthRequired,
			PublicPaths:  r.PublicPaths,
			Timeout:      r.Timeout.String(),
		}
		if r.Internal {
			resp.InternalRoutes = append(resp.InternalRoutes, info)
		} else {
			resp.Routes = append(resp.Routes, info)
		}
	}

	c.JSON(http.StatusOK, resp)
}
