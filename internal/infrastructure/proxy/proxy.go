package proxy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hms/gateway/internal/application"
	"github.com/hms/gateway/internal/domain"
	"github.com/hms/gateway/internal/infrastructure/http/middleware"
	"github.com/hms/gateway/internal/infrastructure/observability"
	"github.com/hms/gateway/internal/infrastructure/ratelimit"
	"github.com/hms/gateway/internal/infrastructure/tracing"
)

const (
	HeaderServiceName = "X-Service-Name"

	defaultRouteTimeout = 30 * time.Second
	statusClientClosed  = 499
)

var hopByHopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailers",
	"Transfer-Encoding",
	"Upgrade",
}

// ProxyHandler forwards every request that no gateway endpoint handles to the
// backend chosen by the route table.
type ProxyHandler struct {
	routes   *application.RouteTable
	services application.ServiceLookup
	auth     *middleware.AuthGate

	limiter   ratelimit.RateLimiter
	userLimit int

	transport     http.RoundTripper
	exporter      tracing.SpanExporter
	metrics       observability.Metrics
	maxBodyBytes  int64
	exposeDetails bool
}

type Option func(*ProxyHandler)

func WithUserRateLimit(limiter ratelimit.RateLimiter, perMinute int) Option {
	return func(p *ProxyHandler) {
		p.limiter = limiter
		p.userLimit = perMinute
	}
}

func WithTransport(rt http.RoundTripper) Option {
	return func(p *ProxyHandler) {
		p.transport = rt
	}
}

func WithExporter(exporter tracing.SpanExporter) Option {
	return func(p *ProxyHandler) {
		p.exporter = exporter
	}
}

func WithMetrics(m observability.Metrics) Option {
	return func(p *ProxyHandler) {
		p.metrics = m
	}
}

func WithMaxBodyBytes(n int64) Option {
	return func(p *ProxyHandler) {
		p.maxBodyBytes = n
	}
}

func WithErrorDetails(expose bool) Option {
	return func(p *ProxyHandler) {
		p.exposeDetails = expose
	}
}

// NewProxyHandler needs a non-nil auth gate whenever the table has protected
// routes.
func NewProxyHandler(routes *application.RouteTable, services application.ServiceLookup, auth *middleware.AuthGate, opts ...Option) *ProxyHandler {
	p := &ProxyHandler{
		routes:       routes,
		services:     services,
		auth:         auth,
		transport:    http.DefaultTransport,
		exporter:     &tracing.NoopExporter{},
		metrics:      observability.Noop{},
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *ProxyHandler) Handle(c *gin.Context) {
	match, ok := p.routes.Match(c.Request.URL.Path)
	if !ok {
		p.NotFound(c)
		return
	}
	route := match.Route
	c.Set(middleware.ContextKeyService, route.Service)

	if !match.Public {
		if _, ok := p.auth.AuthenticateRequest(c); !ok {
			return
		}
		if p.limiter != nil {
			userID := c.GetString(middleware.ContextKeyUserID)
			if !middleware.Allow(c, p.limiter, ratelimit.UserKey(userID), p.userLimit, p.metrics) {
				return
			}
		}
	}

	entry, ok := p.services.GetService(route.Service)
	if !ok {
		p.unavailable(c, route.Service, fmt.Errorf("%w: %s", domain.ErrServiceNotFound, route.Service))
		return
	}
	target, err := url.Parse(entry.BaseURL)
	if err != nil || target.Host == "" {
		p.unavailable(c, route.Service, fmt.Errorf("invalid service url %q: %v", entry.BaseURL, err))
		return
	}

	if err := prepareBody(c.Request, p.maxBodyBytes); err != nil {
		p.badBody(c, err)
		return
	}

	timeout := route.Timeout
	if timeout <= 0 {
		timeout = defaultRouteTimeout
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()
	c.Request = c.Request.WithContext(ctx)

	span := p.startClientSpan(c, route, target)
	var proxyErr error

	rp := &httputil.ReverseProxy{
		Transport: p.transport,
		Director: func(req *http.Request) {
			req.URL.Scheme = target.Scheme
			req.URL.Host = target.Host
			req.Host = target.Host
			req.URL.Path, req.URL.RawPath = upstreamPath(target, c.Request.URL, match)

			for _, h := range hopByHopHeaders {
				req.Header.Del(h)
			}

			if c.Request.Host != "" {
				req.Header.Set("X-Forwarded-Host", c.Request.Host)
			}
			proto := "http"
			if c.Request.TLS != nil {
				proto = "https"
			}
			if forwardedProto := c.GetHeader("X-Forwarded-Proto"); forwardedProto != "" {
				proto = forwardedProto
			}
			req.Header.Set("X-Forwarded-Proto", proto)

			if requestID := middleware.GetRequestID(c); requestID != "" {
				req.Header.Set(middleware.HeaderRequestID, requestID)
			}
			if !route.Internal {
				req.Header.Del(HeaderServiceName)
			}
			if span != nil {
				req.Header.Set(tracing.HeaderTraceparent, tracing.Traceparent(span.TraceID, span.SpanID, span.flags))
				if span.state != "" {
					req.Header.Set(tracing.HeaderTracestate, span.state)
				}
			}
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			proxyErr = err
			p.upstreamFailed(c, route.Service, err)
		},
	}

	start := time.Now()
	rp.ServeHTTP(c.Writer, c.Request)
	elapsed := time.Since(start)

	status := c.Writer.Status()
	p.metrics.Incr(observability.MetricProxyRequests, map[string]string{
		"service": route.Service,
		"status":  strconv.Itoa(status),
	})
	p.metrics.Observe(observability.MetricProxyDuration, elapsed.Seconds(), map[string]string{
		"service": route.Service,
	})
	p.finishClientSpan(span, start, status, proxyErr)
}

// upstreamPath joins the service base path with the rewritten path. When the
// inbound path carries escapes, the rewrite is also applied to the escaped form.
func upstreamPath(target *url.URL, inbound *url.URL, match *application.MatchResult) (string, string) {
	path := strings.TrimSuffix(target.Path, "/") + match.UpstreamPath
	if inbound.RawPath == "" {
		return path, ""
	}
	return path, strings.TrimSuffix(target.EscapedPath(), "/") + match.RewriteEscaped(inbound.EscapedPath())
}

func (p *ProxyHandler) upstreamFailed(c *gin.Context, service string, err error) {
	if errors.Is(c.Request.Context().Err(), context.Canceled) {
		slog.Info("client closed request before upstream answered",
			"service", service,
			"path", c.Request.URL.Path,
			"request_id", middleware.GetRequestID(c),
		)
		c.Status(statusClientClosed)
		c.Abort()
		return
	}
	p.unavailable(c, service, err)
}

// unavailable writes the 503 at most once. When the upstream already started
// a response there is nothing left to send, so the failure is only logged.
func (p *ProxyHandler) unavailable(c *gin.Context, service string, err error) {
	_ = c.Error(fmt.Errorf("%w: %s: %v", domain.ErrUpstreamUnavailable, service, err))

	if c.Writer.Written() {
		slog.Error("upstream failed after response started",
			"service", service,
			"path", c.Request.URL.Path,
			"request_id", middleware.GetRequestID(c),
			"error", err,
		)
		c.Abort()
		return
	}

	slog.Error("upstream unavailable",
		"service", service,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"request_id", middleware.GetRequestID(c),
		"error", err,
	)

	body := gin.H{
		"error":   domain.DisplayName(service) + " is unavailable",
		"message": "the service did not respond, please try again later",
	}
	if p.exposeDetails {
		body["details"] = err.Error()
	}
	c.AbortWithStatusJSON(http.StatusServiceUnavailable, body)
}

func (p *ProxyHandler) badBody(c *gin.Context, err error) {
	if errors.Is(err, errBodyTooLarge) {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
			"error":   "Payload Too Large",
			"message": fmt.Sprintf("request body exceeds %d bytes", p.maxBodyBytes),
		})
		return
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"error":   "Bad Request",
		"message": "could not read request body",
	})
}

// NotFound answers requests no route claims. availableRoutes is the same for
// every method and path.
func (p *ProxyHandler) NotFound(c *gin.Context) {
	_ = c.Error(domain.ErrRouteNotFound)
	c.JSON(http.StatusNotFound, gin.H{
		"error":           "Route not found",
		"path":            c.Request.URL.Path,
		"method":          c.Request.Method,
		"availableRoutes": p.routes.AvailableRoutes(),
	})
}
