package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hms/gateway/internal/application"
	"github.com/hms/gateway/internal/infrastructure/authservice"
	"github.com/hms/gateway/internal/infrastructure/config"
	"github.com/hms/gateway/internal/infrastructure/http/handler"
	"github.com/hms/gateway/internal/infrastructure/http/middleware"
	"github.com/hms/gateway/internal/infrastructure/observability"
	"github.com/hms/gateway/internal/infrastructure/proxy"
	"github.com/hms/gateway/internal/infrastructure/ratelimit"
	"github.com/hms/gateway/internal/infrastructure/redis"
	"github.com/hms/gateway/internal/infrastructure/tracing"
)

type Server struct {
	router      *gin.Engine
	config      *config.Config
	httpServer  *http.Server
	startTime   time.Time
	registry    *application.Registry
	routes      *application.RouteTable
	authGate    *middleware.AuthGate
	redisClient *redis.Client
	rateLimiter ratelimit.RateLimiter
	exporter    tracing.SpanExporter
	metrics     observability.Metrics
	prometheus  *observability.Prometheus
}

func NewServer(cfg *config.Config) (*Server, error) {
	s := &Server{
		config:    cfg,
		startTime: time.Now(),
		metrics:   observability.Noop{},
	}

	if cfg.MetricsEnabled {
		s.prometheus = observability.NewPrometheus()
		s.metrics = s.prometheus
	}

	slog.Debug("new service registry",
		slog.Duration("health_check_interval", cfg.HealthCheckInterval),
		slog.Duration("health_check_timeout", cfg.HealthCheckTimeout),
	)
	s.registry = application.NewRegistry(application.RegistryConfig{
		HealthCheckInterval: cfg.HealthCheckInterval,
		ProbeTimeout:        cfg.HealthCheckTimeout,
	}, application.WithMetrics(s.metrics))
	for _, svc := range cfg.ServiceURLs() {
		s.registry.RegisterService(svc.Name, svc.URL)
	}
	for _, name := range cfg.CriticalServices {
		if _, ok := s.registry.GetService(name); !ok {
			slog.Warn("critical service is not registered", slog.String("service", name))
		}
	}

	routes := application.DefaultRoutes(cfg.ProxyTimeout)
	if cfg.RoutesFile != "" {
		var err error
		routes, err = application.LoadRoutesFile(cfg.RoutesFile, cfg.ProxyTimeout)
		if err != nil {
			return nil, err
		}
		slog.Info("routes loaded from file", slog.String("file", cfg.RoutesFile), slog.Int("routes", len(routes)))
	}
	table, err := application.NewRouteTable(routes, s.registry)
	if err != nil {
		return nil, fmt.Errorf("invalid route table: %w", err)
	}
	s.routes = table

	needRedis := cfg.RateLimitEnabled || cfg.AuthCacheTTL > 0
	if needRedis && cfg.RedisURL != "" {
		s.redisClient, err = redis.NewClient(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis client: %w", err)
		}
	}

	if cfg.RateLimitEnabled {
		if s.redisClient != nil {
			s.rateLimiter = ratelimit.NewLimiter(s.redisClient.Client)
			slog.Info("rate limiting enabled with Redis")
		} else {
			s.rateLimiter = ratelimit.NewInMemoryLimiter()
			slog.Warn("rate limiting enabled with in-memory limiter (not recommended for production)")
		}
	} else {
		slog.Debug("rate limiting disabled")
	}

	var verifier authservice.Verifier = authservice.NewHTTPVerifier(cfg.AuthServiceURL, cfg.AuthVerifyPath, cfg.AuthTimeout)
	if cfg.AuthCacheTTL > 0 {
		if s.redisClient != nil {
			verifier = authservice.NewCachingVerifier(verifier, s.redisClient.Client, cfg.AuthCacheTTL)
			slog.Info("principal cache enabled", slog.Duration("ttl", cfg.AuthCacheTTL))
		} else {
			slog.Warn("AUTH_CACHE_TTL set but REDIS_URL is empty, principal cache disabled")
		}
	}
	s.authGate = middleware.NewAuthGate(verifier, s.metrics, !cfg.IsProduction())

	s.exporter = tracing.NewExporter(cfg)

	s.setupRouter()
	return s, nil
}

func (s *Server) setupRouter() {
	if s.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	s.router = gin.New()
	s.router.Use(middleware.Recovery(!s.config.IsProduction()))
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.Logger())
	s.router.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: s.config.CORSAllowedOrigins,
		AllowedMethods: s.config.CORSAllowedMethods,
		AllowedHeaders: s.config.CORSAllowedHeaders,
	}))
	s.router.Use(middleware.Trace(s.exporter))
	s.router.Use(middleware.StripIdentity())

	if s.rateLimiter != nil {
		s.router.Use(middleware.RateLimit(s.rateLimiter, s.config.RateLimitIPRPM, s.metrics))
	}

	s.setupGatewayRoutes()
	s.setupProxyRoute()
}

func (s *Server) setupGatewayRoutes() {
	health := handler.NewHealthHandler(s.registry, s.config.CriticalServices, handler.ServiceInfo{
		Name:        s.config.TraceServiceName,
		Version:     s.config.Version,
		Environment: s.config.Env,
	}, s.startTime)
	services := handler.NewServicesHandler(s.registry, s.routes)

	s.router.GET("/", handler.RootHandler(s.config.Version, s.config.DoctorOnlyMode))
	s.router.GET("/health", health.Health)
	s.router.GET("/ready", handler.ReadyHandler())
	s.router.GET("/services", services.List)

	if s.prometheus != nil {
		s.router.GET("/metrics", gin.WrapH(s.prometheus.Handler()))
	}
}

func (s *Server) setupProxyRoute() {
	opts := []proxy.Option{
		proxy.WithExporter(s.exporter),
		proxy.WithMetrics(s.metrics),
		proxy.WithErrorDetails(!s.config.IsProduction()),
	}
	if s.rateLimiter != nil {
		opts = append(opts, proxy.WithUserRateLimit(s.rateLimiter, s.config.RateLimitUserRPM))
	}

	proxyHandler := proxy.NewProxyHandler(s.routes, s.registry, s.authGate, opts...)
	s.router.NoRoute(proxyHandler.Handle)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Run() error {
	s.registry.Start()

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.registry.Stop()

	var errs []error
	if s.httpServer != nil {
		errs = append(errs, s.httpServer.Shutdown(ctx))
	}
	errs = append(errs, s.exporter.Shutdown(ctx))
	if s.redisClient != nil {
		errs = append(errs, s.redisClient.Close())
	}
	return errors.Join(errs...)
}
