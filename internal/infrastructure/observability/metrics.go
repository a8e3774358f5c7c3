package observability

type Counter interface {
	Incr(name string, tags map[string]string)
	Add(name string, value float64, tags map[string]string)
}

type Gauge interface {
	Set(name string, value float64, tags map[string]string)
}

type Histogram interface {
	Observe(name string, value float64, tags map[string]string)
}

// Metrics is the full sink the gateway components write to.
type Metrics interface {
	Counter
	Gauge
	Histogram
}

const (
	MetricServiceUp       = "gateway_service_up"
	MetricProbeDuration   = "gateway_health_probe_duration_seconds"
	MetricAuthAttempts    = "gateway_auth_attempts_total"
	MetricProxyRequests   = "gateway_proxy_requests_total"
	MetricProxyDuration   = "gateway_proxy_duration_seconds"
	MetricRateLimitDenied = "gateway_rate_limit_denied_total"
)
