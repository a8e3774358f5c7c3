package proxy

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hms/gateway/internal/domain"
	"github.com/hms/gateway/internal/infrastructure/http/middleware"
	"github.com/hms/gateway/internal/infrastructure/tracing"
)

type clientSpan struct {
	TraceID  string
	SpanID   string
	ParentID string
	flags    string
	state    string
	name     string
	attrs    map[string]string
}

// startClientSpan opens a child of the request's server span for the
// upstream call. Without a trace context no span is created.
func (p *ProxyHandler) startClientSpan(c *gin.Context, route domain.ProxyRoute, target *url.URL) *clientSpan {
	tc, ok := middleware.GetTrace(c)
	if !ok {
		return nil
	}
	return &clientSpan{
		TraceID:  tc.TraceID,
		SpanID:   tracing.NewSpanID(),
		ParentID: tc.SpanID,
		flags:    tc.Flags,
		state:    tc.State,
		name:     c.Request.Method + " " + route.Service,
		attrs: map[string]string{
			"http.method":     c.Request.Method,
			"http.target":     c.Request.URL.Path,
			"peer.service":    route.Service,
			"net.peer.name":   target.Host,
			"gateway.route":   route.Prefix,
			"gateway.timeout": route.Timeout.String(),
		},
	}
}

func (p *ProxyHandler) finishClientSpan(span *clientSpan, start time.Time, status int, err error) {
	if span == nil {
		return
	}
	span.attrs["http.status_code"] = strconv.Itoa(status)

	data := tracing.SpanData{
		TraceID:      span.TraceID,
		SpanID:       span.SpanID,
		ParentSpanID: span.ParentID,
		Name:         span.name,
		Kind:         tracing.SpanKindClient,
		StartTime:    start,
		EndTime:      time.Now(),
		StatusCode:   status,
		Attributes:   span.attrs,
	}
	if err != nil {
		data.Error = err.Error()
	}
	p.exporter.Export(context.Background(), data)
}
