package middleware

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hms/gateway/internal/infrastructure/tracing"
)

var traceparentRegex = regexp.MustCompile(`^00-([0-9a-f]{32})-([0-9a-f]{16})-([0-9a-f]{2})$`)

var (
	zeroTraceID = strings.Repeat("0", 32)
	zeroSpanID  = strings.Repeat("0", 16)
)

// TraceContext is the W3C trace context of the current server span.
type TraceContext struct {
	TraceID  string
	SpanID   string
	ParentID string
	Flags    string
	State    string
}

// ParseTraceparent extracts trace id, parent span id and flags. Malformed
// values and all-zero ids yield ok=false.
func ParseTraceparent(value string) (traceID, spanID, flags string, ok bool) {
	m := traceparentRegex.FindStringSubmatch(strings.TrimSpace(value))
	if len(m) != 4 || m[1] == zeroTraceID || m[2] == zeroSpanID {
		return "", "", "", false
	}
	return m[1], m[2], m[3], true
}

// Trace continues an incoming trace or starts a new one, exports the server
// span when the request finishes and echoes traceparent on the response.
func Trace(exporter tracing.SpanExporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		tc := &TraceContext{TraceID: tracing.NewTraceID(), Flags: "01"}
		if traceID, parentID, flags, ok := ParseTraceparent(c.GetHeader(tracing.HeaderTraceparent)); ok {
			tc.TraceID, tc.ParentID, tc.Flags = traceID, parentID, flags
			tc.State = c.GetHeader(tracing.HeaderTracestate)
		}
		tc.SpanID = tracing.NewSpanID()

		c.Set(ContextKeyTrace, tc)
		c.Header(tracing.HeaderTraceparent, tracing.Traceparent(tc.TraceID, tc.SpanID, tc.Flags))
		if tc.State != "" {
			c.Header(tracing.HeaderTracestate, tc.State)
		}

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.GetString(ContextKeyService)
		}
		attrs := map[string]string{
			"http.method":      c.Request.Method,
			"http.target":      c.Request.URL.Path,
			"http.status_code": fmt.Sprintf("%d", c.Writer.Status()),
			"http.route":       route,
			"net.peer.ip":      c.ClientIP(),
			"request.id":       GetRequestID(c),
			"gateway.service":  c.GetString(ContextKeyService),
			"enduser.id":       c.GetString(ContextKeyUserID),
		}

		exporter.Export(context.Background(), tracing.SpanData{
			TraceID:      tc.TraceID,
			SpanID:       tc.SpanID,
			ParentSpanID: tc.ParentID,
			Name:         strings.TrimSpace(c.Request.Method + " " + route),
			Kind:         tracing.SpanKindServer,
			StartTime:    start,
			EndTime:      time.Now(),
			StatusCode:   c.Writer.Status(),
			Error:        c.Errors.String(),
			Attributes:   attrs,
		})
	}
}

func GetTrace(c *gin.Context) (*TraceContext, bool) {
	v, ok := c.Get(ContextKeyTrace)
	if !ok {
		return nil, false
	}
	tc, ok := v.(*TraceContext)
	return tc, ok
}
