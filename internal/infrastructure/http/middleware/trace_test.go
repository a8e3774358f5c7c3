package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hms/gateway/internal/infrastructure/tracing"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var validTraceparent = regexp.MustCompile(`^00-[0-9a-f]{32}-[0-9a-f]{16}-[0-9a-f]{2}$`)

type recordingExporter struct {
	mu    sync.Mutex
	spans []tracing.SpanData
}

func (r *recordingExporter) Export(_ context.Context, span tracing.SpanData) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spans = append(r.spans, span)
}

func (r *recordingExporter) Shutdown(context.Context) error { return nil }

func (r *recordingExporter) Spans() []tracing.SpanData {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]tracing.SpanData(nil), r.spans...)
}

func traceRouter(exporter tracing.SpanExporter, handler gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), Trace(exporter))
	router.GET("/api/patients/:id", handler)
	return router
}

func TestTrace_NoTraceparent_GeneratesNew(t *testing.T) {
	var seen *TraceContext
	router := traceRouter(&tracing.NoopExporter{}, func(c *gin.Context) {
		seen, _ = GetTrace(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/patients/1", nil)
	router.ServeHTTP(w, req)

	if seen == nil || seen.TraceID == "" || seen.SpanID == "" {
		t.Fatalf("expected trace context in gin context, got %+v", seen)
	}
	if seen.ParentID != "" {
		t.Errorf("new trace should have no parent, got %s", seen.ParentID)
	}

	traceparent := w.Header().Get("Traceparent")
	if !validTraceparent.MatchString(traceparent) {
		t.Errorf("invalid traceparent format: %q", traceparent)
	}
}

func TestTrace_ValidTraceparent_ContinuesTrace(t *testing.T) {
	originalTraceID := "abcdef1234567890abcdef1234567890"
	originalSpanID := "1234567890abcdef"

	var seen *TraceContext
	router := traceRouter(&tracing.NoopExporter{}, func(c *gin.Context) {
		seen, _ = GetTrace(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/patients/1", nil)
	req.Header.Set("Traceparent", "00-"+originalTraceID+"-"+originalSpanID+"-01")
	router.ServeHTTP(w, req)

	if seen.TraceID != originalTraceID {
		t.Errorf("expected trace id %s, got %s", originalTraceID, seen.TraceID)
	}
	if seen.ParentID != originalSpanID {
		t.Errorf("incoming span should become the parent, got %s", seen.ParentID)
	}
	if seen.SpanID == originalSpanID {
		t.Error("expected a new span id")
	}

	parts := strings.Split(w.Header().Get("Traceparent"), "-")
	if len(parts) != 4 || parts[1] != originalTraceID || parts[2] != seen.SpanID {
		t.Errorf("unexpected response traceparent %v", parts)
	}
}

func TestParseTraceparent_Invalid(t *testing.T) {
	cases := []struct {
		name        string
		traceparent string
	}{
		{"wrong version", "01-abcdef1234567890abcdef1234567890-1234567890abcdef-01"},
		{"short trace_id", "00-abcdef-1234567890abcdef-01"},
		{"not hex", "00-zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz-1234567890abcdef-01"},
		{"uppercase", "00-ABCDEF1234567890ABCDEF1234567890-1234567890abcdef-01"},
		{"zero trace id", "00-00000000000000000000000000000000-1234567890abcdef-01"},
		{"zero span id", "00-abcdef1234567890abcdef1234567890-0000000000000000-01"},
		{"empty", ""},
		{"garbage", "not-a-traceparent"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, _, ok := ParseTraceparent(tc.traceparent); ok {
				t.Errorf("expected %q to be rejected", tc.traceparent)
			}
		})
	}
}

func TestTrace_InvalidTraceparent_GeneratesNew(t *testing.T) {
	router := traceRouter(&tracing.NoopExporter{}, func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/patients/1", nil)
	req.Header.Set("Traceparent", "00-00000000000000000000000000000000-1234567890abcdef-01")
	router.ServeHTTP(w, req)

	traceparent := w.Header().Get("Traceparent")
	if !validTraceparent.MatchString(traceparent) || strings.Contains(traceparent, strings.Repeat("0", 32)) {
		t.Errorf("expected a fresh traceparent, got %q", traceparent)
	}
}

func TestTrace_TracestateIsPropagated(t *testing.T) {
	tracestate := "vendor1=value1,vendor2=value2"
	router := traceRouter(&tracing.NoopExporter{}, func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/patients/1", nil)
	req.Header.Set("Traceparent", "00-abcdef1234567890abcdef1234567890-1234567890abcdef-01")
	req.Header.Set("Tracestate", tracestate)
	router.ServeHTTP(w, req)

	if got := w.Header().Get("Tracestate"); got != tracestate {
		t.Errorf("expected tracestate %q, got %q", tracestate, got)
	}
}

func TestTrace_ExportsServerSpan(t *testing.T) {
	exporter := &recordingExporter{}
	router := traceRouter(exporter, func(c *gin.Context) {
		c.Set(ContextKeyUserID, "u-1")
		c.Status(http.StatusCreated)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/patients/9", nil)
	router.ServeHTTP(w, req)

	spans := exporter.Spans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]
	if span.Kind != tracing.SpanKindServer {
		t.Errorf("expected server span, got %s", span.Kind)
	}
	if span.Name != "GET /api/patients/:id" {
		t.Errorf("unexpected span name %q", span.Name)
	}
	if span.StatusCode != http.StatusCreated {
		t.Errorf("expected status 201, got %d", span.StatusCode)
	}
	if span.Attributes["enduser.id"] != "u-1" {
		t.Errorf("expected enduser.id attribute, got %v", span.Attributes)
	}
	if span.Attributes["request.id"] == "" {
		t.Error("expected request.id attribute")
	}
}
