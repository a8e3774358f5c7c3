package tracing

import (
	"bytes"
	"context"
	"encoding/hex"
	"log/slog"
	"net/http"
	"sync"
	"time"

	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
	resourcepb "go.opentelemetry.io/proto/otlp/resource/v1"
	tracepb "go.opentelemetry.io/proto/otlp/trace/v1"
	"google.golang.org/protobuf/proto"
)

const (
	defaultBufferSize    = 1024
	defaultBatchSize     = 64
	defaultFlushInterval = 5 * time.Second
	scopeName            = "hms-gateway"
)

// OTLPExporter batches spans and ships them to an OTLP/HTTP collector as
// protobuf. Export never blocks the request path: when the buffer is full the
// span is dropped.
type OTLPExporter struct {
	endpoint    string
	serviceName string
	version     string
	environment string
	client      *http.Client
	spans       chan SpanData
	done        chan struct{}
	wg          sync.WaitGroup
	closeOnce   sync.Once
}

func NewOTLPExporter(endpoint, serviceName, version, environment string) *OTLPExporter {
	e := &OTLPExporter{
		endpoint:    endpoint,
		serviceName: serviceName,
		version:     version,
		environment: environment,
		client:      &http.Client{Timeout: 10 * time.Second},
		spans:       make(chan SpanData, defaultBufferSize),
		done:        make(chan struct{}),
	}
	e.wg.Add(1)
	go e.batchLoop()
	return e
}

func (e *OTLPExporter) Export(_ context.Context, span SpanData) {
	select {
	case e.spans <- span:
	default:
		slog.Warn("otlp exporter: span dropped, buffer full", slog.String("span", span.Name))
	}
}

func (e *OTLPExporter) Shutdown(ctx context.Context) error {
	e.closeOnce.Do(func() { close(e.done) })

	finished := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *OTLPExporter) batchLoop() {
	defer e.wg.Done()

	ticker := time.NewTicker(defaultFlushInterval)
	defer ticker.Stop()

	batch := make([]SpanData, 0, defaultBatchSize)
	add := func(span SpanData) {
		batch = append(batch, span)
		if len(batch) >= defaultBatchSize {
			e.flush(batch)
			batch = make([]SpanData, 0, defaultBatchSize)
		}
	}

	for {
		select {
		case span := <-e.spans:
			add(span)
		case <-ticker.C:
			if len(batch) > 0 {
				e.flush(batch)
				batch = make([]SpanData, 0, defaultBatchSize)
			}
		case <-e.done:
			for {
				select {
				case span := <-e.spans:
					add(span)
				default:
					if len(batch) > 0 {
						e.flush(batch)
					}
					return
				}
			}
		}
	}
}

func (e *OTLPExporter) flush(batch []SpanData) {
	body, err := proto.Marshal(e.buildProto(batch))
	if err != nil {
		slog.Error("otlp exporter: failed to marshal protobuf", slog.Any("error", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint+"/v1/traces", bytes.NewReader(body))
	if err != nil {
		slog.Error("otlp exporter: failed to create request", slog.Any("error", err))
		return
	}
	req.Header.Set("Content-Type", "application/x-protobuf")

	resp, err := e.client.Do(req)
	if err != nil {
		slog.Error("otlp exporter: failed to send spans",
			slog.Any("error", err),
			slog.Int("count", len(batch)),
		)
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		slog.Warn("otlp exporter: unexpected status",
			slog.Int("status", resp.StatusCode),
			slog.Int("count", len(batch)),
		)
	}
}

func (e *OTLPExporter) buildProto(batch []SpanData) *tracepb.TracesData {
	spans := make([]*tracepb.Span, 0, len(batch))
	for _, s := range batch {
		spans = append(spans, spanDataToProto(s))
	}

	return &tracepb.TracesData{
		ResourceSpans: []*tracepb.ResourceSpans{
			{
				Resource: &resourcepb.Resource{
					Attributes: toProtoAttributes(map[string]string{
						"service.name":           e.serviceName,
						"service.version":        e.version,
						"deployment.environment": e.environment,
					}),
				},
				ScopeSpans: []*tracepb.ScopeSpans{
					{
						Scope: &commonpb.InstrumentationScope{
							Name:    scopeName,
							Version: e.version,
						},
						Spans: spans,
					},
				},
			},
		},
	}
}

func spanDataToProto(s SpanData) *tracepb.Span {
	traceID, _ := hex.DecodeString(s.TraceID)
	spanID, _ := hex.DecodeString(s.SpanID)

	span := &tracepb.Span{
		TraceId:           traceID,
		SpanId:            spanID,
		Name:              s.Name,
		Kind:              toProtoSpanKind(s.Kind),
		StartTimeUnixNano: uint64(s.StartTime.UnixNano()),
		EndTimeUnixNano:   uint64(s.EndTime.UnixNano()),
		Status:            toProtoStatus(s.StatusCode, s.Error),
		Attributes:        toProtoAttributes(s.Attributes),
	}

	if s.ParentSpanID != "" {
		parentID, _ := hex.DecodeString(s.ParentSpanID)
		span.ParentSpanId = parentID
	}

	return span
}

func toProtoSpanKind(k SpanKind) tracepb.Span_SpanKind {
	switch k {
	case SpanKindServer:
		return tracepb.Span_SPAN_KIND_SERVER
	case SpanKindClient:
		return tracepb.Span_SPAN_KIND_CLIENT
	default:
		return tracepb.Span_SPAN_KIND_UNSPECIFIED
	}
}

// A transport error or a 5xx marks the span failed; 4xx is a caller problem
// and stays OK.
func toProtoStatus(httpStatus int, errMsg string) *tracepb.Status {
	if errMsg != "" || httpStatus >= 500 {
		return &tracepb.Status{Code: tracepb.Status_STATUS_CODE_ERROR, Message: errMsg}
	}
	return &tracepb.Status{Code: tracepb.Status_STATUS_CODE_OK}
}

func toProtoAttributes(attrs map[string]string) []*commonpb.KeyValue {
	if len(attrs) == 0 {
		return nil
	}
	kvs := make([]*commonpb.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		if v == "" {
			continue
		}
		kvs = append(kvs, &commonpb.KeyValue{
			Key:   k,
			Value: &commonpb.AnyValue{Value: &commonpb.AnyValue_StringValue{StringValue: v}},
		})
	}
	return kvs
}
