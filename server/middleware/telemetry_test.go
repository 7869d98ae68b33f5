package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/ssogate/observability"
	"github.com/kbukum/ssogate/server/middleware"
)

func TestTelemetry(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		wantStatus codes.Code
	}{
		{"ok", http.StatusOK, codes.Unset},
		{"client error", http.StatusNotFound, codes.Unset},
		{"server error", http.StatusInternalServerError, codes.Error},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spans := tracetest.NewSpanRecorder()
			tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
			reader := sdkmetric.NewManualReader()
			metrics, err := observability.NewHTTPMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var inner trace.SpanContext
			handler := middleware.Telemetry(tp, metrics)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				inner = trace.SpanContextFromContext(r.Context())
				w.WriteHeader(tt.status)
			}))
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/google", http.NoBody))

			ended := spans.Ended()
			if len(ended) != 1 {
				t.Fatalf("expected 1 span, got %d", len(ended))
			}
			span := ended[0]
			if span.Name() != "HTTP POST" {
				t.Errorf("span name = %q", span.Name())
			}
			if span.SpanKind() != trace.SpanKindServer {
				t.Errorf("span kind = %v", span.SpanKind())
			}
			if span.Status().Code != tt.wantStatus {
				t.Errorf("span status = %v, want %v", span.Status().Code, tt.wantStatus)
			}
			if inner.SpanID() != span.SpanContext().SpanID() {
				t.Error("handler context does not carry the request span")
			}

			var rm metricdata.ResourceMetrics
			if err := reader.Collect(context.Background(), &rm); err != nil {
				t.Fatalf("collect: %v", err)
			}
			var total int64
			for _, sm := range rm.ScopeMetrics {
				for _, md := range sm.Metrics {
					if md.Name != "http.server.request.total" {
						continue
					}
					for _, dp := range md.Data.(metricdata.Sum[int64]).DataPoints {
						total += dp.Value
					}
				}
			}
			if total != 1 {
				t.Errorf("request total = %d, want 1", total)
			}
		})
	}
}

func TestTelemetry_NilMetrics(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	handler := middleware.Telemetry(tp, nil)(http.HandlerFunc(ok))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}
