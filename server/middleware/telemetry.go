package middleware

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/ssogate/observability"
)

const tracerName = "github.com/kbukum/ssogate/server"

// Telemetry opens a server span per request, continuing any incoming trace
// context, and records request metrics. metrics may be nil.
func Telemetry(tp trace.TracerProvider, metrics *observability.HTTPMetrics) Middleware {
	tracer := tp.Tracer(tracerName)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracer.Start(ctx, "HTTP "+r.Method,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.request.method", r.Method),
					attribute.String("url.path", r.URL.Path),
					attribute.String("request.id", r.Header.Get(RequestIDHeader)),
				),
			)
			defer span.End()

			if metrics != nil {
				metrics.RecordRequestStart(ctx)
			}
			start := time.Now()
			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r.WithContext(ctx))

			span.SetAttributes(attribute.Int("http.response.status_code", sw.status))
			if sw.status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(sw.status))
			}
			if metrics != nil {
				metrics.RecordRequestEnd(ctx, r.Method, sw.status, time.Since(start))
			}
		})
	}
}
