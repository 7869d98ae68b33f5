// Package observability wires OpenTelemetry tracing and metrics for the
// service and provides the HTTP request instruments.
//
//	shutdown, err := observability.Setup(ctx, cfg, observability.Resource{Name: "ssogate"})
//	defer shutdown(ctx)
//
// With tracing and metrics disabled, the global no-op providers stay in
// place and every instrument is free.
package observability
