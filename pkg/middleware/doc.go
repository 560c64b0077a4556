// Package middleware provides signals.Observer implementations for production
// use.
//
// This package includes:
//   - Prometheus metrics for writes and notification passes
//   - OpenTelemetry tracing of notification passes
//   - Structured debug logging through log/slog
//
// Observers wrap each notification pass the same way HTTP middleware wraps a
// handler. Attach them when creating a signal, or to every node of a live
// registry:
//
//	obs := signals.Chain(
//	    middleware.OpenTelemetry(),
//	    middleware.Prometheus(middleware.WithNamespace("myapp")),
//	    middleware.Logger(slog.Default()),
//	)
//	count := signals.NewSignal(0, signals.WithName("count"), signals.WithObserver(obs))
//
// # Prometheus Metrics
//
// Metrics are registered once per prometheus.Registerer. Expose them with
// promhttp:
//
//	http.Handle("/metrics", promhttp.Handler())
//
// # OpenTelemetry
//
// Spans come from the global tracer provider unless WithTracerProvider is used.
// Configure the provider in main() before creating signals.
package middleware
