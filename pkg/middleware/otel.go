package middleware

import (
	"context"
	"fmt"

	"github.com/vango-dev/signals/pkg/signals"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name for signal observers.
const defaultTracerName = "signals"

// OTelConfig configures the OpenTelemetry observer.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "signals").
	TracerName string

	// TracerProvider supplies the tracer. If nil, the global provider is used.
	TracerProvider trace.TracerProvider

	// TraceUnchanged also traces writes that were skipped because the value
	// did not change. Disabled by default.
	TraceUnchanged bool

	// Context returns the parent context for each span.
	// If nil, context.Background() is used.
	Context func() context.Context

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// OTelOption configures the OpenTelemetry observer.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithTraceUnchanged enables spans for writes that did not change the value.
func WithTraceUnchanged(enabled bool) OTelOption {
	return func(c *OTelConfig) {
		c.TraceUnchanged = enabled
	}
}

// WithParentContext sets the function providing each span's parent context.
func WithParentContext(fn func() context.Context) OTelOption {
	return func(c *OTelConfig) {
		c.Context = fn
	}
}

// defaultOTelConfig returns the default OpenTelemetry configuration.
func defaultOTelConfig() OTelConfig {
	return OTelConfig{
		TracerName: defaultTracerName,
	}
}

// OpenTelemetry creates an observer that records one span per notification
// pass. Spans carry the signal name, ID and listener count. A panicking
// listener is recorded as a span error and the panic is re-raised.
func OpenTelemetry(opts ...OTelOption) signals.Observer {
	config := defaultOTelConfig()
	for _, opt := range opts {
		opt(&config)
	}

	tp := config.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	config.tracer = tp.Tracer(config.TracerName)

	return signals.ObserverFunc(func(c signals.Change, notify func()) {
		if !c.Changed && !config.TraceUnchanged {
			notify()
			return
		}

		parent := context.Background()
		if config.Context != nil {
			parent = config.Context()
		}

		_, span := config.tracer.Start(parent, spanName(c),
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(
				attribute.String("signals.name", c.Name),
				attribute.Int64("signals.id", int64(c.ID)),
				attribute.Bool("signals.changed", c.Changed),
				attribute.Int("signals.listeners", c.Listeners),
			),
		)
		defer span.End()

		defer func() {
			if r := recover(); r != nil {
				err := fmt.Errorf("listener panic: %v", r)
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				panic(r)
			}
		}()

		notify()
		span.SetStatus(codes.Ok, "")
	})
}

// spanName returns "signals.notify" or "signals.notify <name>".
func spanName(c signals.Change) string {
	if c.Name == "" {
		return "signals.notify"
	}
	return "signals.notify " + c.Name
}
