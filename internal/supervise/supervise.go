// Package supervise runs the long-lived parts of the server under a suture
// supervisor.
package supervise

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/thejerf/suture/v4"
)

// New creates a supervisor that reports its events to logger.
func New(name string, logger *slog.Logger) *suture.Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	return suture.New(name, suture.Spec{
		EventHook: EventHook(logger.With("component", "supervisor")),
	})
}

// EventHook logs supervisor events.
func EventHook(logger *slog.Logger) suture.EventHook {
	return func(ei suture.Event) {
		switch e := ei.(type) {
		case suture.EventStopTimeout:
			logger.Info("Service failed to terminate in a timely manner", "supervisor", e.SupervisorName, "service", e.ServiceName)
		case suture.EventServicePanic:
			logger.Warn("Caught a service panic", "service", e.ServiceName, "panic", e.PanicMsg)
			logger.Debug(e.Stacktrace)
		case suture.EventServiceTerminate:
			logger.Error("Service failed", "error", e.Err, "supervisor", e.SupervisorName, "service", e.ServiceName)
		case suture.EventBackoff:
			logger.Debug("Too many service failures, entering the backoff state", "supervisor", e.SupervisorName)
		case suture.EventResume:
			logger.Debug("Exiting backoff state", "supervisor", e.SupervisorName)
		default:
			b, _ := json.Marshal(e)
			logger.Warn("Unknown supervisor event", "type", int(e.Type()), "event", string(b))
		}
	}
}

// Service is a suture.Service with a name for log output.
type Service interface {
	String() string
	suture.Service
}

// Add adds service to super, making sure its errors are not mistaken for a
// supervisor shutdown.
func Add(super *suture.Supervisor, service Service) suture.ServiceToken {
	return super.Add(sanitizeService{Service: service})
}

type sanitizeService struct {
	Service
}

func (s sanitizeService) Serve(ctx context.Context) error {
	return SanitizeError(ctx, s.Service.Serve(ctx))
}

// SanitizeError hides context errors that did not come from ctx. Suture
// stops restarting a service that returns a context error.
func SanitizeError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var errs []error
	if errors.Is(err, suture.ErrDoNotRestart) {
		errs = append(errs, suture.ErrDoNotRestart)
	}
	if errors.Is(err, suture.ErrTerminateSupervisorTree) {
		errs = append(errs, suture.ErrTerminateSupervisorTree)
	}
	errs = append(errs, errors.New(err.Error()))
	return errors.Join(errs...)
}

// ServiceFunc adapts a function to Service.
type ServiceFunc struct {
	name string
	fn   func(ctx context.Context) error
}

// NewServiceFunc names fn as a Service.
func NewServiceFunc(name string, fn func(ctx context.Context) error) ServiceFunc {
	return ServiceFunc{name: name, fn: fn}
}

func (s ServiceFunc) String() string {
	return s.name
}

func (s ServiceFunc) Serve(ctx context.Context) error {
	return s.fn(ctx)
}
