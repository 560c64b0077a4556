package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/vango-dev/signals/internal/config"
	"github.com/vango-dev/signals/internal/errors"
	"github.com/vango-dev/signals/internal/graph"
	"github.com/vango-dev/signals/internal/supervise"
	"github.com/vango-dev/signals/pkg/live"
	"github.com/vango-dev/signals/pkg/middleware"
	"github.com/vango-dev/signals/pkg/signals"
	"github.com/vango-dev/signals/pkg/snapshot"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the graph over HTTP and WebSocket",
		Long: `Serve the graph over HTTP and WebSocket.

Routes:
  GET  /signals          List every node and its value
  GET  /signals/{name}   Read one node
  PUT  /signals/{name}   Write a signal (JSON body)
  GET  /ws?signal=a      Stream changes of the named nodes (repeatable)

When metrics are enabled, Prometheus metrics are served on the metrics path.
When a snapshot driver is configured, signal values are restored on start and
saved periodically and on shutdown.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Address = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (overrides server.address)")

	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := newLogger(os.Stderr, cfg)

	reg := prometheus.NewRegistry()
	observer := newObserver(cfg, reg, logger)

	g, err := graph.Build(cfg, graph.Options{Observer: observer, Logger: logger})
	if err != nil {
		return err
	}
	defer g.Close()

	store, err := newStore(cfg)
	if err != nil {
		return err
	}
	if store != nil {
		snap, err := store.Load(ctx)
		if err != nil {
			return errors.New("E140").Wrap(err)
		}
		if err := g.Registry.Restore(snap); err != nil {
			return errors.New("E140").Wrap(err)
		}
		logger.Info("snapshot restored", "signals", len(snap))
	}

	server := live.New(g.Registry, &live.Config{
		Address:         cfg.Server.Address,
		SendBuffer:      cfg.Server.SendBuffer,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Logger:          logger,
	})
	if cfg.Metrics.Enabled {
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		server.Mount(cfg.Metrics.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	super := supervise.New("signals", logger)
	supervise.Add(super, supervise.NewServiceFunc("http", server.ListenAndServe))
	if store != nil {
		saver := &snapshot.Saver{
			Store:    store,
			Source:   g.Registry.Snapshot,
			Interval: cfg.Snapshot.Interval,
			Logger:   logger,
		}
		supervise.Add(super, supervise.NewServiceFunc("snapshot", saver.Serve))
	}

	logger.Info("serving signals", "addr", cfg.Server.Address, "nodes", len(g.Registry.Names()))
	err = super.Serve(ctx)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// newObserver chains the observers enabled by cfg. Logging is outermost so
// it sees every write.
func newObserver(cfg *config.Config, reg prometheus.Registerer, logger *slog.Logger) signals.Observer {
	observers := []signals.Observer{middleware.Logger(logger)}
	if cfg.Metrics.Enabled {
		opts := []middleware.MetricsOption{
			middleware.WithNamespace(cfg.Metrics.Namespace),
			middleware.WithRegistry(reg),
		}
		if cfg.Name != "" {
			opts = append(opts, middleware.WithConstLabels(prometheus.Labels{"graph": cfg.Name}))
		}
		observers = append(observers, middleware.Prometheus(opts...))
	}
	if cfg.Tracing.Enabled {
		observers = append(observers, middleware.OpenTelemetry(middleware.WithTracerName(cfg.Tracing.TracerName)))
	}
	return signals.Chain(observers...)
}

// newStore returns the configured snapshot store, or nil if none.
func newStore(cfg *config.Config) (snapshot.Store, error) {
	s := cfg.Snapshot
	switch s.Driver {
	case config.SnapshotDisk:
		return snapshot.NewDiskStore(s.Path), nil
	case config.SnapshotS3:
		client := snapshot.NewS3Client(s.Region, s.Endpoint)
		return snapshot.NewS3Store(client, s.Bucket, s.Key), nil
	case config.SnapshotNone:
		return nil, nil
	default:
		return nil, errors.New("E105").WithDetail("unknown snapshot.driver " + s.Driver)
	}
}
