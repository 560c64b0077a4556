package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/vango-dev/signals/pkg/signals"
)

// Logger creates an observer that logs every notification pass at debug
// level. Unchanged writes are not logged. If logger is nil, slog.Default()
// is used.
func Logger(logger *slog.Logger) signals.Observer {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "signals")

	return signals.ObserverFunc(func(c signals.Change, notify func()) {
		if !c.Changed || !logger.Enabled(context.Background(), slog.LevelDebug) {
			notify()
			return
		}

		start := time.Now()
		notify()
		logger.Debug("signal changed",
			"signal", c.Name,
			"id", c.ID,
			"listeners", c.Listeners,
			"duration", time.Since(start),
		)
	})
}
