package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/vango-dev/signals/internal/errors"
)

// finalSaveTimeout bounds the save performed after the context ends.
const finalSaveTimeout = 10 * time.Second

// Saver periodically saves snapshots taken from Source. It writes only when
// the values differ from the last successful save.
type Saver struct {
	Store  Store
	Source func() (map[string]json.RawMessage, error)

	// Interval between saves. Zero saves only when Serve returns.
	Interval time.Duration

	Logger *slog.Logger

	mu   sync.Mutex
	last []byte
}

// Serve saves every Interval until ctx is done, then saves once more and
// returns ctx.Err().
func (s *Saver) Serve(ctx context.Context) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "snapshot")

	var tick <-chan time.Time
	if s.Interval > 0 {
		ticker := time.NewTicker(s.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-tick:
			if err := s.SaveNow(ctx); err != nil {
				logger.Error("snapshot save failed", "error", err)
			}
		case <-ctx.Done():
			final, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalSaveTimeout)
			if err := s.SaveNow(final); err != nil {
				logger.Error("final snapshot save failed", "error", err)
			} else {
				logger.Info("snapshot saved")
			}
			cancel()
			return ctx.Err()
		}
	}
}

// SaveNow takes a snapshot and saves it if it changed. Failures are E141
// errors wrapping the cause.
func (s *Saver) SaveNow(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.Source()
	if err != nil {
		return errors.New("E141").Wrap(err)
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return errors.New("E141").Wrap(err)
	}
	if s.last != nil && bytes.Equal(data, s.last) {
		return nil
	}
	if err := s.Store.Save(ctx, snap); err != nil {
		return errors.New("E141").Wrap(err)
	}
	s.last = data
	return nil
}
