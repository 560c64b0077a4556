package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Version is the current file format version.
const Version = 1

// ErrVersion is returned when loading a snapshot written by a newer format.
var ErrVersion = errors.New("snapshot: unsupported version")

// Snapshot maps node names to their JSON values.
type Snapshot map[string]json.RawMessage

// Store saves and loads snapshots.
type Store interface {
	// Save replaces the stored snapshot.
	Save(ctx context.Context, snap Snapshot) error

	// Load returns the stored snapshot. If nothing has been saved yet it
	// returns an empty snapshot and no error.
	Load(ctx context.Context) (Snapshot, error)
}

// envelope is the stored form of a Snapshot.
type envelope struct {
	Version int       `json:"version"`
	SavedAt time.Time `json:"saved_at"`
	Values  Snapshot  `json:"values"`
}

func encode(snap Snapshot, now time.Time) ([]byte, error) {
	if snap == nil {
		snap = Snapshot{}
	}
	return json.MarshalIndent(envelope{
		Version: Version,
		SavedAt: now.UTC(),
		Values:  snap,
	}, "", "  ")
}

func decode(data []byte) (Snapshot, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("snapshot: decode: %w", err)
	}
	if env.Version > Version {
		return nil, fmt.Errorf("%w %d", ErrVersion, env.Version)
	}
	if env.Values == nil {
		env.Values = Snapshot{}
	}
	return env.Values, nil
}
