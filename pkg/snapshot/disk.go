package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

// DiskStore keeps a snapshot in a local file.
type DiskStore struct {
	path string
	now  func() time.Time
}

// NewDiskStore creates a store writing to path. The parent directory is
// created on the first Save.
func NewDiskStore(path string) *DiskStore {
	return &DiskStore{path: path, now: time.Now}
}

// Path returns the snapshot file path.
func (s *DiskStore) Path() string {
	return s.path
}

// Save writes the snapshot to a temporary file and renames it over the
// previous one, so readers never see a partial file.
func (s *DiskStore) Save(ctx context.Context, snap Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encode(snap, s.now())
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// Load reads the snapshot file. A missing file is an empty snapshot.
func (s *DiskStore) Load(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, nil
		}
		return nil, err
	}
	return decode(data)
}
