package signals

import "sync/atomic"

// globalIDCounter is the source of unique IDs for signals and listener entries.
var globalIDCounter atomic.Uint64

// nextID returns the next unique ID. IDs are never reused.
func nextID() uint64 {
	return globalIDCounter.Add(1)
}
