package signals

import (
	"sync"
	"sync/atomic"
)

// Unsubscribe removes a listener registration. Calling it more than once is a
// no-op and never affects other registrations.
type Unsubscribe func()

// Dependency is anything a Computed or an Effect can subscribe to.
// It is implemented by *Signal[T] and *Computed[T].
type Dependency interface {
	// Subscribe registers fn to run after every change of the value.
	// Unlike Effect, fn is not run immediately.
	Subscribe(fn func()) Unsubscribe
}

// Readable is a Dependency whose current value can be read.
type Readable[T any] interface {
	Dependency
	Get() T
}

// entry is one listener registration.
type entry struct {
	id      uint64
	fn      func()
	removed atomic.Bool
}

// listenerList is an ordered multicast list of callbacks.
// Registering the same function twice creates two independent entries.
type listenerList struct {
	mu      sync.Mutex
	entries []*entry
}

// add appends fn and returns its entry.
func (l *listenerList) add(fn func()) *entry {
	e := &entry{id: nextID(), fn: fn}

	l.mu.Lock()
	l.entries = append(l.entries, e)
	l.mu.Unlock()

	return e
}

// remove deletes e, preserving the order of the remaining entries.
// Removing an entry that is already gone is a no-op.
func (l *listenerList) remove(e *entry) {
	e.removed.Store(true)

	l.mu.Lock()
	defer l.mu.Unlock()

	for i, existing := range l.entries {
		if existing.id == e.id {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return
		}
	}
}

// snapshot copies the current entries so a notification pass never iterates
// a slice that listeners may mutate.
func (l *listenerList) snapshot() []*entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) == 0 {
		return nil
	}
	out := make([]*entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// len returns the number of registered listeners.
func (l *listenerList) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// notify runs every entry of the snapshot in order. Entries removed after the
// snapshot was taken but before their turn are skipped.
func notify(entries []*entry) {
	for _, e := range entries {
		if e.removed.Load() {
			continue
		}
		e.fn()
	}
}

// subscription builds the idempotent Unsubscribe for an entry.
func (l *listenerList) subscription(e *entry) Unsubscribe {
	var once sync.Once
	return func() {
		once.Do(func() { l.remove(e) })
	}
}
