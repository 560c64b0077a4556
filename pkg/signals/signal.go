package signals

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Signal is a reactive value container. Writing a different value runs every
// registered listener, in registration order, before Set returns.
type Signal[T any] struct {
	id   uint64
	name string

	// value is the current signal value.
	value T

	// mu protects value.
	mu sync.RWMutex

	// equal decides whether a write changes the value.
	// If nil, defaultEquals is used.
	equal func(T, T) bool

	listeners listenerList
	observer  Observer
}

// NewSignal creates a new signal with the given initial value.
func NewSignal[T any](initial T, opts ...Option) *Signal[T] {
	o := applyOptions(opts)
	return &Signal[T]{
		id:       nextID(),
		name:     o.name,
		value:    initial,
		observer: o.observer,
	}
}

// Get returns the current value.
func (s *Signal[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set stores value and notifies listeners. If value equals the current value
// nothing happens.
func (s *Signal[T]) Set(value T) {
	s.publish(s.store(value))
}

// Update replaces the value with fn(current) and notifies listeners if it
// changed. fn runs while the value is locked and must not touch s.
func (s *Signal[T]) Update(fn func(T) T) {
	s.publish(s.swap(fn))
}

// SetJSON decodes data into a T and sets it.
func (s *Signal[T]) SetJSON(data []byte) error {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("signals: decode %T: %w", v, err)
	}
	s.Set(v)
	return nil
}

// Effect runs fn once, then registers it to run after every change.
// The returned Unsubscribe removes only this registration.
func (s *Signal[T]) Effect(fn func()) Unsubscribe {
	if fn == nil {
		return func() {}
	}
	fn()
	return s.Subscribe(fn)
}

// Subscribe registers fn to run after every change without running it now.
func (s *Signal[T]) Subscribe(fn func()) Unsubscribe {
	if fn == nil {
		return func() {}
	}
	e := s.listeners.add(fn)
	return s.listeners.subscription(e)
}

// WithEquals sets a custom equality function and returns the signal.
// Call it before the signal is shared.
func (s *Signal[T]) WithEquals(fn func(T, T) bool) *Signal[T] {
	s.mu.Lock()
	s.equal = fn
	s.mu.Unlock()
	return s
}

// ID returns the unique identifier for this signal.
func (s *Signal[T]) ID() uint64 {
	return s.id
}

// Name returns the name given with WithName.
func (s *Signal[T]) Name() string {
	return s.name
}

// Len returns the number of registered listeners.
func (s *Signal[T]) Len() int {
	return s.listeners.len()
}

// Any returns the current value as an interface{}.
func (s *Signal[T]) Any() any {
	return s.Get()
}

// String formats the current value with fmt's default verb, so a signal prints
// like the value it holds.
func (s *Signal[T]) String() string {
	return fmt.Sprint(s.Get())
}

// MarshalJSON encodes the current value.
func (s *Signal[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Get())
}

// store writes value if it differs and reports whether it did.
func (s *Signal[T]) store(value T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.equals(s.value, value) {
		return false
	}
	s.value = value
	return true
}

func (s *Signal[T]) swap(fn func(T) T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := fn(s.value)
	if s.equals(s.value, next) {
		return false
	}
	s.value = next
	return true
}

// publish runs the notification pass for a write.
// Uses copy-before-notify so listeners may subscribe, unsubscribe and write
// signals while the pass is running.
func (s *Signal[T]) publish(changed bool) {
	if s.observer == nil {
		if changed {
			notify(s.listeners.snapshot())
		}
		return
	}

	if !changed {
		s.observer.Observe(Change{ID: s.id, Name: s.name}, func() {})
		return
	}

	entries := s.listeners.snapshot()
	s.observer.Observe(Change{
		ID:        s.id,
		Name:      s.name,
		Changed:   true,
		Listeners: len(entries),
	}, func() { notify(entries) })
}

func (s *Signal[T]) equals(a, b T) bool {
	if s.equal != nil {
		return s.equal(a, b)
	}
	return defaultEquals(a, b)
}
