package signals

import (
	"sync"
	"sync/atomic"
)

// Computed is a read-only signal derived from a fixed list of dependencies.
// Its value is always the derivation applied to the dependencies' values as of
// their most recent change. It has no exported setter.
type Computed[T any] struct {
	sig    *Signal[T]
	derive func() T

	// subs are the subscriptions held on the dependencies.
	subs   []Unsubscribe
	subsMu sync.Mutex

	disposed atomic.Bool
}

// NewComputed creates a computed signal. derive runs once immediately for the
// initial value and again whenever any of deps changes; it should read the
// dependencies it needs itself.
//
// Example:
//
//	total := signals.NewComputed(func() int {
//	    return price.Get() * qty.Get()
//	}, []signals.Dependency{price, qty})
func NewComputed[T any](derive func() T, deps []Dependency, opts ...Option) *Computed[T] {
	c := &Computed[T]{
		sig:    NewSignal(derive(), opts...),
		derive: derive,
	}

	subs := make([]Unsubscribe, 0, len(deps))
	for _, dep := range deps {
		subs = append(subs, dep.Subscribe(c.recompute))
	}

	c.subsMu.Lock()
	c.subs = subs
	c.subsMu.Unlock()

	return c
}

// NewComputed1 derives a value from one dependency.
func NewComputed1[A, T any](fn func(A) T, a Readable[A], opts ...Option) *Computed[T] {
	return NewComputed(func() T {
		return fn(a.Get())
	}, []Dependency{a}, opts...)
}

// NewComputed2 derives a value from two dependencies, passed positionally.
func NewComputed2[A, B, T any](fn func(A, B) T, a Readable[A], b Readable[B], opts ...Option) *Computed[T] {
	return NewComputed(func() T {
		return fn(a.Get(), b.Get())
	}, []Dependency{a, b}, opts...)
}

// NewComputed3 derives a value from three dependencies, passed positionally.
func NewComputed3[A, B, C, T any](fn func(A, B, C) T, a Readable[A], b Readable[B], c Readable[C], opts ...Option) *Computed[T] {
	return NewComputed(func() T {
		return fn(a.Get(), b.Get(), c.Get())
	}, []Dependency{a, b, c}, opts...)
}

// NewComputedN derives a value from any number of dependencies of the same
// type. fn receives their current values in the order of deps.
func NewComputedN[A, T any](fn func([]A) T, deps []Readable[A], opts ...Option) *Computed[T] {
	erased := make([]Dependency, len(deps))
	for i, d := range deps {
		erased[i] = d
	}

	return NewComputed(func() T {
		values := make([]A, len(deps))
		for i, d := range deps {
			values[i] = d.Get()
		}
		return fn(values)
	}, erased, opts...)
}

// recompute is the listener registered on every dependency.
func (c *Computed[T]) recompute() {
	if c.disposed.Load() {
		return
	}
	c.sig.Set(c.derive())
}

// Dispose removes the subscriptions on every dependency. The value stays at
// its last computed result. Listeners registered on the computed itself are
// left in place. Calling Dispose again is a no-op.
func (c *Computed[T]) Dispose() {
	if c.disposed.Swap(true) {
		return
	}

	c.subsMu.Lock()
	subs := c.subs
	c.subs = nil
	c.subsMu.Unlock()

	for _, unsub := range subs {
		unsub()
	}
}

// Disposed reports whether Dispose has been called.
func (c *Computed[T]) Disposed() bool {
	return c.disposed.Load()
}

// WithEquals sets a custom equality function for recomputed values.
func (c *Computed[T]) WithEquals(fn func(T, T) bool) *Computed[T] {
	c.sig.WithEquals(fn)
	return c
}

// Get returns the current derived value.
func (c *Computed[T]) Get() T { return c.sig.Get() }

// Effect runs fn once, then registers it to run after every change.
func (c *Computed[T]) Effect(fn func()) Unsubscribe { return c.sig.Effect(fn) }

// Subscribe registers fn to run after every change without running it now.
func (c *Computed[T]) Subscribe(fn func()) Unsubscribe { return c.sig.Subscribe(fn) }

// ID returns the unique identifier for this computed.
func (c *Computed[T]) ID() uint64 { return c.sig.ID() }

// Name returns the name given with WithName.
func (c *Computed[T]) Name() string { return c.sig.Name() }

// Len returns the number of listeners registered on the computed.
func (c *Computed[T]) Len() int { return c.sig.Len() }

// Any returns the current value as an interface{}.
func (c *Computed[T]) Any() any { return c.sig.Any() }

// String formats the current value.
func (c *Computed[T]) String() string { return c.sig.String() }

// MarshalJSON encodes the current value.
func (c *Computed[T]) MarshalJSON() ([]byte, error) { return c.sig.MarshalJSON() }
