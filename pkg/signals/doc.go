// Package signals provides synchronous reactive values.
//
// A Signal is a mutable value container that notifies its listeners when the
// value changes. A Computed derives its value from an explicit, fixed list of
// dependencies and recomputes whenever one of them changes. Effect runs a side
// effect once immediately per dependency and again on every change of any of
// them.
//
// # Core Types
//
// Signal[T] is a reactive value container:
//
//	count := signals.NewSignal(0)
//	count.Get()   // 0
//	count.Set(5)  // notifies listeners
//	count.Set(5)  // equal value, no notification
//
// Computed[T] is a derived value with declared dependencies:
//
//	doubled := signals.NewComputed1(func(n int) int { return n * 2 }, count)
//	doubled.Get() // 10
//
// Effect subscribes a callback to several dependencies at once. Like calling
// each dependency's own Effect, it runs the callback once per dependency
// right away:
//
//	stop := signals.Effect([]signals.Dependency{count, doubled}, func() {
//	    fmt.Println(count.Get(), doubled.Get())
//	})
//	defer stop()
//
// # Propagation
//
// Propagation is synchronous: Set returns only after every listener, and every
// listener of every Computed that changed as a result, has run. Listeners fire
// in registration order. Nothing is batched or deduplicated: an Effect on two
// signals runs once per change of either one.
//
// Dependencies are never discovered by tracing reads. A Computed sees exactly
// the dependencies it was built with, for its whole lifetime, until Dispose.
//
// # Thread Safety
//
// Values and listener lists are guarded by mutexes and no lock is held while a
// listener runs, so listeners may freely write signals. The package does not
// order concurrent writers: a graph written from several goroutines must
// serialize its writes (see the live package).
package signals
