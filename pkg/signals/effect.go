package signals

import "sync"

// Effect registers fn on each of deps the way a dependency's own Effect
// method does: fn runs once immediately per dependency, then again after
// every change of that dependency. With no deps fn never runs. Runs are not
// deduplicated, so a dependency listed twice runs fn twice per change.
//
// The returned Unsubscribe removes every registration. It is safe to call more
// than once.
//
// Example:
//
//	stop := signals.Effect([]signals.Dependency{count}, func() {
//	    log = append(log, count.Get())
//	})
//	defer stop()
func Effect(deps []Dependency, fn func()) Unsubscribe {
	if fn == nil {
		return func() {}
	}

	subs := make([]Unsubscribe, 0, len(deps))
	for _, dep := range deps {
		fn()
		subs = append(subs, dep.Subscribe(fn))
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			for _, unsub := range subs {
				unsub()
			}
		})
	}
}
