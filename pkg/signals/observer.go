package signals

// Change describes one write to a signal.
type Change struct {
	// ID is the signal's unique identifier.
	ID uint64

	// Name is the signal's name, empty if none was given.
	Name string

	// Changed is false when the write was skipped because the new value
	// equaled the stored one.
	Changed bool

	// Listeners is the number of listeners the pass will invoke.
	Listeners int
}

// Observer wraps the notification pass of a write. Implementations must call
// notify exactly once, on the calling goroutine, before returning. For skipped
// writes notify is a no-op but is still passed so observers can count them.
type Observer interface {
	Observe(c Change, notify func())
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(c Change, notify func())

// Observe calls f(c, notify).
func (f ObserverFunc) Observe(c Change, notify func()) {
	f(c, notify)
}

// Chain composes observers. The first observer is the outermost wrapper.
func Chain(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}

	switch len(filtered) {
	case 0:
		return nil
	case 1:
		return filtered[0]
	}

	return ObserverFunc(func(c Change, notify func()) {
		next := notify
		for i := len(filtered) - 1; i >= 0; i-- {
			o, inner := filtered[i], next
			next = func() { o.Observe(c, inner) }
		}
		next()
	})
}
