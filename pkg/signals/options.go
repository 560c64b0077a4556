package signals

// Option is a functional option for configuring signals and computeds.
type Option func(*options)

// options holds configuration shared by Signal and Computed.
type options struct {
	// name identifies the signal to observers and registries.
	name string

	// observer wraps every notification pass.
	observer Observer
}

// WithName sets a human-readable name. Names are reported to observers and used
// as keys by the live registry; they do not need to be unique otherwise.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithObserver attaches an Observer. Use Chain to attach several.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// applyOptions applies the given options and returns the resulting config.
func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
