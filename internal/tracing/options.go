package tracing

// Option configures instrumentation.
type Option func(*options)

type options struct {
	registry        *Registry
	allowUnrecorded bool
}

func newOptions(opts []Option) options {
	o := options{registry: defaultRegistry}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithRegistry makes instrumented sites report to r instead of the
// process-wide registry.
func WithRegistry(r *Registry) Option {
	return func(o *options) {
		if r != nil {
			o.registry = r
		}
	}
}

// AllowUnrecorded leaves dispatch nodes without a recorded span
// uninstrumented instead of failing.
func AllowUnrecorded(allow bool) Option {
	return func(o *options) { o.allowUnrecorded = allow }
}
