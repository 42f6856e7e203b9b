package callback

// Option configures a registration.
type Option func(*options)

type options struct {
	priority  int
	isDefault bool
	once      bool
}

// WithPriority sets the handler priority. Higher runs first; a negative
// priority runs after the default implementation.
func WithPriority(p int) Option {
	return func(o *options) {
		o.priority = p
	}
}

// AsDefault marks the handler as part of the default behaviour, so a
// PreventDefault result suppresses it.
func AsDefault() Option {
	return func(o *options) {
		o.isDefault = true
	}
}

// Once unregisters the handler after its first invocation.
func Once() Option {
	return func(o *options) {
		o.once = true
	}
}
