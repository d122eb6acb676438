// Package options implements one small generic functional-options mechanism shared by every
// package that exposes a WithXxx-style constructor (log, chunk, segment, reader): an Option[T]
// is just a func(T) error, so every WithXxx helper in this module returns a closure directly
// instead of implementing an interface.
package options

// Option configures a value of type T, returning an error if the configuration is invalid.
type Option[T any] func(T) error

// New wraps a fallible configuration function as an Option.
func New[T any](fn func(T) error) Option[T] {
	return Option[T](fn)
}

// NoError wraps a configuration function that can't fail as an Option.
func NoError[T any](fn func(T)) Option[T] {
	return func(target T) error {
		fn(target)
		return nil
	}
}

// Apply runs every option against target in order, stopping at the first error. A nil Option
// is skipped, so callers may build opts slices with conditionally-omitted entries.
func Apply[T any](target T, opts ...Option[T]) error {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(target); err != nil {
			return err
		}
	}
	return nil
}
