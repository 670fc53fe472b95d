package verskema

// Option is the outcome of one decode attempt: a value when the record matched
// the adapter's version, nothing otherwise.
type Option[V any] struct {
	value V
	ok    bool
}

// Some wraps a matched value.
func Some[V any](v V) Option[V] { return Option[V]{value: v, ok: true} }

// None reports a version mismatch.
func None[V any]() Option[V] { return Option[V]{} }

// Get returns the value and whether it is present.
func (o Option[V]) Get() (V, bool) { return o.value, o.ok }

// IsSome reports whether the attempt matched.
func (o Option[V]) IsSome() bool { return o.ok }
