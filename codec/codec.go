// Package codec holds options shared by the wire format adapters under
// codec/json, codec/msgpack, codec/yaml and codec/compress.
//
// Every format writes the schema tag as a top-level key (DefaultTagKey unless
// WithTagKey says otherwise) and reads only that key when peeking, so a record
// can be matched against a version without decoding its other fields.
package codec

// DefaultTagKey is the top-level key carrying the schema tag.
const DefaultTagKey = "version"

// Options configures a format adapter.
type Options struct {
	TagKey string
}

// Option mutates Options.
type Option func(*Options)

// WithTagKey overrides the key the tag is stored under. Empty keys are ignored.
func WithTagKey(key string) Option {
	return func(o *Options) {
		if key != "" {
			o.TagKey = key
		}
	}
}

// Apply resolves opts over the defaults.
func Apply(opts []Option) Options {
	o := Options{TagKey: DefaultTagKey}
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
