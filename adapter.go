package verskema

import "errors"

// Codec is the wire format half of an adapter, supplied by the codec
// packages. Implementations must be safe for concurrent use.
type Codec[V any] interface {
	// Name identifies the wire format (e.g. "json", "msgpack+zstd").
	Name() string
	// PeekTag reads only the shared tag field. A missing or structurally
	// unreadable tag is reported by wrapping ErrTagAbsent.
	PeekTag(data []byte) (Tag, error)
	// Unmarshal decodes the full record into V.
	Unmarshal(data []byte) (V, error)
	// Marshal encodes v, including its tag.
	Marshal(v V) ([]byte, error)
}

// Adapter decodes records of exactly one schema version and encodes values of
// that version.
type Adapter[V any] interface {
	Tag() Tag
	Format() string
	// Decode returns None with a nil error when the record belongs to another
	// version, and a *DecodeError when the tag matched but the body did not.
	Decode(data []byte) (Option[V], error)
	Encode(v V) ([]byte, error)
}

// NewAdapter binds a codec to the tag declared by V.
func NewAdapter[V Versioned](c Codec[V]) Adapter[V] {
	return &codecAdapter[V]{tag: TagOf[V](), codec: c}
}

type codecAdapter[V any] struct {
	tag   Tag
	codec Codec[V]
}

func (a *codecAdapter[V]) Tag() Tag       { return a.tag }
func (a *codecAdapter[V]) Format() string { return a.codec.Name() }

func (a *codecAdapter[V]) Decode(data []byte) (Option[V], error) {
	got, err := a.codec.PeekTag(data)
	if err != nil {
		if errors.Is(err, ErrTagAbsent) {
			return None[V](), nil
		}
		return None[V](), err
	}
	if got != a.tag {
		return None[V](), nil
	}
	v, err := a.codec.Unmarshal(data)
	if err != nil {
		return None[V](), &DecodeError{Format: a.codec.Name(), Tag: a.tag, Cause: err}
	}
	return Some(v), nil
}

func (a *codecAdapter[V]) Encode(v V) ([]byte, error) { return a.codec.Marshal(v) }

// AnyOf combines adapters of the same version over different wire formats.
// Members are tried in order and the first match wins; Encode uses the first
// member. Differing tags or an empty set are reported when the adapter is
// passed to Begin or Then.
func AnyOf[V any](adapters ...Adapter[V]) Adapter[V] {
	return anyOf[V](adapters)
}

type anyOf[V any] []Adapter[V]

// Tag is the tag of the first non-nil member.
func (m anyOf[V]) Tag() Tag {
	for _, a := range m {
		if a != nil {
			return a.Tag()
		}
	}
	return 0
}

func (m anyOf[V]) Format() string {
	s := ""
	for i, a := range m {
		if i > 0 {
			s += "|"
		}
		s += a.Format()
	}
	return s
}

func (m anyOf[V]) Decode(data []byte) (Option[V], error) {
	for _, a := range m {
		got, err := a.Decode(data)
		if err != nil || got.IsSome() {
			return got, err
		}
	}
	return None[V](), nil
}

func (m anyOf[V]) Encode(v V) ([]byte, error) {
	if len(m) == 0 {
		return nil, ErrUnrecognizedFormat
	}
	return m[0].Encode(v)
}

// memberTags lets composition verify that every member is set and shares one
// tag. complete is false when a member is nil.
func (m anyOf[V]) memberTags() (tags []Tag, complete bool) {
	tags = make([]Tag, 0, len(m))
	for _, a := range m {
		if a == nil {
			return tags, false
		}
		tags = append(tags, a.Tag())
	}
	return tags, true
}

type tagSet interface {
	memberTags() ([]Tag, bool)
}
