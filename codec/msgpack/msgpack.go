// Package msgpack adapts schema versions to MessagePack records using
// tinylib/msgp.
//
// Schema types provide msgp.Marshaler on the value and msgp.Unmarshaler on the
// pointer, usually generated by the msgp tool. The type encodes itself as a
// map; the codec adds the tag entry in front of it and strips nothing on
// decode, so UnmarshalMsg must skip unknown keys (generated code does).
package msgpack

import (
	"fmt"

	"github.com/tinylib/msgp/msgp"

	"github.com/reoring/verskema"
	"github.com/reoring/verskema/codec"
)

// Value is the constraint on schema types encoded by this package.
type Value interface {
	verskema.Versioned
	msgp.Marshaler
}

// Ptr is the constraint on pointers to schema types.
type Ptr[V any] interface {
	*V
	msgp.Unmarshaler
}

// Adapter returns a verskema.Adapter for V reading and writing MessagePack
// maps. PV is inferred: msgpack.Adapter[SaveV1]().
func Adapter[V Value, PV Ptr[V]](opts ...codec.Option) verskema.Adapter[V] {
	return verskema.NewAdapter(Codec[V, PV](opts...))
}

// Codec returns the MessagePack codec for V.
func Codec[V Value, PV Ptr[V]](opts ...codec.Option) verskema.Codec[V] {
	return msgpCodec[V, PV]{key: codec.Apply(opts).TagKey}
}

type msgpCodec[V Value, PV Ptr[V]] struct{ key string }

func (msgpCodec[V, PV]) Name() string { return "msgpack" }

func (c msgpCodec[V, PV]) PeekTag(data []byte) (verskema.Tag, error) { return PeekTag(data, c.key) }

func (msgpCodec[V, PV]) Unmarshal(data []byte) (V, error) {
	var v V
	rest, err := PV(&v).UnmarshalMsg(data)
	if err != nil {
		return v, err
	}
	if len(rest) > 0 {
		return v, fmt.Errorf("msgpack: %d trailing bytes", len(rest))
	}
	return v, nil
}

func (c msgpCodec[V, PV]) Marshal(v V) ([]byte, error) {
	body, err := v.MarshalMsg(nil)
	if err != nil {
		return nil, err
	}
	return InjectTag(body, c.key, v.SchemaVersion())
}

// InjectTag rewrites the map header of body to hold one more entry and puts
// key:tag first. It fails with verskema.ErrTagConflict when body already holds
// key.
func InjectTag(body []byte, key string, tag verskema.Tag) ([]byte, error) {
	sz, rest, err := msgp.ReadMapHeaderBytes(body)
	if err != nil {
		return nil, fmt.Errorf("msgpack: value does not encode to a map: %w", err)
	}
	if _, err := seekKey(body, key); err == nil {
		return nil, fmt.Errorf("%w: %q", verskema.ErrTagConflict, key)
	}
	out := make([]byte, 0, len(body)+len(key)+16)
	out = msgp.AppendMapHeader(out, sz+1)
	out = msgp.AppendString(out, key)
	out = msgp.AppendInt64(out, int64(tag))
	return append(out, rest...), nil
}
