// Package json adapts schema versions to JSON records using goccy/go-json.
package json

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	j "github.com/goccy/go-json"

	"github.com/reoring/verskema"
	"github.com/reoring/verskema/codec"
)

// Adapter returns a verskema.Adapter for V reading and writing JSON objects.
func Adapter[V verskema.Versioned](opts ...codec.Option) verskema.Adapter[V] {
	return verskema.NewAdapter(Codec[V](opts...))
}

// Codec returns the JSON codec for V. V must encode to a JSON object and must
// not declare a field under the tag key.
func Codec[V verskema.Versioned](opts ...codec.Option) verskema.Codec[V] {
	return jsonCodec[V]{key: codec.Apply(opts).TagKey}
}

type jsonCodec[V verskema.Versioned] struct{ key string }

func (jsonCodec[V]) Name() string { return "json" }

func (c jsonCodec[V]) PeekTag(data []byte) (verskema.Tag, error) { return PeekTag(data, c.key) }

func (jsonCodec[V]) Unmarshal(data []byte) (V, error) {
	var v V
	err := j.Unmarshal(data, &v)
	return v, err
}

func (c jsonCodec[V]) Marshal(v V) ([]byte, error) {
	body, err := j.Marshal(v)
	if err != nil {
		return nil, err
	}
	return InjectTag(body, c.key, v.SchemaVersion())
}

// InjectTag prepends key:tag to the JSON object body. It fails with
// verskema.ErrTagConflict when body already holds key.
func InjectTag(body []byte, key string, tag verskema.Tag) ([]byte, error) {
	body = bytes.TrimSpace(body)
	if len(body) < 2 || body[0] != '{' || body[len(body)-1] != '}' {
		return nil, errors.New("json: value does not encode to an object")
	}
	err := seekKey(newDecoder(body), key)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: %q", verskema.ErrTagConflict, key)
	case !errors.Is(err, verskema.ErrTagAbsent):
		return nil, err
	}
	quoted, err := j.Marshal(key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(body)+len(quoted)+24)
	out = append(out, '{')
	out = append(out, quoted...)
	out = append(out, ':')
	out = strconv.AppendInt(out, int64(tag), 10)
	if inner := bytes.TrimSpace(body[1 : len(body)-1]); len(inner) > 0 {
		out = append(out, ',')
		out = append(out, inner...)
	}
	return append(out, '}'), nil
}
