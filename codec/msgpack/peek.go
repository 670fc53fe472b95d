package msgpack

import (
	"fmt"

	"github.com/tinylib/msgp/msgp"

	"github.com/reoring/verskema"
)

// PeekTag reads the integer stored under key in the top-level map of data.
// Other values are skipped with msgp.Skip and never decoded.
func PeekTag(data []byte, key string) (verskema.Tag, error) {
	rest, err := seekKey(data, key)
	if err != nil {
		return 0, err
	}
	i, _, err := msgp.ReadInt64Bytes(rest)
	if err != nil {
		return 0, absent("reading tag: %v", err)
	}
	return verskema.Tag(i), nil
}

// seekKey returns the bytes that follow the top-level key named key.
func seekKey(data []byte, key string) ([]byte, error) {
	sz, b, err := msgp.ReadMapHeaderBytes(data)
	if err != nil {
		return nil, absent("record is not a map: %v", err)
	}
	for i := uint32(0); i < sz; i++ {
		var k []byte
		k, b, err = msgp.ReadMapKeyZC(b)
		if err != nil {
			return nil, absent("reading key %d: %v", i, err)
		}
		if string(k) == key {
			return b, nil
		}
		b, err = msgp.Skip(b)
		if err != nil {
			return nil, absent("skipping %q: %v", k, err)
		}
	}
	return nil, absent("no %q key", key)
}

func absent(format string, args ...any) error {
	return fmt.Errorf("msgpack: %w: %s", verskema.ErrTagAbsent, fmt.Sprintf(format, args...))
}
