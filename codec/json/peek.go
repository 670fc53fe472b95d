package json

import (
	"bytes"
	"fmt"
	"strconv"

	j "github.com/goccy/go-json"

	"github.com/reoring/verskema"
)

// PeekTag reads the integer stored under key in the top-level object of data.
// Values of other keys are skipped token by token and never decoded; the walk
// stops as soon as key is found. Anything that is not an object with an
// integer under key reports verskema.ErrTagAbsent.
func PeekTag(data []byte, key string) (verskema.Tag, error) {
	dec := newDecoder(data)
	if err := seekKey(dec, key); err != nil {
		return 0, err
	}
	tok, err := dec.Token()
	if err != nil {
		return 0, absent("reading tag: %v", err)
	}
	n, ok := tok.(j.Number)
	if !ok {
		return 0, absent("tag is %T, not a number", tok)
	}
	i, err := strconv.ParseInt(string(n), 10, 0)
	if err != nil {
		return 0, absent("tag %s is not an integer", n)
	}
	return verskema.Tag(i), nil
}

func newDecoder(data []byte) *j.Decoder {
	dec := j.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec
}

// seekKey advances dec past the top-level key named key.
func seekKey(dec *j.Decoder, key string) error {
	tok, err := dec.Token()
	if err != nil {
		return absent("%v", err)
	}
	if d, ok := tok.(j.Delim); !ok || d != '{' {
		return absent("record is not an object")
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return absent("%v", err)
		}
		k, ok := tok.(string)
		if !ok {
			return absent("unexpected %T in key position", tok)
		}
		if k == key {
			return nil
		}
		if err := skipValue(dec); err != nil {
			return absent("%v", err)
		}
	}
	return absent("no %q key", key)
}

// skipValue consumes one complete value, tracking container depth.
func skipValue(dec *j.Decoder) error {
	depth := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		if d, ok := tok.(j.Delim); ok {
			switch d {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
		if depth == 0 {
			return nil
		}
	}
}

func absent(format string, args ...any) error {
	return fmt.Errorf("json: %w: %s", verskema.ErrTagAbsent, fmt.Sprintf(format, args...))
}
