// Package compress wraps any verskema.Codec in a compressed envelope.
//
// Frames are recognised by their magic number. A record without the magic, or
// with a frame that cannot be read far enough to find the tag, is a mismatch.
// Peeking stops as soon as the tag is known, so once it matches, a broken or
// oversized body is a decode fault. Frames that expand beyond the configured
// limit fail with ErrDecodedTooLarge.
package compress

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/reoring/verskema"
)

// DefaultMaxDecodedSize caps the decompressed size of one record.
const DefaultMaxDecodedSize = 64 << 20

// peekChunk is the first read size when looking for the tag.
const peekChunk = 512

// ErrDecodedTooLarge reports a frame that expands beyond the limit.
var ErrDecodedTooLarge = errors.New("compress: decoded record too large")

type options struct {
	maxDecoded int64
}

// Option configures an envelope.
type Option func(*options)

// WithMaxDecodedSize overrides DefaultMaxDecodedSize. Non-positive values are
// ignored.
func WithMaxDecodedSize(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxDecoded = n
		}
	}
}

// algorithm is one compression scheme.
type algorithm interface {
	name() string
	magic() []byte
	compress(src []byte) ([]byte, error)
	reader(src []byte) (io.Reader, func(), error)
}

type envelope[V any] struct {
	inner      verskema.Codec[V]
	alg        algorithm
	maxDecoded int64
}

func wrap[V any](inner verskema.Codec[V], alg algorithm, opts []Option) verskema.Codec[V] {
	o := options{maxDecoded: DefaultMaxDecodedSize}
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}
	return &envelope[V]{inner: inner, alg: alg, maxDecoded: o.maxDecoded}
}

func (e *envelope[V]) Name() string { return e.inner.Name() + "+" + e.alg.name() }

// PeekTag decompresses only as much of the frame as the inner codec needs to
// find the tag. A frame that breaks after the tag still reports it, and its
// body then fails in Unmarshal.
func (e *envelope[V]) PeekTag(data []byte) (verskema.Tag, error) {
	if !bytes.HasPrefix(data, e.alg.magic()) {
		return 0, fmt.Errorf("%s: %w: missing frame magic", e.alg.name(), verskema.ErrTagAbsent)
	}
	r, release, err := e.alg.reader(data)
	if err != nil {
		return 0, fmt.Errorf("%s: %w: unreadable frame: %v", e.alg.name(), verskema.ErrTagAbsent, err)
	}
	defer release()

	buf := make([]byte, 0, peekChunk)
	for {
		if len(buf) == cap(buf) {
			buf = slices.Grow(buf, len(buf))
		}
		n, rerr := r.Read(buf[len(buf):cap(buf)])
		buf = buf[:len(buf)+n]
		if int64(len(buf)) > e.maxDecoded {
			return 0, fmt.Errorf("%w: limit %d bytes", ErrDecodedTooLarge, e.maxDecoded)
		}
		if errors.Is(rerr, io.EOF) {
			return e.inner.PeekTag(buf)
		}
		if tag, ok := e.stableTag(buf); ok {
			return tag, nil
		}
		if rerr != nil {
			return 0, fmt.Errorf("%s: %w: unreadable frame: %v", e.alg.name(), verskema.ErrTagAbsent, rerr)
		}
	}
}

// stableTag peeks a partial output. A prefix may end inside the tag itself, so
// the tag only counts when one byte less still yields the same value.
func (e *envelope[V]) stableTag(prefix []byte) (verskema.Tag, bool) {
	if len(prefix) < 2 {
		return 0, false
	}
	tag, err := e.inner.PeekTag(prefix)
	if err != nil {
		return 0, false
	}
	short, err := e.inner.PeekTag(prefix[:len(prefix)-1])
	return tag, err == nil && short == tag
}

func (e *envelope[V]) Unmarshal(data []byte) (V, error) {
	raw, err := e.decompress(data)
	if err != nil {
		var zero V
		return zero, err
	}
	return e.inner.Unmarshal(raw)
}

func (e *envelope[V]) Marshal(v V) ([]byte, error) {
	raw, err := e.inner.Marshal(v)
	if err != nil {
		return nil, err
	}
	return e.alg.compress(raw)
}

func (e *envelope[V]) decompress(data []byte) ([]byte, error) {
	r, release, err := e.alg.reader(data)
	if err != nil {
		return nil, err
	}
	defer release()
	raw, err := io.ReadAll(io.LimitReader(r, e.maxDecoded+1))
	if err != nil {
		return nil, err
	}
	if int64(len(raw)) > e.maxDecoded {
		return nil, fmt.Errorf("%w: limit %d bytes", ErrDecodedTooLarge, e.maxDecoded)
	}
	return raw, nil
}
