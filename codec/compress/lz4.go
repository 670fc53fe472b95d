package compress

import (
	"bytes"
	"io"

	"github.com/pierrec/lz4/v4"

	"github.com/reoring/verskema"
)

// LZ4 wraps inner in an LZ4 frame.
func LZ4[V any](inner verskema.Codec[V], opts ...Option) verskema.Codec[V] {
	return wrap(inner, lz4Algorithm{}, opts)
}

var lz4Magic = []byte{0x04, 0x22, 0x4d, 0x18}

type lz4Algorithm struct{}

func (lz4Algorithm) name() string  { return "lz4" }
func (lz4Algorithm) magic() []byte { return lz4Magic }

func (lz4Algorithm) compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(src); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (lz4Algorithm) reader(src []byte) (io.Reader, func(), error) {
	return lz4.NewReader(bytes.NewReader(src)), func() {}, nil
}
