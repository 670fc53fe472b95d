package compress

import (
	"bytes"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/reoring/verskema"
)

// Zstd wraps inner in a zstd frame.
func Zstd[V any](inner verskema.Codec[V], opts ...Option) verskema.Codec[V] {
	return wrap(inner, zstdAlgorithm{}, opts)
}

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// ZSTD encoder/decoder pools; a decoder is reset per record.
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
}

type zstdAlgorithm struct{}

func (zstdAlgorithm) name() string  { return "zstd" }
func (zstdAlgorithm) magic() []byte { return zstdMagic }

func (zstdAlgorithm) compress(src []byte) ([]byte, error) {
	enc, err := getZstdEncoder()
	if err != nil {
		return nil, err
	}
	defer zstdEncoderPool.Put(enc)
	return enc.EncodeAll(src, nil), nil
}

func (zstdAlgorithm) reader(src []byte) (io.Reader, func(), error) {
	dec, err := getZstdDecoder()
	if err != nil {
		return nil, nil, err
	}
	if err := dec.Reset(bytes.NewReader(src)); err != nil {
		zstdDecoderPool.Put(dec)
		return nil, nil, err
	}
	return dec, func() { zstdDecoderPool.Put(dec) }, nil
}
