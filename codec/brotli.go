package codec

import (
	"github.com/andybalholm/brotli"
)

type brotliCodec struct{}

func NewBrotli() Codec {
	return brotliCodec{}
}

func (brotliCodec) Token() string {
	return "br"
}

func (brotliCodec) NewCompressor() Compressor {
	return brotli.NewWriter(nil)
}

func (brotliCodec) NewDecompressor() Decompressor {
	return brotli.NewReader(nil)
}

var _ Decompressor = (*brotli.Reader)(nil)
