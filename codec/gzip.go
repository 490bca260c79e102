package codec

import (
	"github.com/klauspost/compress/gzip"
)

type gzipCodec struct{}

func NewGZIP() Codec {
	return gzipCodec{}
}

func (gzipCodec) Token() string {
	return "gzip"
}

func (gzipCodec) NewCompressor() Compressor {
	return gzip.NewWriter(nil)
}

func (gzipCodec) NewDecompressor() Decompressor {
	return new(gzip.Reader)
}
