package codec

import (
	"io"

	"github.com/klauspost/compress/zstd"
)

type zstdCodec struct{}

func NewZSTD() Codec {
	return zstdCodec{}
}

func (zstdCodec) Token() string {
	return "zstd"
}

func (zstdCodec) NewCompressor() Compressor {
	w, err := zstd.NewWriter(nil)
	if err != nil {
		panic(err)
	}

	return w
}

func (zstdCodec) NewDecompressor() Decompressor {
	return new(zstdDecompressor)
}

// zstdDecompressor adapts zstd.Decoder to the Decompressor contract: the decoder
// is instantiated on the first Reset and re-armed afterwards.
type zstdDecompressor struct {
	decoder *zstd.Decoder
}

func (z *zstdDecompressor) Reset(source io.Reader) (err error) {
	if z.decoder == nil {
		z.decoder, err = zstd.NewReader(source)
		return err
	}

	return z.decoder.Reset(source)
}

func (z *zstdDecompressor) Read(b []byte) (int, error) {
	if z.decoder == nil {
		return 0, io.EOF
	}

	return z.decoder.Read(b)
}
