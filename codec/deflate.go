package codec

import (
	"io"

	"github.com/klauspost/compress/zlib"
)

type deflateCodec struct{}

// NewDeflate returns the deflate content-coding, which per RFC 9110 is actually
// a zlib-wrapped deflate stream.
func NewDeflate() Codec {
	return deflateCodec{}
}

func (deflateCodec) Token() string {
	return "deflate"
}

func (deflateCodec) NewCompressor() Compressor {
	return zlib.NewWriter(nil)
}

func (deflateCodec) NewDecompressor() Decompressor {
	return new(zlibDecompressor)
}

// zlibDecompressor adapts zlib.NewReader, which insists on reading the stream
// header right at construction, to the lazily armed Decompressor contract.
type zlibDecompressor struct {
	rc io.ReadCloser
}

func (z *zlibDecompressor) Reset(source io.Reader) (err error) {
	if z.rc == nil {
		z.rc, err = zlib.NewReader(source)
		return err
	}

	return z.rc.(zlib.Resetter).Reset(source, nil)
}

func (z *zlibDecompressor) Read(b []byte) (int, error) {
	if z.rc == nil {
		return 0, io.EOF
	}

	return z.rc.Read(b)
}
