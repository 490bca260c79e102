package codec

import "io"

// Codec is a content-coding filter factory. A single codec instance is shared,
// instances it produces are not.
type Codec interface {
	// Token returns the content-coding token the codec is negotiated by.
	Token() string
	NewCompressor() Compressor
	NewDecompressor() Decompressor
}

// Compressor encodes a body stream. Close flushes the remaining data into the
// underlying writer, after which the compressor may be re-armed via Reset.
type Compressor interface {
	io.WriteCloser
	Reset(w io.Writer)
}

// Decompressor decodes a body stream. Reset re-arms it over a new source.
type Decompressor interface {
	io.Reader
	Reset(source io.Reader) error
}
