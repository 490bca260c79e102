package http1

import (
	"io"

	"github.com/indigo-web/ember/codec"
	"github.com/indigo-web/ember/config"
	"github.com/indigo-web/ember/http/status"
	"github.com/indigo-web/ember/internal/codecutil"
	"github.com/indigo-web/ember/transport"
)

type bodyMode uint8

const (
	eModeNone bodyMode = iota
	eModePlain
	eModeChunked
)

// Body reads a message body off the wire, decoding the framing and optionally
// the content coding. It implements http.Fetcher and is re-armed for every
// message on the connection.
type Body struct {
	client        transport.Client
	chunked       ChunkedParser
	codecs        *codecutil.Registry
	decompressors map[string]codec.Decompressor
	pending       codec.Codec
	active        codec.Decompressor
	scratch       []byte
	raw           rawReader
	remaining     int64
	mode          bodyMode
}

func NewBody(client transport.Client, codecs *codecutil.Registry, cfg config.Body) *Body {
	b := &Body{
		client:  client,
		chunked: NewChunkedParser(cfg.MaxChunkSize),
		codecs:  codecs,
	}
	b.raw.body = b

	return b
}

// ResetPlain arms the body as a Content-Length bounded byte run.
func (b *Body) ResetPlain(length int64, contentEncoding string) error {
	b.mode = eModePlain
	b.remaining = length

	return b.resetCoding(contentEncoding)
}

// ResetChunked arms the body as a chunked transfer encoded stream.
func (b *Body) ResetChunked(contentEncoding string) error {
	b.mode = eModeChunked

	return b.resetCoding(contentEncoding)
}

// Fetch returns the next piece of the body, valid until the following call.
// io.EOF signals the end, possibly arriving with the last piece.
func (b *Body) Fetch() ([]byte, error) {
	if b.pending != nil {
		if err := b.armDecompressor(); err != nil {
			return nil, err
		}
	}

	if b.active == nil {
		return b.fetchRaw()
	}

	if b.scratch == nil {
		b.scratch = make([]byte, decompressionBufferSize)
	}

	n, err := b.active.Read(b.scratch)
	switch err {
	case nil, io.EOF:
		return b.scratch[:n], err
	default:
		return nil, status.ErrBadRequest
	}
}

func (b *Body) fetchRaw() ([]byte, error) {
	switch b.mode {
	case eModePlain:
		if b.remaining == 0 {
			return nil, io.EOF
		}

		data, err := b.client.Read()
		if err != nil {
			return nil, err
		}

		if int64(len(data)) >= b.remaining {
			piece := data[:b.remaining]
			b.client.Pushback(data[b.remaining:])
			b.remaining = 0

			return piece, io.EOF
		}

		b.remaining -= int64(len(data))
		return data, nil
	case eModeChunked:
		for {
			data, err := b.client.Read()
			if err != nil {
				return nil, err
			}

			chunk, extra, err := b.chunked.Parse(data)
			b.client.Pushback(extra)

			if err != nil || len(chunk) > 0 {
				return chunk, err
			}
		}
	default:
		return nil, io.EOF
	}
}

func (b *Body) resetCoding(contentEncoding string) error {
	b.active = nil
	b.pending = nil
	if len(contentEncoding) == 0 || b.codecs == nil {
		return nil
	}

	c := b.codecs.Get(contentEncoding)
	if c == nil {
		return status.ErrUnsupportedEncoding
	}

	// codings like gzip read a stream header right on Reset, so the actual
	// arming is postponed until the body is asked for
	b.pending = c
	return nil
}

func (b *Body) armDecompressor() error {
	c := b.pending
	b.pending = nil

	if b.decompressors == nil {
		b.decompressors = make(map[string]codec.Decompressor)
	}

	d, found := b.decompressors[c.Token()]
	if !found {
		d = c.NewDecompressor()
		b.decompressors[c.Token()] = d
	}

	b.raw.eof = false
	b.raw.pending = nil
	if err := d.Reset(&b.raw); err != nil {
		return status.ErrBadRequest
	}

	b.active = d
	return nil
}

const decompressionBufferSize = 8 * 1024

// rawReader adapts the framing-level fetch into an io.Reader feeding a
// decompressor.
type rawReader struct {
	body    *Body
	pending []byte
	eof     bool
}

func (r *rawReader) Read(p []byte) (n int, err error) {
	if len(r.pending) == 0 {
		if r.eof {
			return 0, io.EOF
		}

		piece, err := r.body.fetchRaw()
		if err == io.EOF {
			r.eof = true
		} else if err != nil {
			return 0, err
		}

		r.pending = piece
		if len(r.pending) == 0 && r.eof {
			return 0, io.EOF
		}
	}

	n = copy(p, r.pending)
	r.pending = r.pending[n:]

	return n, nil
}
