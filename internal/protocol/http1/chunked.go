package http1

import (
	"bytes"
	"io"

	"github.com/indigo-web/ember/http/status"
	"github.com/indigo-web/ember/internal/hexconv"
)

type chunkedState uint8

const (
	eChunkSize chunkedState = iota
	eChunkExt
	eChunkSizeCR
	eChunkData
	eChunkDataEnd
	eChunkDataCRLF
	eChunkTrailer
	eChunkTrailerCRLF
	eChunkTrailerLine
)

// ChunkedParser is a resumable decoder of chunked transfer encoding. Parse
// returns a piece of the body when one is ready, nil otherwise; io.EOF signals
// the terminal chunk has been consumed, after which the parser is re-armed
// automatically.
type ChunkedParser struct {
	state        chunkedState
	chunkLength  int64
	maxChunkSize int64
}

func NewChunkedParser(maxChunkSize int64) ChunkedParser {
	return ChunkedParser{
		state:        eChunkSize,
		maxChunkSize: maxChunkSize,
	}
}

func (c *ChunkedParser) Parse(data []byte) (chunk, extra []byte, err error) {
	switch c.state {
	case eChunkSize:
		goto chunkSize
	case eChunkExt:
		goto chunkExt
	case eChunkSizeCR:
		goto chunkSizeCR
	case eChunkData:
		goto chunkData
	case eChunkDataEnd:
		goto chunkDataEnd
	case eChunkDataCRLF:
		goto chunkDataCRLF
	case eChunkTrailer:
		goto trailer
	case eChunkTrailerCRLF:
		goto chunkTrailerCRLF
	case eChunkTrailerLine:
		goto chunkTrailerLine
	default:
		panic("BUG: chunked parser: unknown state")
	}

chunkSize:
	for i := 0; i < len(data); i++ {
		switch char := data[i]; char {
		case '\r':
			data = data[i+1:]
			goto chunkSizeCR
		case '\n':
			data = data[i+1:]
			goto chunkSizeLF
		case ';':
			data = data[i+1:]
			goto chunkExt
		default:
			halfbyte := hexconv.Halfbyte[char]
			if halfbyte == 0xFF {
				return nil, nil, status.ErrBadChunk
			}

			c.chunkLength = (c.chunkLength << 4) | int64(halfbyte)
			if c.chunkLength > c.maxChunkSize {
				return nil, nil, status.ErrBadChunk
			}
		}
	}

	c.state = eChunkSize
	return nil, nil, nil

chunkExt:
	{
		// chunk extensions are recognized syntactically, yet carry no meaning here
		lf := bytes.IndexByte(data, '\n')
		if lf == -1 {
			c.state = eChunkExt
			return nil, nil, nil
		}

		data = data[lf+1:]
		goto chunkSizeLF
	}

chunkSizeCR:
	if len(data) == 0 {
		c.state = eChunkSizeCR
		return nil, nil, nil
	}

	if data[0] != '\n' {
		return nil, nil, status.ErrBadChunk
	}

	data = data[1:]
	goto chunkSizeLF

chunkSizeLF:
	if c.chunkLength == 0 {
		goto trailer
	}

	goto chunkData

chunkData:
	{
		n := min(c.chunkLength, int64(len(data)))
		c.chunkLength -= n
		chunk = data[:n]

		if c.chunkLength == 0 {
			c.state = eChunkDataEnd
		} else {
			c.state = eChunkData
		}

		return chunk, data[n:], nil
	}

chunkDataEnd:
	if len(data) == 0 {
		c.state = eChunkDataEnd
		return nil, nil, nil
	}

	switch data[0] {
	case '\r':
		data = data[1:]
		goto chunkDataCRLF
	case '\n':
		data = data[1:]
		goto chunkSize
	default:
		return nil, nil, status.ErrBadChunk
	}

chunkDataCRLF:
	if len(data) == 0 {
		c.state = eChunkDataCRLF
		return nil, nil, nil
	}

	if data[0] != '\n' {
		return nil, nil, status.ErrBadChunk
	}

	data = data[1:]
	goto chunkSize

trailer:
	if len(data) == 0 {
		c.state = eChunkTrailer
		return nil, nil, nil
	}

	switch data[0] {
	case '\r':
		data = data[1:]
		goto chunkTrailerCRLF
	case '\n':
		c.state = eChunkSize
		return nil, data[1:], io.EOF
	default:
		// trailing header lines. They obey ordinary header syntax, yet no
		// trailer is significant enough to be stored
		goto chunkTrailerLine
	}

chunkTrailerCRLF:
	if len(data) == 0 {
		c.state = eChunkTrailerCRLF
		return nil, nil, nil
	}

	if data[0] != '\n' {
		return nil, nil, status.ErrBadChunk
	}

	c.state = eChunkSize
	return nil, data[1:], io.EOF

chunkTrailerLine:
	{
		lf := bytes.IndexByte(data, '\n')
		if lf == -1 {
			c.state = eChunkTrailerLine
			return nil, nil, nil
		}

		data = data[lf+1:]
		goto trailer
	}
}
