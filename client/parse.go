package client

import (
	"bytes"
	"io"
	"strconv"
	"strings"

	"github.com/indigo-web/chunkedbody"
	"github.com/indigo-web/ember/codec"
	"github.com/indigo-web/ember/http/proto"
	"github.com/indigo-web/ember/http/status"
	"github.com/indigo-web/ember/internal/codecutil"
	"github.com/indigo-web/ember/internal/strutil"
	"github.com/indigo-web/ember/kv"
	"github.com/indigo-web/ember/transport"
	"github.com/indigo-web/utils/strcomp"
	"github.com/indigo-web/utils/uf"
)

// responseParser reads responses off a single connection. An instance is bound
// to a persistent connection and survives across exchanges on it.
type responseParser struct {
	client      transport.Client
	chunked     *chunkedbody.Parser
	codecs      *codecutil.Registry
	maxHeadSize int
	maxBodySize int64
	headBuff    []byte
}

func newResponseParser(client transport.Client, codecs *codecutil.Registry, maxHeadSize int, maxBodySize int64) *responseParser {
	return &responseParser{
		client:      client,
		chunked:     chunkedbody.NewParser(chunkedbody.DefaultSettings()),
		codecs:      codecs,
		maxHeadSize: maxHeadSize,
		maxBodySize: maxBodySize,
	}
}

// parse consumes a whole response. The connection is left positioned right
// after the message, so reusable reports whether it can serve another exchange.
func (p *responseParser) parse(headRequest bool) (resp *Response, reusable bool, err error) {
	head, err := p.readHead()
	if err != nil {
		return nil, false, err
	}

	resp = &Response{Headers: kv.New()}

	rest, err := parseStatusLine(head, resp)
	if err != nil {
		return nil, false, err
	}

	if err = parseHeaderLines(rest, resp.Headers); err != nil {
		return nil, false, err
	}

	framing, length := p.framingOf(resp, headRequest)

	hasTrailer := len(resp.Headers.Value("Trailer")) > 0
	raw, closed, err := p.readBody(framing, length, hasTrailer)
	if err != nil {
		return nil, false, err
	}

	resp.body, err = p.decodeBody(raw, resp.Headers.Value("Content-Encoding"))
	if err != nil {
		return nil, false, err
	}

	return resp, !closed && keepsAlive(resp), nil
}

// readHead accumulates bytes until the blank line terminating the header
// section, returning the head and leaving the rest in the connection. A final
// fragment arriving together with an error is still consumed.
func (p *responseParser) readHead() ([]byte, error) {
	p.headBuff = p.headBuff[:0]

	for {
		data, err := p.client.Read()
		p.headBuff = append(p.headBuff, data...)

		if end := bytes.Index(p.headBuff, []byte("\r\n\r\n")); end != -1 {
			p.client.Pushback(p.headBuff[end+4:])
			return p.headBuff[:end+2], nil
		}

		if err != nil {
			return nil, err
		}

		if len(p.headBuff) > p.maxHeadSize {
			return nil, status.ErrTooLongStatusLine
		}
	}
}

// sawResponse reports whether any head bytes arrived during the last parse.
// A cleanly refused exchange leaves nothing behind.
func (p *responseParser) sawResponse() bool {
	return len(p.headBuff) > 0
}

func parseStatusLine(head []byte, resp *Response) (rest []byte, err error) {
	lf := bytes.IndexByte(head, '\n')
	if lf == -1 {
		return nil, ErrMalformedResponse
	}

	line, rest := head[:lf+1], head[lf+1:]
	line = bytes.TrimSuffix(bytes.TrimSuffix(line, []byte("\n")), []byte("\r"))

	protocol, after, found := bytes.Cut(line, []byte(" "))
	if !found {
		return nil, ErrMalformedResponse
	}

	resp.Protocol = proto.FromBytes(protocol)
	if resp.Protocol == proto.Unknown {
		return nil, ErrMalformedResponse
	}

	rawCode, reason, _ := bytes.Cut(after, []byte(" "))
	code, err := strconv.Atoi(uf.B2S(rawCode))
	if err != nil || code < 100 || code > 599 {
		return nil, ErrMalformedResponse
	}

	resp.Code = status.Code(code)
	resp.Status = string(reason)

	return rest, nil
}

func parseHeaderLines(data []byte, headers *kv.Storage) error {
	for len(data) > 0 {
		lf := bytes.IndexByte(data, '\n')
		if lf == -1 {
			return ErrMalformedResponse
		}

		var line []byte
		line, data = data[:lf], data[lf+1:]
		line = bytes.TrimSuffix(line, []byte("\r"))
		if len(line) == 0 {
			continue
		}

		key, value, found := bytes.Cut(line, []byte(":"))
		if !found || len(key) == 0 {
			return ErrMalformedResponse
		}

		headers.Add(string(key), strutil.StripWS(string(value)))
	}

	return nil
}

type bodyFraming uint8

const (
	framingNone bodyFraming = iota
	framingPlain
	framingChunked
	framingUntilClose
)

func (p *responseParser) framingOf(resp *Response, headRequest bool) (framing bodyFraming, length int64) {
	if headRequest || resp.Code == status.NoContent || resp.Code == status.NotModified ||
		resp.Code < 200 {
		return framingNone, 0
	}

	if cl := resp.Headers.Value("Content-Length"); len(cl) > 0 {
		length, err := strconv.ParseInt(cl, 10, 64)
		if err != nil || length < 0 {
			return framingUntilClose, 0
		}

		return framingPlain, length
	}

	if hasTransferToken(resp.Headers.Value("Transfer-Encoding"), "chunked") {
		return framingChunked, 0
	}

	return framingUntilClose, 0
}

func (p *responseParser) readBody(framing bodyFraming, length int64, hasTrailer bool) (body []byte, closed bool, err error) {
	switch framing {
	case framingNone:
		return nil, false, nil
	case framingPlain:
		if length > p.maxBodySize {
			return nil, false, status.ErrBodyTooLarge
		}

		body = make([]byte, 0, length)
		for int64(len(body)) < length {
			data, err := p.client.Read()
			if need := length - int64(len(body)); int64(len(data)) > need {
				p.client.Pushback(data[need:])
				data = data[:need]
			}

			body = append(body, data...)

			if err != nil {
				// the error may have carried the final fragment
				if int64(len(body)) == length {
					return body, true, nil
				}

				return nil, false, err
			}
		}

		return body, false, nil
	case framingChunked:
		for {
			data, readErr := p.client.Read()

			for len(data) > 0 {
				chunk, extra, err := p.chunked.Parse(data, hasTrailer)
				switch err {
				case nil:
				case io.EOF:
					p.client.Pushback(extra)
					return body, readErr != nil, nil
				default:
					return nil, false, ErrMalformedResponse
				}

				body = append(body, chunk...)
				if int64(len(body)) > p.maxBodySize {
					return nil, false, status.ErrBodyTooLarge
				}

				data = extra
			}

			if readErr != nil {
				return nil, false, readErr
			}
		}
	default:
		for {
			data, err := p.client.Read()
			body = append(body, data...)
			if int64(len(body)) > p.maxBodySize {
				return nil, true, status.ErrBodyTooLarge
			}

			switch err {
			case nil:
			case io.EOF, transport.ErrCanceled:
				return body, true, nil
			default:
				return nil, true, err
			}
		}
	}
}

func (p *responseParser) decodeBody(body []byte, contentEncoding string) ([]byte, error) {
	if len(contentEncoding) == 0 || len(body) == 0 || p.codecs == nil {
		return body, nil
	}

	c := p.codecs.Get(contentEncoding)
	if c == nil {
		return nil, status.ErrUnsupportedEncoding
	}

	return decompress(c, body, p.maxBodySize)
}

func decompress(c codec.Codec, body []byte, limit int64) ([]byte, error) {
	d := c.NewDecompressor()
	if err := d.Reset(bytes.NewReader(body)); err != nil {
		return nil, ErrMalformedResponse
	}

	decoded, err := io.ReadAll(io.LimitReader(d, limit+1))
	if err != nil {
		return nil, ErrMalformedResponse
	}

	if int64(len(decoded)) > limit {
		return nil, status.ErrBodyTooLarge
	}

	return decoded, nil
}

func keepsAlive(resp *Response) bool {
	connection := resp.Headers.Value("Connection")

	switch {
	case hasTransferToken(connection, "close"):
		return false
	case hasTransferToken(connection, "keep-alive"):
		return true
	default:
		return resp.Protocol.KeepAliveByDefault()
	}
}

func hasTransferToken(value, token string) bool {
	for _, current := range strings.Split(value, ",") {
		if strcomp.EqualFold(strutil.StripWS(current), token) {
			return true
		}
	}

	return false
}
