package http1

import (
	"bytes"
	"strconv"

	"github.com/indigo-web/ember/config"
	"github.com/indigo-web/ember/http"
	"github.com/indigo-web/ember/http/method"
	"github.com/indigo-web/ember/http/proto"
	"github.com/indigo-web/ember/http/status"
	"github.com/indigo-web/ember/internal/buffer"
	"github.com/indigo-web/ember/internal/strutil"
	"github.com/indigo-web/ember/internal/urlencoded"
	"github.com/indigo-web/utils/strcomp"
	"github.com/indigo-web/utils/uf"
)

type parserState uint8

const (
	eMethod parserState = iota + 1
	ePath
	eQuery
	eProto
	eHeaderKey
	eHeaderValue
	eHeadersEndCR
)

// Parser is a resumable HTTP/1.1 request head parser. It consumes bytes in
// arbitrarily fragmented pieces, accumulating incomplete tokens in limited
// buffers, and reports completion along with the bytes it hasn't consumed,
// which belong to the body.
type Parser struct {
	state             parserState
	request           *http.Request
	requestLine       *buffer.Buffer
	headers           *buffer.Buffer
	cfg               *config.Config
	decodeBuff        []byte
	headerKey         string
	headersNumber     int
	seenContentLength bool
}

func NewParser(cfg *config.Config, request *http.Request, requestLine, headers *buffer.Buffer) *Parser {
	return &Parser{
		state:       eMethod,
		request:     request,
		requestLine: requestLine,
		headers:     headers,
		cfg:         cfg,
	}
}

// Parse processes another piece of the request stream. Once the request head is
// complete, done=true is reported and extra holds the unconsumed rest, which is
// the beginning of the body (or of the next request). After an error the
// connection must not be read anymore.
func (p *Parser) Parse(data []byte) (done bool, extra []byte, err error) {
	request := p.request

	switch p.state {
	case eMethod:
		goto parseMethod
	case ePath:
		goto parsePath
	case eQuery:
		goto parseQuery
	case eProto:
		goto parseProto
	case eHeaderKey:
		goto parseHeaderKey
	case eHeaderValue:
		goto parseHeaderValue
	case eHeadersEndCR:
		goto parseHeadersEndCR
	default:
		panic("BUG: request parser: unknown state")
	}

parseMethod:
	{
		sp := bytes.IndexByte(data, ' ')
		if sp == -1 {
			if !p.requestLine.Append(data) {
				return true, nil, status.ErrMethodNotImplemented
			}

			p.state = eMethod
			return false, nil, nil
		}

		if !p.requestLine.Append(data[:sp]) {
			return true, nil, status.ErrMethodNotImplemented
		}

		request.Method = method.Parse(uf.B2S(p.requestLine.Finish()))
		if request.Method == method.Unknown {
			return true, nil, status.ErrMethodNotImplemented
		}

		data = data[sp+1:]
		goto parsePath
	}

parsePath:
	for i := 0; i < len(data); i++ {
		switch char := data[i]; char {
		case ' ':
			if !p.requestLine.Append(data[:i]) {
				return true, nil, status.ErrURITooLong
			}

			if err = p.commitPath(); err != nil {
				return true, nil, err
			}

			data = data[i+1:]
			goto parseProto
		case '?':
			if !p.requestLine.Append(data[:i]) {
				return true, nil, status.ErrURITooLong
			}

			if err = p.commitPath(); err != nil {
				return true, nil, err
			}

			data = data[i+1:]
			goto parseQuery
		case '#':
			// fragments have no place in request targets
			return true, nil, status.ErrBadRequest
		default:
			if isProhibited(char) {
				return true, nil, status.ErrBadRequest
			}
		}
	}

	if !p.requestLine.Append(data) {
		return true, nil, status.ErrURITooLong
	}

	p.state = ePath
	return false, nil, nil

parseQuery:
	for i := 0; i < len(data); i++ {
		switch char := data[i]; char {
		case ' ':
			if !p.requestLine.Append(data[:i]) {
				return true, nil, status.ErrURITooLong
			}

			request.SetQuery(uf.B2S(p.requestLine.Finish()))
			data = data[i+1:]
			goto parseProto
		case '#':
			return true, nil, status.ErrBadRequest
		default:
			if isProhibited(char) {
				return true, nil, status.ErrBadRequest
			}
		}
	}

	if !p.requestLine.Append(data) {
		return true, nil, status.ErrURITooLong
	}

	p.state = eQuery
	return false, nil, nil

parseProto:
	{
		lf := bytes.IndexByte(data, '\n')
		if lf == -1 {
			if !p.requestLine.Append(data) {
				return true, nil, status.ErrTooLongRequestLine
			}

			p.state = eProto
			return false, nil, nil
		}

		if !p.requestLine.Append(data[:lf]) {
			return true, nil, status.ErrTooLongRequestLine
		}

		request.Protocol = proto.FromBytes(rstripCR(p.requestLine.Finish()))
		if request.Protocol == proto.Unknown {
			return true, nil, status.ErrHTTPVersionNotSupported
		}

		data = data[lf+1:]
		goto parseHeaderKey
	}

parseHeaderKey:
	if len(data) == 0 {
		p.state = eHeaderKey
		return false, nil, nil
	}

	switch data[0] {
	case '\r':
		data = data[1:]
		goto parseHeadersEndCR
	case '\n':
		return p.commitHead(data[1:])
	case ' ', '\t':
		// obsolete header folding is deliberately not honored
		return true, nil, status.ErrHeaderContinuation
	}

	{
		colon := bytes.IndexByte(data, ':')
		if colon == -1 {
			if bytes.IndexByte(data, '\n') != -1 {
				return true, nil, status.ErrBadRequest
			}

			if !p.headers.Append(data) {
				return true, nil, status.ErrHeaderFieldsTooLarge
			}

			p.state = eHeaderKey
			return false, nil, nil
		}

		key := data[:colon]
		if bytes.IndexByte(key, '\n') != -1 {
			return true, nil, status.ErrBadRequest
		}

		if !p.headers.Append(key) {
			return true, nil, status.ErrHeaderFieldsTooLarge
		}

		if p.headersNumber++; p.headersNumber > p.cfg.Headers.Number.Maximal {
			return true, nil, status.ErrTooManyHeaders
		}

		p.headerKey = uf.B2S(p.headers.Finish())
		if len(p.headerKey) == 0 {
			return true, nil, status.ErrBadRequest
		}

		data = data[colon+1:]
		goto parseHeaderValue
	}

parseHeaderValue:
	{
		lf := bytes.IndexByte(data, '\n')
		if lf == -1 {
			if !p.headers.Append(data) {
				return true, nil, status.ErrHeaderFieldsTooLarge
			}

			p.state = eHeaderValue
			return false, nil, nil
		}

		if !p.headers.Append(data[:lf]) {
			return true, nil, status.ErrHeaderFieldsTooLarge
		}

		value := strutil.StripWS(uf.B2S(rstripCR(p.headers.Finish())))
		if err = p.commitHeader(p.headerKey, value); err != nil {
			return true, nil, err
		}

		data = data[lf+1:]
		goto parseHeaderKey
	}

parseHeadersEndCR:
	if len(data) == 0 {
		p.state = eHeadersEndCR
		return false, nil, nil
	}

	if data[0] != '\n' {
		return true, nil, status.ErrBadRequest
	}

	return p.commitHead(data[1:])
}

// Release brings the parser back to the initial state, ready for the next
// request on the same connection.
func (p *Parser) Release() {
	p.state = eMethod
	p.headerKey = ""
	p.headersNumber = 0
	p.seenContentLength = false
	p.decodeBuff = p.decodeBuff[:0]
	p.requestLine.Clear()
	p.headers.Clear()
}

func (p *Parser) commitPath() error {
	raw := p.requestLine.Preview()
	if len(raw) == 0 {
		return status.ErrBadRequest
	}

	if bytes.IndexByte(raw, '%') == -1 {
		// fast path: nothing to decode
		p.request.Path = uf.B2S(p.requestLine.Finish())
		return nil
	}

	p.requestLine.Finish()
	decoded, buff, err := urlencoded.DecodePath(uf.B2S(raw), p.decodeBuff)
	if err != nil {
		return status.ErrBadRequest
	}

	p.decodeBuff = buff
	p.request.Path = decoded
	return nil
}

func (p *Parser) commitHeader(key, value string) error {
	request := p.request

	switch {
	case strcomp.EqualFold(key, "content-length"):
		length, err := strconv.ParseInt(value, 10, 64)
		if err != nil || length < 0 {
			return status.ErrBadContentLength
		}

		if p.seenContentLength && request.ContentLength != length {
			// two differing Content-Length values scream request smuggling
			return status.ErrAmbiguousContentLength
		}

		p.seenContentLength = true
		request.ContentLength = length
	case strcomp.EqualFold(key, "transfer-encoding"):
		request.Encoding.Chunked = hasToken(value, "chunked")
	case strcomp.EqualFold(key, "content-encoding"):
		request.Encoding.ContentEncoding = value
	case strcomp.EqualFold(key, "trailer"):
		request.Encoding.HasTrailer = true
	case strcomp.EqualFold(key, "connection"):
		request.Connection = value
	}

	request.Headers.Add(key, value)
	return nil
}

func (p *Parser) commitHead(extra []byte) (bool, []byte, error) {
	if p.seenContentLength {
		// an unambiguous Content-Length takes precedence over chunked framing
		p.request.Encoding.Chunked = false
	}

	return true, extra, nil
}

func hasToken(value, token string) bool {
	for len(value) > 0 {
		var current string
		if comma := bytes.IndexByte(uf.S2B(value), ','); comma != -1 {
			current, value = value[:comma], value[comma+1:]
		} else {
			current, value = value, ""
		}

		if strcomp.EqualFold(strutil.StripWS(current), token) {
			return true
		}
	}

	return false
}

func isProhibited(char byte) bool {
	return char < 0x20 || char == 0x7F
}

func rstripCR(b []byte) []byte {
	if len(b) > 0 && b[len(b)-1] == '\r' {
		b = b[:len(b)-1]
	}

	return b
}
