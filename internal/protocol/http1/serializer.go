package http1

import (
	"bytes"
	"io"
	"strconv"

	"github.com/indigo-web/ember/codec"
	"github.com/indigo-web/ember/config"
	"github.com/indigo-web/ember/http"
	"github.com/indigo-web/ember/http/method"
	"github.com/indigo-web/ember/http/proto"
	"github.com/indigo-web/ember/http/status"
	"github.com/indigo-web/ember/internal/codecutil"
	"github.com/indigo-web/ember/internal/response"
	"github.com/indigo-web/ember/kv"
	"github.com/indigo-web/ember/transport"
	"github.com/indigo-web/utils/strcomp"
	"github.com/indigo-web/utils/uf"
)

// bodies shorter than this are not worth the coding overhead
const minCompressibleSize = 512

// Serializer renders responses onto the wire. The head and small bodies are
// accumulated in a buffer and transmitted in as few writes as possible; streamed
// bodies are flushed as they arrive.
type Serializer struct {
	client         transport.Client
	buff           []byte
	maxBuffSize    int
	streamBuff     []byte
	defaultHeaders []kv.Pair
	codecs         *codecutil.Registry
	compressors    map[string]codec.Compressor
	compressBuff   bytes.Buffer
}

func NewSerializer(client transport.Client, cfg *config.Config, codecs *codecutil.Registry) *Serializer {
	defaultHeaders := make([]kv.Pair, 0, len(cfg.Headers.Default))
	for key, value := range cfg.Headers.Default {
		defaultHeaders = append(defaultHeaders, kv.Pair{Key: key, Value: value})
	}

	return &Serializer{
		client:         client,
		buff:           make([]byte, 0, cfg.NET.WriteBufferSize.Default),
		maxBuffSize:    cfg.NET.WriteBufferSize.Maximal,
		defaultHeaders: defaultHeaders,
		codecs:         codecs,
	}
}

// Write renders the response and transmits it. The keepAlive flag controls the
// Connection header; tearing the connection down stays on the caller.
func (s *Serializer) Write(request *http.Request, response *http.Response, keepAlive bool) error {
	fields := response.Expose()
	s.buff = s.buff[:0]

	s.appendStatusLine(request.Protocol, fields.Code, fields.Status)

	// framing is computed below off the actual body; handler-set framing
	// headers would end up duplicated, so they are dropped
	for _, pair := range fields.Headers {
		if isFramingHeader(pair.Key) {
			continue
		}

		s.appendHeader(pair.Key, pair.Value)
	}

	for _, pair := range s.defaultHeaders {
		if !containsKey(fields.Headers, pair.Key) {
			s.appendHeader(pair.Key, pair.Value)
		}
	}

	if keepAlive {
		s.appendHeader("Connection", "keep-alive")
	} else {
		s.appendHeader("Connection", "close")
	}

	if fields.Stream != nil {
		return s.writeStream(request, fields)
	}

	body, token := s.encodeBody(request, fields)

	if len(body) > 0 {
		s.appendHeader("Content-Type", fields.ContentType)
	}

	if len(token) > 0 {
		s.appendHeader("Content-Encoding", token)
	}

	s.appendHeader("Content-Length", uf.B2S(strconv.AppendInt(nil, int64(len(body)), 10)))
	s.buff = append(s.buff, '\r', '\n')

	if request.Method != method.HEAD {
		s.buff = append(s.buff, body...)
	}

	return s.flush()
}

func (s *Serializer) appendStatusLine(p proto.Protocol, code status.Code, reason status.Status) {
	if p == proto.Unknown {
		p = proto.HTTP11
	}

	s.buff = append(s.buff, p.String()...)
	s.buff = append(s.buff, ' ')
	s.buff = strconv.AppendUint(s.buff, uint64(code), 10)
	s.buff = append(s.buff, ' ')

	if len(reason) == 0 {
		reason = status.Text(code)
	}

	s.buff = append(s.buff, reason...)
	s.buff = append(s.buff, '\r', '\n')
}

func (s *Serializer) appendHeader(key, value string) {
	s.buff = append(s.buff, key...)
	s.buff = append(s.buff, ':', ' ')
	s.buff = append(s.buff, value...)
	s.buff = append(s.buff, '\r', '\n')
}

// encodeBody optionally compresses a materialized body. An explicitly set
// content coding means the handler has already encoded the body itself.
func (s *Serializer) encodeBody(request *http.Request, fields *response.Fields) (body []byte, token string) {
	body = fields.Body
	if len(fields.ContentEncoding) > 0 {
		return body, fields.ContentEncoding
	}

	if s.codecs == nil || s.codecs.Empty() || len(body) < minCompressibleSize {
		return body, ""
	}

	c := s.codecs.Negotiate(request.Headers.Value("Accept-Encoding"))
	if c == nil {
		return body, ""
	}

	return s.compress(c, body), c.Token()
}

func (s *Serializer) compress(c codec.Codec, body []byte) []byte {
	if s.compressors == nil {
		s.compressors = make(map[string]codec.Compressor)
	}

	w, found := s.compressors[c.Token()]
	if !found {
		w = c.NewCompressor()
		s.compressors[c.Token()] = w
	}

	s.compressBuff.Reset()
	w.Reset(&s.compressBuff)
	// writing into a memory buffer cannot fail
	_, _ = w.Write(body)
	_ = w.Close()

	return s.compressBuff.Bytes()
}

func (s *Serializer) writeStream(request *http.Request, fields *response.Fields) error {
	if c, ok := fields.Stream.(io.Closer); ok {
		defer func() {
			_ = c.Close()
		}()
	}

	s.appendHeader("Content-Type", fields.ContentType)
	if len(fields.ContentEncoding) > 0 {
		s.appendHeader("Content-Encoding", fields.ContentEncoding)
	}

	if fields.StreamSize >= 0 {
		s.appendHeader("Content-Length", uf.B2S(strconv.AppendInt(nil, fields.StreamSize, 10)))
		s.buff = append(s.buff, '\r', '\n')

		if request.Method == method.HEAD {
			return s.flush()
		}

		return s.copyBounded(fields.Stream, fields.StreamSize)
	}

	s.appendHeader("Transfer-Encoding", "chunked")
	if len(fields.Trailers) > 0 {
		s.appendHeader("Trailer", joinKeys(fields.Trailers))
	}

	s.buff = append(s.buff, '\r', '\n')

	if request.Method == method.HEAD {
		return s.flush()
	}

	return s.copyChunked(fields.Stream, fields.Trailers)
}

// copyBounded transmits exactly size bytes off the reader following the
// buffered head.
func (s *Serializer) copyBounded(source io.Reader, size int64) error {
	if err := s.flush(); err != nil {
		return err
	}

	if s.streamBuff == nil {
		s.streamBuff = make([]byte, streamReadSize)
	}

	remaining := size
	for remaining > 0 {
		limit := int64(len(s.streamBuff))
		if remaining < limit {
			limit = remaining
		}

		n, err := source.Read(s.streamBuff[:limit])
		if n > 0 {
			remaining -= int64(n)
			if _, werr := s.client.Write(s.streamBuff[:n]); werr != nil {
				return werr
			}
		}

		switch err {
		case nil:
		case io.EOF:
			if remaining > 0 {
				return io.ErrUnexpectedEOF
			}

			return nil
		default:
			return err
		}
	}

	return nil
}

func (s *Serializer) copyChunked(source io.Reader, trailers []kv.Pair) error {
	if s.streamBuff == nil {
		s.streamBuff = make([]byte, streamReadSize)
	}

	for {
		n, err := source.Read(s.streamBuff)
		if n > 0 {
			s.buff = strconv.AppendUint(s.buff, uint64(n), 16)
			s.buff = append(s.buff, '\r', '\n')
			s.buff = append(s.buff, s.streamBuff[:n]...)
			s.buff = append(s.buff, '\r', '\n')

			if len(s.buff) >= s.maxBuffSize {
				if ferr := s.flush(); ferr != nil {
					return ferr
				}
			}
		}

		switch err {
		case nil:
		case io.EOF:
			s.buff = append(s.buff, '0', '\r', '\n')
			for _, pair := range trailers {
				s.appendHeader(pair.Key, pair.Value)
			}

			s.buff = append(s.buff, '\r', '\n')
			return s.flush()
		default:
			return err
		}
	}
}

func (s *Serializer) flush() error {
	if len(s.buff) == 0 {
		return nil
	}

	_, err := s.client.Write(s.buff)
	s.buff = s.buff[:0]

	return err
}

const streamReadSize = 16 * 1024

func isFramingHeader(key string) bool {
	return strcomp.EqualFold(key, "Content-Length") ||
		strcomp.EqualFold(key, "Transfer-Encoding")
}

func containsKey(pairs []kv.Pair, key string) bool {
	for _, pair := range pairs {
		if strcomp.EqualFold(pair.Key, key) {
			return true
		}
	}

	return false
}

func joinKeys(pairs []kv.Pair) string {
	buff := make([]byte, 0, 32)
	for i, pair := range pairs {
		if i > 0 {
			buff = append(buff, ", "...)
		}

		buff = append(buff, pair.Key...)
	}

	return string(buff)
}
