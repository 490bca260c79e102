package http1

import (
	"testing"

	"github.com/indigo-web/ember/config"
	"github.com/indigo-web/ember/http"
	"github.com/indigo-web/ember/http/method"
	"github.com/indigo-web/ember/http/proto"
	"github.com/indigo-web/ember/http/status"
	"github.com/indigo-web/ember/internal/construct"
	"github.com/stretchr/testify/require"
)

func feedParser(p *Parser, data []byte, step int) (done bool, extra []byte, err error) {
	for len(data) > 0 {
		piece := data
		if step < len(piece) {
			piece = piece[:step]
		}

		done, extra, err = p.Parse(piece)
		if done || err != nil {
			return done, extra, err
		}

		data = data[len(piece):]
	}

	return done, extra, err
}

func newParserPair(cfg *config.Config) (*Parser, *http.Request) {
	request := construct.Request(cfg, newScriptClient())
	return newTestParser(cfg, request), request
}

func TestParser_RequestLine(t *testing.T) {
	t.Run("simple get", func(t *testing.T) {
		parser, request := newParserPair(config.Default())
		done, extra, err := parser.Parse([]byte("GET /hello HTTP/1.1\r\n\r\n"))
		require.NoError(t, err)
		require.True(t, done)
		require.Empty(t, extra)
		require.Equal(t, method.GET, request.Method)
		require.Equal(t, "/hello", request.Path)
		require.Equal(t, proto.HTTP11, request.Protocol)
	})

	t.Run("bare lf", func(t *testing.T) {
		parser, request := newParserPair(config.Default())
		done, _, err := parser.Parse([]byte("GET / HTTP/1.0\n\n"))
		require.NoError(t, err)
		require.True(t, done)
		require.Equal(t, proto.HTTP10, request.Protocol)
	})

	t.Run("query", func(t *testing.T) {
		parser, request := newParserPair(config.Default())
		done, _, err := parser.Parse([]byte("GET /search?q=go+http&lang=en HTTP/1.1\r\n\r\n"))
		require.NoError(t, err)
		require.True(t, done)
		require.Equal(t, "/search", request.Path)

		query, err := request.Query()
		require.NoError(t, err)
		require.Equal(t, "go http", query.Value("q"))
		require.Equal(t, "en", query.Value("lang"))
	})

	t.Run("encoded path", func(t *testing.T) {
		parser, request := newParserPair(config.Default())
		done, _, err := parser.Parse([]byte("GET /with%20space HTTP/1.1\r\n\r\n"))
		require.NoError(t, err)
		require.True(t, done)
		require.Equal(t, "/with space", request.Path)
	})

	t.Run("malformed encoded path", func(t *testing.T) {
		parser, _ := newParserPair(config.Default())
		_, _, err := parser.Parse([]byte("GET /bad%zz HTTP/1.1\r\n\r\n"))
		require.ErrorIs(t, err, status.ErrBadRequest)
	})

	t.Run("unknown method", func(t *testing.T) {
		parser, _ := newParserPair(config.Default())
		_, _, err := parser.Parse([]byte("BREW /coffee HTTP/1.1\r\n\r\n"))
		require.ErrorIs(t, err, status.ErrMethodNotImplemented)
	})

	t.Run("unsupported protocol", func(t *testing.T) {
		parser, _ := newParserPair(config.Default())
		_, _, err := parser.Parse([]byte("GET / HTTP/2.0\r\n\r\n"))
		require.ErrorIs(t, err, status.ErrHTTPVersionNotSupported)
	})

	t.Run("empty path", func(t *testing.T) {
		parser, _ := newParserPair(config.Default())
		_, _, err := parser.Parse([]byte("GET  HTTP/1.1\r\n\r\n"))
		require.ErrorIs(t, err, status.ErrBadRequest)
	})

	t.Run("control char in path", func(t *testing.T) {
		parser, _ := newParserPair(config.Default())
		_, _, err := parser.Parse([]byte("GET /he\x00llo HTTP/1.1\r\n\r\n"))
		require.ErrorIs(t, err, status.ErrBadRequest)
	})

	t.Run("too long uri", func(t *testing.T) {
		cfg := config.Default()
		cfg.URI.RequestLineSize.Maximal = 16
		parser, _ := newParserPair(cfg)
		_, _, err := parser.Parse([]byte("GET /aaaaaaaaaaaaaaaaaaaaaaaaaaaa HTTP/1.1\r\n\r\n"))
		require.ErrorIs(t, err, status.ErrURITooLong)
	})
}

func TestParser_Headers(t *testing.T) {
	t.Run("ordinary headers", func(t *testing.T) {
		parser, request := newParserPair(config.Default())
		raw := []byte("GET / HTTP/1.1\r\nHost: example.com\r\nAccept: text/html\r\n\r\n")
		done, extra, err := parser.Parse(raw)
		require.NoError(t, err)
		require.True(t, done)
		require.Empty(t, extra)
		require.Equal(t, "example.com", request.Headers.Value("host"))
		require.Equal(t, "text/html", request.Headers.Value("Accept"))
	})

	t.Run("value whitespace is stripped", func(t *testing.T) {
		parser, request := newParserPair(config.Default())
		done, _, err := parser.Parse([]byte("GET / HTTP/1.1\r\nHost:   example.com  \r\n\r\n"))
		require.NoError(t, err)
		require.True(t, done)
		require.Equal(t, "example.com", request.Headers.Value("Host"))
	})

	t.Run("folded continuation", func(t *testing.T) {
		parser, _ := newParserPair(config.Default())
		_, _, err := parser.Parse([]byte("GET / HTTP/1.1\r\nA: b\r\n continued\r\n\r\n"))
		require.ErrorIs(t, err, status.ErrHeaderContinuation)
	})

	t.Run("empty key", func(t *testing.T) {
		parser, _ := newParserPair(config.Default())
		_, _, err := parser.Parse([]byte("GET / HTTP/1.1\r\n: b\r\n\r\n"))
		require.ErrorIs(t, err, status.ErrBadRequest)
	})

	t.Run("missing colon", func(t *testing.T) {
		parser, _ := newParserPair(config.Default())
		_, _, err := parser.Parse([]byte("GET / HTTP/1.1\r\nno-colon-here\r\n\r\n"))
		require.ErrorIs(t, err, status.ErrBadRequest)
	})

	t.Run("too many headers", func(t *testing.T) {
		cfg := config.Default()
		cfg.Headers.Number.Maximal = 2
		parser, _ := newParserPair(cfg)
		_, _, err := parser.Parse([]byte("GET / HTTP/1.1\r\nA: 1\r\nB: 2\r\nC: 3\r\n\r\n"))
		require.ErrorIs(t, err, status.ErrTooManyHeaders)
	})

	t.Run("too large header section", func(t *testing.T) {
		cfg := config.Default()
		cfg.Headers.Space.Maximal = 24
		parser, _ := newParserPair(cfg)
		_, _, err := parser.Parse([]byte("GET / HTTP/1.1\r\nA: aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa\r\n\r\n"))
		require.ErrorIs(t, err, status.ErrHeaderFieldsTooLarge)
	})
}

func TestParser_Framing(t *testing.T) {
	t.Run("content length with body bytes", func(t *testing.T) {
		parser, request := newParserPair(config.Default())
		raw := []byte("POST /upload HTTP/1.1\r\nContent-Length: 5\r\n\r\nhello")
		done, extra, err := parser.Parse(raw)
		require.NoError(t, err)
		require.True(t, done)
		require.Equal(t, "hello", string(extra))
		require.Equal(t, int64(5), request.ContentLength)
		require.False(t, request.Encoding.Chunked)
	})

	t.Run("conflicting content lengths", func(t *testing.T) {
		parser, _ := newParserPair(config.Default())
		raw := []byte("POST / HTTP/1.1\r\nContent-Length: 5\r\nContent-Length: 6\r\n\r\n")
		_, _, err := parser.Parse(raw)
		require.ErrorIs(t, err, status.ErrAmbiguousContentLength)
	})

	t.Run("duplicate equal content lengths", func(t *testing.T) {
		parser, request := newParserPair(config.Default())
		raw := []byte("POST / HTTP/1.1\r\nContent-Length: 5\r\nContent-Length: 5\r\n\r\n")
		done, _, err := parser.Parse(raw)
		require.NoError(t, err)
		require.True(t, done)
		require.Equal(t, int64(5), request.ContentLength)
	})

	t.Run("negative content length", func(t *testing.T) {
		parser, _ := newParserPair(config.Default())
		_, _, err := parser.Parse([]byte("POST / HTTP/1.1\r\nContent-Length: -1\r\n\r\n"))
		require.ErrorIs(t, err, status.ErrBadContentLength)
	})

	t.Run("chunked transfer encoding", func(t *testing.T) {
		parser, request := newParserPair(config.Default())
		raw := []byte("POST / HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n")
		done, _, err := parser.Parse(raw)
		require.NoError(t, err)
		require.True(t, done)
		require.True(t, request.Encoding.Chunked)
	})

	t.Run("content length overrides chunked", func(t *testing.T) {
		parser, request := newParserPair(config.Default())
		raw := []byte("POST / HTTP/1.1\r\nTransfer-Encoding: chunked\r\nContent-Length: 5\r\n\r\n")
		done, _, err := parser.Parse(raw)
		require.NoError(t, err)
		require.True(t, done)
		require.False(t, request.Encoding.Chunked)
		require.Equal(t, int64(5), request.ContentLength)
	})

	t.Run("trailer announcement", func(t *testing.T) {
		parser, request := newParserPair(config.Default())
		raw := []byte("POST / HTTP/1.1\r\nTransfer-Encoding: chunked\r\nTrailer: Checksum\r\n\r\n")
		done, _, err := parser.Parse(raw)
		require.NoError(t, err)
		require.True(t, done)
		require.True(t, request.Encoding.HasTrailer)
	})
}

func TestParser_Fragmented(t *testing.T) {
	raw := []byte("POST /upload?kind=doc HTTP/1.1\r\nHost: example.com\r\nContent-Length: 5\r\n\r\nhello")

	for _, step := range []int{1, 2, 3, 7} {
		parser, request := newParserPair(config.Default())
		done, extra, err := feedParser(parser, raw, step)
		require.NoError(t, err)
		require.True(t, done)
		require.Equal(t, "hello", string(extra))
		require.Equal(t, method.POST, request.Method)
		require.Equal(t, "/upload", request.Path)
		require.Equal(t, "example.com", request.Headers.Value("Host"))
		require.Equal(t, int64(5), request.ContentLength)
	}
}

func TestParser_Release(t *testing.T) {
	parser, request := newParserPair(config.Default())
	done, _, err := parser.Parse([]byte("POST /a HTTP/1.1\r\nContent-Length: 3\r\n\r\n"))
	require.NoError(t, err)
	require.True(t, done)

	require.NoError(t, request.Reset())
	parser.Release()

	done, extra, err := parser.Parse([]byte("GET /b HTTP/1.1\r\nHost: x\r\n\r\n"))
	require.NoError(t, err)
	require.True(t, done)
	require.Empty(t, extra)
	require.Equal(t, method.GET, request.Method)
	require.Equal(t, "/b", request.Path)
	require.Equal(t, int64(0), request.ContentLength)
	require.Equal(t, "x", request.Headers.Value("Host"))
}
