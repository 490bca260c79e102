package client

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/indigo-web/ember/http/mime"
)

func TestRender(t *testing.T) {
	t.Run("origin form", func(t *testing.T) {
		request := GET("http://example.com/path/to/resource?key=value")
		head := string(render(nil, request, false, ""))

		require.Equal(t,
			"GET /path/to/resource?key=value HTTP/1.1\r\n"+
				"Host: example.com\r\n\r\n",
			head,
		)
	})

	t.Run("empty path", func(t *testing.T) {
		request := GET("http://example.com")
		head := string(render(nil, request, false, ""))

		require.Equal(t, "GET / HTTP/1.1\r\nHost: example.com\r\n\r\n", head)
	})

	t.Run("absolute form", func(t *testing.T) {
		request := GET("http://example.com/index")
		head := string(render(nil, request, true, ""))

		require.Equal(t,
			"GET http://example.com/index HTTP/1.1\r\nHost: example.com\r\n\r\n",
			head,
		)
	})

	t.Run("explicit host wins", func(t *testing.T) {
		request := GET("http://example.com/").Header("Host", "override.example")
		head := string(render(nil, request, false, ""))

		require.Equal(t, "GET / HTTP/1.1\r\nHost: override.example\r\n\r\n", head)
	})

	t.Run("body brings length and type", func(t *testing.T) {
		request := POST("http://example.com/submit").String("hello")
		head := string(render(nil, request, false, ""))

		require.Equal(t,
			"POST /submit HTTP/1.1\r\n"+
				"Host: example.com\r\n"+
				"Content-Type: "+string(mime.Plain)+"\r\n"+
				"Content-Length: 5\r\n\r\n"+
				"hello",
			head,
		)
	})

	t.Run("post without body still carries length", func(t *testing.T) {
		request := POST("http://example.com/submit")
		head := string(render(nil, request, false, ""))

		require.Contains(t, head, "Content-Length: 0\r\n")
	})

	t.Run("accept encoding", func(t *testing.T) {
		request := GET("http://example.com/")
		head := string(render(nil, request, false, "gzip, zstd"))

		require.Contains(t, head, "Accept-Encoding: gzip, zstd\r\n")
	})

	t.Run("custom headers", func(t *testing.T) {
		request := GET("http://example.com/").
			Header("X-One", "1").
			Header("X-Many", "a", "b")
		head := string(render(nil, request, false, ""))

		require.Contains(t, head, "X-One: 1\r\n")
		require.Contains(t, head, "X-Many: a\r\n")
		require.Contains(t, head, "X-Many: b\r\n")
	})
}
