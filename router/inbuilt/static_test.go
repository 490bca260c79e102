package inbuilt

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/indigo-web/ember/http"
	"github.com/indigo-web/ember/http/method"
	"github.com/indigo-web/ember/http/mime"
	"github.com/indigo-web/ember/http/status"
	"github.com/stretchr/testify/require"
)

func staticFixture(t *testing.T) (*Router, string) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("<h1>hi</h1>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "data.txt"), []byte("0123456789"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "nested.txt"), []byte("nested"), 0o644))

	return New().Static("/static", root), root
}

func streamOf(t *testing.T, response *http.Response) string {
	fields := response.Expose()
	require.NotNil(t, fields.Stream)

	content, err := io.ReadAll(fields.Stream)
	require.NoError(t, err)

	if c, ok := fields.Stream.(io.Closer); ok {
		require.NoError(t, c.Close())
	}

	return string(content)
}

func headerOf(response *http.Response, key string) string {
	for _, pair := range response.Expose().Headers {
		if pair.Key == key {
			return pair.Value
		}
	}

	return ""
}

func TestStatic_Serving(t *testing.T) {
	r, _ := staticFixture(t)

	t.Run("plain file", func(t *testing.T) {
		response := r.OnRequest(newRequest(method.GET, "/static/index.html"))
		fields := response.Expose()
		require.Equal(t, status.OK, fields.Code)
		require.Equal(t, mime.HTML, fields.ContentType)
		require.Equal(t, int64(11), fields.StreamSize)
		require.Equal(t, "<h1>hi</h1>", streamOf(t, response))
	})

	t.Run("nested file", func(t *testing.T) {
		response := r.OnRequest(newRequest(method.GET, "/static/sub/nested.txt"))
		require.Equal(t, status.OK, response.Expose().Code)
		require.Equal(t, "nested", streamOf(t, response))
	})

	t.Run("missing file", func(t *testing.T) {
		response := r.OnRequest(newRequest(method.GET, "/static/none.txt"))
		require.Equal(t, status.NotFound, response.Expose().Code)
	})

	t.Run("directory", func(t *testing.T) {
		response := r.OnRequest(newRequest(method.GET, "/static/sub"))
		require.Equal(t, status.NotFound, response.Expose().Code)
	})

	t.Run("traversal is rejected", func(t *testing.T) {
		response := r.OnRequest(newRequest(method.GET, "/static/../../etc/passwd"))
		require.Equal(t, status.NotFound, response.Expose().Code)
	})
}

func TestStatic_Conditional(t *testing.T) {
	r, _ := staticFixture(t)

	etag := headerOf(r.OnRequest(newRequest(method.GET, "/static/data.txt")), "ETag")
	require.NotEmpty(t, etag)

	t.Run("if-none-match hit", func(t *testing.T) {
		request := newRequest(method.GET, "/static/data.txt")
		request.Headers.Add("If-None-Match", etag)

		response := r.OnRequest(request)
		fields := response.Expose()
		require.Equal(t, status.NotModified, fields.Code)
		require.Nil(t, fields.Stream)
		require.Empty(t, fields.Body)
	})

	t.Run("if-none-match miss", func(t *testing.T) {
		request := newRequest(method.GET, "/static/data.txt")
		request.Headers.Add("If-None-Match", `"something else"`)

		response := r.OnRequest(request)
		require.Equal(t, status.OK, response.Expose().Code)
		require.Equal(t, "0123456789", streamOf(t, response))
	})
}

func TestStatic_Ranges(t *testing.T) {
	r, _ := staticFixture(t)

	t.Run("closed range", func(t *testing.T) {
		request := newRequest(method.GET, "/static/data.txt")
		request.Headers.Add("Range", "bytes=2-5")

		response := r.OnRequest(request)
		require.Equal(t, status.PartialContent, response.Expose().Code)
		require.Equal(t, "bytes 2-5/10", headerOf(response, "Content-Range"))
		require.Equal(t, "2345", streamOf(t, response))
	})

	t.Run("suffix range", func(t *testing.T) {
		request := newRequest(method.GET, "/static/data.txt")
		request.Headers.Add("Range", "bytes=-3")

		response := r.OnRequest(request)
		require.Equal(t, status.PartialContent, response.Expose().Code)
		require.Equal(t, "789", streamOf(t, response))
	})

	t.Run("unsatisfiable range", func(t *testing.T) {
		request := newRequest(method.GET, "/static/data.txt")
		request.Headers.Add("Range", "bytes=50-60")

		response := r.OnRequest(request)
		require.Equal(t, status.RequestedRangeNotSatisfiable, response.Expose().Code)
		require.Equal(t, "bytes */10", headerOf(response, "Content-Range"))
	})
}
