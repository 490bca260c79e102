package client

import (
	"context"
	"io"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/indigo-web/ember/http/status"
	"github.com/indigo-web/ember/transport"
)

// seededClient builds a Client whose pool is pre-filled with scripted
// connections for the origin, popped in the given order. Every scripted
// response must carry Connection: close so that drained scripts never get
// pooled back.
func seededClient(cfg Config, origin string, conns ...*scriptConn) (*Client, []*scriptConn) {
	c := NewWith(cfg)

	key := c.poolKey(GET(origin).url)
	for i := len(conns) - 1; i >= 0; i-- {
		c.pool.put(key, newPersistConn(conns[i], c.codecs, cfg, false))
	}

	return c, conns
}

func closedResponse(code status.Code, extraHeaders, body string) *scriptConn {
	head := "HTTP/1.1 " + strconv.Itoa(int(code)) + " Whatever\r\nConnection: close\r\n" +
		extraHeaders +
		"Content-Length: " + strconv.Itoa(len(body)) + "\r\n\r\n"

	return newScriptConn([]byte(head + body))
}

func TestClientDo(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("plain exchange", func(t *testing.T) {
		c, conns := seededClient(cfg, "http://example.com",
			closedResponse(status.OK, "", "payload"),
		)

		resp, err := c.Do(context.Background(), GET("http://example.com/data"))
		require.NoError(t, err)
		require.True(t, resp.Ok())
		require.Equal(t, "payload", resp.String())
		require.Contains(t, string(conns[0].written), "GET /data HTTP/1.1\r\n")
		require.True(t, conns[0].closed)
	})

	t.Run("builder error short circuits", func(t *testing.T) {
		c := NewWith(cfg)

		_, err := c.Do(context.Background(), GET("ftp://example.com/file"))
		require.ErrorIs(t, err, ErrConnect)
	})

	t.Run("redirect followed", func(t *testing.T) {
		c, conns := seededClient(cfg, "http://example.com",
			closedResponse(status.MovedPermanently, "Location: /new-place\r\n", ""),
			closedResponse(status.OK, "", "moved payload"),
		)

		resp, err := c.Do(context.Background(), GET("http://example.com/old-place"))
		require.NoError(t, err)
		require.Equal(t, status.OK, resp.Code)
		require.Equal(t, "moved payload", resp.String())
		require.Contains(t, string(conns[1].written), "GET /new-place HTTP/1.1\r\n")
	})

	t.Run("see other demotes to GET", func(t *testing.T) {
		c, conns := seededClient(cfg, "http://example.com",
			closedResponse(status.SeeOther, "Location: /result\r\n", ""),
			closedResponse(status.OK, "", "done"),
		)

		resp, err := c.Do(context.Background(),
			POST("http://example.com/submit").String("form data"),
		)
		require.NoError(t, err)
		require.Equal(t, "done", resp.String())

		followup := string(conns[1].written)
		require.True(t, strings.HasPrefix(followup, "GET /result HTTP/1.1\r\n"))
		require.NotContains(t, followup, "form data")
	})

	t.Run("temporary redirect preserves method", func(t *testing.T) {
		c, conns := seededClient(cfg, "http://example.com",
			closedResponse(status.TemporaryRedirect, "Location: /retry\r\n", ""),
			closedResponse(status.OK, "", ""),
		)

		_, err := c.Do(context.Background(),
			POST("http://example.com/submit").String("form data"),
		)
		require.NoError(t, err)

		followup := string(conns[1].written)
		require.True(t, strings.HasPrefix(followup, "POST /retry HTTP/1.1\r\n"))
		require.Contains(t, followup, "form data")
	})

	t.Run("redirects disabled", func(t *testing.T) {
		noFollow := cfg
		noFollow.FollowRedirects = false

		c, _ := seededClient(noFollow, "http://example.com",
			closedResponse(status.MovedPermanently, "Location: /new-place\r\n", ""),
		)

		resp, err := c.Do(context.Background(), GET("http://example.com/old-place"))
		require.NoError(t, err)
		require.Equal(t, status.MovedPermanently, resp.Code)
		require.Equal(t, "/new-place", resp.Header("Location"))
	})

	t.Run("redirect loop capped", func(t *testing.T) {
		capped := cfg
		capped.MaxRedirects = 3

		loops := make([]*scriptConn, 0, 4)
		for range 4 {
			loops = append(loops,
				closedResponse(status.Found, "Location: /loop\r\n", ""),
			)
		}

		c, _ := seededClient(capped, "http://example.com", loops...)

		resp, err := c.Do(context.Background(), GET("http://example.com/loop"))
		require.NoError(t, err)
		require.Equal(t, status.Found, resp.Code)
		require.Equal(t, "/loop", resp.Header("Location"))
	})

	t.Run("found demotes POST to GET", func(t *testing.T) {
		c, conns := seededClient(cfg, "http://example.com",
			closedResponse(status.Found, "Location: /result\r\n", ""),
			closedResponse(status.OK, "", ""),
		)

		_, err := c.Do(context.Background(),
			POST("http://example.com/submit").String("form data"),
		)
		require.NoError(t, err)

		followup := string(conns[1].written)
		require.True(t, strings.HasPrefix(followup, "GET /result HTTP/1.1\r\n"))
		require.NotContains(t, followup, "form data")
	})

	t.Run("redirect without location", func(t *testing.T) {
		c, _ := seededClient(cfg, "http://example.com",
			closedResponse(status.Found, "", ""),
		)

		_, err := c.Do(context.Background(), GET("http://example.com/"))
		require.ErrorIs(t, err, ErrMissingLocation)
	})

	t.Run("digest challenge answered", func(t *testing.T) {
		authed := cfg
		authed.Auth = Credentials{Username: "Mufasa", Password: "Circle of Life"}

		challenge := `Digest realm="http-auth@example.org", qop="auth", ` +
			`algorithm=MD5, nonce="7ypf/xlj9XXwfDPEoM4URrv/xwf94BcCAzFZH4GiTo0v", ` +
			`opaque="FQhe/qaU925kfnzjCev0ciny7QMkPqMAFRtzCUYo5tdS"`

		c, conns := seededClient(authed, "http://example.com",
			closedResponse(status.Unauthorized, "WWW-Authenticate: "+challenge+"\r\n", ""),
			closedResponse(status.OK, "", "secret"),
		)

		resp, err := c.Do(context.Background(), GET("http://example.com/dir/index.html"))
		require.NoError(t, err)
		require.Equal(t, "secret", resp.String())

		retry := string(conns[1].written)
		require.Contains(t, retry, "Authorization: Digest username=\"Mufasa\"")
		require.Contains(t, retry, "uri=\"/dir/index.html\"")
		require.Contains(t, retry, "qop=auth")
		require.Contains(t, retry, "nc=00000001")
	})

	t.Run("second challenge is not retried", func(t *testing.T) {
		authed := cfg
		authed.Auth = Credentials{Username: "user", Password: "wrong"}

		challenge := `Digest realm="api", qop="auth", nonce="abc"`

		c, _ := seededClient(authed, "http://example.com",
			closedResponse(status.Unauthorized, "WWW-Authenticate: "+challenge+"\r\n", ""),
			closedResponse(status.Unauthorized, "WWW-Authenticate: "+challenge+"\r\n", ""),
		)

		resp, err := c.Do(context.Background(), GET("http://example.com/protected"))
		require.NoError(t, err)
		require.Equal(t, status.Unauthorized, resp.Code)
	})

	t.Run("401 without challenge is surfaced", func(t *testing.T) {
		authed := cfg
		authed.Auth = Credentials{Username: "user", Password: "pass"}

		c, _ := seededClient(authed, "http://example.com",
			closedResponse(status.Unauthorized, "", ""),
		)

		resp, err := c.Do(context.Background(), GET("http://example.com/protected"))
		require.NoError(t, err)
		require.Equal(t, status.Unauthorized, resp.Code)
	})

	t.Run("unsupported challenge scheme is surfaced", func(t *testing.T) {
		authed := cfg
		authed.Auth = Credentials{Username: "user", Password: "pass"}

		c, _ := seededClient(authed, "http://example.com",
			closedResponse(status.Unauthorized, "WWW-Authenticate: Basic realm=\"api\"\r\n", ""),
		)

		resp, err := c.Do(context.Background(), GET("http://example.com/protected"))
		require.NoError(t, err)
		require.Equal(t, status.Unauthorized, resp.Code)
		require.Contains(t, resp.Header("WWW-Authenticate"), "Basic")
	})

	t.Run("proxy challenge answered via proxy headers", func(t *testing.T) {
		authed := cfg
		authed.Auth = Credentials{Username: "user", Password: "pass"}

		challenge := `Digest realm="proxy", qop="auth", nonce="abc"`

		c, conns := seededClient(authed, "http://example.com",
			closedResponse(status.ProxyAuthRequired, "Proxy-Authenticate: "+challenge+"\r\n", ""),
			closedResponse(status.OK, "", "through"),
		)

		resp, err := c.Do(context.Background(), GET("http://example.com/"))
		require.NoError(t, err)
		require.Equal(t, "through", resp.String())
		require.Contains(t, string(conns[1].written), "Proxy-Authorization: Digest username=\"user\"")
	})

	t.Run("checkout fails on saturation", func(t *testing.T) {
		failFast := cfg
		failFast.MaxConnsPerHost = 1
		failFast.Checkout = CheckoutFail

		c := NewWith(failFast)
		key := c.poolKey(GET("http://example.com").url)

		require.NoError(t, c.pool.checkout(context.Background(), key))

		_, err := c.Do(context.Background(), GET("http://example.com/"))
		require.ErrorIs(t, err, ErrPoolExhausted)

		c.pool.release(key)
	})

	t.Run("timeout on a pooled connection is not retried", func(t *testing.T) {
		conn := newScriptConn()
		conn.drainErr = transport.ErrTimeout

		c := NewWith(cfg)
		key := c.poolKey(GET("http://example.com").url)
		c.pool.put(key, newPersistConn(conn, c.codecs, cfg, false))

		_, err := c.Do(context.Background(),
			POST("http://example.com/submit").String("only once"),
		)
		require.ErrorIs(t, err, transport.ErrTimeout)
		require.Equal(t, 1, strings.Count(string(conn.written), "POST /submit"))
	})

	t.Run("truncated response on a pooled connection is not retried", func(t *testing.T) {
		conn := newScriptConn([]byte("HTTP/1.1 200 OK\r\nContent-Le"))

		c := NewWith(cfg)
		key := c.poolKey(GET("http://example.com").url)
		c.pool.put(key, newPersistConn(conn, c.codecs, cfg, false))

		_, err := c.Do(context.Background(), GET("http://example.com/partial"))
		require.ErrorIs(t, err, io.EOF)
		require.Equal(t, 1, strings.Count(string(conn.written), "GET /partial"))
	})

	t.Run("dead idle connection qualifies for a resend", func(t *testing.T) {
		c := NewWith(cfg)

		// hung up while parked: zero response bytes
		dead := newPersistConn(newScriptConn(), c.codecs, cfg, false)
		_, _, err := dead.parser.parse(false)
		require.ErrorIs(t, err, io.EOF)
		require.True(t, staleBeforeResponse(err, dead))

		// hung up mid-response: must not be resent
		truncated := newPersistConn(
			newScriptConn([]byte("HTTP/1.1 200 OK\r\n")), c.codecs, cfg, false,
		)
		_, _, err = truncated.parser.parse(false)
		require.ErrorIs(t, err, io.EOF)
		require.False(t, staleBeforeResponse(err, truncated))
	})

	t.Run("keep alive pools the connection", func(t *testing.T) {
		c := NewWith(cfg)
		conn := newScriptConn(
			[]byte("HTTP/1.1 200 OK\r\nContent-Length: 3\r\n\r\none"),
			[]byte("HTTP/1.1 200 OK\r\nContent-Length: 3\r\n\r\ntwo"),
		)

		key := c.poolKey(GET("http://example.com").url)
		c.pool.put(key, newPersistConn(conn, c.codecs, cfg, false))

		first, err := c.Do(context.Background(), GET("http://example.com/a"))
		require.NoError(t, err)
		require.Equal(t, "one", first.String())

		second, err := c.Do(context.Background(), GET("http://example.com/b"))
		require.NoError(t, err)
		require.Equal(t, "two", second.String())

		written := string(conn.written)
		require.Contains(t, written, "GET /a HTTP/1.1\r\n")
		require.Contains(t, written, "GET /b HTTP/1.1\r\n")
	})
}
