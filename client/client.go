package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/indigo-web/ember/codec"
	"github.com/indigo-web/ember/http/method"
	"github.com/indigo-web/ember/http/status"
	"github.com/indigo-web/ember/internal/codecutil"
	"github.com/indigo-web/ember/transport"
)

type Config struct {
	// DialTimeout bounds the connection establishment, the TLS handshake
	// included.
	DialTimeout time.Duration
	// ReadTimeout and WriteTimeout bound individual socket operations, not
	// whole exchanges. Use the context passed to Do for an overall deadline.
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	ReadBufferSize int
	// MaxHeadSize limits the status line and headers of a response.
	MaxHeadSize int
	// MaxBodySize limits a response body, before and after decompression.
	MaxBodySize int64
	// FollowRedirects enables automatic following of 3xx responses, up to
	// MaxRedirects hops.
	FollowRedirects bool
	MaxRedirects    int
	// Proxy routes all the traffic through an HTTP proxy. Secure origins are
	// reached over a CONNECT tunnel.
	Proxy *url.URL
	// Verify controls the certificate validation on https origins.
	Verify transport.VerifyPolicy
	// MaxConnsPerHost caps both the concurrently checked out and the idle
	// kept-alive connections per origin.
	MaxConnsPerHost int
	// Checkout picks the behavior when all the connection slots of an origin
	// are taken.
	Checkout CheckoutPolicy
	// Auth holds credentials for digest authentication. On a 401 or 407
	// carrying a digest challenge the request is transparently retried once
	// with the computed answer.
	Auth Credentials
	// Codecs are advertised via Accept-Encoding and used to decode compressed
	// response bodies.
	Codecs []codec.Codec
}

// CheckoutPolicy tells a saturated connection pool what to do with a new
// exchange.
type CheckoutPolicy uint8

const (
	// CheckoutWait blocks until a slot frees up or the context expires.
	CheckoutWait CheckoutPolicy = iota
	// CheckoutFail reports ErrPoolExhausted right away.
	CheckoutFail
)

func DefaultConfig() Config {
	return Config{
		DialTimeout:     10 * time.Second,
		ReadTimeout:     time.Minute,
		WriteTimeout:    time.Minute,
		ReadBufferSize:  16 * 1024,
		MaxHeadSize:     64 * 1024,
		MaxBodySize:     512 * 1024 * 1024,
		FollowRedirects: true,
		MaxRedirects:    5,
		MaxConnsPerHost: 8,
	}
}

// Client issues requests, reusing connections across calls. It is safe to
// share between goroutines.
type Client struct {
	cfg            Config
	pool           *connPool
	codecs         *codecutil.Registry
	acceptEncoding string
}

func New() *Client {
	return NewWith(DefaultConfig())
}

func NewWith(cfg Config) *Client {
	codecs := codecutil.NewRegistry(cfg.Codecs...)

	return &Client{
		cfg:            cfg,
		pool:           newConnPool(cfg.MaxConnsPerHost, cfg.Checkout == CheckoutWait),
		codecs:         codecs,
		acceptEncoding: codecs.AcceptedTokens(),
	}
}

// Do sends the request and reads the complete response, following redirects
// and answering digest challenges as configured.
func (c *Client) Do(ctx context.Context, request *Request) (*Response, error) {
	if request.err != nil {
		return nil, request.err
	}

	authed := false

	for hops := 0; ; {
		resp, err := c.roundTrip(ctx, request)
		if err != nil {
			return nil, err
		}

		// a 401/407 without a usable digest challenge stays an ordinary
		// response: unsuccessful, yet a perfectly valid exchange
		if isChallenge(resp.Code) && !authed && !c.cfg.Auth.empty() {
			if retry, ok := c.answerChallenge(request, resp); ok {
				request, authed = retry, true
				continue
			}
		}

		if !c.cfg.FollowRedirects || !isRedirect(resp.Code) {
			return resp, nil
		}

		// the hop cap surfaces the last redirect response instead of failing,
		// so the caller can still inspect it
		if hops++; hops > c.cfg.MaxRedirects {
			return resp, nil
		}

		request, err = redirected(request, resp)
		if err != nil {
			return nil, err
		}
	}
}

// roundTrip performs a single exchange over a pooled or fresh connection. An
// idle pooled connection found dead before the peer could have processed the
// request is replaced with a fresh one and the send repeats once; any other
// failure is surfaced, since the origin may have already acted on the request.
func (c *Client) roundTrip(ctx context.Context, request *Request) (*Response, error) {
	key := c.poolKey(request.url)

	if err := c.pool.checkout(ctx, key); err != nil {
		return nil, err
	}
	defer c.pool.release(key)

	if conn := c.pool.get(key); conn != nil {
		resp, err := c.exchange(conn, request)
		if err == nil {
			return resp, nil
		}

		conn.Close()

		if !staleBeforeResponse(err, conn) {
			return nil, err
		}
	}

	conn, err := c.dial(ctx, request.url)
	if err != nil {
		return nil, err
	}

	resp, err := c.exchange(conn, request)
	if err != nil {
		conn.Close()
		return nil, err
	}

	return resp, nil
}

func (c *Client) exchange(conn *persistConn, request *Request) (*Response, error) {
	head := render(nil, request, conn.proxied, c.acceptEncoding)

	if _, err := conn.client.Write(head); err != nil {
		return nil, fmt.Errorf("%w: %s", errWriteFailed, err)
	}

	resp, reusable, err := conn.parser.parse(request.method == method.HEAD)
	if err != nil {
		return nil, err
	}

	if reusable {
		c.pool.put(c.poolKey(request.url), conn)
	} else {
		conn.Close()
	}

	return resp, nil
}

// answerChallenge builds the retry carrying the digest answer. A 407 comes
// from the proxy and uses the proxy pair of the auth headers.
func (c *Client) answerChallenge(request *Request, resp *Response) (*Request, bool) {
	challengeHeader, answerHeader := "WWW-Authenticate", "Authorization"
	if resp.Code == status.ProxyAuthRequired {
		challengeHeader, answerHeader = "Proxy-Authenticate", "Proxy-Authorization"
	}

	ch, ok := parseDigestChallenge(resp.Headers.Value(challengeHeader))
	if !ok {
		return nil, false
	}

	uri := requestTarget(request.url)
	header, ok := answerDigest(ch, c.cfg.Auth, request.method.String(), uri, newCnonce(), 1)
	if !ok {
		return nil, false
	}

	retry := request.clone()
	retry.headers.Add(answerHeader, header)

	return retry, true
}

// Close tears the idle connections down. In-flight exchanges are unaffected.
func (c *Client) Close() {
	c.pool.closeAll()
}

// errWriteFailed marks a send that failed outright, before the peer could have
// seen the request.
var errWriteFailed = errors.New("send failed")

// staleBeforeResponse reports whether a pooled connection failed in a way
// proving the peer dropped it while idle: the send itself failing, or the
// stream closing with not a single response byte. Only these are safe to
// repeat; a timeout or a malformed response after a successful send could
// mean the origin acted on the request.
func staleBeforeResponse(err error, conn *persistConn) bool {
	if errors.Is(err, errWriteFailed) {
		return true
	}

	closed := errors.Is(err, io.EOF) || errors.Is(err, transport.ErrCanceled)

	return closed && !conn.parser.sawResponse()
}

func isChallenge(code status.Code) bool {
	return code == status.Unauthorized || code == status.ProxyAuthRequired
}

func isRedirect(code status.Code) bool {
	switch code {
	case status.MovedPermanently, status.Found, status.SeeOther,
		status.TemporaryRedirect, status.PermanentRedirect:
		return true
	default:
		return false
	}
}

// redirected derives the next request of a redirect chain. See Other demotes
// the method to GET and drops the body, and so do 301 and 302 on a POST, as
// user agents have historically done; 307 and 308 preserve the request as-is.
func redirected(request *Request, resp *Response) (*Request, error) {
	location := resp.Headers.Value("Location")
	if len(location) == 0 {
		return nil, ErrMissingLocation
	}

	target, err := request.url.Parse(location)
	if err != nil {
		return nil, ErrMissingLocation
	}

	switch target.Scheme {
	case "http", "https":
	default:
		return nil, ErrMissingLocation
	}

	next := request.clone()
	next.url = target

	if demotesToGET(resp.Code, request.method) {
		next.method = method.GET
		next.body = nil
		next.contentType = ""
	}

	return next, nil
}

func demotesToGET(code status.Code, m method.Method) bool {
	switch code {
	case status.SeeOther:
		return m != method.HEAD
	case status.MovedPermanently, status.Found:
		return m == method.POST
	default:
		return false
	}
}
