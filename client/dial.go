package client

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/indigo-web/ember/http/status"
	"github.com/indigo-web/ember/transport"
	"github.com/indigo-web/utils/uf"
)

// dial establishes a connection to the request's origin, going through the
// configured proxy if there is one. For https origins behind a proxy a CONNECT
// tunnel is set up first, then the TLS handshake runs inside of it.
func (c *Client) dial(ctx context.Context, u *url.URL) (*persistConn, error) {
	target := hostPort(u)
	dialAddr := target
	viaProxy := c.cfg.Proxy != nil

	if viaProxy {
		dialAddr = hostPort(c.cfg.Proxy)
	}

	dialer := net.Dialer{Timeout: c.cfg.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", dialAddr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrConnect, err)
	}

	isTLS := u.Scheme == "https"

	if viaProxy && isTLS {
		if err = c.tunnel(ctx, conn, target); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}

	if isTLS {
		conn, err = c.handshake(ctx, conn, u.Hostname())
		if err != nil {
			_ = conn.Close()
			return nil, err
		}
	}

	client := transport.NewClient(
		conn, c.cfg.ReadTimeout, c.cfg.WriteTimeout, make([]byte, c.cfg.ReadBufferSize),
	)

	// plaintext requests through a proxy travel over the proxy connection
	// itself and must carry the absolute target
	return newPersistConn(client, c.codecs, c.cfg, viaProxy && !isTLS), nil
}

// tunnel asks the proxy to open a raw TCP relay towards the target.
func (c *Client) tunnel(ctx context.Context, conn net.Conn, target string) error {
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return fmt.Errorf("%w: %s", ErrConnect, err)
		}

		defer func() {
			_ = conn.SetDeadline(time.Time{})
		}()
	}

	connect := "CONNECT " + target + " HTTP/1.1\r\nHost: " + target + "\r\n\r\n"
	if _, err := conn.Write(uf.S2B(connect)); err != nil {
		return fmt.Errorf("%w: %s", ErrConnect, err)
	}

	client := transport.NewClient(
		conn, c.cfg.ReadTimeout, c.cfg.WriteTimeout, make([]byte, c.cfg.ReadBufferSize),
	)
	parser := newResponseParser(client, nil, c.cfg.MaxHeadSize, 0)

	resp, _, err := parser.parse(true)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrConnect, err)
	}

	if resp.Code != status.OK {
		return fmt.Errorf("%w: proxy refused the tunnel: %d %s", ErrConnect, resp.Code, resp.Status)
	}

	return nil
}

func (c *Client) handshake(ctx context.Context, conn net.Conn, serverName string) (net.Conn, error) {
	tlsConn := tls.Client(conn, &tls.Config{
		ServerName:         serverName,
		InsecureSkipVerify: c.cfg.Verify == transport.VerifySkip,
	})

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		return conn, fmt.Errorf("%w: %s", ErrTLS, err)
	}

	return tlsConn, nil
}

// poolKey identifies an origin for connection reuse. Connections through
// different proxies must never be mixed.
func (c *Client) poolKey(u *url.URL) string {
	key := u.Scheme + "://" + hostPort(u)
	if c.cfg.Proxy != nil {
		key += " via " + hostPort(c.cfg.Proxy)
	}

	return key
}

func hostPort(u *url.URL) string {
	if len(u.Port()) > 0 {
		return u.Host
	}

	port := "80"
	if u.Scheme == "https" {
		port = "443"
	}

	return net.JoinHostPort(u.Hostname(), port)
}
