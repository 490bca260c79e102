package transport

import (
	"net"
	"sync/atomic"
	"time"
)

// Client is a duplex byte stream with bounded-timeout reads and writes. Reads go
// through an internal buffer, a piece of which is returned back; unconsumed bytes
// may be returned via Pushback and will be served by the next Read before the
// socket is touched again.
type Client interface {
	Read() ([]byte, error)
	Pushback([]byte)
	Write([]byte) (int, error)
	Conn() net.Conn
	Remote() net.Addr
	Close() error
}

type client struct {
	conn         net.Conn
	buff         []byte
	pending      []byte
	readTimeout  time.Duration
	writeTimeout time.Duration
	closed       atomic.Bool
}

func NewClient(conn net.Conn, readTimeout, writeTimeout time.Duration, buff []byte) Client {
	return &client{
		buff:         buff,
		conn:         conn,
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

// Read returns a piece of the freshly read data. No bytes within the read timeout
// results in ErrTimeout; a concurrent Close unblocks the call with ErrCanceled.
// A final fragment delivered together with an error is returned alongside it.
func (c *client) Read() ([]byte, error) {
	if len(c.pending) > 0 {
		pending := c.pending
		c.pending = nil

		return pending, nil
	}

	if err := c.conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
		return nil, c.mapErr(err)
	}

	n, err := c.conn.Read(c.buff)
	if err != nil {
		return c.buff[:n], c.mapErr(err)
	}

	return c.buff[:n], nil
}

// Pushback preserves a chunk of data from the previous read for the next one.
func (c *client) Pushback(b []byte) {
	c.pending = b
}

// Write writes the whole data into the underlying connection, bounded by the
// write timeout.
func (c *client) Write(b []byte) (int, error) {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return 0, c.mapErr(err)
	}

	n, err := c.conn.Write(b)
	if err != nil {
		return n, c.mapErr(err)
	}

	return n, nil
}

// Conn unwraps the underlying net.Conn.
func (c *client) Conn() net.Conn {
	return c.conn
}

// Remote returns the remote address of the connection.
func (c *client) Remote() net.Addr {
	return c.conn.RemoteAddr()
}

// Close closes the connection. The call is idempotent and safe to invoke from
// another goroutine: an in-flight Read or Write fails with ErrCanceled instead
// of hanging.
func (c *client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}

	return c.conn.Close()
}

func (c *client) mapErr(err error) error {
	if c.closed.Load() {
		return ErrCanceled
	}

	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return ErrTimeout
	}

	return err
}
