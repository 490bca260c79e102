package transport

import (
	"errors"
	"net"

	"github.com/indigo-web/ember/config"
)

var (
	// ErrTimeout is reported when a read or write hasn't completed within its bound.
	ErrTimeout = errors.New("i/o timeout")
	// ErrCanceled is reported when the connection was closed by another party
	// while an operation was in flight.
	ErrCanceled = errors.New("connection closed")
)

// Transport owns a listening socket and accepts connections off it. Connection
// lifetimes past the accept are on whoever the Listen callback dispatches to.
type Transport interface {
	Bind(addr string) error
	Listen(cfg config.NET, cb func(conn net.Conn)) error
	Stop()
	Close()
}
