package client

import "errors"

var (
	// ErrConnect is reported when the TCP connection could not be established.
	ErrConnect = errors.New("unable to connect")
	// ErrTLS is reported when the connection was established, but the TLS
	// handshake over it failed.
	ErrTLS = errors.New("TLS handshake failed")
	// ErrPoolExhausted is reported under the CheckoutFail policy when every
	// connection slot of the origin is taken.
	ErrPoolExhausted = errors.New("connection pool exhausted")
	// ErrMissingLocation is reported on a redirect response without a Location
	// header.
	ErrMissingLocation = errors.New("redirect response carries no Location")
	// ErrMalformedResponse is reported when the peer's response violates the
	// protocol.
	ErrMalformedResponse = errors.New("malformed response")
)
