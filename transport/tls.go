package transport

import (
	"crypto/tls"
	"net"
)

// VerifyPolicy controls the peer certificate validation on client-side TLS.
type VerifyPolicy uint8

const (
	// VerifyRequired validates the peer certificate against the system roots.
	VerifyRequired VerifyPolicy = iota
	// VerifySkip accepts any certificate. Meant for tests and private deployments.
	VerifySkip
)

type TLS struct {
	config *tls.Config
	TCP
}

func NewTLS(certs []tls.Certificate) *TLS {
	return NewTLSConfig(&tls.Config{Certificates: certs})
}

// NewTLSConfig accepts an arbitrary TLS configuration, e.g. one resolving
// certificates dynamically.
func NewTLSConfig(config *tls.Config) *TLS {
	return &TLS{config: config}
}

func (t *TLS) Bind(addr string) error {
	tcp, err := bindTCP(addr)
	if err != nil {
		return err
	}

	l := tls.NewListener(tcp, t.config)
	t.TCP = newTCP(tlsAdapter{tcp, l})

	return nil
}

type tlsAdapter struct {
	*net.TCPListener
	tls net.Listener
}

func (t tlsAdapter) Accept() (net.Conn, error) {
	return t.tls.Accept()
}
