package http1

import (
	"net"

	"github.com/indigo-web/ember/config"
	"github.com/indigo-web/ember/http"
	"github.com/indigo-web/ember/internal/buffer"
	"github.com/indigo-web/ember/transport"
)

// scriptClient feeds pre-cut pieces of data, imitating arbitrary fragmentation
// of the inbound stream.
type scriptClient struct {
	pieces  [][]byte
	pending []byte
	written []byte
	closed  bool
}

func newScriptClient(pieces ...[]byte) *scriptClient {
	return &scriptClient{pieces: pieces}
}

func (s *scriptClient) Read() ([]byte, error) {
	if len(s.pending) > 0 {
		pending := s.pending
		s.pending = nil

		return pending, nil
	}

	if len(s.pieces) == 0 {
		return nil, transport.ErrTimeout
	}

	piece := s.pieces[0]
	s.pieces = s.pieces[1:]

	return piece, nil
}

func (s *scriptClient) Pushback(b []byte) {
	s.pending = b
}

func (s *scriptClient) Write(b []byte) (int, error) {
	s.written = append(s.written, b...)
	return len(b), nil
}

func (s *scriptClient) Conn() net.Conn {
	return nil
}

func (s *scriptClient) Remote() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 1}
}

func (s *scriptClient) Close() error {
	s.closed = true
	return nil
}

func newTestParser(cfg *config.Config, request *http.Request) *Parser {
	requestLine := buffer.New(cfg.URI.RequestLineSize.Default, cfg.URI.RequestLineSize.Maximal)
	headers := buffer.New(cfg.Headers.Space.Default, cfg.Headers.Space.Maximal)

	return NewParser(cfg, request, requestLine, headers)
}
