package http1

import (
	"github.com/indigo-web/ember/config"
	"github.com/indigo-web/ember/http"
	"github.com/indigo-web/ember/http/status"
	"github.com/indigo-web/ember/internal/buffer"
	"github.com/indigo-web/ember/internal/codecutil"
	"github.com/indigo-web/ember/router"
	"github.com/indigo-web/ember/transport"
)

// Suit glues the parser, the body reader and the serializer into a serving loop
// over a single connection.
type Suit struct {
	cfg        *config.Config
	router     router.Router
	client     transport.Client
	request    *http.Request
	parser     *Parser
	body       *Body
	serializer *Serializer
	served     int
}

func New(
	cfg *config.Config,
	r router.Router,
	client transport.Client,
	request *http.Request,
	codecs *codecutil.Registry,
) *Suit {
	requestLine := buffer.New(cfg.URI.RequestLineSize.Default, cfg.URI.RequestLineSize.Maximal)
	headers := buffer.New(cfg.Headers.Space.Default, cfg.Headers.Space.Maximal)

	return &Suit{
		cfg:        cfg,
		router:     r,
		client:     client,
		request:    request,
		parser:     NewParser(cfg, request, requestLine, headers),
		body:       NewBody(client, codecs, cfg.Body),
		serializer: NewSerializer(client, cfg, codecs),
	}
}

// Serve runs the connection until it is no longer keep-alive worthy. The caller
// owns closing the underlying connection.
func (s *Suit) Serve() {
	for s.serve() {
	}
}

func (s *Suit) serve() bool {
	request := s.request
	started := false

	for {
		data, err := s.client.Read()
		switch err {
		case nil:
		case transport.ErrTimeout:
			if started {
				// the peer stalled mid-head. Let it know before hanging up
				s.respondError(status.ErrRequestTimeout)
			}

			return false
		default:
			// disconnects mid-stream deserve no response
			return false
		}

		started = started || len(data) > 0

		done, extra, err := s.parser.Parse(data)
		if err != nil {
			s.respondError(err)
			return false
		}

		if done {
			s.client.Pushback(extra)
			break
		}
	}

	if err := s.armBody(); err != nil {
		s.respondError(err)
		return false
	}

	s.served++
	keepAlive := s.keepAlive()

	response := s.invoke(request)
	if response.Expose().Code == status.CloseConnection {
		return false
	}

	if err := s.serializer.Write(request, response, keepAlive); err != nil {
		return false
	}

	// the rest of the body must leave the connection before the next head
	if err := request.Reset(); err != nil {
		return false
	}

	s.parser.Release()

	return keepAlive
}

func (s *Suit) armBody() error {
	request := s.request

	var err error
	if request.Encoding.Chunked {
		err = s.body.ResetChunked(request.Encoding.ContentEncoding)
	} else {
		err = s.body.ResetPlain(request.ContentLength, request.Encoding.ContentEncoding)
	}

	if err != nil {
		return err
	}

	if request.ContentLength > s.cfg.Body.MaxSize {
		return status.ErrBodyTooLarge
	}

	request.Body.Reset(s.body, request.Headers.Value("Content-Type"))

	return nil
}

// invoke calls the handler, containing its panics.
func (s *Suit) invoke(request *http.Request) (response *http.Response) {
	defer func() {
		if r := recover(); r != nil {
			response = s.router.OnError(request, status.ErrInternalServerError)
		}
	}()

	return s.router.OnRequest(request)
}

func (s *Suit) keepAlive() bool {
	if limit := s.cfg.HTTP.MaxRequestsPerConn; limit > 0 && s.served >= limit {
		return false
	}

	switch conn := s.request.Connection; {
	case hasToken(conn, "close"):
		return false
	case hasToken(conn, "keep-alive"):
		return true
	default:
		return s.request.Protocol.KeepAliveByDefault()
	}
}

// respondError renders an error response best-effort. The connection goes down
// right after anyway.
func (s *Suit) respondError(err error) {
	response := s.router.OnError(s.request, err)
	if response.Expose().Code == status.CloseConnection {
		return
	}

	_ = s.serializer.Write(s.request, response, false)
}
