package http

import (
	"context"
	"net"

	"github.com/indigo-web/ember/config"
	"github.com/indigo-web/ember/http/method"
	"github.com/indigo-web/ember/http/proto"
	"github.com/indigo-web/ember/kv"
	"github.com/indigo-web/ember/transport"
)

var zeroContext = context.Background()

type (
	Headers = *kv.Storage
	Params  = *kv.Storage
	Vars    = *kv.Storage
)

// Encoding describes the body framing and coding of an inbound message.
type Encoding struct {
	// Chunked is set when the body is framed by chunked transfer encoding.
	Chunked bool
	// HasTrailer is set when the peer announced trailing headers.
	HasTrailer bool
	// ContentEncoding holds the content coding token of the body, if any.
	ContentEncoding string
}

// Request represents an HTTP request.
type Request struct {
	// Method is an enum representing the request method.
	Method method.Method
	// Path is the decoded request path, guaranteed to hold ASCII-printable
	// characters only.
	Path string
	// Params are the query parameters. They are parsed lazily via Query().
	Params Params
	// Vars are the dynamic path captures, populated by the router on match.
	Vars Vars
	// Protocol is the protocol version of the request.
	Protocol proto.Protocol
	// Headers holds non-normalized header pairs. Lookup is case-insensitive.
	Headers Headers
	// ContentLength is the value of the Content-Length header, 0 if none.
	ContentLength int64
	// Encoding describes the body framing.
	Encoding Encoding
	// Connection holds the raw Connection header value.
	Connection string
	// Remote is the address of the peer. Note that proxies in the middle make
	// it a poor way to identify a user.
	Remote net.Addr
	// Ctx is a user-managed context living as long as the connection does.
	Ctx context.Context
	// Body provides access to the message body.
	Body *Body

	rawQuery    string
	queryParsed bool
	client      transport.Client
	response    *Response
	cfg         *config.Config
}

func NewRequest(
	cfg *config.Config,
	response *Response,
	client transport.Client,
	body *Body,
	headers, params, vars *kv.Storage,
) *Request {
	return &Request{
		Method:   method.Unknown,
		Protocol: proto.HTTP11,
		Params:   params,
		Vars:     vars,
		Headers:  headers,
		Remote:   client.Remote(),
		Ctx:      zeroContext,
		Body:     body,
		client:   client,
		response: response,
		cfg:      cfg,
	}
}

// SetQuery installs a raw, still encoded query string. Used by the parser.
func (r *Request) SetQuery(raw string) {
	r.rawQuery = raw
	r.queryParsed = false
}

// Query returns parsed query parameters. The parsing happens on the first call
// and fails on malformed urlencoded sequences.
func (r *Request) Query() (Params, error) {
	if !r.queryParsed {
		if err := parseQuery(r.rawQuery, r.Params); err != nil {
			return nil, err
		}

		r.queryParsed = true
	}

	return r.Params, nil
}

// Respond returns the response builder.
//
// WARNING: the builder is cleared under the hood, so the call discards anything
// set on it before.
func (r *Request) Respond() *Response {
	return r.response.Clear()
}

// Reset brings the request entity back to the zero state in between exchanges.
// It fails only if discarding the unread body piece does.
func (r *Request) Reset() error {
	err := r.Body.Discard()

	r.Method = method.Unknown
	r.Path = ""
	r.Protocol = proto.HTTP11
	r.ContentLength = 0
	r.Encoding = Encoding{}
	r.Connection = ""
	r.rawQuery = ""
	r.queryParsed = false
	r.Headers.Clear()
	r.Params.Clear()
	r.Vars.Clear()

	return err
}

// Respond with the error is a common enough pattern to deserve a shortcut.
func Error(request *Request, err error) *Response {
	return request.Respond().Error(err)
}

// Respond produces a positive empty response.
func Respond(request *Request) *Response {
	return request.Respond()
}
