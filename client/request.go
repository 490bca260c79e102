package client

import (
	"net/url"

	"github.com/indigo-web/ember/http/form"
	"github.com/indigo-web/ember/http/method"
	"github.com/indigo-web/ember/http/mime"
	"github.com/indigo-web/ember/internal/formdata"
	"github.com/indigo-web/ember/kv"
	json "github.com/json-iterator/go"
)

// Request is an outbound request under construction. The builder methods
// accumulate state; the first encountered problem is remembered and reported
// by Do, so call chains stay clean of error checks.
type Request struct {
	method      method.Method
	url         *url.URL
	headers     *kv.Storage
	body        []byte
	contentType mime.MIME
	err         error
}

// New starts a request to the URL. The scheme must be http or https; a missing
// one defaults to http.
func New(m method.Method, rawURL string) *Request {
	request := &Request{
		method:  m,
		headers: kv.New(),
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		request.err = err
		return request
	}

	switch u.Scheme {
	case "http", "https":
	case "":
		u.Scheme = "http"
	default:
		request.err = ErrConnect
		return request
	}

	request.url = u

	return request
}

func GET(rawURL string) *Request {
	return New(method.GET, rawURL)
}

func HEAD(rawURL string) *Request {
	return New(method.HEAD, rawURL)
}

func POST(rawURL string) *Request {
	return New(method.POST, rawURL)
}

func PUT(rawURL string) *Request {
	return New(method.PUT, rawURL)
}

func DELETE(rawURL string) *Request {
	return New(method.DELETE, rawURL)
}

// Header appends header values under the key.
func (r *Request) Header(key string, values ...string) *Request {
	for _, value := range values {
		r.headers.Add(key, value)
	}

	return r
}

// ContentType overrides the Content-Type of the body.
func (r *Request) ContentType(value mime.MIME) *Request {
	r.contentType = value
	return r
}

// Bytes attaches the body as-is.
func (r *Request) Bytes(body []byte) *Request {
	r.body = body
	return r
}

// String attaches a textual body.
func (r *Request) String(body string) *Request {
	if len(r.contentType) == 0 {
		r.contentType = mime.Plain
	}

	return r.Bytes([]byte(body))
}

// JSON marshals the model into the body.
func (r *Request) JSON(model any) *Request {
	body, err := json.Marshal(model)
	if err != nil {
		r.err = err
		return r
	}

	r.contentType = mime.JSON

	return r.Bytes(body)
}

// Form attaches the form as a multipart/form-data body under a freshly
// generated boundary.
func (r *Request) Form(f form.Form) *Request {
	boundary := formdata.NewBoundary()
	r.contentType = mime.FormData + "; boundary=" + boundary

	return r.Bytes(formdata.Encode(f, boundary, nil))
}

func (r *Request) clone() *Request {
	clone := *r
	clone.headers = r.headers.Clone()

	if r.url != nil {
		u := *r.url
		clone.url = &u
	}

	return &clone
}
