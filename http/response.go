package http

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/indigo-web/ember/http/mime"
	"github.com/indigo-web/ember/http/status"
	"github.com/indigo-web/ember/internal/response"
	"github.com/indigo-web/ember/kv"
	"github.com/indigo-web/utils/strcomp"
	"github.com/indigo-web/utils/uf"
	json "github.com/json-iterator/go"
)

const preallocRespHeaders = 7

// Response is a builder over the response fields. All the methods return the
// receiver back, so calls are chainable. The instance is owned by the connection
// and re-used between exchanges.
type Response struct {
	fields response.Fields
}

// NewResponse returns a new instance of the Response object with the status code
// set to 200 OK and text/html content-type.
//
// NOTE: inside of handlers, prefer Request.Respond() instead.
func NewResponse() *Response {
	resp := &Response{
		fields: response.Fields{
			Headers: make([]kv.Pair, 0, preallocRespHeaders),
		},
	}
	resp.fields.Clear()

	return resp
}

// Code sets a response code with its standard reason phrase.
func (r *Response) Code(code status.Code) *Response {
	r.fields.Code = code
	return r
}

// Status sets a custom reason phrase. Clients generally ignore it.
func (r *Response) Status(s status.Status) *Response {
	r.fields.Status = s
	return r
}

// ContentType sets a custom Content-Type header value.
func (r *Response) ContentType(value mime.MIME) *Response {
	r.fields.ContentType = value
	return r
}

// Encoding requests a concrete content coding for the body. By default, the
// coding is negotiated against the request's Accept-Encoding.
func (r *Response) Encoding(token string) *Response {
	r.fields.ContentEncoding = token
	return r
}

// Header adds header values under the key. Already existing values are kept.
func (r *Response) Header(key string, values ...string) *Response {
	if strcomp.EqualFold(key, "content-type") {
		return r.ContentType(values[0])
	}

	for i := range values {
		r.fields.Headers = append(r.fields.Headers, kv.Pair{
			Key:   key,
			Value: values[i],
		})
	}

	return r
}

// Headers merges the passed headers into the response.
func (r *Response) Headers(headers map[string][]string) *Response {
	resp := r

	for k, v := range headers {
		resp = resp.Header(k, v...)
	}

	return resp
}

// Trailer schedules a trailing header. Trailers are transmitted only after
// chunked bodies, so setting one forces chunked framing.
func (r *Response) Trailer(key, value string) *Response {
	r.fields.Trailers = append(r.fields.Trailers, kv.Pair{Key: key, Value: value})
	return r
}

// String sets the response body to the passed string.
func (r *Response) String(body string) *Response {
	return r.Bytes(uf.S2B(body))
}

// Bytes sets the response body to the passed slice WITHOUT copying it.
func (r *Response) Bytes(body []byte) *Response {
	r.fields.Body = body
	r.fields.Stream = nil
	return r
}

// Write implements io.Writer by appending to the materialized body. It never
// fails.
func (r *Response) Write(b []byte) (n int, err error) {
	r.fields.Body = append(r.fields.Body, b...)
	return len(b), nil
}

// JSON sets the response body to the marshalled model along with the
// application/json content-type.
func (r *Response) JSON(model any) *Response {
	r.fields.Body = r.fields.Body[:0]
	stream := json.ConfigDefault.BorrowStream(r)
	stream.WriteVal(model)
	err := stream.Flush()
	json.ConfigDefault.ReturnStream(stream)
	if err != nil {
		return r.Error(status.ErrInternalServerError)
	}

	return r.ContentType(mime.JSON)
}

// Stream sets the body to a lazily produced byte sequence. Pass size=-1 when the
// length isn't known upfront, in which case the body is transmitted chunked.
// If the reader is also an io.Closer, it is closed after the transmission.
func (r *Response) Stream(reader io.Reader, size int64) *Response {
	r.fields.Body = nil
	r.fields.Stream = reader
	r.fields.StreamSize = size
	return r
}

// TryFile tries to open the file for reading and sets it as a sized stream,
// deducing the content-type by the extension.
func (r *Response) TryFile(path string) (*Response, error) {
	fd, err := os.Open(path)
	if err != nil {
		return r, status.ErrNotFound
	}

	stat, err := fd.Stat()
	if err != nil || stat.IsDir() {
		_ = fd.Close()
		return r, status.ErrNotFound
	}

	ext := strings.TrimPrefix(filepath.Ext(path), ".")

	return r.
		ContentType(mime.ByExtension(ext)).
		Stream(fd, stat.Size()), nil
}

// File serves a file, responding with 404 Not Found in case it cannot be opened.
func (r *Response) File(path string) *Response {
	resp, err := r.TryFile(path)
	if err != nil {
		return resp.Error(err)
	}

	return resp
}

// Redirect sets the Location header along with the 302 Found code.
func (r *Response) Redirect(location string) *Response {
	return r.Code(status.Found).Header("Location", location)
}

// Error sets the response according to the error. status.HTTPError values carry
// their own code, any other error results in 500 Internal Server Error. The
// error message lands in the body as plain text.
func (r *Response) Error(err error) *Response {
	if err == nil {
		return r
	}

	if http, ok := err.(status.HTTPError); ok {
		return r.
			Code(http.Code).
			ContentType(mime.Plain).
			String(http.Message)
	}

	return r.
		Code(status.InternalServerError).
		ContentType(mime.Plain).
		String(status.Text(status.InternalServerError))
}

// Expose grants access to the underlying fields. Meant for the serializer, not
// for handlers.
func (r *Response) Expose() *response.Fields {
	return &r.fields
}

// Clear brings the response builder back to its initial state.
func (r *Response) Clear() *Response {
	r.fields.Clear()
	return r
}
