package status

// HTTPError is an error with an HTTP status code attached. Returning it from a
// handler (or the parser) makes the dispatcher respond with the corresponding
// status instead of a generic 500.
type HTTPError struct {
	Message string
	Code    Code
}

func NewError(code Code, message string) error {
	return HTTPError{
		Code:    code,
		Message: message,
	}
}

func (h HTTPError) Error() string {
	return h.Message
}

var (
	ErrCloseConnection = NewError(CloseConnection, "actively closing the connection")

	ErrBadRequest              = NewError(BadRequest, "bad request")
	ErrTooLongRequestLine      = NewError(BadRequest, "request line is too long")
	ErrTooLongStatusLine       = NewError(BadRequest, "status line is too long")
	ErrBadChunk                = NewError(BadRequest, "malformed chunk-encoded data")
	ErrAmbiguousContentLength  = NewError(BadRequest, "conflicting Content-Length values")
	ErrBadContentLength        = NewError(BadRequest, "malformed Content-Length value")
	ErrHeaderContinuation      = NewError(BadRequest, "obsolete header line folding")
	ErrNotFound                = NewError(NotFound, "not found")
	ErrInternalServerError     = NewError(InternalServerError, "internal server error")
	ErrNotImplemented          = NewError(NotImplemented, "not implemented")
	ErrMethodNotImplemented    = NewError(NotImplemented, "request method is not supported")
	ErrMethodNotAllowed        = NewError(MethodNotAllowed, "method not allowed")
	ErrBodyTooLarge            = NewError(RequestEntityTooLarge, "request body is too large")
	ErrHeaderFieldsTooLarge    = NewError(HeaderFieldsTooLarge, "too large headers section")
	ErrTooManyHeaders          = NewError(HeaderFieldsTooLarge, "too many headers")
	ErrURITooLong              = NewError(RequestURITooLong, "request URI too long")
	ErrHTTPVersionNotSupported = NewError(HTTPVersionNotSupported, "HTTP version not supported")
	ErrUnsupportedEncoding     = NewError(UnsupportedMediaType, "encoding is not supported")
	ErrRangeNotSatisfiable     = NewError(RequestedRangeNotSatisfiable, "requested range is not satisfiable")
	ErrRequestTimeout          = NewError(RequestTimeout, "request timeout")
)
