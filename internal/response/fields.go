package response

import (
	"io"

	"github.com/indigo-web/ember/http/mime"
	"github.com/indigo-web/ember/http/status"
	"github.com/indigo-web/ember/kv"
)

// Fields is the raw content of a response under construction. It is a separate
// package-private-by-convention entity, so the public builder stays the only
// mutation path for handlers, while the serializer gets direct access.
type Fields struct {
	Code   status.Code
	Status status.Status
	// ContentType is kept out of Headers to avoid a linear lookup on every
	// response.
	ContentType mime.MIME
	// ContentEncoding is an explicitly requested content coding token. Empty
	// means negotiate against the request's Accept-Encoding.
	ContentEncoding string
	Headers         []kv.Pair
	Trailers        []kv.Pair
	// Body is a fully materialized body. When nil, Stream is consulted.
	Body []byte
	// Stream is a lazily produced body. StreamSize of -1 stands for unknown
	// length and results in chunked framing.
	Stream     io.Reader
	StreamSize int64
}

const DefaultContentType = mime.HTML

func (f *Fields) Clear() {
	f.Code = status.OK
	f.Status = ""
	f.ContentType = DefaultContentType
	f.ContentEncoding = ""
	f.Headers = f.Headers[:0]
	f.Trailers = f.Trailers[:0]
	f.Body = nil
	f.Stream = nil
	f.StreamSize = 0
}
