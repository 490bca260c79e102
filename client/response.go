package client

import (
	"github.com/indigo-web/ember/http/proto"
	"github.com/indigo-web/ember/http/status"
	"github.com/indigo-web/ember/kv"
	"github.com/indigo-web/utils/uf"
	json "github.com/json-iterator/go"
)

// Response is a fully received response. The body is materialized by the time
// the value is handed out, so no method here touches the network.
type Response struct {
	Protocol proto.Protocol
	Code     status.Code
	Status   string
	Headers  *kv.Storage
	body     []byte
}

// Bytes returns the response body.
func (r *Response) Bytes() []byte {
	return r.body
}

// String returns the body as a string aliasing the underlying bytes.
func (r *Response) String() string {
	return uf.B2S(r.body)
}

// JSON unmarshals the body into the model.
func (r *Response) JSON(model any) error {
	return json.Unmarshal(r.body, model)
}

// Header returns the first value of the header, an empty string if absent.
func (r *Response) Header(key string) string {
	return r.Headers.Value(key)
}

// Ok reports whether the code belongs to the 2xx class.
func (r *Response) Ok() bool {
	return r.Code >= 200 && r.Code < 300
}
