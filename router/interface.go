package router

import "github.com/indigo-web/ember/http"

// Router dispatches parsed requests to handlers. Implementations decide how
// a request maps to a handler; the engine only cares about getting a response
// back for every request, including the malformed ones.
type Router interface {
	// OnRequest serves an ordinary, well-formed request.
	OnRequest(request *http.Request) *http.Response
	// OnError serves protocol-level failures. The error is usually a
	// status.HTTPError carrying the code to respond with. Returning a response
	// with the special status.CloseConnection code tears the connection down
	// silently.
	OnError(request *http.Request, err error) *http.Response
}
