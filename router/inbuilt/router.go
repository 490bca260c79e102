package inbuilt

import (
	"errors"
	"slices"
	"strings"

	"github.com/indigo-web/ember/http"
	"github.com/indigo-web/ember/http/method"
	"github.com/indigo-web/ember/http/mime"
	"github.com/indigo-web/ember/http/proto"
	"github.com/indigo-web/ember/http/status"
	"github.com/indigo-web/ember/router"
)

// Handler serves a single request.
type Handler func(request *http.Request) *http.Response

// Middleware wraps a handler. It decides itself whether to call next at all.
type Middleware func(next Handler, request *http.Request) *http.Response

// Router is the default requests dispatcher. Routes are matched in the
// registration order, the first one wins. Path templates may contain dynamic
// segments (":name", a single path segment) and a trailing wildcard ("*name",
// the whole rest of the path), both captured into request.Vars.
type Router struct {
	base        *registry
	prefix      string
	middlewares []Middleware
}

type registry struct {
	routes        []route
	errorHandlers map[status.Code]Handler
}

type route struct {
	method   method.Method
	template template
	handler  Handler
}

func New() *Router {
	return &Router{
		base: &registry{errorHandlers: make(map[status.Code]Handler)},
	}
}

// Group returns a sub-router with the prefix prepended to every route it
// registers. Middlewares attached so far are inherited; ones attached later
// are not.
func (r *Router) Group(prefix string) *Router {
	return &Router{
		base:        r.base,
		prefix:      r.prefix + prefix,
		middlewares: slices.Clone(r.middlewares),
	}
}

// Use attaches middlewares to all the routes registered after the call. They
// run in the attachment order, outermost first.
func (r *Router) Use(middlewares ...Middleware) *Router {
	r.middlewares = append(r.middlewares, middlewares...)
	return r
}

// Route registers a handler for the method and path template. Malformed
// templates panic, as they are programmer errors caught at startup.
func (r *Router) Route(m method.Method, path string, handler Handler) *Router {
	tmpl, err := parseTemplate(r.prefix + path)
	if err != nil {
		panic(err)
	}

	r.base.routes = append(r.base.routes, route{
		method:   m,
		template: tmpl,
		handler:  compose(handler, r.middlewares),
	})

	return r
}

func (r *Router) Get(path string, handler Handler) *Router {
	return r.Route(method.GET, path, handler)
}

func (r *Router) Head(path string, handler Handler) *Router {
	return r.Route(method.HEAD, path, handler)
}

func (r *Router) Post(path string, handler Handler) *Router {
	return r.Route(method.POST, path, handler)
}

func (r *Router) Put(path string, handler Handler) *Router {
	return r.Route(method.PUT, path, handler)
}

func (r *Router) Delete(path string, handler Handler) *Router {
	return r.Route(method.DELETE, path, handler)
}

func (r *Router) Connect(path string, handler Handler) *Router {
	return r.Route(method.CONNECT, path, handler)
}

func (r *Router) Options(path string, handler Handler) *Router {
	return r.Route(method.OPTIONS, path, handler)
}

func (r *Router) Trace(path string, handler Handler) *Router {
	return r.Route(method.TRACE, path, handler)
}

func (r *Router) Patch(path string, handler Handler) *Router {
	return r.Route(method.PATCH, path, handler)
}

// Static serves files from the root directory under the prefix. Conditional
// requests and single byte ranges are honored.
func (r *Router) Static(prefix, root string) *Router {
	return r.Get(prefix+"/*static_path", FS(root))
}

// RouteError overrides the response to protocol-level errors carrying the
// code. The handler receives the request in whatever (possibly partial) state
// the parsing left it.
func (r *Router) RouteError(code status.Code, handler Handler) *Router {
	r.base.errorHandlers[code] = handler
	return r
}

func (r *Router) OnRequest(request *http.Request) *http.Response {
	var allowed []method.Method

	for _, rt := range r.base.routes {
		request.Vars.Clear()
		if !rt.template.match(request.Path, request.Vars) {
			continue
		}

		if rt.method == request.Method || (request.Method == method.HEAD && rt.method == method.GET) {
			return rt.handler(request)
		}

		if !slices.Contains(allowed, rt.method) {
			allowed = append(allowed, rt.method)
		}
	}

	request.Vars.Clear()

	if len(allowed) > 0 {
		return request.Respond().
			Code(status.MethodNotAllowed).
			Header("Allow", joinMethods(allowed))
	}

	if request.Method == method.TRACE {
		return traceback(request)
	}

	return r.OnError(request, status.ErrNotFound)
}

func (r *Router) OnError(request *http.Request, err error) *http.Response {
	var httpErr status.HTTPError
	if errors.As(err, &httpErr) {
		if handler, found := r.base.errorHandlers[httpErr.Code]; found {
			return handler(request)
		}
	}

	return request.Respond().Error(err)
}

func compose(handler Handler, middlewares []Middleware) Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		m, next := middlewares[i], handler
		handler = func(request *http.Request) *http.Response {
			return m(next, request)
		}
	}

	return handler
}

func joinMethods(methods []method.Method) string {
	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = m.String()
	}

	return strings.Join(names, ", ")
}

// traceback echoes the received request head back, as TRACE prescribes.
func traceback(request *http.Request) *http.Response {
	var b strings.Builder
	b.WriteString(method.TRACE.String())
	b.WriteByte(' ')
	b.WriteString(request.Path)
	b.WriteByte(' ')

	p := request.Protocol
	if p == proto.Unknown {
		p = proto.HTTP11
	}

	b.WriteString(p.String())
	b.WriteString("\r\n")

	for key, value := range request.Headers.Iter() {
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString("\r\n")
	}

	b.WriteString("\r\n")

	return request.Respond().
		ContentType(mime.HTTP).
		String(b.String())
}

var _ router.Router = (*Router)(nil)
