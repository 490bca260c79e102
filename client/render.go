package client

import (
	"net/url"
	"strconv"

	"github.com/indigo-web/ember/http/method"
	"github.com/indigo-web/ember/kv"
	"github.com/indigo-web/utils/strcomp"
)

// render serializes the request head and body into buff. With absoluteForm the
// full URL lands in the request target, as HTTP proxies expect.
func render(buff []byte, request *Request, absoluteForm bool, acceptEncoding string) []byte {
	u := request.url

	buff = append(buff, request.method.String()...)
	buff = append(buff, ' ')

	if absoluteForm {
		buff = append(buff, u.Scheme...)
		buff = append(buff, "://"...)
		buff = append(buff, u.Host...)
	}

	buff = append(buff, requestTarget(u)...)
	buff = append(buff, " HTTP/1.1\r\n"...)

	if !hasHeader(request.headers, "Host") {
		buff = appendHeaderLine(buff, "Host", u.Host)
	}

	for _, pair := range request.headers.Expose() {
		buff = appendHeaderLine(buff, pair.Key, pair.Value)
	}

	if len(acceptEncoding) > 0 && !hasHeader(request.headers, "Accept-Encoding") {
		buff = appendHeaderLine(buff, "Accept-Encoding", acceptEncoding)
	}

	if len(request.contentType) > 0 {
		buff = appendHeaderLine(buff, "Content-Type", request.contentType)
	}

	if len(request.body) > 0 || bodyExpected(request.method) {
		buff = appendHeaderLine(buff, "Content-Length", strconv.Itoa(len(request.body)))
	}

	buff = append(buff, '\r', '\n')
	buff = append(buff, request.body...)

	return buff
}

// requestTarget renders the origin-form target of the URL.
func requestTarget(u *url.URL) string {
	target := u.EscapedPath()
	if len(target) == 0 {
		target = "/"
	}

	if len(u.RawQuery) > 0 {
		target += "?" + u.RawQuery
	}

	return target
}

func appendHeaderLine(buff []byte, key, value string) []byte {
	buff = append(buff, key...)
	buff = append(buff, ':', ' ')
	buff = append(buff, value...)
	buff = append(buff, '\r', '\n')

	return buff
}

func hasHeader(headers *kv.Storage, key string) bool {
	for _, pair := range headers.Expose() {
		if strcomp.EqualFold(pair.Key, key) {
			return true
		}
	}

	return false
}

func bodyExpected(m method.Method) bool {
	switch m {
	case method.POST, method.PUT, method.PATCH:
		return true
	default:
		return false
	}
}
