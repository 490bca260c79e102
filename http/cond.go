package http

import (
	"strconv"
	"strings"
	"time"

	"github.com/indigo-web/ember/http/status"
	"github.com/indigo-web/ember/internal/strutil"
)

// ResourceMeta is the resource metadata a handler supplies in order to engage
// conditional request and range support.
type ResourceMeta struct {
	ETag         string
	LastModified time.Time
}

// FormatTime renders a timestamp in the preferred HTTP date format.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC1123)
}

// NotModified evaluates the conditional headers of the request against the
// resource metadata. If-None-Match takes precedence over If-Modified-Since.
func NotModified(request *Request, meta ResourceMeta) bool {
	if inm := request.Headers.Value("if-none-match"); len(inm) > 0 {
		if len(meta.ETag) == 0 {
			return false
		}

		for _, tag := range strings.Split(inm, ",") {
			tag = strutil.StripWS(tag)
			if tag == "*" || strutil.Unquote(tag) == strutil.Unquote(meta.ETag) {
				return true
			}
		}

		return false
	}

	if ims := request.Headers.Value("if-modified-since"); len(ims) > 0 && !meta.LastModified.IsZero() {
		since, err := time.Parse(time.RFC1123, ims)
		if err != nil {
			return false
		}

		// HTTP dates have second precision
		return !meta.LastModified.Truncate(time.Second).After(since)
	}

	return false
}

// ByteRange is a half-open [Start, Start+Length) slice of a resource.
type ByteRange struct {
	Start, Length int64
}

// ParseRange evaluates the Range header against a resource of the given size.
// ok=false with a nil error means no (or ignorable) range, so the whole
// resource should be served. An unsatisfiable range results in
// status.ErrRangeNotSatisfiable, which the caller maps to a 416 response with a
// corresponding Content-Range header.
func ParseRange(header string, size int64) (r ByteRange, ok bool, err error) {
	if len(header) == 0 {
		return r, false, nil
	}

	spec, found := strings.CutPrefix(header, "bytes=")
	if !found {
		// other units are ignorable per RFC 9110
		return r, false, nil
	}

	if strings.IndexByte(spec, ',') != -1 {
		// multiple ranges are valid yet not supported, serve the whole resource
		return r, false, nil
	}

	rawStart, rawEnd, found := strings.Cut(strutil.StripWS(spec), "-")
	if !found {
		return r, false, status.ErrRangeNotSatisfiable
	}

	if len(rawStart) == 0 {
		// suffix form: last n bytes
		n, err := strconv.ParseInt(rawEnd, 10, 64)
		if err != nil || n <= 0 {
			return r, false, status.ErrRangeNotSatisfiable
		}

		if n > size {
			n = size
		}

		return ByteRange{Start: size - n, Length: n}, true, nil
	}

	start, err := strconv.ParseInt(rawStart, 10, 64)
	if err != nil || start < 0 || start >= size {
		return r, false, status.ErrRangeNotSatisfiable
	}

	end := size - 1
	if len(rawEnd) > 0 {
		end, err = strconv.ParseInt(rawEnd, 10, 64)
		if err != nil || end < start {
			return r, false, status.ErrRangeNotSatisfiable
		}

		if end > size-1 {
			end = size - 1
		}
	}

	return ByteRange{Start: start, Length: end - start + 1}, true, nil
}

// ContentRange renders the Content-Range header value for the range.
func (r ByteRange) ContentRange(size int64) string {
	return "bytes " + strconv.FormatInt(r.Start, 10) + "-" +
		strconv.FormatInt(r.Start+r.Length-1, 10) + "/" +
		strconv.FormatInt(size, 10)
}

// ContentRangeUnsatisfied renders the Content-Range header value accompanying
// a 416 response.
func ContentRangeUnsatisfied(size int64) string {
	return "bytes */" + strconv.FormatInt(size, 10)
}
