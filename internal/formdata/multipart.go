package formdata

import (
	"strings"

	"github.com/indigo-web/ember/http/form"
	"github.com/indigo-web/ember/http/status"
	"github.com/indigo-web/ember/internal/strutil"
	"github.com/indigo-web/utils/strcomp"
	"github.com/indigo-web/utils/uf"
)

// Parse decodes a multipart/form-data body into named parts. The boundary comes
// from the Content-Type parameter, without the leading dashes. Content past the
// closing boundary (the epilogue) is ignored.
func Parse(data []byte, boundary string, into form.Form) (form.Form, error) {
	body := uf.B2S(data)
	delimiter := "--" + boundary

	// everything before the first boundary is a preamble, also ignored
	begin := strings.Index(body, delimiter)
	if begin == -1 {
		return nil, status.ErrBadRequest
	}

	body = body[begin+len(delimiter):]

	for {
		if strings.HasPrefix(body, "--") {
			return into, nil
		}

		if !strings.HasPrefix(body, "\r\n") {
			return nil, status.ErrBadRequest
		}

		body = body[2:]

		hdr, rest, err := parsePartHeaders(body)
		if err != nil {
			return nil, err
		}

		if len(hdr.name) == 0 {
			return nil, status.ErrBadRequest
		}

		end := strings.Index(rest, delimiter)
		if end == -1 {
			return nil, status.ErrBadRequest
		}

		value := rest[:end]
		if !strings.HasSuffix(value, "\r\n") {
			return nil, status.ErrBadRequest
		}

		into = append(into, form.Data{
			Name:     hdr.name,
			Filename: hdr.filename,
			Type:     hdr.contentType,
			Charset:  hdr.charset,
			Value:    value[:len(value)-2],
		})

		body = rest[end+len(delimiter):]
	}
}

type partHeader struct {
	name, filename, contentType, charset string
}

func parsePartHeaders(body string) (hdr partHeader, rest string, err error) {
	for {
		line, tail, found := strings.Cut(body, "\r\n")
		if !found {
			return hdr, "", status.ErrBadRequest
		}

		body = tail
		if len(line) == 0 {
			// the blank line terminates part headers
			return hdr, body, nil
		}

		key, value, found := strings.Cut(line, ":")
		if !found {
			return hdr, "", status.ErrBadRequest
		}

		value = strutil.LStripWS(value)

		switch {
		case strcomp.EqualFold(key, "content-disposition"):
			disposition, params := strutil.CutHeader(value)
			if !strcomp.EqualFold(strutil.RStripWS(disposition), "form-data") {
				return hdr, "", status.ErrBadRequest
			}

			strutil.WalkKV(params, ';', func(key, value string) bool {
				switch {
				case strcomp.EqualFold(key, "name"):
					hdr.name = value
				case strcomp.EqualFold(key, "filename"):
					hdr.filename = value
				}

				return true
			})
		case strcomp.EqualFold(key, "content-type"):
			media, params := strutil.CutHeader(value)
			hdr.contentType = strutil.RStripWS(media)
			strutil.WalkKV(params, ';', func(key, value string) bool {
				if strcomp.EqualFold(key, "charset") {
					hdr.charset = value
					return false
				}

				return true
			})
		}
	}
}
