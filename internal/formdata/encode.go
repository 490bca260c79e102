package formdata

import (
	"github.com/dchest/uniuri"
	"github.com/indigo-web/ember/http/form"
)

const boundaryLength = 24

// NewBoundary generates a random boundary, long enough to make a collision with
// the payload practically impossible.
func NewBoundary() string {
	return "ember" + uniuri.NewLen(boundaryLength)
}

// Encode renders the form into multipart/form-data wire format with the given
// boundary, performing the inverse transformation of Parse.
func Encode(f form.Form, boundary string, buff []byte) []byte {
	delimiter := "--" + boundary

	for _, entry := range f {
		buff = append(buff, delimiter...)
		buff = append(buff, "\r\nContent-Disposition: form-data; name=\""...)
		buff = append(buff, entry.Name...)
		buff = append(buff, '"')

		if len(entry.Filename) > 0 {
			buff = append(buff, "; filename=\""...)
			buff = append(buff, entry.Filename...)
			buff = append(buff, '"')
		}

		buff = append(buff, "\r\n"...)

		if len(entry.Type) > 0 {
			buff = append(buff, "Content-Type: "...)
			buff = append(buff, entry.Type...)
			if len(entry.Charset) > 0 {
				buff = append(buff, "; charset="...)
				buff = append(buff, entry.Charset...)
			}
			buff = append(buff, "\r\n"...)
		}

		buff = append(buff, "\r\n"...)
		buff = append(buff, entry.Value...)
		buff = append(buff, "\r\n"...)
	}

	buff = append(buff, delimiter...)
	buff = append(buff, "--\r\n"...)

	return buff
}
