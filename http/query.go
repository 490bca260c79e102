package http

import (
	"strings"

	"github.com/indigo-web/ember/http/status"
	"github.com/indigo-web/ember/internal/urlencoded"
	"github.com/indigo-web/ember/kv"
)

// parseQuery splits a raw query string into decoded key-value pairs. Entries
// without an equals sign become keys with empty values.
func parseQuery(raw string, into *kv.Storage) error {
	var buff []byte

	for len(raw) > 0 {
		var entry string
		if amp := strings.IndexByte(raw, '&'); amp != -1 {
			entry, raw = raw[:amp], raw[amp+1:]
		} else {
			entry, raw = raw, ""
		}

		if len(entry) == 0 {
			continue
		}

		rawKey, rawValue, _ := strings.Cut(entry, "=")

		key, buf, err := urlencoded.Decode(rawKey, buff)
		if err != nil {
			return status.ErrBadRequest
		}

		value, buf, err := urlencoded.Decode(rawValue, buf)
		if err != nil {
			return status.ErrBadRequest
		}

		buff = buf
		into.Add(key, value)
	}

	return nil
}
