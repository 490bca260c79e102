package http

import (
	"io"
	"strings"

	"github.com/indigo-web/ember/config"
	"github.com/indigo-web/ember/http/form"
	"github.com/indigo-web/ember/http/mime"
	"github.com/indigo-web/ember/http/status"
	"github.com/indigo-web/ember/internal/formdata"
	"github.com/indigo-web/ember/internal/strutil"
	"github.com/indigo-web/ember/internal/urlencoded"
	"github.com/indigo-web/utils/uf"
	json "github.com/json-iterator/go"
)

// Fetcher produces the next piece of the body. The returned slice stays valid
// only until the next call. io.EOF signals the end of the body; the final piece
// may arrive along with it.
type Fetcher interface {
	Fetch() ([]byte, error)
}

// Body provides access to a message body, modelling both buffered and lazily
// streamed consumption over the same Fetcher. The entity is re-used across
// exchanges on the same connection.
type Body struct {
	fetcher     Fetcher
	contentType string
	buff        []byte
	pending     []byte
	formBuff    form.Form
	cfg         config.Body
	fetched     bool
	done        bool
}

func NewBody(cfg config.Body) *Body {
	return &Body{
		formBuff: make(form.Form, 0, cfg.FormEntriesPrealloc),
		cfg:      cfg,
		// no body until the protocol arms the entity via Reset
		done: true,
	}
}

// Reset re-arms the body over a new message. Used by the protocol code.
func (b *Body) Reset(fetcher Fetcher, contentType string) {
	b.fetcher = fetcher
	b.contentType = contentType
	b.buff = b.buff[:0]
	b.pending = nil
	b.fetched = false
	b.done = false
}

// Fetch returns the next piece of the body. The piece is valid until the next
// call. At the end of the body io.EOF is returned, possibly along with the last
// piece.
func (b *Body) Fetch() ([]byte, error) {
	if b.done {
		return nil, io.EOF
	}

	piece, err := b.fetcher.Fetch()
	if err == io.EOF {
		b.done = true
	}

	return piece, err
}

// Bytes returns the whole body at once. The call is idempotent: the body is
// read off the connection just once and buffered.
func (b *Body) Bytes() ([]byte, error) {
	if b.fetched {
		return b.buff, nil
	}

	for {
		piece, err := b.Fetch()
		b.buff = append(b.buff, piece...)

		switch err {
		case nil:
		case io.EOF:
			b.fetched = true
			return b.buff, nil
		default:
			return nil, err
		}

		if int64(len(b.buff)) > b.cfg.MaxSize {
			return nil, status.ErrBodyTooLarge
		}
	}
}

// String returns the whole body as a string, which aliases the underlying buffer.
func (b *Body) String() (string, error) {
	bytes, err := b.Bytes()
	return uf.B2S(bytes), err
}

// JSON unmarshalls the body into the model.
func (b *Body) JSON(model any) error {
	data, err := b.Bytes()
	if err != nil {
		return err
	}

	return json.Unmarshal(data, model)
}

// Read implements io.Reader over the body.
func (b *Body) Read(p []byte) (n int, err error) {
	if len(b.pending) == 0 {
		b.pending, err = b.Fetch()
		if err != nil && !(err == io.EOF && len(b.pending) > 0) {
			return 0, err
		}
	}

	n = copy(p, b.pending)
	b.pending = b.pending[n:]

	return n, nil
}

// Form parses the body as a form: either urlencoded or multipart, judging by
// the request content-type.
//
// WARNING: the returned form is invalidated by the next exchange on the
// connection.
func (b *Body) Form() (form.Form, error) {
	data, err := b.Bytes()
	if err != nil {
		return nil, err
	}

	media, params := strutil.CutHeader(b.contentType)

	switch {
	case strings.EqualFold(media, mime.URLEncoded):
		return b.urlencodedForm(data)
	case strings.EqualFold(media, mime.FormData):
		boundary := formBoundary(params)
		if len(boundary) == 0 {
			return nil, status.ErrBadRequest
		}

		return formdata.Parse(data, boundary, b.formBuff[:0])
	default:
		return nil, status.ErrUnsupportedEncoding
	}
}

// Discard reads the rest of the body off the connection and drops it. Must be
// called before the connection can serve the next request.
func (b *Body) Discard() error {
	for {
		_, err := b.Fetch()
		switch err {
		case nil:
		case io.EOF:
			return nil
		default:
			return err
		}
	}
}

func (b *Body) urlencodedForm(data []byte) (form.Form, error) {
	f := b.formBuff[:0]
	raw := uf.B2S(data)
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

		key, fresh, err := urlencoded.Decode(rawKey, buff)
		if err != nil {
			return nil, status.ErrBadRequest
		}

		value, fresh, err := urlencoded.Decode(rawValue, fresh)
		if err != nil {
			return nil, status.ErrBadRequest
		}

		buff = fresh
		f = append(f, form.Data{Name: key, Value: value})
	}

	return f, nil
}

func formBoundary(params string) (boundary string) {
	strutil.WalkKV(params, ';', func(key, value string) bool {
		if strings.EqualFold(key, "boundary") {
			boundary = value
			return false
		}

		return true
	})

	return boundary
}
