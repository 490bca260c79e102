package codecutil

import (
	"strings"

	"github.com/indigo-web/ember/codec"
	"github.com/indigo-web/ember/internal/strutil"
	"github.com/indigo-web/utils/strcomp"
)

// Registry holds the available content codings, preserving the registration
// order, which doubles as the preference order during negotiation.
type Registry struct {
	codecs []codec.Codec
}

func NewRegistry(codecs ...codec.Codec) *Registry {
	return &Registry{codecs: codecs}
}

// Get returns a codec by its coding token, nil if not registered. The identity
// token has no codec attached and also results in nil.
func (r *Registry) Get(token string) codec.Codec {
	for _, c := range r.codecs {
		if strcomp.EqualFold(c.Token(), token) {
			return c
		}
	}

	return nil
}

// Negotiate matches an Accept-Encoding value against the registered codecs,
// returning the first registered codec the peer accepts. No overlap results in
// nil, which stands for identity and is never an error.
func (r *Registry) Negotiate(acceptEncoding string) codec.Codec {
	var best codec.Codec
	bestRank := len(r.codecs)

	for len(acceptEncoding) > 0 {
		var token string
		if comma := strings.IndexByte(acceptEncoding, ','); comma != -1 {
			token, acceptEncoding = acceptEncoding[:comma], acceptEncoding[comma+1:]
		} else {
			token, acceptEncoding = acceptEncoding, ""
		}

		// quality markers are recognized syntactically yet ignored, except q=0,
		// which is an explicit prohibition.
		token, params := strutil.CutHeader(strutil.StripWS(token))
		if prohibited(params) {
			continue
		}

		token = strutil.RStripWS(token)
		for rank, c := range r.codecs {
			if rank < bestRank && strcomp.EqualFold(c.Token(), token) {
				best, bestRank = c, rank
				break
			}
		}
	}

	return best
}

// AcceptedTokens renders the Accept-Encoding value advertising every registered
// codec.
func (r *Registry) AcceptedTokens() string {
	tokens := make([]string, len(r.codecs))
	for i, c := range r.codecs {
		tokens[i] = c.Token()
	}

	return strings.Join(tokens, ", ")
}

func (r *Registry) Empty() bool {
	return len(r.codecs) == 0
}

func prohibited(params string) bool {
	disallowed := false
	strutil.WalkKV(params, ';', func(key, value string) bool {
		if key == "q" && (value == "0" || value == "0.0" || value == "0.00" || value == "0.000") {
			disallowed = true
			return false
		}

		return true
	})

	return disallowed
}
