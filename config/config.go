package config

import (
	"time"

	"github.com/indigo-web/ember/http/mime"
)

type (
	HeadersNumber struct {
		Default, Maximal int
	}

	HeadersSpace struct {
		Default, Maximal int
	}

	URIRequestLineSize struct {
		Default, Maximal int
	}

	NETWriteBufferSize struct {
		Default, Maximal int
	}
)

// BackpressurePolicy tells the accept loop what to do with a new connection when
// all workers are busy.
type BackpressurePolicy uint8

const (
	// Queue parks the connection in a backlog of a limited size, rejecting only
	// when the backlog is full as well.
	Queue BackpressurePolicy = iota
	// Reject closes the connection right away.
	Reject
)

type (
	URI struct {
		// RequestLineSize is a shared buffer limit for the request target. Method and
		// protocol tokens live here too, so the effective path limit is a bit lower.
		RequestLineSize URIRequestLineSize
		// VarsPrealloc preallocates seats for dynamic path captures.
		VarsPrealloc int
	}

	Headers struct {
		// Number is responsible for the headers storage size.
		// Default value is the initially allocated seats count.
		// Maximal value is the most headers allowed in a single message.
		Number HeadersNumber
		// Space limits the amount of memory occupied by the headers section of
		// a single message.
		Space HeadersSpace
		// Default headers are included into every response implicitly, unless
		// explicitly overridden.
		Default map[string]string
	}

	Body struct {
		// MaxSize limits the size of a message body. Exceeding it results in
		// 413 Request Entity Too Large.
		MaxSize int64
		// MaxChunkSize limits a single chunk of a chunk-encoded body.
		MaxChunkSize int64
		// FormEntriesPrealloc preallocates seats for decoded form parts.
		FormEntriesPrealloc int
	}

	NET struct {
		// ReadBufferSize is the size of the buffer used for a single socket read.
		ReadBufferSize int
		// ReadTimeout bounds a single read off the socket. For an idle keep-alive
		// connection this doubles as the idle timeout: no data within the bound
		// closes the connection.
		ReadTimeout time.Duration
		// WriteTimeout bounds a single write into the socket.
		WriteTimeout time.Duration
		// AcceptLoopInterruptPeriod controls how often the Accept call is interrupted
		// in order to check whether it's time to stop.
		AcceptLoopInterruptPeriod time.Duration
		// WriteBufferSize stores the serialized response before transmission.
		WriteBufferSize NETWriteBufferSize
	}

	HTTP struct {
		// MaxRequestsPerConn closes the connection after it served this many
		// exchanges, even if the peer asked to keep it alive. Zero means no limit.
		MaxRequestsPerConn int
	}

	Workers struct {
		// PoolSize limits the number of connections served simultaneously.
		PoolSize int
		// Backlog is the number of accepted connections allowed to wait for a
		// free worker under the Queue policy.
		Backlog int
		// Policy picks the backpressure behavior on saturation.
		Policy BackpressurePolicy
	}
)

// Config holds the engine settings: mainly restrictions, limitations and
// pre-allocations.
//
// Always modify defaults (returned via Default()) instead of constructing the
// struct manually, otherwise zero limits will reject everything.
type Config struct {
	URI     URI
	Headers Headers
	Body    Body
	NET     NET
	HTTP    HTTP
	Workers Workers
}

// Default returns the default config. The limits are initially well-balanced,
// yet fairly permissive.
func Default() *Config {
	return &Config{
		URI: URI{
			RequestLineSize: URIRequestLineSize{
				Default: 2 * 1024,
				Maximal: 16 * 1024,
			},
			VarsPrealloc: 5,
		},
		Headers: Headers{
			Number: HeadersNumber{
				Default: 10,
				Maximal: 100,
			},
			Space: HeadersSpace{
				Default: 1 * 1024,
				Maximal: 16 * 1024, // there might be extremely long cookies.
			},
			Default: map[string]string{
				"Server": "ember",
			},
		},
		Body: Body{
			MaxSize:             512 * 1024 * 1024,
			MaxChunkSize:        16 * 1024 * 1024,
			FormEntriesPrealloc: 8,
		},
		NET: NET{
			ReadBufferSize:            4 * 1024,
			ReadTimeout:               90 * time.Second,
			WriteTimeout:              90 * time.Second,
			AcceptLoopInterruptPeriod: 5 * time.Second,
			WriteBufferSize: NETWriteBufferSize{
				Default: 2 * 1024,
				Maximal: 64 * 1024,
			},
		},
		HTTP: HTTP{
			MaxRequestsPerConn: 0,
		},
		Workers: Workers{
			PoolSize: 1024,
			Backlog:  128,
			Policy:   Queue,
		},
	}
}

// DefaultMIME is used when a response carries a body but no explicit Content-Type.
const DefaultMIME = mime.HTML
