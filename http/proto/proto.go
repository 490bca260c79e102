package proto

import "github.com/indigo-web/utils/uf"

type Protocol uint8

const (
	Unknown Protocol = iota
	HTTP10
	HTTP11
)

func (p Protocol) String() string {
	lut := [...]string{HTTP10: "HTTP/1.0", HTTP11: "HTTP/1.1"}
	if int(p) >= len(lut) {
		return ""
	}

	return lut[p]
}

// KeepAliveByDefault reports whether the protocol version defaults to persistent
// connections when no explicit Connection header is given.
func (p Protocol) KeepAliveByDefault() bool {
	return p == HTTP11
}

const tokenLength = len("HTTP/x.x")

// FromBytes parses a protocol token, e.g. HTTP/1.1. Anything outside of the
// supported versions results in Unknown.
func FromBytes(raw []byte) Protocol {
	if len(raw) != tokenLength || uf.B2S(raw[:len("HTTP/")]) != "HTTP/" || raw[6] != '.' {
		return Unknown
	}

	return Parse(raw[5]-'0', raw[7]-'0')
}

func Parse(major, minor uint8) Protocol {
	switch {
	case major == 1 && minor == 1:
		return HTTP11
	case major == 1 && minor == 0:
		return HTTP10
	default:
		return Unknown
	}
}
