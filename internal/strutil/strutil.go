package strutil

import "strings"

// LStripWS strips optional whitespace off the left side of the string.
func LStripWS(str string) string {
	for i := 0; i < len(str); i++ {
		switch str[i] {
		case ' ', '\t':
		default:
			return str[i:]
		}
	}

	return ""
}

// RStripWS strips optional whitespace off the right side of the string.
func RStripWS(str string) string {
	for i := len(str); i > 0; i-- {
		switch str[i-1] {
		case ' ', '\t':
		default:
			return str[:i]
		}
	}

	return ""
}

// StripWS strips optional whitespace off both sides of the string.
func StripWS(str string) string {
	return RStripWS(LStripWS(str))
}

// CutHeader splits a header value into the value itself and its parameters,
// stripping whitespace between them.
func CutHeader(header string) (value, params string) {
	sep := strings.IndexByte(header, ';')
	if sep == -1 {
		return header, ""
	}

	return header[:sep], LStripWS(header[sep+1:])
}

// CutParams behaves exactly as CutHeader, except only parameters are returned.
func CutParams(header string) (params string) {
	_, params = CutHeader(header)
	return params
}

// Unquote removes the surrounding double quotes, if any.
func Unquote(str string) string {
	if len(str) > 1 && str[0] == '"' && str[len(str)-1] == '"' {
		return str[1 : len(str)-1]
	}

	return str
}

// WalkKV iterates over a comma- or semicolon-separated list of key=value entries,
// as met in header parameters (e.g. digest challenges or media type parameters.)
func WalkKV(params string, sep byte, yield func(key, value string) bool) {
	for len(params) > 0 {
		var entry string
		if idx := indexUnquoted(params, sep); idx != -1 {
			entry, params = params[:idx], params[idx+1:]
		} else {
			entry, params = params, ""
		}

		entry = StripWS(entry)
		if len(entry) == 0 {
			continue
		}

		key, value, _ := strings.Cut(entry, "=")
		if !yield(StripWS(key), Unquote(StripWS(value))) {
			return
		}
	}
}

// indexUnquoted finds the first occurrence of c outside of double quotes.
func indexUnquoted(str string, c byte) int {
	quoted := false

	for i := 0; i < len(str); i++ {
		switch str[i] {
		case '"':
			quoted = !quoted
		case c:
			if !quoted {
				return i
			}
		}
	}

	return -1
}
