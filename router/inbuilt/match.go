package inbuilt

import (
	"fmt"
	"strings"

	"github.com/indigo-web/ember/kv"
)

type segmentKind uint8

const (
	segStatic segmentKind = iota
	segParam
	segWildcard
)

type segment struct {
	value string
	kind  segmentKind
}

type template struct {
	segments []segment
}

func parseTemplate(path string) (template, error) {
	if len(path) == 0 || path[0] != '/' {
		return template{}, fmt.Errorf("route template %q must start with a slash", path)
	}

	var t template

	for part := range splitSegments(path) {
		switch {
		case strings.HasPrefix(part, ":"):
			if len(part) == 1 {
				return template{}, fmt.Errorf("route template %q: unnamed dynamic segment", path)
			}

			t.segments = append(t.segments, segment{value: part[1:], kind: segParam})
		case strings.HasPrefix(part, "*"):
			if len(part) == 1 {
				return template{}, fmt.Errorf("route template %q: unnamed wildcard", path)
			}

			t.segments = append(t.segments, segment{value: part[1:], kind: segWildcard})
		default:
			t.segments = append(t.segments, segment{value: part, kind: segStatic})
		}
	}

	for i, seg := range t.segments {
		if seg.kind == segWildcard && i != len(t.segments)-1 {
			return template{}, fmt.Errorf("route template %q: wildcard must be the last segment", path)
		}
	}

	return t, nil
}

// match tests the path against the template, filling vars with the dynamic
// captures. On mismatch vars may be left partially filled; the caller clears
// them before the next attempt.
func (t template) match(path string, vars *kv.Storage) bool {
	if len(path) == 0 || path[0] != '/' {
		return false
	}

	rest := path

	for _, seg := range t.segments {
		if len(rest) > 0 && rest[0] == '/' {
			rest = rest[1:]
		}

		if len(rest) == 0 {
			return false
		}

		if seg.kind == segWildcard {
			vars.Add(seg.value, rest)
			return true
		}

		var part string
		if slash := strings.IndexByte(rest, '/'); slash != -1 {
			part, rest = rest[:slash], rest[slash:]
		} else {
			part, rest = rest, ""
		}

		switch seg.kind {
		case segStatic:
			if part != seg.value {
				return false
			}
		case segParam:
			vars.Add(seg.value, part)
		}
	}

	return len(rest) == 0 || rest == "/"
}

// splitSegments yields non-empty slash-separated parts of the path.
func splitSegments(path string) func(yield func(string) bool) {
	return func(yield func(string) bool) {
		for len(path) > 0 {
			var part string
			if slash := strings.IndexByte(path[1:], '/'); slash != -1 {
				part, path = path[1:slash+1], path[slash+1:]
			} else {
				part, path = path[1:], ""
			}

			if len(part) > 0 && !yield(part) {
				return
			}
		}
	}
}
