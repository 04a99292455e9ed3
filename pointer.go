package schemaforge

import (
	"strings"

	"github.com/kaptinlin/jsonpointer"
)

// This file implements component A of the pipeline: RFC 6901 JSON Pointer escape/unescape, path
// joining, and pointer resolution against a decoded `any` value tree. Every codec path and every
// provider-compat diagnostic path is built with these helpers so pointer formatting is consistent
// across the pipeline, the extractor, and the rehydrator. Token escaping/formatting/parsing is
// delegated to jsonpointer, the same library the compiler itself uses for $ref resolution.

// EscapeSegment returns s with "~" -> "~0" and "/" -> "~1" per RFC 6901 §3.
func EscapeSegment(s string) string {
	return strings.TrimPrefix(jsonpointer.Format(s), "/")
}

// UnescapeSegment reverses EscapeSegment.
func UnescapeSegment(s string) string {
	segs := jsonpointer.Parse("/" + s)
	if len(segs) != 1 {
		return s
	}
	return segs[0]
}

// BuildPath joins parent with each segment, escaping every segment per RFC 6901. parent is
// expected to already be a well-formed pointer (e.g. "#" or "#/properties/name").
func BuildPath(parent string, segments ...string) string {
	if len(segments) == 0 {
		return parent
	}
	var b strings.Builder
	b.WriteString(parent)
	b.WriteString(jsonpointer.Format(segments...))
	return b.String()
}

// SplitPath strips the leading "#" and splits the remainder into unescaped tokens. An empty
// pointer body ("#" or "") yields a nil slice.
func SplitPath(p string) []string {
	p = strings.TrimPrefix(p, "#")
	if p == "" {
		return nil
	}
	return jsonpointer.Parse(p)
}

// ResolvePointer navigates root by the RFC 6901 pointer p, returning the leaf value or false if
// any segment fails to resolve. Numeric segments index into arrays; all other segments index into
// objects (map[string]any).
func ResolvePointer(root any, p string) (any, bool) {
	segments := SplitPath(p)
	cur := root
	for _, seg := range segments {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			idx, ok := parseArrayIndex(seg)
			if !ok || idx < 0 || idx >= len(node) {
				return nil, false
			}
			cur = node[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

func parseArrayIndex(seg string) (int, bool) {
	if seg == "" {
		return 0, false
	}
	n := 0
	for _, r := range seg {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}
