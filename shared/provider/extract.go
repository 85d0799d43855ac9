package provider

import (
	"regexp"
	"strconv"
	"strings"
)

var indexSegment = regexp.MustCompile(`^\d+$`)

// Extract walks a decoded JSON value along a dot-separated path.
//
// Empty segments are ignored. A purely numeric segment indexes into an array;
// against an object it is used as a plain key. A nil value, a missing key or an
// out-of-range index yields (nil, false). The leaf is returned as decoded.
func Extract(v any, path string) (any, bool) {
	cur := v
	for _, seg := range strings.Split(path, ".") {
		if seg == "" {
			continue
		}
		if cur == nil {
			return nil, false
		}
		switch node := cur.(type) {
		case []any:
			if !indexSegment.MatchString(seg) {
				return nil, false
			}
			i, err := strconv.Atoi(seg)
			if err != nil || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		case map[string]any:
			next, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = next
		default:
			return nil, false
		}
	}
	if cur == nil {
		return nil, false
	}
	return cur, true
}

// ExtractString is Extract restricted to string leaves.
func ExtractString(v any, path string) (string, bool) {
	leaf, ok := Extract(v, path)
	if !ok {
		return "", false
	}
	s, ok := leaf.(string)
	return s, ok
}
