package store

import (
	"strconv"
	"strings"
)

// NormalizePath ensures a leading slash and strips trailing slashes,
// except for the root path which stays "/". Empty input is the root.
// Normalization is idempotent.
func NormalizePath(path string) string {
	if path == "" || path == "/" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	for len(path) > 1 && strings.HasSuffix(path, "/") {
		path = path[:len(path)-1]
	}
	if path == "" {
		return "/"
	}
	return path
}

// SplitPath returns the normalized path's segments. The root path yields
// no segments.
func SplitPath(path string) []string {
	norm := NormalizePath(path)
	if norm == "/" {
		return nil
	}
	return strings.Split(norm[1:], "/")
}

// arrayIndex parses a base-10 array index segment. "-" and non-numeric
// segments are not indexes.
func arrayIndex(seg string) (int, bool) {
	if seg == "" || seg == "-" {
		return 0, false
	}
	for _, r := range seg {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	idx, err := strconv.Atoi(seg)
	if err != nil {
		return 0, false
	}
	return idx, true
}

// Lookup walks a decoded value by path segments: map keys, array
// indexes. A non-numeric segment against an array is not found. The
// binding resolver reuses this walk to drill into loop items.
func Lookup(v any, segs []string) (any, bool) {
	current := v
	for _, seg := range segs {
		switch c := current.(type) {
		case map[string]any:
			next, ok := c[seg]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			idx, ok := arrayIndex(seg)
			if !ok || idx >= len(c) {
				return nil, false
			}
			current = c[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

// setIn writes value at segs under container, creating intermediate maps
// as needed, and returns the possibly replaced container. Writing a
// non-numeric segment through an array converts that slot to an object;
// a numeric index one past the end appends, and a larger index pads the
// array with nulls.
func setIn(container any, segs []string, value any) any {
	if len(segs) == 0 {
		return value
	}
	seg := segs[0]

	switch c := container.(type) {
	case map[string]any:
		c[seg] = setIn(c[seg], segs[1:], value)
		return c
	case []any:
		if seg == "-" {
			return append(c, setIn(nil, segs[1:], value))
		}
		idx, ok := arrayIndex(seg)
		if !ok {
			fresh := map[string]any{}
			fresh[seg] = setIn(nil, segs[1:], value)
			return fresh
		}
		switch {
		case idx < len(c):
			c[idx] = setIn(c[idx], segs[1:], value)
			return c
		case idx == len(c):
			return append(c, setIn(nil, segs[1:], value))
		default:
			for len(c) < idx {
				c = append(c, nil)
			}
			return append(c, setIn(nil, segs[1:], value))
		}
	default:
		fresh := map[string]any{}
		fresh[seg] = setIn(nil, segs[1:], value)
		return fresh
	}
}

// deleteIn removes the value at segs under container and returns the
// possibly reallocated container. Missing paths are a no-op.
func deleteIn(container any, segs []string) any {
	if len(segs) == 0 {
		return container
	}
	seg := segs[0]

	switch c := container.(type) {
	case map[string]any:
		if len(segs) == 1 {
			delete(c, seg)
			return c
		}
		child, ok := c[seg]
		if !ok {
			return c
		}
		c[seg] = deleteIn(child, segs[1:])
		return c
	case []any:
		idx, ok := arrayIndex(seg)
		if !ok || idx >= len(c) {
			return c
		}
		if len(segs) == 1 {
			return append(c[:idx], c[idx+1:]...)
		}
		c[idx] = deleteIn(c[idx], segs[1:])
		return c
	default:
		return c
	}
}

// cloneValue deep-copies a JSON-shaped value so readers never alias the
// store's tree.
func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
