package patch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/gowebpki/jcs"
)

// parsePointer splits an RFC 6901 JSON Pointer into unescaped segments.
// The empty pointer addresses the document root and yields no segments.
func parsePointer(pointer string) ([]string, error) {
	if pointer == "" {
		return nil, nil
	}
	if !strings.HasPrefix(pointer, "/") {
		return nil, fmt.Errorf("pointer %q must start with /", pointer)
	}
	raw := strings.Split(pointer[1:], "/")
	segs := make([]string, len(raw))
	for i, s := range raw {
		s = strings.ReplaceAll(s, "~1", "/")
		s = strings.ReplaceAll(s, "~0", "~")
		segs[i] = s
	}
	return segs, nil
}

// arrayIndex parses a strict base-10 array index. "-" is handled by the
// caller where appending is legal.
func arrayIndex(seg string, length int) (int, error) {
	if seg == "" {
		return 0, fmt.Errorf("empty array index")
	}
	for _, r := range seg {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("invalid array index %q", seg)
		}
	}
	idx, err := strconv.Atoi(seg)
	if err != nil {
		return 0, fmt.Errorf("invalid array index %q", seg)
	}
	if idx >= length {
		return 0, fmt.Errorf("array index %d out of range (len %d)", idx, length)
	}
	return idx, nil
}

// getAt walks segs from container and returns the addressed value.
func getAt(container any, segs []string) (any, error) {
	current := container
	for _, seg := range segs {
		switch c := current.(type) {
		case map[string]any:
			v, ok := c[seg]
			if !ok {
				return nil, fmt.Errorf("key %q not found", seg)
			}
			current = v
		case []any:
			idx, err := arrayIndex(seg, len(c))
			if err != nil {
				return nil, err
			}
			current = c[idx]
		default:
			return nil, fmt.Errorf("segment %q addresses a non-container", seg)
		}
	}
	return current, nil
}

// addAt inserts value at segs within container and returns the possibly
// reallocated container. Intermediate segments must already exist; array
// insertion shifts subsequent elements right and "-" appends.
func addAt(container any, segs []string, value any) (any, error) {
	last := segs[0]
	if len(segs) == 1 {
		switch c := container.(type) {
		case map[string]any:
			c[last] = value
			return c, nil
		case []any:
			if last == "-" {
				return append(c, value), nil
			}
			idx, err := arrayIndex(last, len(c)+1)
			if err != nil {
				return nil, err
			}
			c = append(c, nil)
			copy(c[idx+1:], c[idx:])
			c[idx] = value
			return c, nil
		default:
			return nil, fmt.Errorf("segment %q addresses a non-container", last)
		}
	}

	switch c := container.(type) {
	case map[string]any:
		child, ok := c[last]
		if !ok {
			return nil, fmt.Errorf("key %q not found", last)
		}
		newChild, err := addAt(child, segs[1:], value)
		if err != nil {
			return nil, err
		}
		c[last] = newChild
		return c, nil
	case []any:
		idx, err := arrayIndex(last, len(c))
		if err != nil {
			return nil, err
		}
		newChild, err := addAt(c[idx], segs[1:], value)
		if err != nil {
			return nil, err
		}
		c[idx] = newChild
		return c, nil
	default:
		return nil, fmt.Errorf("segment %q addresses a non-container", last)
	}
}

// removeAt deletes the value at segs within container and returns the
// possibly reallocated container. Array removal shifts subsequent
// elements left.
func removeAt(container any, segs []string) (any, error) {
	last := segs[0]
	if len(segs) == 1 {
		switch c := container.(type) {
		case map[string]any:
			if _, ok := c[last]; !ok {
				return nil, fmt.Errorf("key %q not found", last)
			}
			delete(c, last)
			return c, nil
		case []any:
			idx, err := arrayIndex(last, len(c))
			if err != nil {
				return nil, err
			}
			return append(c[:idx], c[idx+1:]...), nil
		default:
			return nil, fmt.Errorf("segment %q addresses a non-container", last)
		}
	}

	switch c := container.(type) {
	case map[string]any:
		child, ok := c[last]
		if !ok {
			return nil, fmt.Errorf("key %q not found", last)
		}
		newChild, err := removeAt(child, segs[1:])
		if err != nil {
			return nil, err
		}
		c[last] = newChild
		return c, nil
	case []any:
		idx, err := arrayIndex(last, len(c))
		if err != nil {
			return nil, err
		}
		newChild, err := removeAt(c[idx], segs[1:])
		if err != nil {
			return nil, err
		}
		c[idx] = newChild
		return c, nil
	default:
		return nil, fmt.Errorf("segment %q addresses a non-container", last)
	}
}

// clone deep-copies a JSON-shaped value. Scalars are returned as is.
func clone(v any) any {
	switch v := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = clone(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = clone(item)
		}
		return out
	default:
		return v
	}
}

// Clone deep-copies a document. Nil yields an empty document.
func Clone(doc map[string]any) map[string]any {
	return cloneMap(doc)
}

func cloneMap(doc map[string]any) map[string]any {
	if doc == nil {
		return map[string]any{}
	}
	return clone(doc).(map[string]any)
}

// deepEqual compares two JSON-shaped values by their RFC 8785 canonical
// encoding, which makes numeric representation differences (int vs
// float64 from different producers) compare equal. Values that cannot be
// canonicalized fall back to reflect.DeepEqual.
func deepEqual(a, b any) bool {
	ca, errA := canonicalJSON(a)
	cb, errB := canonicalJSON(b)
	if errA != nil || errB != nil {
		return reflect.DeepEqual(a, b)
	}
	return bytes.Equal(ca, cb)
}

func canonicalJSON(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jcs.Transform(data)
}
