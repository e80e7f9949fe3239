package fresco

import "encoding/json"

// BindingKind discriminates the BoundValue union.
type BindingKind int

const (
	// BindingInvalid marks a value with no recognized variant. It always
	// resolves to no value.
	BindingInvalid BindingKind = iota
	BindingString
	BindingNumber
	BindingBool
	BindingArray
	BindingMap
	BindingPath
)

// BoundValue is a declarative binding: exactly one variant is set once
// constructed. Literal kinds take precedence over path when a wire
// payload happens to set several keys, in the order string, number,
// boolean, array, map, path.
//
// A path starting with "$name" refers to a loop-context variable rather
// than a store path; see the binding package.
type BoundValue struct {
	Kind BindingKind
	Str  string
	Num  float64
	Bool bool
	Arr  []BoundValue
	Map  map[string]BoundValue
	Path string
}

// Valid reports whether the value carries a recognized variant.
func (b BoundValue) Valid() bool { return b.Kind != BindingInvalid }

// LiteralString builds a string-literal binding.
func LiteralString(s string) BoundValue { return BoundValue{Kind: BindingString, Str: s} }

// LiteralNumber builds a number-literal binding.
func LiteralNumber(n float64) BoundValue { return BoundValue{Kind: BindingNumber, Num: n} }

// LiteralBool builds a boolean-literal binding.
func LiteralBool(v bool) BoundValue { return BoundValue{Kind: BindingBool, Bool: v} }

// LiteralArray builds an array binding whose elements resolve
// element-wise.
func LiteralArray(items ...BoundValue) BoundValue {
	return BoundValue{Kind: BindingArray, Arr: items}
}

// LiteralMap builds a map binding whose values resolve key-wise.
func LiteralMap(m map[string]BoundValue) BoundValue {
	return BoundValue{Kind: BindingMap, Map: m}
}

// PathBinding builds a store-path or loop-variable binding.
func PathBinding(path string) BoundValue { return BoundValue{Kind: BindingPath, Path: path} }

type boundValueWire struct {
	LiteralString  *string               `json:"literalString,omitempty"`
	LiteralNumber  *float64              `json:"literalNumber,omitempty"`
	LiteralBoolean *bool                 `json:"literalBoolean,omitempty"`
	LiteralArray   []BoundValue          `json:"literalArray,omitempty"`
	LiteralMap     map[string]BoundValue `json:"literalMap,omitempty"`
	Path           *string               `json:"path,omitempty"`
}

// UnmarshalJSON constructs the union, applying the variant precedence.
// A payload with no recognized key decodes to an invalid BoundValue
// rather than an error so that prop resolution can degrade to "no value".
func (b *BoundValue) UnmarshalJSON(data []byte) error {
	var wire boundValueWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return NewParseError("malformed bound value", err)
	}
	switch {
	case wire.LiteralString != nil:
		*b = LiteralString(*wire.LiteralString)
	case wire.LiteralNumber != nil:
		*b = LiteralNumber(*wire.LiteralNumber)
	case wire.LiteralBoolean != nil:
		*b = LiteralBool(*wire.LiteralBoolean)
	case wire.LiteralArray != nil:
		*b = BoundValue{Kind: BindingArray, Arr: wire.LiteralArray}
	case wire.LiteralMap != nil:
		*b = BoundValue{Kind: BindingMap, Map: wire.LiteralMap}
	case wire.Path != nil:
		*b = PathBinding(*wire.Path)
	default:
		*b = BoundValue{}
	}
	return nil
}

// MarshalJSON emits the single set variant. Invalid values marshal to an
// empty object.
func (b BoundValue) MarshalJSON() ([]byte, error) {
	switch b.Kind {
	case BindingString:
		return json.Marshal(map[string]string{"literalString": b.Str})
	case BindingNumber:
		return json.Marshal(map[string]float64{"literalNumber": b.Num})
	case BindingBool:
		return json.Marshal(map[string]bool{"literalBoolean": b.Bool})
	case BindingArray:
		arr := b.Arr
		if arr == nil {
			arr = []BoundValue{}
		}
		return json.Marshal(map[string][]BoundValue{"literalArray": arr})
	case BindingMap:
		m := b.Map
		if m == nil {
			m = map[string]BoundValue{}
		}
		return json.Marshal(map[string]map[string]BoundValue{"literalMap": m})
	case BindingPath:
		return json.Marshal(map[string]string{"path": b.Path})
	default:
		return []byte("{}"), nil
	}
}

// bindingKeys are the wire keys whose presence marks a map as a bound
// value.
var bindingKeys = []string{
	"literalString", "literalNumber", "literalBoolean",
	"literalArray", "literalMap", "path",
}

// IsBoundValue reports whether a decoded prop value is binding-shaped:
// a map carrying at least one recognized binding key. It is a structural
// check only; mistyped variants still count and later resolve to no
// value.
func IsBoundValue(v any) bool {
	m, ok := v.(map[string]any)
	if !ok {
		return false
	}
	for _, key := range bindingKeys {
		if _, ok := m[key]; ok {
			return true
		}
	}
	return false
}

// AsBoundValue converts a decoded prop value into the typed union. The
// second result is false when the value is not binding-shaped at all.
// A binding-shaped map whose winning variant is mistyped converts to an
// invalid BoundValue, which resolves to no value.
func AsBoundValue(v any) (BoundValue, bool) {
	switch v := v.(type) {
	case BoundValue:
		return v, true
	case *BoundValue:
		if v == nil {
			return BoundValue{}, false
		}
		return *v, true
	case map[string]any:
		if !IsBoundValue(v) {
			return BoundValue{}, false
		}
		return fromWireMap(v), true
	default:
		return BoundValue{}, false
	}
}

func fromWireMap(m map[string]any) BoundValue {
	if raw, ok := m["literalString"]; ok {
		if s, ok := raw.(string); ok {
			return LiteralString(s)
		}
		return BoundValue{}
	}
	if raw, ok := m["literalNumber"]; ok {
		if n, ok := asNumber(raw); ok {
			return LiteralNumber(n)
		}
		return BoundValue{}
	}
	if raw, ok := m["literalBoolean"]; ok {
		if v, ok := raw.(bool); ok {
			return LiteralBool(v)
		}
		return BoundValue{}
	}
	if raw, ok := m["literalArray"]; ok {
		items, ok := raw.([]any)
		if !ok {
			return BoundValue{}
		}
		arr := make([]BoundValue, 0, len(items))
		for _, item := range items {
			bv, ok := AsBoundValue(item)
			if !ok {
				bv = BoundValue{}
			}
			arr = append(arr, bv)
		}
		return BoundValue{Kind: BindingArray, Arr: arr}
	}
	if raw, ok := m["literalMap"]; ok {
		entries, ok := raw.(map[string]any)
		if !ok {
			return BoundValue{}
		}
		out := make(map[string]BoundValue, len(entries))
		for key, item := range entries {
			bv, ok := AsBoundValue(item)
			if !ok {
				bv = BoundValue{}
			}
			out[key] = bv
		}
		return BoundValue{Kind: BindingMap, Map: out}
	}
	if raw, ok := m["path"]; ok {
		if s, ok := raw.(string); ok {
			return PathBinding(s)
		}
		return BoundValue{}
	}
	return BoundValue{}
}

func asNumber(v any) (float64, bool) {
	switch v := v.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
