package fresco

import "encoding/json"

// DataValueKind discriminates the DataValue union.
type DataValueKind int

const (
	DataValueInvalid DataValueKind = iota
	DataValueString
	DataValueNumber
	DataValueBool
	DataValueMap
	DataValueArray
)

// DataEntry is one key/value pair in a data-model update. Values are a
// closed variant: scalar, a nested map of further entries, or an array of
// values.
//
//	{"key": "user", "valueMap": [{"key": "name", "valueString": "Bob"}]}
type DataEntry struct {
	Key   string
	Value DataValue
}

// DataValue is the value variant carried by a DataEntry or an array
// element.
type DataValue struct {
	Kind    DataValueKind
	Str     string
	Num     float64
	Bool    bool
	Entries []DataEntry
	Items   []DataValue
}

// StringValue builds a string scalar.
func StringValue(s string) DataValue { return DataValue{Kind: DataValueString, Str: s} }

// NumberValue builds a numeric scalar.
func NumberValue(n float64) DataValue { return DataValue{Kind: DataValueNumber, Num: n} }

// BoolValue builds a boolean scalar.
func BoolValue(v bool) DataValue { return DataValue{Kind: DataValueBool, Bool: v} }

// MapValue builds a nested map from entries.
func MapValue(entries ...DataEntry) DataValue {
	return DataValue{Kind: DataValueMap, Entries: entries}
}

// ArrayValue builds an array of values.
func ArrayValue(items ...DataValue) DataValue {
	return DataValue{Kind: DataValueArray, Items: items}
}

// StringEntry builds a string-valued entry.
func StringEntry(key, v string) DataEntry { return DataEntry{Key: key, Value: StringValue(v)} }

// NumberEntry builds a number-valued entry.
func NumberEntry(key string, v float64) DataEntry { return DataEntry{Key: key, Value: NumberValue(v)} }

// BoolEntry builds a boolean-valued entry.
func BoolEntry(key string, v bool) DataEntry { return DataEntry{Key: key, Value: BoolValue(v)} }

// MapEntry builds an entry holding a nested map.
func MapEntry(key string, entries ...DataEntry) DataEntry {
	return DataEntry{Key: key, Value: MapValue(entries...)}
}

// ArrayEntry builds an entry holding an array of values.
func ArrayEntry(key string, items ...DataValue) DataEntry {
	return DataEntry{Key: key, Value: ArrayValue(items...)}
}

// Decode materializes the concrete value: scalars as themselves, maps as
// map[string]any, arrays as []any. Invalid values decode to nil.
func (v DataValue) Decode() any {
	switch v.Kind {
	case DataValueString:
		return v.Str
	case DataValueNumber:
		return v.Num
	case DataValueBool:
		return v.Bool
	case DataValueMap:
		m := make(map[string]any, len(v.Entries))
		for _, entry := range v.Entries {
			m[entry.Key] = entry.Value.Decode()
		}
		return m
	case DataValueArray:
		items := make([]any, 0, len(v.Items))
		for _, item := range v.Items {
			items = append(items, item.Decode())
		}
		return items
	default:
		return nil
	}
}

type dataValueWire struct {
	ValueString  *string     `json:"valueString,omitempty"`
	ValueNumber  *float64    `json:"valueNumber,omitempty"`
	ValueBoolean *bool       `json:"valueBoolean,omitempty"`
	ValueMap     []DataEntry `json:"valueMap,omitempty"`
	ValueArray   []DataValue `json:"valueArray,omitempty"`
}

func (v *DataValue) fromWire(wire dataValueWire) {
	switch {
	case wire.ValueString != nil:
		*v = StringValue(*wire.ValueString)
	case wire.ValueNumber != nil:
		*v = NumberValue(*wire.ValueNumber)
	case wire.ValueBoolean != nil:
		*v = BoolValue(*wire.ValueBoolean)
	case wire.ValueMap != nil:
		*v = DataValue{Kind: DataValueMap, Entries: wire.ValueMap}
	case wire.ValueArray != nil:
		*v = DataValue{Kind: DataValueArray, Items: wire.ValueArray}
	default:
		*v = DataValue{}
	}
}

func (v DataValue) toWire() dataValueWire {
	var wire dataValueWire
	switch v.Kind {
	case DataValueString:
		wire.ValueString = &v.Str
	case DataValueNumber:
		wire.ValueNumber = &v.Num
	case DataValueBool:
		wire.ValueBoolean = &v.Bool
	case DataValueMap:
		entries := v.Entries
		if entries == nil {
			entries = []DataEntry{}
		}
		wire.ValueMap = entries
	case DataValueArray:
		items := v.Items
		if items == nil {
			items = []DataValue{}
		}
		wire.ValueArray = items
	}
	return wire
}

// UnmarshalJSON decodes a bare value variant (an array element).
func (v *DataValue) UnmarshalJSON(data []byte) error {
	var wire dataValueWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return NewParseError("malformed data value", err)
	}
	v.fromWire(wire)
	return nil
}

// MarshalJSON emits the set variant.
func (v DataValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.toWire())
}

type dataEntryWire struct {
	Key string `json:"key"`
	dataValueWire
}

// UnmarshalJSON decodes a keyed entry.
func (e *DataEntry) UnmarshalJSON(data []byte) error {
	var wire dataEntryWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return NewParseError("malformed data entry", err)
	}
	e.Key = wire.Key
	e.Value.fromWire(wire.dataValueWire)
	return nil
}

// MarshalJSON emits the key plus the set variant.
func (e DataEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(dataEntryWire{Key: e.Key, dataValueWire: e.Value.toWire()})
}
