package fresco

import (
	"encoding/json"
	"fmt"
)

// DefaultSurfaceMessageName is the CUSTOM event name under which surface
// messages ride by default.
const DefaultSurfaceMessageName = "surfaceMessage"

// SurfaceMessage is one surface-description message: exactly one of the
// variants below. The union is closed at parse time.
type SurfaceMessage interface {
	surfaceMessage()
}

// SurfaceUpdate merges component instances into a surface's table,
// overwriting instances with matching ids.
type SurfaceUpdate struct {
	SurfaceID  string              `json:"surfaceId,omitempty"`
	Components []ComponentInstance `json:"components"`
}

// DataModelUpdate writes entries into the surface data model under an
// optional base path.
type DataModelUpdate struct {
	SurfaceID string      `json:"surfaceId,omitempty"`
	Path      string      `json:"path,omitempty"`
	Contents  []DataEntry `json:"contents"`
}

// BeginRendering supplies a surface's root component and flips it to the
// rendering state.
type BeginRendering struct {
	SurfaceID string `json:"surfaceId,omitempty"`
	Root      string `json:"root"`
	CatalogID string `json:"catalogId,omitempty"`
}

// DeleteSurface removes a surface entirely.
type DeleteSurface struct {
	SurfaceID string `json:"surfaceId,omitempty"`
}

func (*SurfaceUpdate) surfaceMessage()   {}
func (*DataModelUpdate) surfaceMessage() {}
func (*BeginRendering) surfaceMessage()  {}
func (*DeleteSurface) surfaceMessage()   {}

// surfaceVariants maps envelope keys to allocators, in a fixed order so
// error messages are stable.
var surfaceVariants = []struct {
	key   string
	alloc func() SurfaceMessage
}{
	{"surfaceUpdate", func() SurfaceMessage { return &SurfaceUpdate{} }},
	{"dataModelUpdate", func() SurfaceMessage { return &DataModelUpdate{} }},
	{"beginRendering", func() SurfaceMessage { return &BeginRendering{} }},
	{"deleteSurface", func() SurfaceMessage { return &DeleteSurface{} }},
}

// ParseSurfaceMessage decodes a surface-message envelope: one JSON object
// with exactly one variant key (surfaceUpdate, dataModelUpdate,
// beginRendering, deleteSurface). It accepts raw JSON bytes or an
// already-decoded value, which is how it is fed from a CUSTOM event's
// value. Zero or multiple variant keys is a parse error.
func ParseSurfaceMessage(v any) (SurfaceMessage, error) {
	var envelope map[string]json.RawMessage
	switch v := v.(type) {
	case nil:
		return nil, NewParseError("surface message is empty", nil)
	case []byte:
		if err := json.Unmarshal(v, &envelope); err != nil {
			return nil, NewParseError("surface message is not a JSON object", err)
		}
	case json.RawMessage:
		if err := json.Unmarshal(v, &envelope); err != nil {
			return nil, NewParseError("surface message is not a JSON object", err)
		}
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, NewParseError("surface message is not JSON-encodable", err)
		}
		if err := json.Unmarshal(data, &envelope); err != nil {
			return nil, NewParseError("surface message is not a JSON object", err)
		}
	}

	var (
		msg   SurfaceMessage
		inner json.RawMessage
		found int
	)
	for _, variant := range surfaceVariants {
		raw, ok := envelope[variant.key]
		if !ok {
			continue
		}
		found++
		msg = variant.alloc()
		inner = raw
	}
	if found == 0 {
		return nil, NewParseError("surface message has no recognized variant", nil)
	}
	if found > 1 {
		return nil, NewParseError(fmt.Sprintf("surface message has %d variants, want exactly one", found), nil)
	}
	if err := json.Unmarshal(inner, msg); err != nil {
		return nil, NewParseError("malformed surface message variant", err)
	}
	return msg, nil
}

// ComponentInstance is one addressable node in a surface's component
// table: a type tag plus a prop map that may mix raw values with bound
// values. The wire form nests props under a single-key component map:
//
//	{"id": "title", "component": {"Text": {"text": {"path": "/title"}}}}
//
// A component map with zero or multiple type keys is rejected at decode.
type ComponentInstance struct {
	ID    string
	Type  string
	Props map[string]any
}

type componentInstanceWire struct {
	ID        string                     `json:"id"`
	Component map[string]json.RawMessage `json:"component"`
}

// UnmarshalJSON decodes the wire form, enforcing the single-type-key rule.
func (c *ComponentInstance) UnmarshalJSON(data []byte) error {
	var wire componentInstanceWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return NewParseError("malformed component instance", err)
	}
	if len(wire.Component) != 1 {
		return NewParseError(fmt.Sprintf("component %q has %d type keys, want exactly one", wire.ID, len(wire.Component)), nil)
	}
	c.ID = wire.ID
	for typeName, rawProps := range wire.Component {
		c.Type = typeName
		c.Props = nil
		if len(rawProps) > 0 && string(rawProps) != "null" {
			if err := json.Unmarshal(rawProps, &c.Props); err != nil {
				return NewParseError(fmt.Sprintf("component %q has malformed props", wire.ID), err)
			}
		}
	}
	if c.Props == nil {
		c.Props = map[string]any{}
	}
	return nil
}

// MarshalJSON emits the single-key wire form.
func (c ComponentInstance) MarshalJSON() ([]byte, error) {
	props := c.Props
	if props == nil {
		props = map[string]any{}
	}
	return json.Marshal(struct {
		ID        string         `json:"id"`
		Component map[string]any `json:"component"`
	}{
		ID:        c.ID,
		Component: map[string]any{c.Type: props},
	})
}

// Children describes a component's child list: either an explicit ordered
// list of ids or a template expanded against a bound array.
type Children struct {
	ExplicitList []string
	Template     *ChildTemplate
}

// ChildTemplate repeats one component per element of the array found at
// DataBinding. The engine expands it to ids "<componentId>_<index>".
type ChildTemplate struct {
	DataBinding string `json:"dataBinding"`
	ComponentID string `json:"componentId"`
}

// ParseChildren interprets a raw "children" prop value. It returns false
// when the value has neither an explicit list nor a template, which
// callers treat as an empty child list.
func ParseChildren(v any) (*Children, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	if raw, ok := m["explicitList"]; ok {
		items, ok := raw.([]any)
		if !ok {
			return nil, false
		}
		ids := make([]string, 0, len(items))
		for _, item := range items {
			id, ok := item.(string)
			if !ok {
				return nil, false
			}
			ids = append(ids, id)
		}
		return &Children{ExplicitList: ids}, true
	}
	if raw, ok := m["template"]; ok {
		tm, ok := raw.(map[string]any)
		if !ok {
			return nil, false
		}
		binding, _ := tm["dataBinding"].(string)
		componentID, _ := tm["componentId"].(string)
		if binding == "" || componentID == "" {
			return nil, false
		}
		return &Children{Template: &ChildTemplate{DataBinding: binding, ComponentID: componentID}}, true
	}
	return nil, false
}

// ExplicitChildren builds a children prop value listing ids verbatim.
func ExplicitChildren(ids ...string) map[string]any {
	list := make([]any, len(ids))
	for i, id := range ids {
		list[i] = id
	}
	return map[string]any{"explicitList": list}
}

// TemplateChildren builds a children prop value repeating componentID per
// element of the array bound at dataBinding.
func TemplateChildren(dataBinding, componentID string) map[string]any {
	return map[string]any{"template": map[string]any{
		"dataBinding": dataBinding,
		"componentId": componentID,
	}}
}
