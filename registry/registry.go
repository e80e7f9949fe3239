// Package registry tracks the component types a host allows on its
// surfaces, together with optional prop schemas and opaque renderer
// handles. The engine consults it to drop disallowed components and to
// report prop violations; it never invokes the renderer handles itself.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/spetersoncode/fresco"
)

// Renderer is the host's opaque handle for drawing one component type.
// The engine carries it through to render output untouched.
type Renderer any

// PropSpec declares expectations for a single prop.
type PropSpec struct {
	// Type is one of string, number, boolean, array, object. Empty
	// means any type is acceptable.
	Type string
	// Required rejects instances that omit the prop entirely.
	Required bool
	// Enum restricts a string prop to the listed values.
	Enum []string
}

// Schema declares the props of one component type.
type Schema struct {
	Props map[string]PropSpec
}

// Registration is one allowed component type.
type Registration struct {
	Name     string
	Renderer Renderer
	Schema   *Schema
}

// Registry is a whitelist of component types. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Registration
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[string]Registration)}
}

// Register allows a component type, replacing any previous registration
// under the same name. Both renderer and schema may be nil; a nil
// schema accepts any props.
func (r *Registry) Register(name string, renderer Renderer, schema *Schema) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = Registration{Name: name, Renderer: renderer, Schema: schema}
}

// SetRenderer attaches a renderer handle to an existing registration,
// keeping its schema. It reports false when the type is not registered.
func (r *Registry) SetRenderer(name string, renderer Renderer) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[name]
	if !ok {
		return false
	}
	entry.Renderer = renderer
	r.entries[name] = entry
	return true
}

// IsAllowed reports whether the component type is registered.
func (r *Registry) IsAllowed(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]
	return ok
}

// Lookup returns the registration for a component type.
func (r *Registry) Lookup(name string) (Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[name]
	return entry, ok
}

// Types returns the registered type names in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateProps checks raw instance props against the type's schema and
// returns one message per violation. It checks required presence, the
// declared type, and enum membership for string props. Entries shaped
// like bound values are exempt from type and enum checks since their
// concrete value is only known after resolution. A type registered
// without a schema accepts anything.
func (r *Registry) ValidateProps(name string, props map[string]any) []string {
	r.mu.RLock()
	entry, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return []string{fmt.Sprintf("component type %q is not registered", name)}
	}
	if entry.Schema == nil {
		return nil
	}

	keys := make([]string, 0, len(entry.Schema.Props))
	for key := range entry.Schema.Props {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var violations []string
	for _, key := range keys {
		spec := entry.Schema.Props[key]
		value, present := props[key]
		if !present {
			if spec.Required {
				violations = append(violations, fmt.Sprintf("missing required prop %q", key))
			}
			continue
		}
		if isBinding(value) {
			continue
		}
		if spec.Type != "" && !matchesType(spec.Type, value) {
			violations = append(violations,
				fmt.Sprintf("prop %q: want %s, got %T", key, spec.Type, value))
			continue
		}
		if len(spec.Enum) > 0 {
			if s, isStr := value.(string); isStr && !contains(spec.Enum, s) {
				violations = append(violations,
					fmt.Sprintf("prop %q: value %q not in enum %v", key, s, spec.Enum))
			}
		}
	}
	return violations
}

func isBinding(value any) bool {
	switch value.(type) {
	case fresco.BoundValue, *fresco.BoundValue:
		return true
	}
	return fresco.IsBoundValue(value)
}

func matchesType(declared string, value any) bool {
	switch declared {
	case "string":
		_, ok := value.(string)
		return ok
	case "number":
		switch value.(type) {
		case float64, float32, int, int32, int64:
			return true
		}
		return false
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "array":
		_, ok := value.([]any)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	}
	// Unknown declared types fail open; catalog loading rejects them.
	return true
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
