// Package binding resolves bound values against the data model, turning
// declarative component properties into concrete render values.
//
// Resolution precedence for a bound value is literal string, number,
// boolean, array, map, then path. Arrays and maps resolve element-wise
// and drop entries that fail to resolve. Path bindings consult the loop
// context first: a path of $<itemVar> (optionally followed by a /-prefixed
// sub-path into the item) yields the current iteration's element, and a
// path exactly equal to $<indexVar> yields its index. Context variables
// shadow only on an exact name match; $items never matches a context
// whose item variable is "item". Everything else is a plain store lookup.
package binding

import (
	"fmt"
	"strings"

	"github.com/spetersoncode/fresco"
	"github.com/spetersoncode/fresco/store"
)

const (
	defaultItemVar  = "item"
	defaultIndexVar = "index"
)

// LoopContext scopes path resolution to one iteration of a template
// expansion. ItemVar and IndexVar default to "item" and "index".
type LoopContext struct {
	Item     any
	Index    int
	ItemVar  string
	IndexVar string
}

func (c *LoopContext) itemVariable() string {
	if c.ItemVar != "" {
		return c.ItemVar
	}
	return defaultItemVar
}

func (c *LoopContext) indexVariable() string {
	if c.IndexVar != "" {
		return c.IndexVar
	}
	return defaultIndexVar
}

// Resolver resolves bound values against one store.
type Resolver struct {
	store *store.Store
}

// NewResolver creates a resolver backed by the given store.
func NewResolver(s *store.Store) *Resolver {
	return &Resolver{store: s}
}

// Resolve produces the concrete value for a bound value. The second
// result reports whether resolution succeeded; an empty bound value or
// a path that matches nothing resolves to false.
func (r *Resolver) Resolve(bound fresco.BoundValue, ctx *LoopContext) (any, bool) {
	switch bound.Kind {
	case fresco.BindingString:
		return bound.Str, true
	case fresco.BindingNumber:
		return bound.Num, true
	case fresco.BindingBool:
		return bound.Bool, true
	case fresco.BindingArray:
		out := make([]any, 0, len(bound.Arr))
		for _, item := range bound.Arr {
			if v, ok := r.Resolve(item, ctx); ok {
				out = append(out, v)
			}
		}
		return out, true
	case fresco.BindingMap:
		out := make(map[string]any, len(bound.Map))
		for key, item := range bound.Map {
			if v, ok := r.Resolve(item, ctx); ok {
				out[key] = v
			}
		}
		return out, true
	case fresco.BindingPath:
		return r.lookupPath(bound.Path, ctx)
	default:
		return nil, false
	}
}

// lookupPath resolves a path binding, checking context variables before
// falling through to the store.
func (r *Resolver) lookupPath(path string, ctx *LoopContext) (any, bool) {
	if ctx != nil && strings.HasPrefix(path, "$") {
		itemVar := "$" + ctx.itemVariable()
		indexVar := "$" + ctx.indexVariable()
		if path == indexVar {
			return ctx.Index, true
		}
		if path == itemVar {
			return ctx.Item, true
		}
		if sub, ok := strings.CutPrefix(path, itemVar+"/"); ok {
			return store.Lookup(ctx.Item, store.SplitPath("/"+sub))
		}
	}
	return r.store.Get(path)
}

// ResolveProps resolves every property except the reserved children
// entry, which belongs to ResolveChildren. Bound-value shapes resolve
// through Resolve and are dropped when unresolved; raw maps and slices
// are walked recursively so nested bindings resolve too; other raw
// values pass through unchanged.
func (r *Resolver) ResolveProps(props map[string]any, ctx *LoopContext) map[string]any {
	out := make(map[string]any, len(props))
	for key, value := range props {
		if key == "children" {
			continue
		}
		if v, ok := r.resolveValue(value, ctx); ok {
			out[key] = v
		}
	}
	return out
}

func (r *Resolver) resolveValue(value any, ctx *LoopContext) (any, bool) {
	switch v := value.(type) {
	case fresco.BoundValue:
		return r.Resolve(v, ctx)
	case *fresco.BoundValue:
		if v == nil {
			return nil, false
		}
		return r.Resolve(*v, ctx)
	case map[string]any:
		if fresco.IsBoundValue(v) {
			bound, ok := fresco.AsBoundValue(v)
			if !ok {
				return nil, false
			}
			return r.Resolve(bound, ctx)
		}
		out := make(map[string]any, len(v))
		for key, item := range v {
			if rv, ok := r.resolveValue(item, ctx); ok {
				out[key] = rv
			}
		}
		return out, true
	case []any:
		out := make([]any, 0, len(v))
		for _, item := range v {
			if rv, ok := r.resolveValue(item, ctx); ok {
				out = append(out, rv)
			}
		}
		return out, true
	default:
		return value, true
	}
}

// ResolveChildren produces the ordered child component ids for a node.
// A nil children value yields none. An explicit list is returned
// verbatim. A template looks up its bound value (context variables
// apply, so nested templates can iterate $item sub-arrays); a missing
// or non-array value yields none, and an array of n elements yields
// "<componentID>_0" through "<componentID>_<n-1>" in element order.
func (r *Resolver) ResolveChildren(children *fresco.Children, ctx *LoopContext) []string {
	if children == nil {
		return nil
	}
	if children.Template == nil {
		out := make([]string, len(children.ExplicitList))
		copy(out, children.ExplicitList)
		return out
	}
	value, ok := r.lookupPath(children.Template.DataBinding, ctx)
	if !ok {
		return nil
	}
	arr, ok := value.([]any)
	if !ok {
		return nil
	}
	ids := make([]string, len(arr))
	for i := range arr {
		ids[i] = fmt.Sprintf("%s_%d", children.Template.ComponentID, i)
	}
	return ids
}
