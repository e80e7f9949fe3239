package binding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spetersoncode/fresco"
	"github.com/spetersoncode/fresco/store"
)

func newResolver(t *testing.T, seed map[string]any) (*Resolver, *store.Store) {
	t.Helper()
	s := store.New()
	for path, value := range seed {
		s.Set(path, value)
	}
	return NewResolver(s), s
}

func TestResolveLiterals(t *testing.T) {
	r, _ := newResolver(t, nil)

	tests := []struct {
		name  string
		bound fresco.BoundValue
		want  any
	}{
		{"string", fresco.LiteralString("hello"), "hello"},
		{"number", fresco.LiteralNumber(42), float64(42)},
		{"bool", fresco.LiteralBool(true), true},
		{
			"array",
			fresco.LiteralArray(fresco.LiteralString("a"), fresco.LiteralNumber(1)),
			[]any{"a", float64(1)},
		},
		{
			"map",
			fresco.LiteralMap(map[string]fresco.BoundValue{"k": fresco.LiteralString("v")}),
			map[string]any{"k": "v"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Resolve(tt.bound, nil)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveEmptyBoundValue(t *testing.T) {
	r, _ := newResolver(t, nil)
	_, ok := r.Resolve(fresco.BoundValue{}, nil)
	assert.False(t, ok)
}

func TestResolveArrayDropsUnresolved(t *testing.T) {
	r, _ := newResolver(t, map[string]any{"/name": "ada"})

	got, ok := r.Resolve(fresco.LiteralArray(
		fresco.LiteralString("first"),
		fresco.PathBinding("/missing"),
		fresco.PathBinding("/name"),
	), nil)

	require.True(t, ok)
	assert.Equal(t, []any{"first", "ada"}, got)
}

func TestResolveMapDropsUnresolved(t *testing.T) {
	r, _ := newResolver(t, nil)

	got, ok := r.Resolve(fresco.LiteralMap(map[string]fresco.BoundValue{
		"keep": fresco.LiteralNumber(1),
		"drop": fresco.PathBinding("/absent"),
	}), nil)

	require.True(t, ok)
	assert.Equal(t, map[string]any{"keep": float64(1)}, got)
}

func TestResolvePathFromStore(t *testing.T) {
	r, _ := newResolver(t, map[string]any{
		"/user": map[string]any{"name": "ada", "age": float64(36)},
	})

	got, ok := r.Resolve(fresco.PathBinding("/user/name"), nil)
	require.True(t, ok)
	assert.Equal(t, "ada", got)

	_, ok = r.Resolve(fresco.PathBinding("/user/email"), nil)
	assert.False(t, ok)
}

func TestResolveContextItem(t *testing.T) {
	r, _ := newResolver(t, nil)
	ctx := &LoopContext{
		Item:  map[string]any{"name": "ada", "tags": []any{"a", "b"}},
		Index: 3,
	}

	t.Run("whole item", func(t *testing.T) {
		got, ok := r.Resolve(fresco.PathBinding("$item"), ctx)
		require.True(t, ok)
		assert.Equal(t, ctx.Item, got)
	})

	t.Run("sub path", func(t *testing.T) {
		got, ok := r.Resolve(fresco.PathBinding("$item/name"), ctx)
		require.True(t, ok)
		assert.Equal(t, "ada", got)
	})

	t.Run("sub path into array", func(t *testing.T) {
		got, ok := r.Resolve(fresco.PathBinding("$item/tags/1"), ctx)
		require.True(t, ok)
		assert.Equal(t, "b", got)
	})

	t.Run("missing sub path", func(t *testing.T) {
		_, ok := r.Resolve(fresco.PathBinding("$item/email"), ctx)
		assert.False(t, ok)
	})

	t.Run("index", func(t *testing.T) {
		got, ok := r.Resolve(fresco.PathBinding("$index"), ctx)
		require.True(t, ok)
		assert.Equal(t, 3, got)
	})
}

func TestResolveContextShadowsExactNameOnly(t *testing.T) {
	// $items must not partial-match an item variable named "item".
	r, _ := newResolver(t, map[string]any{"/$items": "from-store"})
	ctx := &LoopContext{Item: "ignored", Index: 0}

	got, ok := r.Resolve(fresco.PathBinding("$items"), ctx)
	require.True(t, ok)
	assert.Equal(t, "from-store", got)

	// $index followed by a sub-path is not an exact match either.
	_, ok = r.Resolve(fresco.PathBinding("$index/sub"), ctx)
	assert.False(t, ok)
}

func TestResolveCustomVariableNames(t *testing.T) {
	r, _ := newResolver(t, nil)
	ctx := &LoopContext{
		Item:     map[string]any{"label": "row"},
		Index:    7,
		ItemVar:  "row",
		IndexVar: "i",
	}

	got, ok := r.Resolve(fresco.PathBinding("$row/label"), ctx)
	require.True(t, ok)
	assert.Equal(t, "row", got)

	got, ok = r.Resolve(fresco.PathBinding("$i"), ctx)
	require.True(t, ok)
	assert.Equal(t, 7, got)

	// The defaults no longer apply once names are configured.
	_, ok = r.Resolve(fresco.PathBinding("$item"), ctx)
	assert.False(t, ok)
}

func TestResolveWithoutContextFallsToStore(t *testing.T) {
	r, _ := newResolver(t, nil)
	_, ok := r.Resolve(fresco.PathBinding("$item"), nil)
	assert.False(t, ok)
}

func TestResolveProps(t *testing.T) {
	r, _ := newResolver(t, map[string]any{"/title": "Dashboard"})

	props := map[string]any{
		"text":     map[string]any{"path": "/title"},
		"level":    map[string]any{"literalNumber": float64(2)},
		"raw":      "plain",
		"children": map[string]any{"explicitList": []any{"a"}},
		"missing":  map[string]any{"path": "/absent"},
		"nested": map[string]any{
			"inner": map[string]any{"literalString": "deep"},
			"keep":  float64(9),
		},
		"list": []any{"x", map[string]any{"path": "/title"}},
	}

	got := r.ResolveProps(props, nil)

	assert.Equal(t, "Dashboard", got["text"])
	assert.Equal(t, float64(2), got["level"])
	assert.Equal(t, "plain", got["raw"])
	assert.NotContains(t, got, "children")
	assert.NotContains(t, got, "missing")
	assert.Equal(t, map[string]any{"inner": "deep", "keep": float64(9)}, got["nested"])
	assert.Equal(t, []any{"x", "Dashboard"}, got["list"])
}

func TestResolvePropsTypedBoundValues(t *testing.T) {
	r, _ := newResolver(t, map[string]any{"/name": "ada"})

	got := r.ResolveProps(map[string]any{
		"value":   fresco.PathBinding("/name"),
		"pointer": ptr(fresco.LiteralString("lit")),
	}, nil)

	assert.Equal(t, "ada", got["value"])
	assert.Equal(t, "lit", got["pointer"])
}

func ptr[T any](v T) *T { return &v }

func TestResolveChildrenExplicit(t *testing.T) {
	r, _ := newResolver(t, nil)

	got := r.ResolveChildren(&fresco.Children{ExplicitList: []string{"a", "b"}}, nil)
	assert.Equal(t, []string{"a", "b"}, got)

	assert.Empty(t, r.ResolveChildren(nil, nil))
}

func TestResolveChildrenTemplate(t *testing.T) {
	r, _ := newResolver(t, map[string]any{
		"/rows":   []any{"r0", "r1", "r2"},
		"/scalar": "not-an-array",
	})

	tests := []struct {
		name    string
		binding string
		want    []string
	}{
		{"array", "/rows", []string{"rowTpl_0", "rowTpl_1", "rowTpl_2"}},
		{"non-array", "/scalar", nil},
		{"missing", "/absent", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.ResolveChildren(&fresco.Children{
				Template: &fresco.ChildTemplate{DataBinding: tt.binding, ComponentID: "rowTpl"},
			}, nil)
			if tt.want == nil {
				assert.Empty(t, got)
			} else {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestResolveChildrenTemplateWithContext(t *testing.T) {
	// Nested templates iterate arrays carried by the enclosing item.
	r, _ := newResolver(t, nil)
	ctx := &LoopContext{
		Item:  map[string]any{"cells": []any{1, 2}},
		Index: 0,
	}

	got := r.ResolveChildren(&fresco.Children{
		Template: &fresco.ChildTemplate{DataBinding: "$item/cells", ComponentID: "cellTpl"},
	}, ctx)

	assert.Equal(t, []string{"cellTpl_0", "cellTpl_1"}, got)
}
