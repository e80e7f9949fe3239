package registry

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCatalogFile(t *testing.T) {
	cat, err := LoadCatalogFile("testdata/standard.yaml")
	require.NoError(t, err)

	assert.Equal(t, "standard", cat.Name)
	assert.Equal(t, "1.2.0", cat.Version.String())
	require.Contains(t, cat.Components, "Text")

	text := cat.Components["Text"]
	assert.True(t, text.Props["text"].Required)
	assert.Equal(t, []string{"body", "caption", "title"}, text.Props["variant"].Enum)
}

func TestLoadCatalogErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			"missing name",
			`version: "1.0.0"`,
			"catalog name is required",
		},
		{
			"bad version",
			"catalog: standard\nversion: \"one point two\"",
			"invalid version",
		},
		{
			"unknown prop type",
			"catalog: standard\nversion: \"1.0.0\"\ncomponents:\n  Text:\n    props:\n      text:\n        type: varchar",
			`unknown type "varchar"`,
		},
		{
			"not yaml",
			"{{{",
			"parsing catalog",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCatalog(strings.NewReader(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRegisterCatalogKeepsRenderers(t *testing.T) {
	cat, err := LoadCatalogFile("testdata/standard.yaml")
	require.NoError(t, err)

	r := New()
	r.Register("Text", "existing-handle", nil)
	r.RegisterCatalog(cat)

	assert.True(t, r.IsAllowed("Button"))
	assert.True(t, r.IsAllowed("Column"))

	reg, ok := r.Lookup("Text")
	require.True(t, ok)
	assert.Equal(t, "existing-handle", reg.Renderer)
	require.NotNil(t, reg.Schema)
	assert.True(t, reg.Schema.Props["text"].Required)
}

func TestLoadCatalogFS(t *testing.T) {
	cat, err := LoadCatalogFS(os.DirFS("testdata"), "standard.yaml")
	require.NoError(t, err)
	assert.Equal(t, "standard", cat.Name)

	_, err = LoadCatalogFS(os.DirFS("testdata"), "missing.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening catalog")
}

func TestRequireVersion(t *testing.T) {
	cat, err := LoadCatalogFile("testdata/standard.yaml")
	require.NoError(t, err)

	assert.NoError(t, cat.RequireVersion(">= 1.0.0, < 2.0.0"))

	err = cat.RequireVersion(">= 2.0.0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not satisfy")

	err = cat.RequireVersion("one point two")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid version constraint")
}

func TestShippedStandardCatalog(t *testing.T) {
	cat, err := LoadCatalogFile("../catalogs/standard.yaml")
	require.NoError(t, err)

	assert.Equal(t, "fresco.standard", cat.Name)
	for _, name := range []string{
		"Text", "Heading", "Row", "Column", "List",
		"Card", "Button", "Badge", "Divider", "Input",
	} {
		assert.Contains(t, cat.Components, name, "catalog should declare %s", name)
	}

	r := New()
	r.RegisterCatalog(cat)

	assert.Nil(t, r.ValidateProps("Heading", map[string]any{"text": "Deploy", "level": 1}))
	assert.Nil(t, r.ValidateProps("Text", map[string]any{"text": map[string]any{"path": "/title"}}))
	assert.Nil(t, r.ValidateProps("Divider", map[string]any{}))

	violations := r.ValidateProps("Badge", map[string]any{})
	require.Len(t, violations, 1)
	assert.Contains(t, violations[0], `missing required prop "text"`)
}

func TestCatalogNewerThan(t *testing.T) {
	older, err := LoadCatalog(strings.NewReader("catalog: standard\nversion: \"1.1.9\""))
	require.NoError(t, err)
	newer, err := LoadCatalog(strings.NewReader("catalog: standard\nversion: \"1.2.0\""))
	require.NoError(t, err)

	assert.True(t, newer.NewerThan(older))
	assert.False(t, older.NewerThan(newer))
	assert.False(t, newer.NewerThan(newer))
}
