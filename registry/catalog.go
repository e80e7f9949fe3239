package registry

import (
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// Catalog is a named, versioned set of component schemas loaded from a
// YAML manifest. Agents reference catalogs by name when they begin
// rendering a surface.
type Catalog struct {
	Name       string
	Version    *semver.Version
	Components map[string]*Schema
}

type catalogFile struct {
	Catalog    string                   `yaml:"catalog"`
	Version    string                   `yaml:"version"`
	Components map[string]componentSpec `yaml:"components"`
}

type componentSpec struct {
	Props map[string]propSpec `yaml:"props"`
}

type propSpec struct {
	Type     string   `yaml:"type"`
	Required bool     `yaml:"required"`
	Enum     []string `yaml:"enum"`
}

// LoadCatalog parses a catalog manifest. The version must be valid
// semver and every declared prop type must be one of string, number,
// boolean, array, object.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	if file.Catalog == "" {
		return nil, fmt.Errorf("catalog name is required")
	}
	version, err := semver.NewVersion(file.Version)
	if err != nil {
		return nil, fmt.Errorf("catalog %q: invalid version %q: %w", file.Catalog, file.Version, err)
	}

	components := make(map[string]*Schema, len(file.Components))
	for name, spec := range file.Components {
		schema := &Schema{Props: make(map[string]PropSpec, len(spec.Props))}
		for propName, p := range spec.Props {
			if p.Type != "" && !knownType(p.Type) {
				return nil, fmt.Errorf("catalog %q: component %q prop %q: unknown type %q",
					file.Catalog, name, propName, p.Type)
			}
			schema.Props[propName] = PropSpec{Type: p.Type, Required: p.Required, Enum: p.Enum}
		}
		components[name] = schema
	}
	return &Catalog{Name: file.Catalog, Version: version, Components: components}, nil
}

// LoadCatalogFile parses the catalog manifest at path.
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	defer f.Close()
	cat, err := LoadCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cat, nil
}

// LoadCatalogFS parses the catalog manifest at path inside fsys, which
// lets hosts ship embedded catalogs.
func LoadCatalogFS(fsys fs.FS, path string) (*Catalog, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	defer f.Close()
	cat, err := LoadCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cat, nil
}

// NewerThan reports whether c carries a strictly newer version than
// other. Useful when multiple manifests claim the same catalog name.
func (c *Catalog) NewerThan(other *Catalog) bool {
	return c.Version.GreaterThan(other.Version)
}

// RequireVersion checks the catalog version against a semver constraint
// such as ">= 1.2.0, < 2". Hosts that depend on catalog features call
// this before registering.
func (c *Catalog) RequireVersion(constraint string) error {
	check, err := semver.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("invalid version constraint %q: %w", constraint, err)
	}
	if !check.Check(c.Version) {
		return fmt.Errorf("catalog %q version %s does not satisfy %q", c.Name, c.Version, constraint)
	}
	return nil
}

// RegisterCatalog allows every component the catalog declares. Renderer
// handles already attached to a type of the same name are kept; schemas
// are replaced by the catalog's.
func (r *Registry) RegisterCatalog(cat *Catalog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, schema := range cat.Components {
		entry := r.entries[name]
		entry.Name = name
		entry.Schema = schema
		r.entries[name] = entry
	}
}

func knownType(t string) bool {
	switch t {
	case "string", "number", "boolean", "array", "object":
		return true
	}
	return false
}
