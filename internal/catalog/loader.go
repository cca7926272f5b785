package catalog

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/mod/semver"
)

//go:embed data
var embedded embed.FS

const (
	manifestFile = "manifest.json"
	schemaFile   = "schema/module.schema.json"
	modulesGlob  = "modules/*.json"
	schemaURL    = "schema://genlearn/module.schema.json"
)

// Manifest describes a catalog bundle.
type Manifest struct {
	Version string `json:"version"`
	Title   string `json:"title"`
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the catalog embedded in the binary. It panics if the
// embedded data is invalid, which is caught by this package's tests.
func Default() *Catalog {
	defaultOnce.Do(func() {
		sub, err := fs.Sub(embedded, "data")
		if err != nil {
			panic(fmt.Sprintf("catalog: %v", err))
		}
		c, err := Load(sub)
		if err != nil {
			panic(fmt.Sprintf("catalog: invalid embedded content: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Load reads a catalog bundle laid out as manifest.json,
// schema/module.schema.json and modules/*.json. Every module document is
// validated against the schema before it is decoded.
func Load(fsys fs.FS) (*Catalog, error) {
	manifest, err := readManifest(fsys)
	if err != nil {
		return nil, err
	}

	schema, err := compileSchema(fsys)
	if err != nil {
		return nil, err
	}

	files, err := fs.Glob(fsys, modulesGlob)
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no module documents match %s", modulesGlob)
	}

	modules := make([]Module, 0, len(files))
	for _, name := range files {
		m, err := readModule(fsys, name, schema)
		if err != nil {
			return nil, err
		}
		modules = append(modules, m)
	}

	return build(manifest.Version, modules)
}

func readManifest(fsys fs.FS) (Manifest, error) {
	var m Manifest
	data, err := fs.ReadFile(fsys, manifestFile)
	if err != nil {
		return m, fmt.Errorf("read manifest: %w", err)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("parse manifest: %w", err)
	}
	v := m.Version
	if v != "" && v[0] != 'v' {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return m, fmt.Errorf("manifest version %q is not a semantic version", m.Version)
	}
	m.Version = semver.Canonical(v)
	return m, nil
}

func compileSchema(fsys fs.FS) (*jsonschema.Schema, error) {
	data, err := fs.ReadFile(fsys, schemaFile)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return compiled, nil
}

func readModule(fsys fs.FS, name string, schema *jsonschema.Schema) (Module, error) {
	var m Module
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return m, fmt.Errorf("read %s: %w", name, err)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return m, fmt.Errorf("parse %s: %w", path.Base(name), err)
	}
	if err := schema.Validate(inst); err != nil {
		return m, fmt.Errorf("validate %s: %w", path.Base(name), err)
	}

	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("decode %s: %w", path.Base(name), err)
	}
	return m, nil
}
