package gen

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest is the YAML description marshgen generates model
// declarations from.
type Manifest struct {
	// Package is the generated package name.
	Package string `yaml:"package"`
	Models  []*Model `yaml:"models"`
}

// Model describes one generated model declaration.
type Model struct {
	Name string `yaml:"name"`
	// Embeds lists ancestor models, embedded in order. A model with
	// no ancestors embeds marsh.Schema directly.
	Embeds []string     `yaml:"embeds"`
	Fields []*FieldSpec `yaml:"fields"`
	Rels   []*RelSpec   `yaml:"rels"`
}

// FieldSpec describes one field declaration.
type FieldSpec struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Default  any    `yaml:"default"`
	Optional bool   `yaml:"optional"`
	Nillable bool   `yaml:"nillable"`
	External string `yaml:"external"`
	Comment  string `yaml:"comment"`
}

// RelSpec describes one nested reference declaration.
type RelSpec struct {
	Name     string `yaml:"name"`
	Model    string `yaml:"model"`
	Many     bool   `yaml:"many"`
	Optional bool   `yaml:"optional"`
	Nillable bool   `yaml:"nillable"`
	External string `yaml:"external"`
	Comment  string `yaml:"comment"`
}

// fieldTypes maps manifest type names to schema/field builder names.
var fieldTypes = map[string]string{
	"bool":   "Bool",
	"string": "String",
	"url":    "URL",
	"int":    "Int",
	"float":  "Float",
	"time":   "Time",
	"bytes":  "Bytes",
	"raw":    "Raw",
	"uuid":   "UUID",
}

// ReadManifest parses and validates a manifest file.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return &m, nil
}

func (m *Manifest) validate() error {
	if m.Package == "" {
		return fmt.Errorf("package name is required")
	}
	if len(m.Models) == 0 {
		return fmt.Errorf("at least one model is required")
	}
	names := make(map[string]bool, len(m.Models))
	for _, model := range m.Models {
		if model.Name == "" {
			return fmt.Errorf("model name is required")
		}
		if names[model.Name] {
			return fmt.Errorf("model %s declared more than once", model.Name)
		}
		names[model.Name] = true
		if err := model.validate(); err != nil {
			return fmt.Errorf("model %s: %w", model.Name, err)
		}
	}
	for _, model := range m.Models {
		for _, e := range model.Embeds {
			if !names[e] {
				return fmt.Errorf("model %s: embedded model %s is not declared", model.Name, e)
			}
		}
		for _, r := range model.Rels {
			if !names[r.Model] {
				return fmt.Errorf("model %s: rel %q references undeclared model %s", model.Name, r.Name, r.Model)
			}
		}
	}
	return nil
}

func (m *Model) validate() error {
	seen := make(map[string]bool)
	for _, f := range m.Fields {
		if f.Name == "" {
			return fmt.Errorf("field name is required")
		}
		if _, ok := fieldTypes[f.Type]; !ok {
			return fmt.Errorf("field %q: unknown type %q", f.Name, f.Type)
		}
		if seen[f.Name] {
			return fmt.Errorf("field %q declared more than once", f.Name)
		}
		seen[f.Name] = true
	}
	for _, r := range m.Rels {
		if r.Name == "" {
			return fmt.Errorf("rel name is required")
		}
		if r.Model == "" {
			return fmt.Errorf("rel %q: related model is required", r.Name)
		}
		if seen[r.Name] {
			return fmt.Errorf("rel %q declared more than once", r.Name)
		}
		seen[r.Name] = true
	}
	return nil
}
