package model

import (
	"encoding/json"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Package is a directory-scoped unit of grammar and implementation files
// sharing a namespace. Immutable once built.
type Package struct {
	Name           string        `json:"name" yaml:"name"`
	Namespace      string        `json:"namespace" yaml:"namespace"`
	Root           string        `json:"root" yaml:"root"`
	DefaultContext Context       `json:"default_context,omitempty" yaml:"default_context,omitempty"`
	Files          []*SourceFile `json:"files,omitempty" yaml:"files,omitempty"`
}

// PackageModel is the finished output of a build pass: every package,
// ordered by name, with files in lexical path order. Serialization is
// deterministic; two builds over unchanged input serialize identically.
type PackageModel struct {
	Packages []*Package `json:"packages" yaml:"packages"`
}

// Sort orders packages by name and each package's files by path. Builders
// call it once before handing the model to a renderer.
func (m *PackageModel) Sort() {
	sort.Slice(m.Packages, func(i, j int) bool {
		return m.Packages[i].Name < m.Packages[j].Name
	})

	for _, pkg := range m.Packages {
		sort.Slice(pkg.Files, func(i, j int) bool {
			return pkg.Files[i].Path < pkg.Files[j].Path
		})
	}
}

// Declarations iterates every declaration in the model in deterministic
// order.
func (m *PackageModel) Declarations(fn func(pkg *Package, file *SourceFile, decl *Declaration)) {
	for _, pkg := range m.Packages {
		for _, file := range pkg.Files {
			for _, decl := range file.Declarations {
				fn(pkg, file, decl)
			}
		}
	}
}

// EncodeJSON serializes the model with stable ordering and indentation.
func (m *PackageModel) EncodeJSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode model: %w", err)
	}

	return append(data, '\n'), nil
}

// EncodeYAML serializes the model as YAML.
func (m *PackageModel) EncodeYAML() ([]byte, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode model: %w", err)
	}

	return data, nil
}
