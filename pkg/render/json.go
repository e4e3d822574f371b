package render

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/vocdoc/vocdoc/pkg/model"
	"github.com/vocdoc/vocdoc/pkg/resolve"
)

// Document is the machine-readable artifact: the full package model and
// the resolution report in one envelope.
type Document struct {
	Model  *model.PackageModel `json:"model" yaml:"model"`
	Report *resolve.Report     `json:"report" yaml:"report"`
}

// JSONRenderer streams the document to Out as indented JSON.
type JSONRenderer struct {
	Out io.Writer
}

// NewJSONRenderer returns a renderer writing to out.
func NewJSONRenderer(out io.Writer) *JSONRenderer {
	return &JSONRenderer{Out: out}
}

// Render encodes the model/report envelope.
func (r *JSONRenderer) Render(m *model.PackageModel, report *resolve.Report) error {
	data, err := json.MarshalIndent(Document{Model: m, Report: report}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	data = append(data, '\n')

	if _, err := r.Out.Write(data); err != nil {
		return fmt.Errorf("write document: %w", err)
	}

	return nil
}

// YAMLRenderer streams the document to Out as YAML.
type YAMLRenderer struct {
	Out io.Writer
}

// NewYAMLRenderer returns a renderer writing to out.
func NewYAMLRenderer(out io.Writer) *YAMLRenderer {
	return &YAMLRenderer{Out: out}
}

// Render encodes the model/report envelope.
func (r *YAMLRenderer) Render(m *model.PackageModel, report *resolve.Report) error {
	enc := yaml.NewEncoder(r.Out)

	if err := enc.Encode(Document{Model: m, Report: report}); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	return enc.Close()
}
