package model

import "fmt"

// Kind classifies a declaration.
type Kind string

// Declaration kinds.
const (
	KindCommand Kind = "command"
	KindCapture Kind = "capture"
	KindList    Kind = "list"
	KindAction  Kind = "action"
	KindSetting Kind = "setting"
	KindMode    Kind = "mode"
	KindTag     Kind = "tag"
)

// Location is a position in a source file. Line and Column are 1-based.
type Location struct {
	Path   string `json:"path" yaml:"path"`
	Line   int    `json:"line" yaml:"line"`
	Column int    `json:"column" yaml:"column"`
}

// String renders the location as path:line:column.
func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.Path, l.Line, l.Column)
}

// Param documents one parameter of an action or capture signature.
type Param struct {
	Name    string `json:"name" yaml:"name"`
	Type    string `json:"type,omitempty" yaml:"type,omitempty"`
	Default string `json:"default,omitempty" yaml:"default,omitempty"`
	Doc     string `json:"doc,omitempty" yaml:"doc,omitempty"`
}

// Signature documents the parameter shape of an action or capture. It is
// recorded for documentation only, never for type checking.
type Signature struct {
	Params  []Param `json:"params,omitempty" yaml:"params,omitempty"`
	Returns string  `json:"returns,omitempty" yaml:"returns,omitempty"`
}

// Arity returns the number of declared parameters.
func (s Signature) Arity() int {
	return len(s.Params)
}

// Declaration is a named, documentable entity: a command, capture, list,
// action, setting, mode or tag. Declarations are immutable once the build
// pass completes.
type Declaration struct {
	Kind      Kind       `json:"kind" yaml:"kind"`
	Name      string     `json:"name" yaml:"name"`
	Namespace string     `json:"namespace" yaml:"namespace"`
	Package   string     `json:"package,omitempty" yaml:"package,omitempty"`
	Doc       *DocString `json:"doc,omitempty" yaml:"doc,omitempty"`
	Location  Location   `json:"location" yaml:"location"`
	Context   Context    `json:"context,omitempty" yaml:"context,omitempty"`

	// Override marks a declaration that re-implements a name declared
	// elsewhere (a context-scoped implementation rather than the
	// defining declaration).
	Override bool `json:"override,omitempty" yaml:"override,omitempty"`

	// Command payload.
	Rule   *Rule   `json:"rule,omitempty" yaml:"rule,omitempty"`
	Script *Script `json:"script,omitempty" yaml:"script,omitempty"`

	// Action and capture payload.
	Signature *Signature `json:"signature,omitempty" yaml:"signature,omitempty"`

	// Capture payload: the phrase rule the capture matches.
	CaptureRule *Rule `json:"capture_rule,omitempty" yaml:"capture_rule,omitempty"`

	// Setting and list payload: default or assigned value, as source text.
	Value string `json:"value,omitempty" yaml:"value,omitempty"`

	// Setting payload: declared type, as source text.
	TypeHint string `json:"type_hint,omitempty" yaml:"type_hint,omitempty"`
}

// QualifiedName returns the namespace-prefixed name. Names that already
// carry a namespace prefix are returned unchanged.
func (d *Declaration) QualifiedName() string {
	return d.Name
}

// ShortName returns the final segment of the qualified name.
func (d *Declaration) ShortName() string {
	for i := len(d.Name) - 1; i >= 0; i-- {
		if d.Name[i] == '.' {
			return d.Name[i+1:]
		}
	}

	return d.Name
}

// Key identifies the declaration's slot in the symbol table.
func (d *Declaration) Key() SymbolKey {
	return SymbolKey{Kind: d.Kind, Namespace: d.Namespace, Name: d.Name}
}

// SymbolKey addresses a set of declarations sharing a kind, namespace and
// qualified name. Declarations under one key in non-overlapping contexts
// are overrides; in overlapping contexts they are conflicts.
type SymbolKey struct {
	Kind      Kind   `json:"kind" yaml:"kind"`
	Namespace string `json:"namespace" yaml:"namespace"`
	Name      string `json:"name" yaml:"name"`
}

// String renders the key as kind:namespace/name.
func (k SymbolKey) String() string {
	return string(k.Kind) + ":" + k.Namespace + "/" + k.Name
}
