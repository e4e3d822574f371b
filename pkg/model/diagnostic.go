package model

import "fmt"

// Severity grades a diagnostic.
type Severity string

// Diagnostic severities.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// DiagnosticCode identifies the diagnostic taxonomy entry.
type DiagnosticCode string

// Diagnostic codes.
const (
	CodeSyntaxError          DiagnosticCode = "syntax-error"
	CodeIndexingWarning      DiagnosticCode = "indexing-warning"
	CodeDuplicateDeclaration DiagnosticCode = "duplicate-declaration"
	CodeUnresolvedReference  DiagnosticCode = "unresolved-reference"
	CodeAmbiguousReference   DiagnosticCode = "ambiguous-reference"
	CodeArityMismatch        DiagnosticCode = "arity-mismatch"
)

// Diagnostic is one recorded, non-fatal problem. Diagnostics accumulate
// during the build and resolution passes; they never abort the run.
type Diagnostic struct {
	Severity Severity       `json:"severity" yaml:"severity"`
	Code     DiagnosticCode `json:"code" yaml:"code"`
	Message  string         `json:"message" yaml:"message"`
	Location Location       `json:"location" yaml:"location"`
	Related  []Location     `json:"related,omitempty" yaml:"related,omitempty"`
}

// String renders the diagnostic for terminal output.
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s (%s)", d.Location, d.Severity, d.Message, d.Code)
}
