package resolve

import (
	"encoding/json"
	"fmt"

	"github.com/vocdoc/vocdoc/pkg/model"
)

// OwnedReference pairs a resolved reference with the location of the
// declaration it occurred in.
type OwnedReference struct {
	Owner     model.Location  `json:"owner" yaml:"owner"`
	Reference model.Reference `json:"reference" yaml:"reference"`
}

// Report is the outcome of a resolution pass: every reference with its
// terminal state, plus the accumulated diagnostics. It is derived data —
// recomputed from scratch whenever the symbol table changes, never
// updated in place.
type Report struct {
	References  []OwnedReference   `json:"references,omitempty" yaml:"references,omitempty"`
	Diagnostics []model.Diagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// NewReport returns an empty report.
func NewReport() *Report {
	return &Report{}
}

// record stores a reference outcome and, for failed resolutions, the
// matching diagnostic.
func (r *Report) record(owner model.Location, ref model.Reference) {
	r.References = append(r.References, OwnedReference{Owner: owner, Reference: ref})

	switch ref.State {
	case model.RefNotFound:
		r.Diagnostics = append(r.Diagnostics, model.Diagnostic{
			Severity: model.SeverityWarning,
			Code:     model.CodeUnresolvedReference,
			Message:  fmt.Sprintf("unresolved %s", describeRef(ref)),
			Location: ref.Location,
		})
	case model.RefAmbiguous:
		r.Diagnostics = append(r.Diagnostics, model.Diagnostic{
			Severity: model.SeverityWarning,
			Code:     model.CodeAmbiguousReference,
			Message:  fmt.Sprintf("ambiguous %s: %d candidates tie at maximal context specificity", describeRef(ref), len(ref.Candidates)),
			Location: ref.Location,
			Related:  ref.Candidates,
		})
	}
}

// AddDiagnostics appends externally collected diagnostics (parse errors,
// indexing warnings, duplicate-declaration conflicts) to the report.
func (r *Report) AddDiagnostics(diags ...model.Diagnostic) {
	r.Diagnostics = append(r.Diagnostics, diags...)
}

// Unresolved returns the references that ended in the not-found state.
func (r *Report) Unresolved() []OwnedReference {
	return r.byState(model.RefNotFound)
}

// Ambiguous returns the references that ended in the ambiguous state.
func (r *Report) Ambiguous() []OwnedReference {
	return r.byState(model.RefAmbiguous)
}

func (r *Report) byState(state model.RefState) []OwnedReference {
	var out []OwnedReference

	for _, ref := range r.References {
		if ref.Reference.State == state {
			out = append(out, ref)
		}
	}

	return out
}

// BrokenAt reports whether any reference owned by the given location
// failed to resolve, for renderers that mark broken entries.
func (r *Report) BrokenAt(owner model.Location) bool {
	for _, ref := range r.References {
		if ref.Owner == owner && (ref.Reference.State == model.RefNotFound || ref.Reference.State == model.RefAmbiguous) {
			return true
		}
	}

	return false
}

// Counts returns the number of error and warning diagnostics.
func (r *Report) Counts() (errors, warnings int) {
	for _, diag := range r.Diagnostics {
		switch diag.Severity {
		case model.SeverityError:
			errors++
		case model.SeverityWarning:
			warnings++
		}
	}

	return errors, warnings
}

// EncodeJSON serializes the report deterministically.
func (r *Report) EncodeJSON() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}

	return append(data, '\n'), nil
}
