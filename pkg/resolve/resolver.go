// Package resolve cross-references every by-name use in the package model
// against the symbol table and produces the resolution report.
package resolve

import (
	"fmt"
	"strings"

	"github.com/vocdoc/vocdoc/pkg/model"
	"github.com/vocdoc/vocdoc/pkg/symbols"
)

// Resolver runs the resolution pass. It must only run once the full
// symbol table has been assembled, since references may point forward
// across files and packages.
type Resolver struct {
	table    *symbols.Table
	builtins *symbols.Table
}

// New returns a resolver over an assembled table. The builtin table is
// consulted last, so any scanned declaration shadows a builtin of the
// same name.
func New(table, builtins *symbols.Table) *Resolver {
	return &Resolver{table: table, builtins: builtins}
}

// Resolve walks every command phrase, action block, capture rule and tag
// import in the model and resolves each reference under its declaration's
// effective context. Failures become diagnostics; the pass never aborts.
func (r *Resolver) Resolve(m *model.PackageModel) *Report {
	report := NewReport()

	for _, pkg := range m.Packages {
		for _, file := range pkg.Files {
			r.resolveFile(report, pkg, file)
		}
	}

	return report
}

func (r *Resolver) resolveFile(report *Report, pkg *model.Package, file *model.SourceFile) {
	for _, decl := range file.Declarations {
		switch decl.Kind {
		case model.KindCommand:
			r.resolveCommand(report, pkg, decl)
		case model.KindCapture:
			if decl.CaptureRule != nil {
				r.resolveRule(report, pkg, decl, decl.CaptureRule)
			}
		case model.KindSetting:
			if decl.Override {
				r.resolveSetting(report, pkg, decl)
			}
		}
	}

	for _, ref := range file.TagImports {
		resolved, _ := r.resolveOne(pkg, ref, file.Context)
		report.record(model.Location{Path: file.Path}, resolved)
	}
}

// resolveCommand resolves the references of one command: capture and list
// uses in the phrase, action calls and variable uses in the script.
// Command-local bindings shadow everything: the final segment of each
// phrase capture plus every assignment target.
func (r *Resolver) resolveCommand(report *Report, pkg *model.Package, cmd *model.Declaration) {
	locals := commandLocals(cmd)

	if cmd.Rule != nil {
		r.resolveRule(report, pkg, cmd, cmd.Rule)
	}

	if cmd.Script == nil {
		return
	}

	for _, stmt := range cmd.Script.Statements {
		r.resolveExpr(report, pkg, cmd, stmt.Expr, locals)
	}
}

func commandLocals(cmd *model.Declaration) map[string]bool {
	locals := make(map[string]bool)

	if cmd.Rule != nil {
		for _, name := range cmd.Rule.CaptureRefs() {
			locals[lastSegment(name)] = true
			locals[name] = true
		}
	}

	if cmd.Script != nil {
		for _, stmt := range cmd.Script.Statements {
			if stmt.Kind == model.StmtAssignment && stmt.Target != "" {
				locals[stmt.Target] = true
			}
		}
	}

	return locals
}

func (r *Resolver) resolveRule(report *Report, pkg *model.Package, owner *model.Declaration, rule *model.Rule) {
	for _, name := range rule.CaptureRefs() {
		ref := model.Reference{
			Kind:     model.RefCapture,
			Name:     name,
			Location: owner.Location,
			State:    model.RefUnresolved,
		}

		resolved, _ := r.resolveOne(pkg, ref, owner.Context)
		report.record(owner.Location, resolved)
	}

	for _, name := range rule.ListRefs() {
		ref := model.Reference{
			Kind:     model.RefList,
			Name:     name,
			Location: owner.Location,
			State:    model.RefUnresolved,
		}

		resolved, _ := r.resolveOne(pkg, ref, owner.Context)
		report.record(owner.Location, resolved)
	}
}

// resolveSetting checks a grammar or context setting assignment against
// the defining declarations: assigning a name nobody declared via a
// setting registration is a typo, not a new setting.
func (r *Resolver) resolveSetting(report *Report, pkg *model.Package, decl *model.Declaration) {
	ref := model.Reference{
		Kind:     model.RefSetting,
		Name:     decl.Name,
		Location: decl.Location,
		State:    model.RefUnresolved,
	}

	defining := func(d *model.Declaration) bool { return !d.Override }

	resolved, _ := r.resolveWhere(pkg, ref, decl.Context, defining)
	report.record(decl.Location, resolved)
}

func (r *Resolver) resolveExpr(report *Report, pkg *model.Package, owner *model.Declaration, expr *model.Expr, locals map[string]bool) {
	if expr == nil {
		return
	}

	switch expr.Kind {
	case model.ExprAction:
		ref := model.Reference{
			Kind:     model.RefAction,
			Name:     expr.Text,
			Arity:    len(expr.Args),
			Location: expr.Loc,
			State:    model.RefUnresolved,
		}

		resolved, winner := r.resolveOne(pkg, ref, owner.Context)
		report.record(owner.Location, resolved)
		checkArity(report, resolved, winner)
	case model.ExprKey, model.ExprSleep:
		name := "key"
		if expr.Kind == model.ExprSleep {
			name = "sleep"
		}

		ref := model.Reference{
			Kind:     model.RefAction,
			Name:     name,
			Arity:    1,
			Location: expr.Loc,
			State:    model.RefUnresolved,
		}

		resolved, _ := r.resolveOne(pkg, ref, owner.Context)
		report.record(owner.Location, resolved)
	case model.ExprVariable:
		ref := model.Reference{
			Kind:     model.RefVariable,
			Name:     expr.Text,
			Location: expr.Loc,
		}

		if locals[expr.Text] || locals[lastSegment(expr.Text)] {
			ref.State = model.RefResolved
			ref.Resolved = &owner.Location
		} else {
			ref.State = model.RefNotFound
		}

		report.record(owner.Location, ref)

		return
	}

	for _, arg := range expr.Args {
		r.resolveExpr(report, pkg, owner, arg, locals)
	}
}

// resolveOne runs the tiered lookup for a single reference: same-package
// declarations first, then cross-package declarations compatible with the
// site context, then builtins. Unqualified names are qualified with the
// package namespace for the package tiers. The winning declaration is
// returned alongside the reference, nil unless the state is resolved.
func (r *Resolver) resolveOne(pkg *model.Package, ref model.Reference, site model.Context) (model.Reference, *model.Declaration) {
	return r.resolveWhere(pkg, ref, site, func(*model.Declaration) bool { return true })
}

func (r *Resolver) resolveWhere(pkg *model.Package, ref model.Reference, site model.Context, keep func(*model.Declaration) bool) (model.Reference, *model.Declaration) {
	kind := declKind(ref.Kind)

	name := ref.Name
	if !strings.Contains(name, ".") && pkg.Namespace != "" {
		name = pkg.Namespace + "." + name
	}

	samePackage := func(decl *model.Declaration) bool { return decl.Package == pkg.Name && keep(decl) }
	crossPackage := func(decl *model.Declaration) bool { return decl.Package != pkg.Name && keep(decl) }

	for _, attempt := range []symbols.Resolution{
		r.table.LookupWhere(kind, name, site, samePackage),
		r.table.LookupWhere(kind, name, site, crossPackage),
		r.builtins.Lookup(kind, ref.Name, site),
	} {
		switch attempt.State {
		case model.RefResolved:
			loc := attempt.Declaration.Location
			ref.State = model.RefResolved
			ref.Resolved = &loc

			return ref, attempt.Declaration
		case model.RefAmbiguous:
			ref.State = model.RefAmbiguous
			for _, candidate := range attempt.Candidates {
				ref.Candidates = append(ref.Candidates, candidate.Location)
			}

			return ref, nil
		}
	}

	ref.State = model.RefNotFound

	return ref, nil
}

// checkArity compares a resolved action call against the declared
// signature. Parameters with defaults may be omitted; extra arguments
// never fit. Signatures describe documentation, so a mismatch is a
// warning, not an error.
func checkArity(report *Report, ref model.Reference, winner *model.Declaration) {
	if winner == nil || winner.Signature == nil {
		return
	}

	required := 0

	for _, param := range winner.Signature.Params {
		if param.Default == "" {
			required++
		}
	}

	if ref.Arity >= required && ref.Arity <= winner.Signature.Arity() {
		return
	}

	report.AddDiagnostics(model.Diagnostic{
		Severity: model.SeverityWarning,
		Code:     model.CodeArityMismatch,
		Message: fmt.Sprintf("%s called with %d arguments, declared with %d at %s",
			describeRef(ref), ref.Arity, winner.Signature.Arity(), winner.Location),
		Location: ref.Location,
		Related:  []model.Location{winner.Location},
	})
}

func declKind(kind model.RefKind) model.Kind {
	switch kind {
	case model.RefAction:
		return model.KindAction
	case model.RefCapture:
		return model.KindCapture
	case model.RefList:
		return model.KindList
	case model.RefSetting:
		return model.KindSetting
	case model.RefTag:
		return model.KindTag
	default:
		return model.KindAction
	}
}

func lastSegment(name string) string {
	if dot := strings.LastIndexByte(name, '.'); dot >= 0 {
		return name[dot+1:]
	}

	return name
}

func describeRef(ref model.Reference) string {
	return fmt.Sprintf("%s %q", ref.Kind, ref.Name)
}
