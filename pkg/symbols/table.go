// Package symbols holds the package-wide symbol table: every declaration
// gathered from grammar and implementation files, keyed by kind, namespace
// and qualified name, with context-aware lookup.
package symbols

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vocdoc/vocdoc/pkg/model"
)

// Table owns all declarations produced by a build pass. Declarations
// sharing a key in non-overlapping contexts are overrides; in overlapping
// contexts they are conflicts. Both stay in the table — a conflict is
// reported, and the declaration added last (traversal order) wins for
// rendering.
type Table struct {
	entries   map[model.SymbolKey][]*model.Declaration
	conflicts []model.Diagnostic
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[model.SymbolKey][]*model.Declaration)}
}

// Add enters a declaration, recording a duplicate-declaration conflict
// when an existing declaration under the same key has an overlapping
// context. Override declarations never conflict with the declaration
// they override unless the contexts collide.
func (t *Table) Add(decl *model.Declaration) {
	key := decl.Key()

	for _, existing := range t.entries[key] {
		if existing.Override != decl.Override {
			// A context-scoped implementation of a defined name is the
			// normal override pattern, not a collision, even though the
			// narrower context overlaps the defining declaration's.
			continue
		}

		if existing.Context.Overlaps(decl.Context) {
			t.conflicts = append(t.conflicts, model.Diagnostic{
				Severity: model.SeverityWarning,
				Code:     model.CodeDuplicateDeclaration,
				Message: fmt.Sprintf("duplicate %s %q collides with declaration at %s in an overlapping context",
					decl.Kind, decl.Name, existing.Location),
				Location: decl.Location,
				Related:  []model.Location{existing.Location},
			})
		}
	}

	t.entries[key] = append(t.entries[key], decl)
}

// Conflicts returns every duplicate-declaration conflict recorded so far,
// in insertion order.
func (t *Table) Conflicts() []model.Diagnostic {
	return t.conflicts
}

// Declarations returns the declaration set under a key, in insertion
// order.
func (t *Table) Declarations(key model.SymbolKey) []*model.Declaration {
	return t.entries[key]
}

// Keys returns every populated key in sorted order.
func (t *Table) Keys() []model.SymbolKey {
	keys := make([]model.SymbolKey, 0, len(t.entries))
	for key := range t.entries {
		keys = append(keys, key)
	}

	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})

	return keys
}

// Len returns the number of populated keys.
func (t *Table) Len() int {
	return len(t.entries)
}

// Resolution is the outcome of one lookup.
type Resolution struct {
	State       model.RefState
	Declaration *model.Declaration
	Candidates  []*model.Declaration
}

// Lookup resolves a kind and qualified name at a lookup site. Candidates
// are filtered by context compatibility; the most specific context wins.
// When several distinct contexts tie at maximal specificity the lookup is
// ambiguous, never guessed. Candidates sharing one identical context are
// duplicates: the one added last wins, matching the rendering rule.
func (t *Table) Lookup(kind model.Kind, name string, site model.Context) Resolution {
	return t.LookupWhere(kind, name, site, nil)
}

// LookupWhere is Lookup restricted to declarations accepted by keep. A
// nil keep accepts everything. Resolvers use it to separate the
// same-package and cross-package tiers.
func (t *Table) LookupWhere(kind model.Kind, name string, site model.Context, keep func(*model.Declaration) bool) Resolution {
	key := model.SymbolKey{Kind: kind, Namespace: NamespaceOf(name), Name: name}

	var compatible []*model.Declaration

	for _, decl := range t.entries[key] {
		if keep != nil && !keep(decl) {
			continue
		}

		if decl.Context.CompatibleWith(site) {
			compatible = append(compatible, decl)
		}
	}

	if len(compatible) == 0 {
		return Resolution{State: model.RefNotFound}
	}

	best := maxSpecific(compatible)

	winner := best[len(best)-1]
	for _, decl := range best {
		if decl.Context.Canonical() != winner.Context.Canonical() {
			sortCandidates(best)

			return Resolution{State: model.RefAmbiguous, Candidates: best}
		}
	}

	return Resolution{State: model.RefResolved, Declaration: winner}
}

// maxSpecific filters candidates down to those with maximal context
// specificity. Specificity compares matcher count first, then the key
// weight sum; candidates with distinct contexts at the same score are a
// genuine tie, surfaced to the caller as ambiguity rather than broken by
// an arbitrary rule.
func maxSpecific(decls []*model.Declaration) []*model.Declaration {
	best := []*model.Declaration{decls[0]}

	for _, decl := range decls[1:] {
		scoreDecl, scoreBest := decl.Context.Specificity(), best[0].Context.Specificity()

		switch {
		case scoreDecl > scoreBest:
			best = []*model.Declaration{decl}
		case scoreDecl == scoreBest:
			best = append(best, decl)
		}
	}

	return best
}

// sortCandidates orders an ambiguous candidate set by canonical context,
// then location, so reports are reproducible across runs.
func sortCandidates(decls []*model.Declaration) {
	sort.SliceStable(decls, func(i, j int) bool {
		canonI, canonJ := decls[i].Context.Canonical(), decls[j].Context.Canonical()
		if canonI != canonJ {
			return canonI < canonJ
		}

		return decls[i].Location.String() < decls[j].Location.String()
	})
}

// NamespaceOf returns the leading segment of a qualified name, or the
// empty string for unqualified (builtin) names.
func NamespaceOf(name string) string {
	if dot := strings.IndexByte(name, '.'); dot >= 0 {
		return name[:dot]
	}

	return ""
}
