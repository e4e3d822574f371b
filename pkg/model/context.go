package model

import (
	"sort"
	"strings"
)

// Match modifier keywords, as they appear in context headers.
const (
	ModifierAnd = "and"
	ModifierNot = "not"
)

// Key weights used to break specificity ties between contexts with the
// same number of matchers. Window titles are the narrowest condition,
// application matchers are narrower than modes and tags, and operating
// system is the broadest.
const (
	weightTitle   = 8
	weightApp     = 4
	weightMode    = 2
	weightTag     = 2
	weightDefault = 1
)

// Match is a single key/value condition from a context header, such as
// "os: mac" or "and app: code". Modifiers hold the leading "and"/"not"
// keywords in source order.
type Match struct {
	Key       string   `json:"key" yaml:"key"`
	Value     string   `json:"value" yaml:"value"`
	Modifiers []string `json:"modifiers,omitempty" yaml:"modifiers,omitempty"`
}

// Negated reports whether the match carries a "not" modifier.
func (m Match) Negated() bool {
	for _, mod := range m.Modifiers {
		if mod == ModifierNot {
			return true
		}
	}

	return false
}

// String renders the match in header syntax.
func (m Match) String() string {
	var sb strings.Builder

	for _, mod := range m.Modifiers {
		sb.WriteString(mod)
		sb.WriteString(" ")
	}

	sb.WriteString(m.Key)
	sb.WriteString(": ")
	sb.WriteString(m.Value)

	return sb.String()
}

// Context is the activation condition under which a declaration applies:
// the conjunction of its matches, where repeated keys form alternatives.
// The zero value is the empty context, which applies everywhere.
type Context struct {
	Matches []Match `json:"matches,omitempty" yaml:"matches,omitempty"`
}

// IsEmpty reports whether the context has no conditions.
func (c Context) IsEmpty() bool {
	return len(c.Matches) == 0
}

// Merge returns a context with the overlay's matches replacing this
// context's matches key by key. Keys only present in the receiver are
// retained. Used to refine a directory-level context with a file header.
func (c Context) Merge(overlay Context) Context {
	if overlay.IsEmpty() {
		return c.clone()
	}

	overridden := make(map[string]bool, len(overlay.Matches))
	for _, m := range overlay.Matches {
		overridden[m.Key] = true
	}

	merged := Context{}

	for _, m := range c.Matches {
		if !overridden[m.Key] {
			merged.Matches = append(merged.Matches, m)
		}
	}

	merged.Matches = append(merged.Matches, overlay.Matches...)

	return merged
}

func (c Context) clone() Context {
	if c.IsEmpty() {
		return Context{}
	}

	out := Context{Matches: make([]Match, len(c.Matches))}
	copy(out.Matches, c.Matches)

	return out
}

// positive returns, per key, the set of accepted values; negative returns,
// per key, the set of rejected values.
func (c Context) valueSets() (positive, negative map[string]map[string]bool) {
	positive = make(map[string]map[string]bool)
	negative = make(map[string]map[string]bool)

	for _, m := range c.Matches {
		target := positive
		if m.Negated() {
			target = negative
		}

		if target[m.Key] == nil {
			target[m.Key] = make(map[string]bool)
		}

		target[m.Key][m.Value] = true
	}

	return positive, negative
}

// Overlaps reports whether some activation site could satisfy both
// contexts at once. Two contexts are disjoint exactly when, for some key,
// their accepted value sets cannot agree: both constrain the key
// positively with no common value, or one rejects every value the other
// accepts.
func (c Context) Overlaps(other Context) bool {
	posA, negA := c.valueSets()
	posB, negB := other.valueSets()

	for key, valuesA := range posA {
		if valuesB, ok := posB[key]; ok && !intersects(valuesA, valuesB) {
			return false
		}

		if rejected, ok := negB[key]; ok && subset(valuesA, rejected) {
			return false
		}
	}

	for key, valuesB := range posB {
		if rejected, ok := negA[key]; ok && subset(valuesB, rejected) {
			return false
		}
	}

	return true
}

// CompatibleWith reports whether a declaration carrying this context is a
// candidate at a lookup site with the given context. The site may be
// broader than the declaration: keys the site does not constrain are
// treated as compatible. Only an outright contradiction on a shared key
// disqualifies the declaration.
func (c Context) CompatibleWith(site Context) bool {
	if c.IsEmpty() {
		return true
	}

	return c.Overlaps(site)
}

// Specificity scores the context for most-specific-wins resolution.
// More matchers always beat fewer; among equal counts the per-key weights
// decide (title > app > mode, tag > os). Canonical-string comparison is
// the final tiebreak, applied by callers, making the order total.
func (c Context) Specificity() int {
	const countWeight = 1000

	score := len(c.Matches) * countWeight

	for _, m := range c.Matches {
		score += keyWeight(m.Key)
	}

	return score
}

func keyWeight(key string) int {
	switch {
	case key == "title":
		return weightTitle
	case key == "app" || strings.HasPrefix(key, "app."):
		return weightApp
	case key == "mode":
		return weightMode
	case key == "tag":
		return weightTag
	default:
		return weightDefault
	}
}

// Canonical renders the context with matches sorted by key, value and
// modifiers, suitable for map keys and reproducible serialization.
func (c Context) Canonical() string {
	if c.IsEmpty() {
		return ""
	}

	parts := make([]string, len(c.Matches))
	for i, m := range c.Matches {
		parts[i] = m.String()
	}

	sort.Strings(parts)

	return strings.Join(parts, "\n")
}

// String is the canonical form on one line.
func (c Context) String() string {
	return strings.ReplaceAll(c.Canonical(), "\n", ", ")
}

func intersects(a, b map[string]bool) bool {
	for v := range a {
		if b[v] {
			return true
		}
	}

	return false
}

func subset(a, b map[string]bool) bool {
	if len(a) == 0 {
		return false
	}

	for v := range a {
		if !b[v] {
			return false
		}
	}

	return true
}
