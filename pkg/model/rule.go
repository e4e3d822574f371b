package model

import (
	"strings"
)

// RuleKind identifies a node in a spoken-phrase rule.
type RuleKind string

// Rule node kinds.
const (
	RuleSeq         RuleKind = "seq"
	RuleWord        RuleKind = "word"
	RuleCaptureRef  RuleKind = "capture"
	RuleListRef     RuleKind = "list"
	RuleOptional    RuleKind = "optional"
	RuleChoice      RuleKind = "choice"
	RuleGroup       RuleKind = "group"
	RuleRepeat      RuleKind = "repeat"
	RuleRepeat1     RuleKind = "repeat1"
	RuleStartAnchor RuleKind = "start_anchor"
	RuleEndAnchor   RuleKind = "end_anchor"
)

// Rule is one node of a spoken-phrase rule. Alternatives are kept as a
// single choice node; expansion into concrete phrasings is left to
// renderers that need it.
type Rule struct {
	Kind     RuleKind `json:"kind" yaml:"kind"`
	Text     string   `json:"text,omitempty" yaml:"text,omitempty"`
	Children []*Rule  `json:"children,omitempty" yaml:"children,omitempty"`
}

// Word returns a literal word node.
func Word(text string) *Rule {
	return &Rule{Kind: RuleWord, Text: text}
}

// Seq returns a sequence node over the given children.
func Seq(children ...*Rule) *Rule {
	return &Rule{Kind: RuleSeq, Children: children}
}

// String reserializes the rule into grammar syntax. Parsing a rule and
// serializing it again yields a phrase with identical structure.
func (r *Rule) String() string {
	if r == nil {
		return ""
	}

	switch r.Kind {
	case RuleWord:
		return r.Text
	case RuleCaptureRef:
		return "<" + r.Text + ">"
	case RuleListRef:
		return "{" + r.Text + "}"
	case RuleStartAnchor:
		return "^"
	case RuleEndAnchor:
		return "$"
	case RuleOptional:
		return "[" + r.childrenString(" ") + "]"
	case RuleGroup:
		return "(" + r.childrenString(" ") + ")"
	case RuleChoice:
		return r.childrenString(" | ")
	case RuleRepeat:
		return r.childrenString(" ") + "*"
	case RuleRepeat1:
		return r.childrenString(" ") + "+"
	case RuleSeq:
		return r.childrenString(" ")
	default:
		return r.Text
	}
}

func (r *Rule) childrenString(sep string) string {
	parts := make([]string, 0, len(r.Children))
	for _, child := range r.Children {
		parts = append(parts, child.String())
	}

	return strings.Join(parts, sep)
}

// CaptureRefs returns the names of all capture references in the rule,
// in phrase order.
func (r *Rule) CaptureRefs() []string {
	return r.collect(RuleCaptureRef)
}

// ListRefs returns the names of all list references in the rule, in
// phrase order.
func (r *Rule) ListRefs() []string {
	return r.collect(RuleListRef)
}

func (r *Rule) collect(kind RuleKind) []string {
	if r == nil {
		return nil
	}

	var names []string

	if r.Kind == kind {
		names = append(names, r.Text)
	}

	for _, child := range r.Children {
		names = append(names, child.collect(kind)...)
	}

	return names
}
