package talon

import (
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/vocdoc/vocdoc/pkg/model"
)

// parseRule converts a phrase-rule subtree into the rule AST.
// Alternatives stay as a single choice node; nothing is expanded.
func (p *fileParser) parseRule(node sitter.Node) *model.Rule {
	switch node.Type() {
	case "rule", "seq":
		children := p.parseRuleChildren(node)
		if len(children) == 1 && node.Type() == "seq" {
			return children[0]
		}

		return &model.Rule{Kind: model.RuleSeq, Children: children}
	case "word":
		return model.Word(strings.TrimSpace(node.Content(p.src)))
	case "capture":
		return &model.Rule{Kind: model.RuleCaptureRef, Text: p.fieldText(node, "capture_name")}
	case "list":
		return &model.Rule{Kind: model.RuleListRef, Text: p.fieldText(node, "list_name")}
	case "optional":
		return &model.Rule{Kind: model.RuleOptional, Children: p.parseRuleChildren(node)}
	case "parenthesized_rule":
		return &model.Rule{Kind: model.RuleGroup, Children: p.parseRuleChildren(node)}
	case "choice":
		return &model.Rule{Kind: model.RuleChoice, Children: p.parseRuleChildren(node)}
	case "repeat":
		return &model.Rule{Kind: model.RuleRepeat, Children: p.parseRuleChildren(node)}
	case "repeat1":
		return &model.Rule{Kind: model.RuleRepeat1, Children: p.parseRuleChildren(node)}
	case "start_anchor":
		return &model.Rule{Kind: model.RuleStartAnchor}
	case "end_anchor":
		return &model.Rule{Kind: model.RuleEndAnchor}
	case "comment":
		return nil
	default:
		// Unknown phrase syntax degrades to its literal source text.
		return model.Word(strings.TrimSpace(node.Content(p.src)))
	}
}

func (p *fileParser) parseRuleChildren(node sitter.Node) []*model.Rule {
	var children []*model.Rule

	for i := range node.NamedChildCount() {
		if child := p.parseRule(node.NamedChild(i)); child != nil {
			children = append(children, child)
		}
	}

	return children
}

func (p *fileParser) fieldText(node sitter.Node, field string) string {
	child := node.ChildByFieldName(field)
	if child.IsNull() {
		return ""
	}

	return strings.TrimSpace(child.Content(p.src))
}
