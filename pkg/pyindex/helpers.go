package pyindex

import (
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/vocdoc/vocdoc/pkg/model"
	"github.com/vocdoc/vocdoc/pkg/talon"
)

func firstNamed(node sitter.Node) sitter.Node {
	for i := range node.NamedChildCount() {
		child := node.NamedChild(i)
		if child.Type() != "comment" {
			return child
		}
	}

	return sitter.Node{}
}

// stringLiteral extracts the text of a python string literal, without
// quotes or prefixes, by concatenating its content fragments.
func stringLiteral(node sitter.Node, src []byte) string {
	var sb strings.Builder

	var walk func(n sitter.Node)

	walk = func(n sitter.Node) {
		for i := range n.NamedChildCount() {
			child := n.NamedChild(i)

			switch child.Type() {
			case "string_content", "escape_sequence":
				sb.WriteString(child.Content(src))
			case "string":
				walk(child)
			}
		}
	}

	walk(node)

	return sb.String()
}

// valueText renders an assigned value for documentation, truncated so
// large literal tables stay readable.
func valueText(node sitter.Node, src []byte) string {
	const maxLen = 120

	if node.IsNull() {
		return ""
	}

	text := strings.Join(strings.Fields(node.Content(src)), " ")
	if len(text) > maxLen {
		text = text[:maxLen] + "..."
	}

	return text
}

// callArgs gives positional and keyword access to a call's argument list.
type callArgs struct {
	positional []sitter.Node
	keyword    map[string]sitter.Node
	src        []byte
}

func newCallArgs(call sitter.Node, src []byte) *callArgs {
	args := &callArgs{keyword: make(map[string]sitter.Node), src: src}

	list := call.ChildByFieldName("arguments")
	if list.IsNull() {
		return args
	}

	for i := range list.NamedChildCount() {
		arg := list.NamedChild(i)

		switch arg.Type() {
		case "keyword_argument":
			name := arg.ChildByFieldName("name")
			value := arg.ChildByFieldName("value")

			if !name.IsNull() && !value.IsNull() {
				args.keyword[name.Content(src)] = value
			}
		case "comment":
			// Ignored.
		default:
			args.positional = append(args.positional, arg)
		}
	}

	return args
}

// positionalString returns the i-th positional argument when it is a
// string literal.
func (a *callArgs) positionalString(i int) (string, bool) {
	if i >= len(a.positional) || a.positional[i].Type() != "string" {
		return "", false
	}

	return stringLiteral(a.positional[i], a.src), true
}

// keywordString returns a keyword argument when it is a string literal.
func (a *callArgs) keywordString(name string) (string, bool) {
	value, ok := a.keyword[name]
	if !ok || value.Type() != "string" {
		return "", false
	}

	return stringLiteral(value, a.src), true
}

// keywordText returns a keyword argument's raw source text.
func (a *callArgs) keywordText(name string) string {
	value, ok := a.keyword[name]
	if !ok {
		return ""
	}

	return valueText(value, a.src)
}

// docstringOf returns the docstring of a function definition, if any.
func docstringOf(function sitter.Node, src []byte) string {
	body := function.ChildByFieldName("body")
	if body.IsNull() {
		return ""
	}

	first := firstNamed(body)
	if first.IsNull() || first.Type() != "expression_statement" {
		return ""
	}

	str := firstNamed(first)
	if str.IsNull() || str.Type() != "string" {
		return ""
	}

	return stringLiteral(str, src)
}

func parseRuleFragment(text string) (*model.Rule, error) {
	return talon.ParseRule(text)
}
