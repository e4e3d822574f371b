package talon

import (
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/vocdoc/vocdoc/pkg/model"
)

// parseBlock converts a command's indented action block into a script
// plus any leading docstring lines.
func (p *fileParser) parseBlock(node sitter.Node) (*model.Script, []string) {
	script := &model.Script{}

	var doc []string

	for i := range node.NamedChildCount() {
		child := node.NamedChild(i)

		switch child.Type() {
		case "docstring":
			doc = append(doc, docstringText(child, p.src))
		case "comment":
			// Ignored.
		case "assignment_statement":
			stmt := &model.Statement{
				Kind: model.StmtAssignment,
				Loc:  nodeLocation(p.path, child),
			}

			if left := child.ChildByFieldName("left"); !left.IsNull() {
				stmt.Target = strings.TrimSpace(left.Content(p.src))
			}

			if right := child.ChildByFieldName("right"); !right.IsNull() {
				stmt.Expr = p.parseExpr(right)
			}

			script.Statements = append(script.Statements, stmt)
		case "expression_statement":
			expr := p.firstNamedExpr(child)
			if expr == nil {
				continue
			}

			script.Statements = append(script.Statements, &model.Statement{
				Kind: model.StmtExpression,
				Expr: expr,
				Loc:  nodeLocation(p.path, child),
			})
		default:
			script.Statements = append(script.Statements, &model.Statement{
				Kind: model.StmtExpression,
				Expr: p.parseExpr(child),
				Loc:  nodeLocation(p.path, child),
			})
		}
	}

	return script, doc
}

func (p *fileParser) firstNamedExpr(node sitter.Node) *model.Expr {
	for i := range node.NamedChildCount() {
		child := node.NamedChild(i)
		if child.Type() == "comment" {
			continue
		}

		return p.parseExpr(child)
	}

	return nil
}

// parseExpr converts one expression subtree. The raw source slice is kept
// on every node so scripts reserialize exactly.
func (p *fileParser) parseExpr(node sitter.Node) *model.Expr {
	expr := &model.Expr{
		Raw: strings.TrimSpace(node.Content(p.src)),
		Loc: nodeLocation(p.path, node),
	}

	switch node.Type() {
	case "action":
		expr.Kind = model.ExprAction
		expr.Text = p.fieldText(node, "action_name")
		expr.Args = p.parseArguments(node.ChildByFieldName("arguments"))
	case "key_action":
		expr.Kind = model.ExprKey
		expr.Text = p.fieldText(node, "arguments")
	case "sleep_action":
		expr.Kind = model.ExprSleep
		expr.Text = p.fieldText(node, "arguments")
	case "string":
		expr.Kind = model.ExprString
		expr.Text = expr.Raw
		expr.Args = p.parseInterpolations(node)
	case "implicit_string":
		expr.Kind = model.ExprString
		expr.Text = expr.Raw
	case "variable":
		expr.Kind = model.ExprVariable
		expr.Text = p.fieldText(node, "variable_name")
	case "integer", "float", "number":
		expr.Kind = model.ExprNumber
		expr.Text = expr.Raw
	case "binary_operator", "unary_operator":
		expr.Kind = model.ExprOperator
		expr.Args = p.operandExprs(node)
	case "parenthesized_expression":
		if inner := p.firstNamedExpr(node); inner != nil {
			inner.Raw = expr.Raw

			return inner
		}

		expr.Kind = model.ExprString
	default:
		expr.Kind = model.ExprString
		expr.Text = expr.Raw
	}

	return expr
}

func (p *fileParser) parseArguments(node sitter.Node) []*model.Expr {
	if node.IsNull() {
		return nil
	}

	var args []*model.Expr

	for i := range node.NamedChildCount() {
		child := node.NamedChild(i)
		if child.Type() == "comment" {
			continue
		}

		args = append(args, p.parseExpr(child))
	}

	return args
}

// parseInterpolations collects the expressions interpolated into a string
// literal, so references inside "{user.text}" style fragments resolve.
func (p *fileParser) parseInterpolations(node sitter.Node) []*model.Expr {
	var interps []*model.Expr

	for i := range node.NamedChildCount() {
		child := node.NamedChild(i)
		if child.Type() != "interpolation" {
			continue
		}

		if inner := p.firstNamedExpr(child); inner != nil {
			interps = append(interps, inner)
		}
	}

	return interps
}

func (p *fileParser) operandExprs(node sitter.Node) []*model.Expr {
	var operands []*model.Expr

	for _, field := range []string{"left", "right"} {
		if child := node.ChildByFieldName(field); !child.IsNull() {
			operands = append(operands, p.parseExpr(child))
		}
	}

	if len(operands) > 0 {
		return operands
	}

	for i := range node.NamedChildCount() {
		child := node.NamedChild(i)
		if child.Type() == "comment" {
			continue
		}

		operands = append(operands, p.parseExpr(child))
	}

	return operands
}
