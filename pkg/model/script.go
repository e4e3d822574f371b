package model

import "strings"

// ExprKind identifies an expression in a command's action block.
type ExprKind string

// Expression kinds.
const (
	ExprAction   ExprKind = "action"
	ExprString   ExprKind = "string"
	ExprVariable ExprKind = "variable"
	ExprNumber   ExprKind = "number"
	ExprOperator ExprKind = "operator"
	ExprKey      ExprKind = "key"
	ExprSleep    ExprKind = "sleep"
)

// Expr is one expression from an action block. Text holds the
// kind-specific payload (action name, variable name, literal text or
// operator symbol); Raw preserves the exact source slice. Args holds
// call arguments, operator operands, or the expressions interpolated
// into a string literal.
type Expr struct {
	Kind ExprKind `json:"kind" yaml:"kind"`
	Text string   `json:"text,omitempty" yaml:"text,omitempty"`
	Raw  string   `json:"raw,omitempty" yaml:"raw,omitempty"`
	Args []*Expr  `json:"args,omitempty" yaml:"args,omitempty"`
	Loc  Location `json:"loc" yaml:"loc"`
}

// String reserializes the expression; the raw source slice is preferred
// when available.
func (e *Expr) String() string {
	if e == nil {
		return ""
	}

	if e.Raw != "" {
		return e.Raw
	}

	switch e.Kind {
	case ExprAction:
		args := make([]string, len(e.Args))
		for i, arg := range e.Args {
			args[i] = arg.String()
		}

		return e.Text + "(" + strings.Join(args, ", ") + ")"
	case ExprKey:
		return "key(" + e.Text + ")"
	case ExprSleep:
		return "sleep(" + e.Text + ")"
	default:
		return e.Text
	}
}

// StmtKind identifies a statement in a command's action block.
type StmtKind string

// Statement kinds.
const (
	StmtExpression StmtKind = "expression"
	StmtAssignment StmtKind = "assignment"
)

// Statement is one line of a command's action block. Assignments bind a
// command-local name; they never enter the package-wide symbol table.
type Statement struct {
	Kind   StmtKind `json:"kind" yaml:"kind"`
	Target string   `json:"target,omitempty" yaml:"target,omitempty"`
	Expr   *Expr    `json:"expr,omitempty" yaml:"expr,omitempty"`
	Loc    Location `json:"loc" yaml:"loc"`
}

// String reserializes the statement.
func (s *Statement) String() string {
	if s == nil {
		return ""
	}

	if s.Kind == StmtAssignment {
		return s.Target + " = " + s.Expr.String()
	}

	return s.Expr.String()
}

// Script is the ordered action-call sequence of a command.
type Script struct {
	Statements []*Statement `json:"statements,omitempty" yaml:"statements,omitempty"`
}

// String reserializes the script, one statement per line.
func (s Script) String() string {
	lines := make([]string, len(s.Statements))
	for i, stmt := range s.Statements {
		lines[i] = stmt.String()
	}

	return strings.Join(lines, "\n")
}
