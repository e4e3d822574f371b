// Package pyindex statically indexes implementation-language source files
// for the registration-style declarations referenced from grammar files:
// actions, captures, lists, settings, modes and tags, together with their
// attached documentation.
//
// No general-purpose interpreter is involved. The indexer parses the file
// with the real python tree-sitter grammar and pattern-matches the
// registration forms of the voice-command runtime at module top level and
// inside conditional blocks reachable from it. Unrecognizable regions
// degrade to localized warnings; indexing always recovers at the next
// top-level statement.
package pyindex

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	forest "github.com/alexaandru/go-sitter-forest/python"
	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/vocdoc/vocdoc/pkg/model"
	"github.com/vocdoc/vocdoc/pkg/talon"
)

// Sentinel errors for implementation indexing.
var (
	errLanguageUnavailable = errors.New("tree-sitter grammar not available")
	errNoRootNode          = errors.New("parse produced no root node")
	errPoolType            = errors.New("unexpected type in parser pool")
)

var (
	languageOnce sync.Once
	language     *sitter.Language

	parserPool = sync.Pool{
		New: func() any {
			p := sitter.NewParser()
			p.SetLanguage(pythonLanguage())

			return p
		},
	}
)

func pythonLanguage() *sitter.Language {
	languageOnce.Do(func() {
		defer func() {
			_ = recover()
		}()

		language = sitter.NewLanguage(forest.GetLanguage())
	})

	return language
}

// Index extracts every registration-style declaration from one
// implementation file. Files that declare nothing yield an empty
// SourceFile; that is not an error.
func Index(path string, src []byte) (*model.SourceFile, error) {
	lang := pythonLanguage()
	if lang == nil {
		return nil, errLanguageUnavailable
	}

	parser, ok := parserPool.Get().(*sitter.Parser)
	if !ok {
		return nil, errPoolType
	}
	defer parserPool.Put(parser)

	tree, err := parser.ParseString(context.Background(), nil, src)
	if err != nil {
		return nil, fmt.Errorf("index %s: %w", path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.IsNull() {
		return nil, errNoRootNode
	}

	idx := &indexer{
		path:    path,
		src:     src,
		modVars: make(map[string]bool),
		ctxVars: make(map[string]*model.Context),
		file: &model.SourceFile{
			Path: path,
			Kind: model.FileImplementation,
		},
	}

	idx.walkBlock(root, true)

	return idx.file, nil
}

// indexer walks one parsed implementation tree. modVars and ctxVars track
// which module variables hold registration namespaces and context scopes.
type indexer struct {
	path    string
	src     []byte
	file    *model.SourceFile
	modVars map[string]bool
	ctxVars map[string]*model.Context

	sawDocstring bool
}

// walkBlock visits the statements of a module or nested block. Function
// and class bodies are not descended into unless the definition carries a
// registration decorator; their contents only exist at call time.
func (idx *indexer) walkBlock(node sitter.Node, topLevel bool) {
	for i := range node.NamedChildCount() {
		stmt := node.NamedChild(i)

		switch stmt.Type() {
		case "ERROR":
			idx.warnf(stmt, "unparseable region near %s", snippet(stmt, idx.src))
		case "expression_statement":
			idx.visitExpressionStatement(stmt, topLevel && i == 0)
		case "decorated_definition":
			idx.visitDecorated(stmt)
		case "if_statement", "try_statement", "with_statement", "for_statement", "while_statement", "else_clause", "elif_clause", "except_clause", "finally_clause", "block":
			idx.walkBlock(stmt, false)
		case "comment", "import_statement", "import_from_statement", "class_definition", "function_definition":
			// Plain definitions and imports register nothing by themselves.
		}
	}
}

func (idx *indexer) visitExpressionStatement(stmt sitter.Node, first bool) {
	for i := range stmt.NamedChildCount() {
		child := stmt.NamedChild(i)

		switch child.Type() {
		case "assignment":
			idx.visitAssignment(child)
		case "call":
			idx.visitCall(child)
		case "string":
			if first && !idx.sawDocstring {
				idx.sawDocstring = true
				idx.file.Doc = model.ParseDocString(stringLiteral(child, idx.src))
			}
		}
	}
}

func (idx *indexer) warnf(node sitter.Node, format string, args ...any) {
	idx.file.Diagnostics = append(idx.file.Diagnostics, model.Diagnostic{
		Severity: model.SeverityWarning,
		Code:     model.CodeIndexingWarning,
		Message:  fmt.Sprintf(format, args...),
		Location: nodeLocation(idx.path, node),
	})
}

func (idx *indexer) declare(decl *model.Declaration) {
	idx.file.Declarations = append(idx.file.Declarations, decl)
}

func nodeLocation(path string, node sitter.Node) model.Location {
	point := node.StartPoint()

	return model.Location{
		Path:   path,
		Line:   int(point.Row) + 1,
		Column: int(point.Column) + 1,
	}
}

func snippet(node sitter.Node, src []byte) string {
	const maxLen = 40

	text := strings.TrimSpace(node.Content(src))
	if len(text) > maxLen {
		text = text[:maxLen] + "..."
	}

	return fmt.Sprintf("%q", text)
}

// reuse of the grammar-side header parser keeps the two file kinds in
// exact agreement about context syntax.
func parseMatches(text string) (model.Context, error) {
	return talon.ParseMatches(text)
}
