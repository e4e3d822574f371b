package talon

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	forest "github.com/alexaandru/go-sitter-forest/talon"
	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/vocdoc/vocdoc/pkg/model"
)

var (
	languageOnce sync.Once
	language     *sitter.Language

	// Parsers are not safe for concurrent use; the pool lets the builder
	// fan out across files without re-initializing the grammar.
	parserPool = sync.Pool{
		New: func() any {
			p := sitter.NewParser()
			p.SetLanguage(grammarLanguage())

			return p
		},
	}
)

func grammarLanguage() *sitter.Language {
	languageOnce.Do(func() {
		defer func() {
			_ = recover()
		}()

		language = sitter.NewLanguage(forest.GetLanguage())
	})

	return language
}

// Parse converts one grammar file into a SourceFile: the context header,
// the command, settings and tag-import declarations, and any attached
// docstrings. Declaration names are not yet namespace-qualified; the
// package builder owns qualification and context inheritance.
func Parse(path string, src []byte) (*model.SourceFile, error) {
	root, tree, err := parseTree(src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	if errNode, found := findErrorNode(root); found {
		detail := "unparseable grammar near " + snippet(errNode, src)
		if errNode.IsMissing() {
			detail = "incomplete grammar: missing " + errNode.Type()
		}

		return nil, &SyntaxError{
			Location: nodeLocation(path, errNode),
			Detail:   detail,
		}
	}

	p := &fileParser{path: path, src: src}
	file := p.parseSourceFile(root)

	return file, nil
}

// ParseMatches parses a bare context-header fragment, as found in
// implementation files ("os: mac\napp: code\n"), into a Context.
func ParseMatches(src string) (model.Context, error) {
	text := strings.TrimSpace(src)
	if text == "" {
		return model.Context{}, nil
	}

	file, err := Parse("<matches>", []byte(text+"\n-\n"))
	if err != nil {
		return model.Context{}, err
	}

	return file.Context, nil
}

// ParseRule parses a bare phrase-rule fragment, as found in capture
// registrations (`rule="<digits> [over]"`), into a rule AST.
func ParseRule(src string) (*model.Rule, error) {
	text := strings.TrimSpace(src)
	if text == "" {
		return nil, &SyntaxError{Detail: "empty rule"}
	}

	file, err := Parse("<rule>", []byte("-\n"+text+": skip()\n"))
	if err != nil {
		return nil, err
	}

	for _, decl := range file.Declarations {
		if decl.Kind == model.KindCommand && decl.Rule != nil {
			return decl.Rule, nil
		}
	}

	return nil, &SyntaxError{Detail: "no rule found in fragment"}
}

func parseTree(src []byte) (sitter.Node, *sitter.Tree, error) {
	lang := grammarLanguage()
	if lang == nil {
		return sitter.Node{}, nil, errLanguageUnavailable
	}

	parser, ok := parserPool.Get().(*sitter.Parser)
	if !ok {
		return sitter.Node{}, nil, errPoolType
	}
	defer parserPool.Put(parser)

	tree, err := parser.ParseString(context.Background(), nil, src)
	if err != nil {
		return sitter.Node{}, nil, fmt.Errorf("grammar parse: %w", err)
	}

	root := tree.RootNode()
	if root.IsNull() {
		tree.Close()

		return sitter.Node{}, nil, errNoRootNode
	}

	return root, tree, nil
}

// fileParser walks one parsed grammar tree.
type fileParser struct {
	path string
	src  []byte
}

func (p *fileParser) parseSourceFile(root sitter.Node) *model.SourceFile {
	file := &model.SourceFile{
		Path: p.path,
		Kind: model.FileGrammar,
	}

	var (
		pendingDoc []string
		fileDoc    []string
	)

	for i := range root.NamedChildCount() {
		child := root.NamedChild(i)

		switch child.Type() {
		case "matches":
			ctx, doc := p.parseMatches(child)
			file.Context = ctx

			fileDoc = append(fileDoc, doc...)
		case "declarations":
			p.parseDeclarations(child, file, &pendingDoc)
		case "docstring":
			fileDoc = append(fileDoc, docstringText(child, p.src))
		case "comment":
			// Plain comments carry no documentation.
		default:
			p.parseDeclaration(child, file, &pendingDoc)
		}
	}

	if len(fileDoc) > 0 {
		file.Doc = model.ParseDocString(strings.Join(fileDoc, "\n"))
	}

	return file
}

func (p *fileParser) parseMatches(node sitter.Node) (model.Context, []string) {
	ctx := model.Context{}

	var doc []string

	for i := range node.NamedChildCount() {
		child := node.NamedChild(i)

		switch child.Type() {
		case "match":
			ctx.Matches = append(ctx.Matches, p.parseMatch(child))
		case "docstring":
			doc = append(doc, docstringText(child, p.src))
		}
	}

	return ctx, doc
}

func (p *fileParser) parseMatch(node sitter.Node) model.Match {
	match := model.Match{}

	for i := range node.NamedChildCount() {
		child := node.NamedChild(i)
		if child.Type() == "match_modifier" {
			match.Modifiers = append(match.Modifiers, strings.TrimSpace(child.Content(p.src)))
		}
	}

	if left := node.ChildByFieldName("left"); !left.IsNull() {
		match.Key = strings.TrimSpace(left.Content(p.src))
	}

	if right := node.ChildByFieldName("right"); !right.IsNull() {
		match.Value = strings.TrimSpace(right.Content(p.src))
	}

	return match
}

func (p *fileParser) parseDeclarations(node sitter.Node, file *model.SourceFile, pendingDoc *[]string) {
	for i := range node.NamedChildCount() {
		p.parseDeclaration(node.NamedChild(i), file, pendingDoc)
	}
}

func (p *fileParser) parseDeclaration(node sitter.Node, file *model.SourceFile, pendingDoc *[]string) {
	switch node.Type() {
	case "docstring":
		*pendingDoc = append(*pendingDoc, docstringText(node, p.src))
	case "comment":
		// Ignored.
	case "command_declaration":
		file.Declarations = append(file.Declarations, p.parseCommand(node, takeDoc(pendingDoc)))
	case "settings_declaration":
		file.Declarations = append(file.Declarations, p.parseSettings(node)...)

		*pendingDoc = nil
	case "tag_import_declaration":
		if ref, ok := p.parseTagImport(node); ok {
			file.TagImports = append(file.TagImports, ref)
		}

		*pendingDoc = nil
	default:
		// Key, face, gamepad, parrot, noise and deck bindings carry no
		// documentable voice commands.
		slog.Debug("skip declaration", "path", p.path, "type", node.Type())

		*pendingDoc = nil
	}
}

func (p *fileParser) parseCommand(node sitter.Node, doc []string) *model.Declaration {
	decl := &model.Declaration{
		Kind:     model.KindCommand,
		Location: nodeLocation(p.path, node),
	}

	if left := node.ChildByFieldName("left"); !left.IsNull() {
		decl.Rule = p.parseRule(left)
	}

	var blockDoc []string

	if right := node.ChildByFieldName("right"); !right.IsNull() {
		decl.Script, blockDoc = p.parseBlock(right)
	}

	doc = append(doc, blockDoc...)
	if len(doc) > 0 {
		decl.Doc = model.ParseDocString(strings.Join(doc, "\n"))
	}

	if decl.Rule != nil {
		decl.Name = decl.Rule.String()
	}

	return decl
}

func (p *fileParser) parseSettings(node sitter.Node) []*model.Declaration {
	var decls []*model.Declaration

	block := node.ChildByFieldName("right")
	if block.IsNull() {
		block = lastNamedChild(node)
	}

	if block.IsNull() {
		return nil
	}

	for i := range block.NamedChildCount() {
		stmt := block.NamedChild(i)
		if stmt.Type() != "assignment_statement" {
			continue
		}

		left := stmt.ChildByFieldName("left")
		right := stmt.ChildByFieldName("right")

		if left.IsNull() {
			continue
		}

		decl := &model.Declaration{
			Kind:     model.KindSetting,
			Name:     strings.TrimSpace(left.Content(p.src)),
			Location: nodeLocation(p.path, stmt),
			Override: true,
		}

		if !right.IsNull() {
			decl.Value = strings.TrimSpace(right.Content(p.src))
		}

		decls = append(decls, decl)
	}

	return decls
}

func (p *fileParser) parseTagImport(node sitter.Node) (model.Reference, bool) {
	target := node.ChildByFieldName("right")

	if target.IsNull() {
		for i := range node.NamedChildCount() {
			child := node.NamedChild(i)
			if child.Type() == "identifier" {
				target = child

				break
			}
		}
	}

	if target.IsNull() {
		return model.Reference{}, false
	}

	return model.Reference{
		Kind:     model.RefTag,
		Name:     strings.TrimSpace(target.Content(p.src)),
		Location: nodeLocation(p.path, target),
		State:    model.RefUnresolved,
	}, true
}

func takeDoc(pendingDoc *[]string) []string {
	doc := *pendingDoc
	*pendingDoc = nil

	return doc
}

func lastNamedChild(node sitter.Node) sitter.Node {
	count := node.NamedChildCount()
	if count == 0 {
		return sitter.Node{}
	}

	return node.NamedChild(count - 1)
}

// findErrorNode walks all children, not just named ones: the zero-width
// tokens inserted by error recovery are anonymous and would never show
// up in a named traversal.
func findErrorNode(node sitter.Node) (sitter.Node, bool) {
	if node.Type() == "ERROR" || node.IsMissing() {
		return node, true
	}

	for i := range node.ChildCount() {
		if errNode, found := findErrorNode(node.Child(i)); found {
			return errNode, true
		}
	}

	return sitter.Node{}, false
}

func nodeLocation(path string, node sitter.Node) model.Location {
	point := node.StartPoint()

	return model.Location{
		Path:   path,
		Line:   int(point.Row) + 1,
		Column: int(point.Column) + 1,
	}
}

func docstringText(node sitter.Node, src []byte) string {
	text := node.Content(src)
	text = strings.TrimPrefix(text, "###")

	return strings.TrimSpace(text)
}

func snippet(node sitter.Node, src []byte) string {
	const maxLen = 40

	text := strings.TrimSpace(node.Content(src))
	if len(text) > maxLen {
		text = text[:maxLen] + "..."
	}

	return fmt.Sprintf("%q", text)
}
