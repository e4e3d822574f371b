package pyindex

import (
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/vocdoc/vocdoc/pkg/model"
)

// Registration attribute names on module objects.
const (
	regList    = "list"
	regTag     = "tag"
	regMode    = "mode"
	regSetting = "setting"
)

// visitAssignment handles the binder and scope forms:
//
//	mod = Module()
//	ctx = Context()
//	ctx.matches = "os: mac"
//	ctx.lists["user.x"] = {...}
//	ctx.settings["user.y"] = 3
//	ctx.tags = ["user.z"]
func (idx *indexer) visitAssignment(node sitter.Node) {
	left := node.ChildByFieldName("left")
	right := node.ChildByFieldName("right")

	if left.IsNull() || right.IsNull() {
		return
	}

	switch left.Type() {
	case "identifier":
		idx.bindConstructor(left.Content(idx.src), right)
	case "attribute":
		idx.assignAttribute(left, right)
	case "subscript":
		idx.assignSubscript(left, right)
	}
}

func (idx *indexer) bindConstructor(name string, right sitter.Node) {
	if right.Type() != "call" {
		return
	}

	fn := right.ChildByFieldName("function")
	if fn.IsNull() {
		return
	}

	called := fn.Content(idx.src)
	if dot := strings.LastIndexByte(called, '.'); dot >= 0 {
		called = called[dot+1:]
	}

	switch called {
	case "Module":
		idx.modVars[name] = true
	case "Context":
		idx.ctxVars[name] = &model.Context{}
	}
}

func (idx *indexer) assignAttribute(left, right sitter.Node) {
	obj := left.ChildByFieldName("object")
	attr := left.ChildByFieldName("attribute")

	if obj.IsNull() || attr.IsNull() || obj.Type() != "identifier" {
		return
	}

	scope, isCtx := idx.ctxVars[obj.Content(idx.src)]
	if !isCtx {
		return
	}

	switch attr.Content(idx.src) {
	case "matches":
		if right.Type() != "string" {
			idx.warnf(right, "context matches must be a string literal")

			return
		}

		parsed, err := parseMatches(stringLiteral(right, idx.src))
		if err != nil {
			idx.warnf(right, "unparseable context matches: %v", err)

			return
		}

		*scope = parsed
	case "lists":
		idx.assignScopeDict(right, model.KindList, *scope)
	case "settings":
		idx.assignScopeDict(right, model.KindSetting, *scope)
	case "tags":
		idx.collectTagUses(right)
	}
}

// assignScopeDict handles `ctx.lists = {...}` and `ctx.settings = {...}`:
// each string key becomes a context-scoped override declaration.
func (idx *indexer) assignScopeDict(right sitter.Node, kind model.Kind, scope model.Context) {
	if right.Type() != "dictionary" {
		return
	}

	for i := range right.NamedChildCount() {
		pair := right.NamedChild(i)
		if pair.Type() != "pair" {
			continue
		}

		key := pair.ChildByFieldName("key")
		value := pair.ChildByFieldName("value")

		if key.IsNull() || key.Type() != "string" {
			continue
		}

		idx.declare(&model.Declaration{
			Kind:     kind,
			Name:     stringLiteral(key, idx.src),
			Location: nodeLocation(idx.path, pair),
			Context:  scope,
			Override: true,
			Value:    valueText(value, idx.src),
		})
	}
}

// assignSubscript handles `ctx.lists["user.x"] = ...` and
// `ctx.settings["user.y"] = ...`.
func (idx *indexer) assignSubscript(left, right sitter.Node) {
	value := left.ChildByFieldName("value")
	sub := left.ChildByFieldName("subscript")

	if value.IsNull() || sub.IsNull() || value.Type() != "attribute" {
		return
	}

	obj := value.ChildByFieldName("object")
	attr := value.ChildByFieldName("attribute")

	if obj.IsNull() || attr.IsNull() || obj.Type() != "identifier" {
		return
	}

	scope, isCtx := idx.ctxVars[obj.Content(idx.src)]
	if !isCtx {
		return
	}

	var kind model.Kind

	switch attr.Content(idx.src) {
	case "lists":
		kind = model.KindList
	case "settings":
		kind = model.KindSetting
	default:
		return
	}

	if sub.Type() != "string" {
		idx.warnf(sub, "%s override key must be a string literal", kind)

		return
	}

	idx.declare(&model.Declaration{
		Kind:     kind,
		Name:     stringLiteral(sub, idx.src),
		Location: nodeLocation(idx.path, left),
		Context:  *scope,
		Override: true,
		Value:    valueText(right, idx.src),
	})
}

// collectTagUses records `ctx.tags = ["user.x"]` entries as tag imports,
// the implementation-side counterpart of a grammar tag() declaration.
func (idx *indexer) collectTagUses(right sitter.Node) {
	if right.Type() != "list" && right.Type() != "tuple" && right.Type() != "set" {
		return
	}

	for i := range right.NamedChildCount() {
		item := right.NamedChild(i)
		if item.Type() != "string" {
			continue
		}

		idx.file.TagImports = append(idx.file.TagImports, model.Reference{
			Kind:     model.RefTag,
			Name:     stringLiteral(item, idx.src),
			Location: nodeLocation(idx.path, item),
			State:    model.RefUnresolved,
		})
	}
}

// visitCall handles the simple registration calls:
//
//	mod.list("letters", desc="...")
//	mod.tag("slack", "...")
//	mod.mode("dictation", "...")
//	mod.setting("delay", type=float, default=0.1, desc="...")
func (idx *indexer) visitCall(node sitter.Node) {
	fn := node.ChildByFieldName("function")
	if fn.IsNull() || fn.Type() != "attribute" {
		return
	}

	obj := fn.ChildByFieldName("object")
	attr := fn.ChildByFieldName("attribute")

	if obj.IsNull() || attr.IsNull() || obj.Type() != "identifier" {
		return
	}

	if !idx.modVars[obj.Content(idx.src)] {
		return
	}

	var kind model.Kind

	switch attr.Content(idx.src) {
	case regList:
		kind = model.KindList
	case regTag:
		kind = model.KindTag
	case regMode:
		kind = model.KindMode
	case regSetting:
		kind = model.KindSetting
	default:
		return
	}

	args := newCallArgs(node, idx.src)

	name, ok := args.positionalString(0)
	if !ok {
		idx.warnf(node, "%s registration name must be a string literal", kind)

		return
	}

	decl := &model.Declaration{
		Kind:     kind,
		Name:     name,
		Location: nodeLocation(idx.path, node),
	}

	desc, hasDesc := args.keywordString("desc")
	if !hasDesc {
		desc, hasDesc = args.positionalString(1)
	}

	if hasDesc {
		decl.Doc = model.ParseDocString(desc)
	}

	if kind == model.KindSetting {
		decl.TypeHint = args.keywordText("type")
		decl.Value = args.keywordText("default")
	}

	idx.declare(decl)
}
