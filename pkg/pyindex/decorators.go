package pyindex

import (
	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/vocdoc/vocdoc/pkg/model"
)

// visitDecorated handles the decorator registration forms:
//
//	@mod.action_class           class Actions: ...
//	@ctx.action_class("edit")   class EditActions: ...
//	@mod.capture(rule="...")    def fruit(m): ...
//	@ctx.capture("user.fruit", rule="...")  def fruit(m): ...
func (idx *indexer) visitDecorated(node sitter.Node) {
	definition := node.ChildByFieldName("definition")
	if definition.IsNull() {
		return
	}

	for i := range node.NamedChildCount() {
		dec := node.NamedChild(i)
		if dec.Type() != "decorator" {
			continue
		}

		if idx.applyDecorator(dec, definition) {
			return
		}
	}
}

// applyDecorator inspects one decorator; reports whether it was a
// registration form.
func (idx *indexer) applyDecorator(dec, definition sitter.Node) bool {
	inner := firstNamed(dec)
	if inner.IsNull() {
		return false
	}

	switch inner.Type() {
	case "attribute":
		obj, attr := idx.attributeParts(inner)
		if attr == "action_class" && idx.modVars[obj] {
			idx.indexActionClass(definition, "", model.Context{}, false)

			return true
		}
	case "call":
		return idx.applyDecoratorCall(inner, definition)
	}

	return false
}

func (idx *indexer) applyDecoratorCall(call, definition sitter.Node) bool {
	fn := call.ChildByFieldName("function")
	if fn.IsNull() || fn.Type() != "attribute" {
		return false
	}

	obj, attr := idx.attributeParts(fn)
	args := newCallArgs(call, idx.src)

	switch {
	case attr == "action_class":
		scope, isCtx := idx.ctxVars[obj]
		if !isCtx {
			return false
		}

		namespace, ok := args.positionalString(0)
		if !ok {
			idx.warnf(call, "action class scope must be a string literal")

			return true
		}

		idx.indexActionClass(definition, namespace, *scope, true)

		return true
	case attr == "capture" && idx.modVars[obj]:
		idx.indexCapture(definition, "", args, model.Context{}, false)

		return true
	case attr == "capture":
		scope, isCtx := idx.ctxVars[obj]
		if !isCtx {
			return false
		}

		name, _ := args.positionalString(0)
		idx.indexCapture(definition, name, args, *scope, true)

		return true
	}

	return false
}

func (idx *indexer) attributeParts(attribute sitter.Node) (obj, attr string) {
	objNode := attribute.ChildByFieldName("object")
	attrNode := attribute.ChildByFieldName("attribute")

	if objNode.IsNull() || attrNode.IsNull() || objNode.Type() != "identifier" {
		return "", ""
	}

	return objNode.Content(idx.src), attrNode.Content(idx.src)
}

// indexActionClass turns every method of a decorated class into an action
// declaration. A namespace argument marks a context-scoped override of
// another module's actions; without one the method names stay unqualified
// until the package builder applies the package namespace.
func (idx *indexer) indexActionClass(definition sitter.Node, namespace string, scope model.Context, override bool) {
	if definition.Type() != "class_definition" {
		idx.warnf(definition, "action class decorator on non-class definition")

		return
	}

	body := definition.ChildByFieldName("body")
	if body.IsNull() {
		return
	}

	for i := range body.NamedChildCount() {
		method := body.NamedChild(i)
		if method.Type() == "decorated_definition" {
			method = method.ChildByFieldName("definition")
		}

		if method.IsNull() || method.Type() != "function_definition" {
			continue
		}

		nameNode := method.ChildByFieldName("name")
		if nameNode.IsNull() {
			continue
		}

		name := nameNode.Content(idx.src)
		if namespace != "" {
			name = namespace + "." + name
		}

		idx.declare(&model.Declaration{
			Kind:      model.KindAction,
			Name:      name,
			Location:  nodeLocation(idx.path, method),
			Context:   scope,
			Override:  override,
			Doc:       model.ParseDocString(docstringOf(method, idx.src)),
			Signature: idx.signatureOf(method),
		})
	}
}

// indexCapture turns a decorated function into a capture declaration. The
// phrase rule from the decorator is parsed with the grammar parser; a rule
// that does not parse degrades to its raw text plus a warning.
func (idx *indexer) indexCapture(definition sitter.Node, name string, args *callArgs, scope model.Context, override bool) {
	if definition.Type() != "function_definition" {
		idx.warnf(definition, "capture decorator on non-function definition")

		return
	}

	if name == "" {
		nameNode := definition.ChildByFieldName("name")
		if nameNode.IsNull() {
			return
		}

		name = nameNode.Content(idx.src)
	}

	decl := &model.Declaration{
		Kind:      model.KindCapture,
		Name:      name,
		Location:  nodeLocation(idx.path, definition),
		Context:   scope,
		Override:  override,
		Doc:       model.ParseDocString(docstringOf(definition, idx.src)),
		Signature: idx.signatureOf(definition),
	}

	if ruleText, ok := args.keywordString("rule"); ok {
		rule, err := parseRuleFragment(ruleText)
		if err != nil {
			idx.warnf(definition, "unparseable capture rule: %v", err)

			decl.Value = ruleText
		} else {
			decl.CaptureRule = rule
		}
	}

	idx.declare(decl)
}

func (idx *indexer) signatureOf(function sitter.Node) *model.Signature {
	params := function.ChildByFieldName("parameters")
	if params.IsNull() {
		return nil
	}

	sig := &model.Signature{}

	if ret := function.ChildByFieldName("return_type"); !ret.IsNull() {
		sig.Returns = ret.Content(idx.src)
	}

	for i := range params.NamedChildCount() {
		param := params.NamedChild(i)
		if p, ok := idx.parseParam(param); ok {
			sig.Params = append(sig.Params, p)
		}
	}

	return sig
}

func (idx *indexer) parseParam(node sitter.Node) (model.Param, bool) {
	var param model.Param

	switch node.Type() {
	case "identifier":
		param.Name = node.Content(idx.src)
	case "typed_parameter":
		if name := firstNamed(node); !name.IsNull() {
			param.Name = name.Content(idx.src)
		}

		if typ := node.ChildByFieldName("type"); !typ.IsNull() {
			param.Type = typ.Content(idx.src)
		}
	case "default_parameter", "typed_default_parameter":
		if name := node.ChildByFieldName("name"); !name.IsNull() {
			param.Name = name.Content(idx.src)
		}

		if typ := node.ChildByFieldName("type"); !typ.IsNull() {
			param.Type = typ.Content(idx.src)
		}

		if value := node.ChildByFieldName("value"); !value.IsNull() {
			param.Default = value.Content(idx.src)
		}
	default:
		return param, false
	}

	if param.Name == "" || param.Name == "self" || param.Name == "cls" {
		return param, false
	}

	return param, true
}
