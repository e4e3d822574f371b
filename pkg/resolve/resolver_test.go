package resolve_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vocdoc/vocdoc/pkg/model"
	"github.com/vocdoc/vocdoc/pkg/resolve"
	"github.com/vocdoc/vocdoc/pkg/symbols"
)

func action(pkg, name string, line int) *model.Declaration {
	return &model.Declaration{
		Kind:      model.KindAction,
		Name:      name,
		Namespace: symbols.NamespaceOf(name),
		Package:   pkg,
		Location:  model.Location{Path: pkg + "/impl.py", Line: line, Column: 1},
	}
}

func command(pkg, phrase string, calls ...*model.Expr) *model.Declaration {
	rule := ruleFromWords(phrase)

	script := &model.Script{}
	for _, call := range calls {
		script.Statements = append(script.Statements, &model.Statement{
			Kind: model.StmtExpression,
			Expr: call,
		})
	}

	return &model.Declaration{
		Kind:     model.KindCommand,
		Name:     phrase,
		Package:  pkg,
		Location: model.Location{Path: pkg + "/cmds.talon", Line: 3, Column: 1},
		Rule:     rule,
		Script:   script,
	}
}

func ruleFromWords(phrase string) *model.Rule {
	rule := &model.Rule{Kind: model.RuleSeq}
	for _, word := range strings.Fields(phrase) {
		rule.Children = append(rule.Children, model.Word(word))
	}

	return rule
}

func call(name string, args ...*model.Expr) *model.Expr {
	return &model.Expr{Kind: model.ExprAction, Text: name, Args: args}
}

func modelOf(packages ...*model.Package) *model.PackageModel {
	m := &model.PackageModel{Packages: packages}
	m.Sort()

	return m
}

func pkgOf(name, namespace string, files ...*model.SourceFile) *model.Package {
	return &model.Package{Name: name, Namespace: namespace, Root: name, Files: files}
}

func fileOf(path string, decls ...*model.Declaration) *model.SourceFile {
	return &model.SourceFile{Path: path, Kind: model.FileGrammar, Declarations: decls}
}

func tableOf(decls ...*model.Declaration) *symbols.Table {
	table := symbols.NewTable()
	for _, decl := range decls {
		table.Add(decl)
	}

	return table
}

func referencesByName(report *resolve.Report, name string) []model.Reference {
	var out []model.Reference

	for _, owned := range report.References {
		if owned.Reference.Name == name {
			out = append(out, owned.Reference)
		}
	}

	return out
}

func TestResolveSamePackageAction(t *testing.T) {
	t.Parallel()

	impl := action("knausj", "user.open_file", 10)
	cmd := command("knausj", "open file", call("user.open_file"))

	m := modelOf(pkgOf("knausj", "user", fileOf("knausj/cmds.talon", cmd)))

	report := resolve.New(tableOf(impl, cmd), symbols.Builtins()).Resolve(m)

	refs := referencesByName(report, "user.open_file")
	require.Len(t, refs, 1)
	assert.Equal(t, model.RefResolved, refs[0].State)
	require.NotNil(t, refs[0].Resolved)
	assert.Equal(t, 10, refs[0].Resolved.Line)
	assert.Empty(t, report.Diagnostics)
}

func TestResolveQualifiesUnqualifiedNames(t *testing.T) {
	t.Parallel()

	impl := action("knausj", "user.open_file", 10)
	cmd := command("knausj", "open file", call("open_file"))

	m := modelOf(pkgOf("knausj", "user", fileOf("knausj/cmds.talon", cmd)))

	report := resolve.New(tableOf(impl, cmd), symbols.Builtins()).Resolve(m)

	refs := referencesByName(report, "open_file")
	require.Len(t, refs, 1)
	assert.Equal(t, model.RefResolved, refs[0].State)
}

func TestResolveSamePackageBeatsCrossPackage(t *testing.T) {
	t.Parallel()

	local := action("alpha", "user.paste", 5)
	remote := action("beta", "user.paste", 50)
	cmd := command("alpha", "paste it", call("user.paste"))

	m := modelOf(
		pkgOf("alpha", "user", fileOf("alpha/cmds.talon", cmd)),
		pkgOf("beta", "user", fileOf("beta/impl.py", remote)),
	)

	report := resolve.New(tableOf(local, remote, cmd), symbols.Builtins()).Resolve(m)

	refs := referencesByName(report, "user.paste")
	require.Len(t, refs, 1)
	require.Equal(t, model.RefResolved, refs[0].State)
	assert.Equal(t, 5, refs[0].Resolved.Line)
}

func TestResolveFallsBackToCrossPackage(t *testing.T) {
	t.Parallel()

	remote := action("beta", "user.paste", 50)
	cmd := command("alpha", "paste it", call("user.paste"))

	m := modelOf(
		pkgOf("alpha", "user", fileOf("alpha/cmds.talon", cmd)),
		pkgOf("beta", "user", fileOf("beta/impl.py", remote)),
	)

	report := resolve.New(tableOf(remote, cmd), symbols.Builtins()).Resolve(m)

	refs := referencesByName(report, "user.paste")
	require.Len(t, refs, 1)
	require.Equal(t, model.RefResolved, refs[0].State)
	assert.Equal(t, 50, refs[0].Resolved.Line)
}

func TestResolveBuiltinFallback(t *testing.T) {
	t.Parallel()

	cmd := command("knausj", "hello world", call("insert", &model.Expr{
		Kind: model.ExprString,
		Text: "hello",
	}))

	m := modelOf(pkgOf("knausj", "user", fileOf("knausj/cmds.talon", cmd)))

	report := resolve.New(tableOf(cmd), symbols.Builtins()).Resolve(m)

	refs := referencesByName(report, "insert")
	require.Len(t, refs, 1)
	assert.Equal(t, model.RefResolved, refs[0].State)
	assert.Equal(t, "<builtin>", refs[0].Resolved.Path)
	assert.Empty(t, report.Diagnostics)
}

func TestResolvePackageDeclarationShadowsBuiltin(t *testing.T) {
	t.Parallel()

	// A package re-declaring insert wins over the builtin and the build
	// stays clean.
	impl := action("knausj", "insert", 7)
	cmd := command("knausj", "say hello", call("insert"))

	m := modelOf(pkgOf("knausj", "user", fileOf("knausj/cmds.talon", cmd)))

	report := resolve.New(tableOf(impl, cmd), symbols.Builtins()).Resolve(m)

	refs := referencesByName(report, "insert")
	require.Len(t, refs, 1)
	require.Equal(t, model.RefResolved, refs[0].State)
	assert.Equal(t, 7, refs[0].Resolved.Line)
	assert.Empty(t, report.Diagnostics)
}

func TestResolveUnknownActionIsSingleDiagnostic(t *testing.T) {
	t.Parallel()

	cmd := command("knausj", "do thing", call("user.nonexistent_action"))

	m := modelOf(pkgOf("knausj", "user", fileOf("knausj/cmds.talon", cmd)))

	report := resolve.New(tableOf(cmd), symbols.Builtins()).Resolve(m)

	refs := referencesByName(report, "user.nonexistent_action")
	require.Len(t, refs, 1)
	assert.Equal(t, model.RefNotFound, refs[0].State)

	require.Len(t, report.Diagnostics, 1)
	assert.Equal(t, model.CodeUnresolvedReference, report.Diagnostics[0].Code)
	assert.Equal(t, model.SeverityWarning, report.Diagnostics[0].Severity)

	assert.True(t, report.BrokenAt(cmd.Location))
}

func TestResolveAmbiguousReference(t *testing.T) {
	t.Parallel()

	first := action("knausj", "user.copy", 1)
	first.Context = model.Context{Matches: []model.Match{{Key: "mode", Value: "command"}}}

	second := action("knausj", "user.copy", 2)
	second.Context = model.Context{Matches: []model.Match{{Key: "tag", Value: "user.editor"}}}

	cmd := command("knausj", "copy that", call("user.copy"))

	m := modelOf(pkgOf("knausj", "user", fileOf("knausj/cmds.talon", cmd)))

	report := resolve.New(tableOf(first, second, cmd), symbols.Builtins()).Resolve(m)

	refs := referencesByName(report, "user.copy")
	require.Len(t, refs, 1)
	require.Equal(t, model.RefAmbiguous, refs[0].State)
	assert.Len(t, refs[0].Candidates, 2)

	require.Len(t, report.Diagnostics, 1)
	assert.Equal(t, model.CodeAmbiguousReference, report.Diagnostics[0].Code)
	assert.Len(t, report.Diagnostics[0].Related, 2)
}

func TestResolveCaptureAndListRefsInPhrase(t *testing.T) {
	t.Parallel()

	capture := &model.Declaration{
		Kind:      model.KindCapture,
		Name:      "user.direction",
		Namespace: "user",
		Package:   "knausj",
		Location:  model.Location{Path: "knausj/impl.py", Line: 4, Column: 1},
	}

	cmd := command("knausj", "go somewhere")
	cmd.Rule = &model.Rule{Kind: model.RuleSeq, Children: []*model.Rule{
		model.Word("go"),
		{Kind: model.RuleCaptureRef, Text: "user.direction"},
		{Kind: model.RuleListRef, Text: "user.unknown_list"},
	}}

	m := modelOf(pkgOf("knausj", "user", fileOf("knausj/cmds.talon", cmd)))

	report := resolve.New(tableOf(capture, cmd), symbols.Builtins()).Resolve(m)

	captureRefs := referencesByName(report, "user.direction")
	require.Len(t, captureRefs, 1)
	assert.Equal(t, model.RefResolved, captureRefs[0].State)

	listRefs := referencesByName(report, "user.unknown_list")
	require.Len(t, listRefs, 1)
	assert.Equal(t, model.RefNotFound, listRefs[0].State)
}

func TestResolveCommandLocalVariables(t *testing.T) {
	t.Parallel()

	cmd := command("knausj", "count up")
	cmd.Rule = &model.Rule{Kind: model.RuleSeq, Children: []*model.Rule{
		model.Word("count"),
		{Kind: model.RuleCaptureRef, Text: "number_small"},
	}}
	cmd.Script = &model.Script{Statements: []*model.Statement{
		{
			Kind:   model.StmtAssignment,
			Target: "total",
			Expr:   &model.Expr{Kind: model.ExprVariable, Text: "number_small"},
		},
		{
			Kind: model.StmtExpression,
			Expr: call("insert", &model.Expr{Kind: model.ExprVariable, Text: "total"}),
		},
		{
			Kind: model.StmtExpression,
			Expr: call("print", &model.Expr{Kind: model.ExprVariable, Text: "missing_var"}),
		},
	}}

	m := modelOf(pkgOf("knausj", "user", fileOf("knausj/cmds.talon", cmd)))

	report := resolve.New(tableOf(cmd), symbols.Builtins()).Resolve(m)

	// The phrase capture and the assignment target resolve locally.
	for _, name := range []string{"total"} {
		refs := referencesByName(report, name)
		require.Len(t, refs, 1, name)
		assert.Equal(t, model.RefResolved, refs[0].State, name)
	}

	missing := referencesByName(report, "missing_var")
	require.Len(t, missing, 1)
	assert.Equal(t, model.RefNotFound, missing[0].State)
}

func TestResolveKeyAndSleepMapToBuiltins(t *testing.T) {
	t.Parallel()

	cmd := command("knausj", "press enter")
	cmd.Script = &model.Script{Statements: []*model.Statement{
		{Kind: model.StmtExpression, Expr: &model.Expr{Kind: model.ExprKey, Text: "enter"}},
		{Kind: model.StmtExpression, Expr: &model.Expr{Kind: model.ExprSleep, Text: "100ms"}},
	}}

	m := modelOf(pkgOf("knausj", "user", fileOf("knausj/cmds.talon", cmd)))

	report := resolve.New(tableOf(cmd), symbols.Builtins()).Resolve(m)

	for _, name := range []string{"key", "sleep"} {
		refs := referencesByName(report, name)
		require.Len(t, refs, 1, name)
		assert.Equal(t, model.RefResolved, refs[0].State, name)
	}

	assert.Empty(t, report.Diagnostics)
}

func TestResolveTagImports(t *testing.T) {
	t.Parallel()

	tag := &model.Declaration{
		Kind:      model.KindTag,
		Name:      "user.vim",
		Namespace: "user",
		Package:   "knausj",
		Location:  model.Location{Path: "knausj/tags.py", Line: 2, Column: 1},
	}

	file := fileOf("knausj/vim.talon")
	file.TagImports = []model.Reference{
		{Kind: model.RefTag, Name: "user.vim", State: model.RefUnresolved},
		{Kind: model.RefTag, Name: "user.ghost", State: model.RefUnresolved},
	}

	m := modelOf(pkgOf("knausj", "user", file))

	report := resolve.New(tableOf(tag), symbols.Builtins()).Resolve(m)

	resolved := referencesByName(report, "user.vim")
	require.Len(t, resolved, 1)
	assert.Equal(t, model.RefResolved, resolved[0].State)

	ghost := referencesByName(report, "user.ghost")
	require.Len(t, ghost, 1)
	assert.Equal(t, model.RefNotFound, ghost[0].State)
}

func setting(pkg, name string, line int, override bool) *model.Declaration {
	return &model.Declaration{
		Kind:      model.KindSetting,
		Name:      name,
		Namespace: symbols.NamespaceOf(name),
		Package:   pkg,
		Override:  override,
		Location:  model.Location{Path: pkg + "/settings.talon", Line: line, Column: 1},
	}
}

func TestResolveSettingAssignment(t *testing.T) {
	t.Parallel()

	def := setting("knausj", "user.zoom_step", 4, false)
	use := setting("knausj", "user.zoom_step", 9, true)

	m := modelOf(pkgOf("knausj", "user", fileOf("knausj/settings.talon", use)))

	report := resolve.New(tableOf(def, use), symbols.Builtins()).Resolve(m)

	refs := referencesByName(report, "user.zoom_step")
	require.Len(t, refs, 1)
	assert.Equal(t, model.RefSetting, refs[0].Kind)
	require.Equal(t, model.RefResolved, refs[0].State)
	assert.Equal(t, 4, refs[0].Resolved.Line)
	assert.Empty(t, report.Diagnostics)
}

func TestResolveSettingAssignmentAgainstBuiltin(t *testing.T) {
	t.Parallel()

	use := setting("knausj", "speech.timeout", 2, true)

	m := modelOf(pkgOf("knausj", "user", fileOf("knausj/settings.talon", use)))

	report := resolve.New(tableOf(use), symbols.Builtins()).Resolve(m)

	refs := referencesByName(report, "speech.timeout")
	require.Len(t, refs, 1)
	assert.Equal(t, model.RefResolved, refs[0].State)
	assert.Empty(t, report.Diagnostics)
}

func TestResolveUnknownSettingAssignment(t *testing.T) {
	t.Parallel()

	// The assignment itself sits in the table as an override; it must
	// not count as its own definition.
	use := setting("knausj", "user.nonexistent_setting", 9, true)

	m := modelOf(pkgOf("knausj", "user", fileOf("knausj/settings.talon", use)))

	report := resolve.New(tableOf(use), symbols.Builtins()).Resolve(m)

	refs := referencesByName(report, "user.nonexistent_setting")
	require.Len(t, refs, 1)
	assert.Equal(t, model.RefNotFound, refs[0].State)

	require.Len(t, report.Diagnostics, 1)
	assert.Equal(t, model.CodeUnresolvedReference, report.Diagnostics[0].Code)
	assert.Equal(t, model.SeverityWarning, report.Diagnostics[0].Severity)
}

func TestResolveActionArityMismatch(t *testing.T) {
	t.Parallel()

	impl := action("knausj", "user.open_file", 10)
	impl.Signature = &model.Signature{Params: []model.Param{{Name: "path", Type: "str"}}}

	cmd := command("knausj", "open it", call("user.open_file",
		&model.Expr{Kind: model.ExprString, Text: "a"},
		&model.Expr{Kind: model.ExprString, Text: "b"}))

	m := modelOf(pkgOf("knausj", "user", fileOf("knausj/cmds.talon", cmd)))

	report := resolve.New(tableOf(impl, cmd), symbols.Builtins()).Resolve(m)

	refs := referencesByName(report, "user.open_file")
	require.Len(t, refs, 1)
	assert.Equal(t, model.RefResolved, refs[0].State)

	require.Len(t, report.Diagnostics, 1)
	assert.Equal(t, model.CodeArityMismatch, report.Diagnostics[0].Code)
	assert.Equal(t, model.SeverityWarning, report.Diagnostics[0].Severity)
	assert.Equal(t, []model.Location{impl.Location}, report.Diagnostics[0].Related)
}

func TestResolveActionArityAllowsDefaults(t *testing.T) {
	t.Parallel()

	impl := action("knausj", "user.zoom", 12)
	impl.Signature = &model.Signature{Params: []model.Param{
		{Name: "direction", Type: "str"},
		{Name: "amount", Type: "int", Default: "1"},
	}}

	cmd := command("knausj", "zoom in",
		call("user.zoom", &model.Expr{Kind: model.ExprString, Text: "in"}))

	m := modelOf(pkgOf("knausj", "user", fileOf("knausj/cmds.talon", cmd)))

	report := resolve.New(tableOf(impl, cmd), symbols.Builtins()).Resolve(m)

	assert.Empty(t, report.Diagnostics)
}

func TestReportCounts(t *testing.T) {
	t.Parallel()

	report := resolve.NewReport()
	report.AddDiagnostics(
		model.Diagnostic{Severity: model.SeverityError, Code: model.CodeSyntaxError},
		model.Diagnostic{Severity: model.SeverityWarning, Code: model.CodeUnresolvedReference},
		model.Diagnostic{Severity: model.SeverityWarning, Code: model.CodeDuplicateDeclaration},
	)

	errs, warns := report.Counts()
	assert.Equal(t, 1, errs)
	assert.Equal(t, 2, warns)
}
