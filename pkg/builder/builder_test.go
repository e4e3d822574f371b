package builder_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vocdoc/vocdoc/pkg/builder"
	"github.com/vocdoc/vocdoc/pkg/model"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()

	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	return root
}

func build(t *testing.T, opts builder.Options) *builder.Result {
	t.Helper()

	result, err := builder.Build(t.Context(), opts)
	require.NoError(t, err)

	return result
}

func singlePackage(dir string) builder.Options {
	return builder.Options{
		Packages: []builder.PackageSpec{{Dir: dir, Name: "knausj", Namespace: "user"}},
	}
}

func declByName(t *testing.T, result *builder.Result, name string) *model.Declaration {
	t.Helper()

	var found *model.Declaration

	result.Model.Declarations(func(_ *model.Package, _ *model.SourceFile, decl *model.Declaration) {
		if decl.Name == name {
			found = decl
		}
	})

	require.NotNil(t, found, "declaration %q not found", name)

	return found
}

func TestBuildSimplePackage(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"greet.talon": "-\nhello world: insert(\"hi\")\n",
		"impl.py": `from talon import Module

mod = Module()
mod.list("letters", desc="Spoken letters")
`,
	})

	result := build(t, singlePackage(root))

	require.Len(t, result.Model.Packages, 1)

	pkg := result.Model.Packages[0]
	assert.Equal(t, "knausj", pkg.Name)
	assert.Equal(t, "user", pkg.Namespace)
	require.Len(t, pkg.Files, 2)

	// Files merge in lexical path order.
	assert.Equal(t, "greet.talon", pkg.Files[0].Path)
	assert.Equal(t, "impl.py", pkg.Files[1].Path)

	cmd := declByName(t, result, "hello world")
	assert.Equal(t, model.KindCommand, cmd.Kind)
	assert.Equal(t, "knausj", cmd.Package)

	// The insert call resolves against the builtin table with no
	// diagnostics of any kind.
	assert.Empty(t, result.Report.Diagnostics)
}

func TestBuildQualifiesBareNames(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"impl.py": `from talon import Module

mod = Module()
mod.list("letters", desc="Spoken letters")
`,
	})

	result := build(t, singlePackage(root))

	list := declByName(t, result, "user.letters")
	assert.Equal(t, model.KindList, list.Kind)
	assert.Equal(t, "user", list.Namespace)
}

func TestBuildMalformedFileDoesNotPoisonSiblings(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"good.talon":   "-\nsay hello: insert(\"hello\")\n",
		"broken.talon": "-\nhello world insert(\n",
	})

	result := build(t, singlePackage(root))

	// The good file's command is present.
	declByName(t, result, "say hello")

	// The broken file is recorded with a syntax error diagnostic.
	errs, _ := result.Report.Counts()
	assert.Equal(t, 1, errs)

	var found bool

	for _, diag := range result.Report.Diagnostics {
		if diag.Code == model.CodeSyntaxError {
			found = true

			assert.Equal(t, "broken.talon", diag.Location.Path)
		}
	}

	assert.True(t, found, "expected a syntax-error diagnostic")
}

func TestBuildDisjointContextsNoConflict(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"mac.py": `from talon import Context

ctx = Context()
ctx.matches = "os: mac"
ctx.lists["user.apps"] = {"code": "Code"}
`,
		"win.py": `from talon import Context

ctx = Context()
ctx.matches = "os: windows"
ctx.lists["user.apps"] = {"code": "Code.exe"}
`,
	})

	result := build(t, singlePackage(root))

	assert.Empty(t, result.Report.Diagnostics)
	assert.Equal(t, 1, result.Table.Len())
}

func TestBuildOverlappingDuplicateConflicts(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"a.py": `from talon import Module

mod = Module()
mod.list("letters", desc="first")
`,
		"b.py": `from talon import Module

mod = Module()
mod.list("letters", desc="second")
`,
	})

	result := build(t, singlePackage(root))

	var conflicts int

	for _, diag := range result.Report.Diagnostics {
		if diag.Code == model.CodeDuplicateDeclaration {
			conflicts++
		}
	}

	assert.Equal(t, 1, conflicts)
}

func TestBuildDirectoryHeaderScopesSubtree(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"apps/slack/context.talon": "app: slack\n-\n",
		"apps/slack/send.talon":    "-\nsend that: key(enter)\n",
	})

	result := build(t, singlePackage(root))

	cmd := declByName(t, result, "send that")
	require.Len(t, cmd.Context.Matches, 1)
	assert.Equal(t, "app", cmd.Context.Matches[0].Key)
	assert.Equal(t, "slack", cmd.Context.Matches[0].Value)
}

func TestBuildSettingAssignmentCrossReferences(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"impl.py": `from talon import Module

mod = Module()
mod.setting("zoom_step", type=int, default=1, desc="Zoom increment")
`,
		"tweaks.talon": "-\nsettings():\n\tuser.zoom_step = 3\n\tuser.nonexistent_setting = 3\n",
	})

	result := build(t, singlePackage(root))

	var unresolved []model.Diagnostic

	for _, diag := range result.Report.Diagnostics {
		if diag.Code == model.CodeUnresolvedReference {
			unresolved = append(unresolved, diag)
		}
	}

	// The declared setting resolves; the typo'd one is the only warning.
	require.Len(t, unresolved, 1)
	assert.Contains(t, unresolved[0].Message, "user.nonexistent_setting")
}

func TestBuildRootHeaderSetsPackageDefaultContext(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"context.talon": "app: slack\n-\n",
		"send.talon":    "-\nsend that: key(enter)\n",
	})

	result := build(t, singlePackage(root))

	require.Len(t, result.Model.Packages, 1)

	pkg := result.Model.Packages[0]
	require.False(t, pkg.DefaultContext.IsEmpty())
	assert.Equal(t, "app: slack", pkg.DefaultContext.String())

	// The same header scopes every file in the package.
	cmd := declByName(t, result, "send that")
	assert.Equal(t, "app: slack", cmd.Context.String())
}

func TestBuildUnreadableFileIsWarning(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"good.talon": "-\nsay hello: insert(\"hello\")\n",
	})
	require.NoError(t, os.Symlink(
		filepath.Join(root, "missing.talon.src"),
		filepath.Join(root, "dangling.talon")))

	result := build(t, singlePackage(root))

	var warnings []model.Diagnostic

	for _, diag := range result.Report.Diagnostics {
		if diag.Code == model.CodeIndexingWarning {
			warnings = append(warnings, diag)
		}
	}

	require.Len(t, warnings, 1)
	assert.Equal(t, model.SeverityWarning, warnings[0].Severity)
	assert.Equal(t, "dangling.talon", warnings[0].Location.Path)

	errs, _ := result.Report.Counts()
	assert.Zero(t, errs)

	// The readable sibling still builds in full.
	declByName(t, result, "say hello")
}

func TestBuildFileHeaderOverridesDirectoryHeader(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"apps/context.talon": "os: mac\napp: terminal\n-\n",
		"apps/editor.talon":  "app: code\n-\nsave it: key(cmd-s)\n",
	})

	result := build(t, singlePackage(root))

	cmd := declByName(t, result, "save it")
	assert.Equal(t, "app: code, os: mac", cmd.Context.String())
}

func TestBuildIncludeExcludeGlobs(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"keep.talon":     "-\nsay hello: insert(\"hello\")\n",
		"skip/old.talon": "-\nsay goodbye: insert(\"bye\")\n",
	})

	opts := singlePackage(root)
	opts.Exclude = []string{"skip/**"}

	result := build(t, opts)

	require.Len(t, result.Model.Packages, 1)
	require.Len(t, result.Model.Packages[0].Files, 1)
	assert.Equal(t, "keep.talon", result.Model.Packages[0].Files[0].Path)
}

func TestBuildExcludeBeatsInclude(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"a.talon": "-\nsay first: insert(\"1\")\n",
		"b.talon": "-\nsay second: insert(\"2\")\n",
	})

	opts := singlePackage(root)
	opts.Include = []string{"**/*.talon"}
	opts.Exclude = []string{"b.talon"}

	result := build(t, opts)

	require.Len(t, result.Model.Packages[0].Files, 1)
	assert.Equal(t, "a.talon", result.Model.Packages[0].Files[0].Path)
}

func TestBuildInvalidGlobIsFatal(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{})

	opts := singlePackage(root)
	opts.Include = []string{"[unclosed"}

	_, err := builder.Build(t.Context(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid glob pattern")
}

func TestBuildUnreadableRootIsFatal(t *testing.T) {
	t.Parallel()

	opts := singlePackage(filepath.Join(t.TempDir(), "missing"))

	_, err := builder.Build(t.Context(), opts)
	require.Error(t, err)
}

func TestBuildNoPackagesIsFatal(t *testing.T) {
	t.Parallel()

	_, err := builder.Build(t.Context(), builder.Options{})
	require.Error(t, err)
}

func TestBuildDeterministicAcrossRuns(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"a.talon": "-\nsay first: insert(\"1\")\n",
		"b.talon": "-\nsay second: insert(\"2\")\n",
		"c.py": `from talon import Module

mod = Module()
mod.list("letters", desc="letters")
`,
	})

	opts := singlePackage(root)
	opts.Workers = 4

	first := build(t, opts)
	second := build(t, opts)

	firstJSON, err := first.Model.EncodeJSON()
	require.NoError(t, err)

	secondJSON, err := second.Model.EncodeJSON()
	require.NoError(t, err)

	assert.Equal(t, string(firstJSON), string(secondJSON))
}

func TestBuildCrossPackageResolution(t *testing.T) {
	t.Parallel()

	implRoot := writeTree(t, map[string]string{
		"actions.py": `from talon import Module

mod = Module()

@mod.action_class
class Actions:
    def open_channel(name: str):
        """Open a channel by name."""
`,
	})

	grammarRoot := writeTree(t, map[string]string{
		"slack.talon": "-\nchannel jump: user.open_channel(\"general\")\n",
	})

	result := build(t, builder.Options{
		Packages: []builder.PackageSpec{
			{Dir: implRoot, Name: "core", Namespace: "user"},
			{Dir: grammarRoot, Name: "slack", Namespace: "user"},
		},
	})

	assert.Empty(t, result.Report.Diagnostics)

	var resolved bool

	for _, owned := range result.Report.References {
		if owned.Reference.Name == "user.open_channel" {
			resolved = owned.Reference.State == model.RefResolved
		}
	}

	assert.True(t, resolved, "cross-package action should resolve")
}
