// Package builder orchestrates a build pass: it walks the source tree,
// dispatches each file to the grammar parser or the implementation
// indexer, assembles the symbol table and runs the cross-referencing
// pass. Builds are batch and idempotent; two passes over unchanged input
// produce identical models and reports.
package builder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/vocdoc/vocdoc/pkg/model"
	"github.com/vocdoc/vocdoc/pkg/resolve"
	"github.com/vocdoc/vocdoc/pkg/symbols"
)

// Sentinel errors. These are the fatal conditions: everything else a
// build encounters degrades to a recorded diagnostic.
var (
	errNoPackages = errors.New("no packages to build")
	errBadPattern = errors.New("invalid glob pattern")
	errUnreadable = errors.New("unreadable package root")
	errNotADir    = errors.New("package root is not a directory")
)

// Grammar and implementation file extensions. File kinds are
// distinguished purely by extension.
const (
	extGrammar        = ".talon"
	extImplementation = ".py"
)

// DefaultNamespace qualifies bare declaration names when a package spec
// does not name one.
const DefaultNamespace = "user"

// PackageSpec names one directory subtree to build into a package.
type PackageSpec struct {
	Dir       string
	Name      string
	Namespace string
}

// Options configures a build pass.
type Options struct {
	Packages []PackageSpec

	// Include and Exclude are doublestar globs over slash-separated
	// package-relative paths. Exclude has higher precedence: a file
	// matching both is excluded.
	Include []string
	Exclude []string

	// Workers bounds the parse/index worker pool; zero or negative
	// means one worker per available CPU.
	Workers int
}

// Result carries everything a build pass produces.
type Result struct {
	Model    *model.PackageModel
	Table    *symbols.Table
	Report   *resolve.Report
	Builtins *symbols.Table
}

// Build runs the full pipeline. It returns an error only for fatal
// conditions: an unreadable root, an invalid glob, an empty package set.
// Per-file failures are recorded in the report and never abort the run.
func Build(ctx context.Context, opts Options) (*Result, error) {
	if len(opts.Packages) == 0 {
		return nil, errNoPackages
	}

	if err := validatePatterns(opts.Include, opts.Exclude); err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	pkgModel := &model.PackageModel{}
	table := symbols.NewTable()

	var fileDiags []model.Diagnostic

	for _, spec := range normalizeSpecs(opts.Packages) {
		pkg, diags, err := buildPackage(ctx, spec, opts, workers)
		if err != nil {
			return nil, err
		}

		pkgModel.Packages = append(pkgModel.Packages, pkg)
		fileDiags = append(fileDiags, diags...)
	}

	pkgModel.Sort()

	pkgModel.Declarations(func(_ *model.Package, _ *model.SourceFile, decl *model.Declaration) {
		table.Add(decl)
	})

	builtins := symbols.Builtins()

	report := resolve.New(table, builtins).Resolve(pkgModel)
	report.AddDiagnostics(fileDiags...)
	report.AddDiagnostics(table.Conflicts()...)

	slog.Debug("build finished",
		"packages", len(pkgModel.Packages),
		"symbols", table.Len(),
		"references", len(report.References),
		"diagnostics", len(report.Diagnostics))

	return &Result{Model: pkgModel, Table: table, Report: report, Builtins: builtins}, nil
}

func normalizeSpecs(specs []PackageSpec) []PackageSpec {
	out := make([]PackageSpec, len(specs))

	for i, spec := range specs {
		if spec.Name == "" {
			spec.Name = defaultPackageName(spec.Dir)
		}

		if spec.Namespace == "" {
			spec.Namespace = DefaultNamespace
		}

		out[i] = spec
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out
}

func defaultPackageName(dir string) string {
	trimmed := strings.TrimRight(dir, "/")
	if idx := strings.LastIndexByte(trimmed, '/'); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}

	if trimmed == "" || trimmed == "." {
		return "package"
	}

	return trimmed
}

func validatePatterns(globs ...[]string) error {
	for _, set := range globs {
		for _, pattern := range set {
			if !doublestar.ValidatePattern(pattern) {
				return fmt.Errorf("%w: %q", errBadPattern, pattern)
			}
		}
	}

	return nil
}

func checkRoot(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", errUnreadable, dir, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%w: %s", errNotADir, dir)
	}

	return nil
}
