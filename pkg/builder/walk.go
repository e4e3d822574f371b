package builder

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/vocdoc/vocdoc/pkg/model"
	"github.com/vocdoc/vocdoc/pkg/pyindex"
	"github.com/vocdoc/vocdoc/pkg/talon"
)

// dirHeaderFile is the grammar file whose match header additionally
// scopes every file in its directory subtree. It otherwise behaves like
// any other grammar file.
const dirHeaderFile = "context.talon"

type parseJob struct {
	rel  string
	kind model.FileKind
}

type parseResult struct {
	rel  string
	file *model.SourceFile
	diag *model.Diagnostic
}

// buildPackage walks one package root, parses every matching file on a
// bounded worker pool and merges the results in lexical path order.
func buildPackage(ctx context.Context, spec PackageSpec, opts Options, workers int) (*model.Package, []model.Diagnostic, error) {
	if err := checkRoot(spec.Dir); err != nil {
		return nil, nil, err
	}

	jobs, err := collectJobs(spec.Dir, opts)
	if err != nil {
		return nil, nil, err
	}

	results := runPool(ctx, spec.Dir, jobs, workers)

	pkg := &model.Package{
		Name:      spec.Name,
		Namespace: spec.Namespace,
		Root:      spec.Dir,
	}

	dirContexts := collectDirContexts(results)

	// The root header file doubles as the package-level default context.
	pkg.DefaultContext = dirContexts["."]

	var diags []model.Diagnostic

	for _, res := range results {
		if res.diag != nil {
			diags = append(diags, *res.diag)
		}

		if res.file == nil {
			continue
		}

		attachFile(pkg, res.rel, res.file, dirContexts)
		diags = append(diags, res.file.Diagnostics...)
	}

	return pkg, diags, nil
}

// collectJobs performs the lexical walk and include/exclude filtering.
// Paths are package-relative and slash-separated.
func collectJobs(root string, opts Options) ([]parseJob, error) {
	var jobs []parseJob

	err := fs.WalkDir(os.DirFS(root), ".", func(rel string, entry fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("skipping unreadable entry", "path", rel, "error", err)

			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}

			return nil
		}

		if entry.IsDir() {
			if rel != "." && strings.HasPrefix(entry.Name(), ".") {
				return fs.SkipDir
			}

			return nil
		}

		kind, ok := fileKind(rel)
		if !ok || !selected(rel, opts) {
			return nil
		}

		jobs = append(jobs, parseJob{rel: rel, kind: kind})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return jobs, nil
}

func fileKind(rel string) (model.FileKind, bool) {
	switch path.Ext(rel) {
	case extGrammar:
		return model.FileGrammar, true
	case extImplementation:
		return model.FileImplementation, true
	default:
		return "", false
	}
}

func selected(rel string, opts Options) bool {
	for _, pattern := range opts.Exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return false
		}
	}

	if len(opts.Include) == 0 {
		return true
	}

	for _, pattern := range opts.Include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}

	return false
}

// runPool fans the jobs out over workers goroutines and returns the
// results sorted by path, so the merge order never depends on
// scheduling.
func runPool(ctx context.Context, root string, jobs []parseJob, workers int) []parseResult {
	if workers > len(jobs) {
		workers = len(jobs)
	}

	jobCh := make(chan parseJob)
	resCh := make(chan parseResult, len(jobs))

	var wg sync.WaitGroup

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for job := range jobCh {
				resCh <- parseOne(root, job)
			}
		}()
	}

	go func() {
		defer close(jobCh)

		for _, job := range jobs {
			select {
			case jobCh <- job:
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()
	close(resCh)

	results := make([]parseResult, 0, len(jobs))
	for res := range resCh {
		results = append(results, res)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].rel < results[j].rel })

	return results
}

func parseOne(root string, job parseJob) parseResult {
	src, err := os.ReadFile(path.Join(root, job.rel))
	if err != nil {
		// The rest of the package still builds; the skipped file only
		// degrades coverage.
		diag := model.Diagnostic{
			Severity: model.SeverityWarning,
			Code:     model.CodeIndexingWarning,
			Message:  "cannot read file: " + err.Error(),
			Location: model.Location{Path: job.rel, Line: 1, Column: 1},
		}

		return parseResult{rel: job.rel, diag: &diag}
	}

	var file *model.SourceFile

	switch job.kind {
	case model.FileGrammar:
		file, err = talon.Parse(job.rel, src)
	case model.FileImplementation:
		file, err = pyindex.Index(job.rel, src)
	}

	if err != nil {
		diag := model.Diagnostic{
			Severity: model.SeverityError,
			Code:     model.CodeSyntaxError,
			Message:  err.Error(),
			Location: errorLocation(job.rel, err),
		}

		// The file stays in the model so readers can see it exists,
		// but it contributes no declarations.
		stub := &model.SourceFile{Path: job.rel, Kind: job.kind}

		return parseResult{rel: job.rel, file: stub, diag: &diag}
	}

	return parseResult{rel: job.rel, file: file}
}

func errorLocation(rel string, err error) model.Location {
	var syntaxErr *talon.SyntaxError
	if errors.As(err, &syntaxErr) {
		loc := syntaxErr.Location
		loc.Path = rel

		return loc
	}

	return model.Location{Path: rel, Line: 1, Column: 1}
}
