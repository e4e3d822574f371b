package builder

import (
	"path"
	"strings"

	"github.com/vocdoc/vocdoc/pkg/model"
)

// collectDirContexts gathers the match headers of directory header files
// so they can scope every file underneath them.
func collectDirContexts(results []parseResult) map[string]model.Context {
	contexts := make(map[string]model.Context)

	for _, res := range results {
		if res.file == nil || path.Base(res.rel) != dirHeaderFile {
			continue
		}

		contexts[path.Dir(res.rel)] = res.file.Context
	}

	return contexts
}

// attachFile folds one parsed file into the package: the effective
// context is computed outermost directory first, declaration names are
// qualified against the package namespace and every declaration is
// stamped with its owning package.
func attachFile(pkg *model.Package, rel string, file *model.SourceFile, dirContexts map[string]model.Context) {
	file.Context = ancestorContext(rel, dirContexts).Merge(file.Context)

	for _, decl := range file.Declarations {
		decl.Package = pkg.Name
		decl.Context = file.Context.Merge(decl.Context)

		qualify(decl, pkg.Namespace)
	}

	pkg.Files = append(pkg.Files, file)
}

// ancestorContext merges the directory headers on the path from the
// package root down to the file's directory. Inner directories override
// outer ones key by key.
func ancestorContext(rel string, dirContexts map[string]model.Context) model.Context {
	merged := model.Context{}

	if len(dirContexts) == 0 {
		return merged
	}

	if ctx, ok := dirContexts["."]; ok {
		merged = merged.Merge(ctx)
	}

	dir := path.Dir(rel)
	if dir == "." {
		return merged
	}

	prefix := ""

	for seg := range strings.SplitSeq(dir, "/") {
		if prefix == "" {
			prefix = seg
		} else {
			prefix = prefix + "/" + seg
		}

		if ctx, ok := dirContexts[prefix]; ok {
			merged = merged.Merge(ctx)
		}
	}

	return merged
}

// qualify prefixes dot-free names with the package namespace and keeps
// the declaration's namespace field consistent with its name. Commands
// are named by their spoken rule and take the package namespace as is.
func qualify(decl *model.Declaration, namespace string) {
	if decl.Kind == model.KindCommand {
		decl.Namespace = namespace

		return
	}

	if !strings.Contains(decl.Name, ".") {
		decl.Name = namespace + "." + decl.Name
	}

	decl.Namespace = decl.Name[:strings.IndexByte(decl.Name, '.')]
}
