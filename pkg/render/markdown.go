package render

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vocdoc/vocdoc/pkg/model"
	"github.com/vocdoc/vocdoc/pkg/resolve"
)

const (
	pageFileMode = 0o644
	pageDirMode  = 0o755

	brokenMarker = "&#9888; broken reference"
)

// MarkdownRenderer writes one documentation page per package plus a
// symbol index, all under Dir.
type MarkdownRenderer struct {
	Dir string
}

// NewMarkdownRenderer returns a renderer writing pages under dir.
func NewMarkdownRenderer(dir string) *MarkdownRenderer {
	return &MarkdownRenderer{Dir: dir}
}

// Render writes index.md plus <package>.md for every package.
func (r *MarkdownRenderer) Render(m *model.PackageModel, report *resolve.Report) error {
	if err := os.MkdirAll(r.Dir, pageDirMode); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	for _, pkg := range m.Packages {
		page := r.packagePage(pkg, report)
		if err := r.writePage(pageFile(pkg.Name), page); err != nil {
			return err
		}
	}

	return r.writePage("index.md", r.indexPage(m))
}

func (r *MarkdownRenderer) writePage(name, content string) error {
	path := filepath.Join(r.Dir, name)

	if err := os.WriteFile(path, []byte(content), pageFileMode); err != nil {
		return fmt.Errorf("write page %s: %w", name, err)
	}

	return nil
}

func (r *MarkdownRenderer) packagePage(pkg *model.Package, report *resolve.Report) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", pkg.Name)

	if !pkg.DefaultContext.IsEmpty() {
		fmt.Fprintf(&sb, "Active when: `%s`\n\n", pkg.DefaultContext.String())
	}

	grouped := declsByKind(pkg)

	for _, kind := range kindOrder {
		if len(grouped[kind]) == 0 {
			continue
		}

		title := kindTitle(kind)
		fmt.Fprintf(&sb, "- [%s](#%s)\n", title, slug(title))
	}

	sb.WriteString("\n")

	for _, kind := range kindOrder {
		decls := grouped[kind]
		if len(decls) == 0 {
			continue
		}

		fmt.Fprintf(&sb, "## %s\n\n", kindTitle(kind))

		if kind == model.KindCommand {
			writeCommandTable(&sb, decls, report)
			continue
		}

		for _, decl := range decls {
			writeSymbolEntry(&sb, decl, report)
		}
	}

	writeFileList(&sb, pkg)

	return sb.String()
}

func writeCommandTable(sb *strings.Builder, decls []*model.Declaration, report *resolve.Report) {
	sb.WriteString("| Say | Does |\n|---|---|\n")

	for _, decl := range decls {
		does := docSummary(decl)
		if does == "" && decl.Script != nil {
			does = "`" + firstLine(decl.Script.String()) + "`"
		}

		if report.BrokenAt(decl.Location) {
			does += " " + brokenMarker
		}

		fmt.Fprintf(sb, "| `%s` | %s |\n", escapePipes(decl.Name), escapePipes(does))
	}

	sb.WriteString("\n")
}

func writeSymbolEntry(sb *strings.Builder, decl *model.Declaration, report *resolve.Report) {
	fmt.Fprintf(sb, "### %s\n\n", decl.Name)

	if decl.Override {
		fmt.Fprintf(sb, "*Override in context `%s`*\n\n", decl.Context.String())
	}

	if summary := docSummary(decl); summary != "" {
		sb.WriteString(summary + "\n\n")
	}

	switch decl.Kind {
	case model.KindAction:
		fmt.Fprintf(sb, "```\n%s%s\n```\n\n", decl.ShortName(), signatureString(decl.Signature))
		writeParamDocs(sb, decl)
	case model.KindCapture:
		if decl.CaptureRule != nil {
			fmt.Fprintf(sb, "Matches: `%s`\n\n", decl.CaptureRule.String())
		}
	case model.KindSetting:
		if decl.TypeHint != "" {
			fmt.Fprintf(sb, "Type: `%s`\n\n", decl.TypeHint)
		}

		if decl.Value != "" {
			fmt.Fprintf(sb, "Default: `%s`\n\n", decl.Value)
		}
	case model.KindList:
		if decl.Value != "" {
			fmt.Fprintf(sb, "Values: `%s`\n\n", decl.Value)
		}
	}

	if report.BrokenAt(decl.Location) {
		sb.WriteString(brokenMarker + "\n\n")
	}

	fmt.Fprintf(sb, "Declared at %s\n\n", decl.Location)
}

func writeParamDocs(sb *strings.Builder, decl *model.Declaration) {
	if decl.Doc == nil || len(decl.Doc.Params) == 0 {
		return
	}

	for _, param := range decl.Doc.Params {
		fmt.Fprintf(sb, "- `%s`: %s\n", param.Name, param.Doc)
	}

	if decl.Doc.Returns != "" {
		fmt.Fprintf(sb, "- returns: %s\n", decl.Doc.Returns)
	}

	sb.WriteString("\n")
}

func writeFileList(sb *strings.Builder, pkg *model.Package) {
	if len(pkg.Files) == 0 {
		return
	}

	sb.WriteString("## Files\n\n")

	for _, file := range pkg.Files {
		fmt.Fprintf(sb, "- `%s`\n", file.Path)
	}

	sb.WriteString("\n")
}

// indexPage lists every named symbol across packages, sorted by name,
// linking to the owning package page.
func (r *MarkdownRenderer) indexPage(m *model.PackageModel) string {
	type entry struct {
		name string
		kind model.Kind
		pkg  string
	}

	var entries []entry

	m.Declarations(func(pkg *model.Package, _ *model.SourceFile, decl *model.Declaration) {
		if decl.Kind == model.KindCommand {
			return
		}

		entries = append(entries, entry{name: decl.Name, kind: decl.Kind, pkg: pkg.Name})
	})

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].name != entries[j].name {
			return entries[i].name < entries[j].name
		}

		return entries[i].kind < entries[j].kind
	})

	var sb strings.Builder

	sb.WriteString("# Symbol Index\n\n")

	seen := map[string]bool{}

	for _, e := range entries {
		line := fmt.Sprintf("- `%s` (%s): [%s](%s#%s)\n",
			e.name, e.kind, e.pkg, pageFile(e.pkg), slug(e.name))
		if seen[line] {
			continue
		}

		seen[line] = true

		sb.WriteString(line)
	}

	return sb.String()
}

func pageFile(pkgName string) string {
	return slug(pkgName) + ".md"
}

// slug reduces a header to the anchor markdown hosts derive from it:
// lowercased, spaces hyphenated, punctuation other than hyphens and
// underscores dropped.
func slug(s string) string {
	var sb strings.Builder

	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
		case r == ' ' || r == '-':
			sb.WriteByte('-')
		}
	}

	return sb.String()
}

func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx] + " ..."
	}

	return s
}
