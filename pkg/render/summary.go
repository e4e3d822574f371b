package render

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/vocdoc/vocdoc/pkg/model"
	"github.com/vocdoc/vocdoc/pkg/resolve"
)

// Summary renders an end-of-run overview to a terminal: a per-package
// declaration table followed by the diagnostics, worst first.
type Summary struct {
	Out     io.Writer
	NoColor bool

	// MaxDiagnostics caps the diagnostics listing; zero means all.
	MaxDiagnostics int
}

// NewSummary returns a terminal summary renderer writing to out.
func NewSummary(out io.Writer, noColor bool) *Summary {
	return &Summary{Out: out, NoColor: noColor}
}

// Render writes the overview table and diagnostics listing.
func (s *Summary) Render(m *model.PackageModel, report *resolve.Report) error {
	if s.NoColor {
		color.NoColor = true //nolint:reassign // intentional override of library global
	}

	s.renderTable(m)
	s.renderDiagnostics(report)
	s.renderTotals(m, report)

	return nil
}

func (s *Summary) renderTable(m *model.PackageModel) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(s.Out)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false

	header := table.Row{"Package", "Files"}
	for _, kind := range kindOrder {
		header = append(header, kindTitle(kind))
	}

	tbl.AppendHeader(header)

	for _, pkg := range m.Packages {
		grouped := declsByKind(pkg)

		row := table.Row{pkg.Name, len(pkg.Files)}
		for _, kind := range kindOrder {
			row = append(row, len(grouped[kind]))
		}

		tbl.AppendRow(row)
	}

	tbl.Render()
}

func (s *Summary) renderDiagnostics(report *resolve.Report) {
	diags := report.Diagnostics

	if s.MaxDiagnostics > 0 && len(diags) > s.MaxDiagnostics {
		diags = diags[:s.MaxDiagnostics]
	}

	if len(diags) == 0 {
		return
	}

	fmt.Fprintln(s.Out)

	for _, diag := range diags {
		severity := severityColor(diag.Severity).Sprint(string(diag.Severity))
		fmt.Fprintf(s.Out, "%s %s [%s] %s\n", severity, diag.Location, diag.Code, diag.Message)

		for _, related := range diag.Related {
			fmt.Fprintf(s.Out, "    also at %s\n", related)
		}
	}

	if trimmed := len(report.Diagnostics) - len(diags); trimmed > 0 {
		fmt.Fprintf(s.Out, "... and %s more\n", humanize.Comma(int64(trimmed)))
	}
}

func (s *Summary) renderTotals(m *model.PackageModel, report *resolve.Report) {
	var decls int

	m.Declarations(func(_ *model.Package, _ *model.SourceFile, _ *model.Declaration) {
		decls++
	})

	errs, warns := report.Counts()

	line := fmt.Sprintf("\n%s declarations, %s references, %s errors, %s warnings\n",
		humanize.Comma(int64(decls)),
		humanize.Comma(int64(len(report.References))),
		humanize.Comma(int64(errs)),
		humanize.Comma(int64(warns)))

	switch {
	case errs > 0:
		color.New(color.FgRed).Fprint(s.Out, line)
	case warns > 0:
		color.New(color.FgYellow).Fprint(s.Out, line)
	default:
		color.New(color.FgGreen).Fprint(s.Out, line)
	}
}

func severityColor(severity model.Severity) *color.Color {
	if severity == model.SeverityError {
		return color.New(color.FgRed)
	}

	return color.New(color.FgYellow)
}
