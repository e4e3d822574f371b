// Package render turns a built package model and its resolution report
// into output artifacts. The core pipeline stops at the model/report
// pair; renderers are adapters over that pair and never reach back into
// parsing or resolution.
package render

import (
	"strings"

	"github.com/vocdoc/vocdoc/pkg/model"
	"github.com/vocdoc/vocdoc/pkg/resolve"
)

// Renderer produces one output artifact from a model/report pair.
type Renderer interface {
	Render(m *model.PackageModel, report *resolve.Report) error
}

// Section order for documentation pages. Commands first, then the named
// symbol kinds.
var kindOrder = []model.Kind{
	model.KindCommand,
	model.KindCapture,
	model.KindList,
	model.KindAction,
	model.KindSetting,
	model.KindMode,
	model.KindTag,
}

// kindTitle returns the page section heading for a declaration kind.
func kindTitle(kind model.Kind) string {
	switch kind {
	case model.KindCommand:
		return "Commands"
	case model.KindCapture:
		return "Captures"
	case model.KindList:
		return "Lists"
	case model.KindAction:
		return "Actions"
	case model.KindSetting:
		return "Settings"
	case model.KindMode:
		return "Modes"
	case model.KindTag:
		return "Tags"
	default:
		return string(kind)
	}
}

// docSummary returns the one-line summary for a declaration, or the
// empty string when it carries no documentation.
func docSummary(decl *model.Declaration) string {
	if decl.Doc == nil {
		return ""
	}

	return decl.Doc.Summary
}

// signatureString renders an action or capture signature as
// "(name: type = default, ...) -> returns".
func signatureString(sig *model.Signature) string {
	if sig == nil {
		return "()"
	}

	parts := make([]string, 0, len(sig.Params))

	for _, param := range sig.Params {
		part := param.Name
		if param.Type != "" {
			part += ": " + param.Type
		}

		if param.Default != "" {
			part += " = " + param.Default
		}

		parts = append(parts, part)
	}

	out := "(" + strings.Join(parts, ", ") + ")"
	if sig.Returns != "" {
		out += " -> " + sig.Returns
	}

	return out
}

// declsByKind groups a package's declarations by kind, preserving file
// and source order within each group.
func declsByKind(pkg *model.Package) map[model.Kind][]*model.Declaration {
	grouped := make(map[model.Kind][]*model.Declaration)

	for _, file := range pkg.Files {
		for _, decl := range file.Declarations {
			grouped[decl.Kind] = append(grouped[decl.Kind], decl)
		}
	}

	return grouped
}
