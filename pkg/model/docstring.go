package model

import "strings"

// DocString is an attached documentation comment, kept verbatim and in
// parsed form. The structured convention is a summary line followed by
// optional parameter and return tags, either in grammar-file docstring
// comments or in implementation-file docstrings with an argument section.
type DocString struct {
	Raw     string  `json:"raw" yaml:"raw"`
	Summary string  `json:"summary,omitempty" yaml:"summary,omitempty"`
	Params  []Param `json:"params,omitempty" yaml:"params,omitempty"`
	Returns string  `json:"returns,omitempty" yaml:"returns,omitempty"`
}

// ParseDocString parses a raw documentation comment. The first non-empty
// line becomes the summary. Lines of the form "name: text" inside an
// "Args:"/"Params:" section become parameter docs; a "Returns:" section
// becomes the return doc.
func ParseDocString(raw string) *DocString {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}

	doc := &DocString{Raw: raw}

	const (
		sectionNone = iota
		sectionParams
		sectionReturns
	)

	section := sectionNone

	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		lower := strings.ToLower(line)

		switch {
		case lower == "args:" || lower == "params:" || lower == "arguments:" || lower == "parameters:":
			section = sectionParams
			continue
		case lower == "returns:" || lower == "return:":
			section = sectionReturns
			continue
		case strings.HasPrefix(lower, "returns:") || strings.HasPrefix(lower, "return:"):
			_, text, _ := strings.Cut(line, ":")
			doc.Returns = strings.TrimSpace(text)
			section = sectionNone

			continue
		}

		switch section {
		case sectionParams:
			name, text, ok := strings.Cut(line, ":")
			if ok {
				doc.Params = append(doc.Params, Param{
					Name: strings.TrimSpace(name),
					Doc:  strings.TrimSpace(text),
				})

				continue
			}

			section = sectionNone
		case sectionReturns:
			if doc.Returns == "" {
				doc.Returns = line
			} else {
				doc.Returns += " " + line
			}

			continue
		}

		if doc.Summary == "" {
			doc.Summary = line
		}
	}

	return doc
}
