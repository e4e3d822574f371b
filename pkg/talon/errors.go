// Package talon parses voice-command grammar files into the documentation
// model, using the real tree-sitter grammar for the format.
package talon

import (
	"errors"
	"fmt"

	"github.com/vocdoc/vocdoc/pkg/model"
)

// Sentinel errors for grammar parsing.
var (
	errLanguageUnavailable = errors.New("tree-sitter grammar not available")
	errNoRootNode          = errors.New("parse produced no root node")
	errPoolType            = errors.New("unexpected type in parser pool")
)

// SyntaxError reports a malformed grammar file. It carries the source
// position of the first unparseable region. A syntax error aborts only
// the declarations of its own file, never the whole run.
type SyntaxError struct {
	Location model.Location
	Detail   string
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: syntax error: %s", e.Location, e.Detail)
}
