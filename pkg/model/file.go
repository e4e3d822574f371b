package model

// FileKind distinguishes the two source-file kinds, purely by extension.
type FileKind string

// Source file kinds.
const (
	FileGrammar        FileKind = "grammar"
	FileImplementation FileKind = "implementation"
)

// SourceFile is one parsed unit of grammar or implementation content.
// Context is the file's effective activation condition: the merge of all
// enclosing directory headers and the file's own header, with file-level
// matches overriding directory-level ones key by key.
type SourceFile struct {
	Path         string         `json:"path" yaml:"path"`
	Kind         FileKind       `json:"kind" yaml:"kind"`
	Doc          *DocString     `json:"doc,omitempty" yaml:"doc,omitempty"`
	Context      Context        `json:"context,omitempty" yaml:"context,omitempty"`
	Declarations []*Declaration `json:"declarations,omitempty" yaml:"declarations,omitempty"`
	TagImports   []Reference    `json:"tag_imports,omitempty" yaml:"tag_imports,omitempty"`
	Diagnostics  []Diagnostic   `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}
