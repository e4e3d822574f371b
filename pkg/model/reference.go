package model

// RefKind classifies a reference found in a command's phrase or action
// block.
type RefKind string

// Reference kinds.
const (
	RefAction   RefKind = "action"
	RefCapture  RefKind = "capture"
	RefList     RefKind = "list"
	RefSetting  RefKind = "setting"
	RefTag      RefKind = "tag"
	RefVariable RefKind = "variable"
)

// RefState is the terminal state of a reference after the resolution
// pass. References start unresolved and end in exactly one of the
// terminal states; there are no further transitions.
type RefState string

// Reference states.
const (
	RefUnresolved RefState = "unresolved"
	RefResolved   RefState = "resolved"
	RefAmbiguous  RefState = "ambiguous"
	RefNotFound   RefState = "not_found"
)

// Reference is a by-name use of a declaration, inside a rule body or an
// action-call sequence, that must resolve against the symbol table. A
// reference is a lookup, never an owning pointer.
type Reference struct {
	Kind     RefKind  `json:"kind" yaml:"kind"`
	Name     string   `json:"name" yaml:"name"`
	Arity    int      `json:"arity,omitempty" yaml:"arity,omitempty"`
	Location Location `json:"location" yaml:"location"`

	State RefState `json:"state" yaml:"state"`

	// Resolved holds the location of the winning declaration; Candidates
	// holds every maximally specific candidate when resolution was
	// ambiguous.
	Resolved   *Location  `json:"resolved,omitempty" yaml:"resolved,omitempty"`
	Candidates []Location `json:"candidates,omitempty" yaml:"candidates,omitempty"`
}
