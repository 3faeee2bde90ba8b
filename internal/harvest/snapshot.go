package harvest

import "context"

// Parameter kinds, named after inspect.Parameter.kind.
const (
	KindPositionalOnly      = "POSITIONAL_ONLY"
	KindPositionalOrKeyword = "POSITIONAL_OR_KEYWORD"
	KindVarPositional       = "VAR_POSITIONAL"
	KindKeywordOnly         = "KEYWORD_ONLY"
	KindVarKeyword          = "VAR_KEYWORD"
)

// Default kinds describe how a parameter's default value must be rendered.
const (
	DefaultEmpty = "empty" // no default
	DefaultNone  = "none"  // None
	DefaultStr   = "str"   // string default, rendered single-quoted
	DefaultOther = "other" // anything else, rendered via its string form
)

// Request names what to introspect.
type Request struct {
	Builtins []string `json:"builtins"`
	Types    []string `json:"types"`
	Module   string   `json:"module"`
}

// Snapshot is the raw, unprocessed result of introspecting a runtime. Doc
// text is untouched and parameters are descriptors, not rendered strings.
type Snapshot struct {
	RuntimeVersion string      `json:"runtime_version"`
	Builtins       []RawMember `json:"builtins"`
	Types          []RawGroup  `json:"types"`
	Module         RawGroup    `json:"module"`
}

// RawGroup is a container type or module and its public attributes.
type RawGroup struct {
	Name     string      `json:"name"`
	Resolved bool        `json:"resolved"`
	Error    string      `json:"error,omitempty"`
	Members  []RawMember `json:"members"`
}

// RawMember is one resolved (or unresolvable) attribute.
type RawMember struct {
	Name           string     `json:"name"`
	Resolved       bool       `json:"resolved"`
	Callable       bool       `json:"callable"`
	Doc            string     `json:"doc"`
	Value          string     `json:"value,omitempty"`
	Params         []RawParam `json:"params"`
	SignatureError string     `json:"signature_error,omitempty"`
	Error          string     `json:"error,omitempty"`
}

// RawParam describes one parameter of a call signature.
type RawParam struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	DefaultKind string `json:"default_kind"`
	Default     string `json:"default,omitempty"`
}

// Introspector reads the documented surface of a runtime.
//
// Implementations report per-item problems inside the snapshot (Resolved,
// Error, SignatureError) and return an error only when the runtime itself
// cannot be queried.
type Introspector interface {
	Introspect(ctx context.Context, req Request) (*Snapshot, error)
}
