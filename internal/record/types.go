package record

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// ItemKind distinguishes function-form from constant-form completion items.
type ItemKind string

const (
	KindFunction ItemKind = "function"
	KindConstant ItemKind = "constant"
)

// CompletionItem is one unit of editor-facing metadata.
//
// Function-form items carry Parameters; constant-form items carry Value.
// Documentation is stored already escaped for embedding in a string literal.
type CompletionItem struct {
	Kind          ItemKind
	Name          string
	Parameters    []string
	Value         string
	Documentation string
}

// Function builds a function-form item. A nil parameter list is normalised to
// an empty one so it serialises as [].
func Function(name string, params []string, doc string) CompletionItem {
	if params == nil {
		params = []string{}
	}
	return CompletionItem{Kind: KindFunction, Name: name, Parameters: params, Documentation: doc}
}

// Constant builds a constant-form item.
func Constant(name, value, doc string) CompletionItem {
	return CompletionItem{Kind: KindConstant, Name: name, Value: value, Documentation: doc}
}

// IsConstant reports whether the item is constant-form. Items without an
// explicit kind are functions.
func (c CompletionItem) IsConstant() bool {
	return c.Kind == KindConstant
}

// functionWire and constantWire fix the on-disk key order per kind.
type functionWire struct {
	Kind          ItemKind `json:"type" yaml:"type"`
	Name          string   `json:"name" yaml:"name"`
	Parameters    []string `json:"parameters" yaml:"parameters"`
	Documentation string   `json:"documentation" yaml:"documentation"`
}

type constantWire struct {
	Kind          ItemKind `json:"type" yaml:"type"`
	Name          string   `json:"name" yaml:"name"`
	Value         string   `json:"value" yaml:"value"`
	Documentation string   `json:"documentation" yaml:"documentation"`
}

// itemWire accepts both the current keys and the keys written by the older
// python_docs.json harvester (params/doc).
type itemWire struct {
	Kind          ItemKind `json:"type" yaml:"type"`
	Name          string   `json:"name" yaml:"name"`
	Parameters    []string `json:"parameters" yaml:"parameters"`
	Params        []string `json:"params" yaml:"params"`
	Value         *string  `json:"value" yaml:"value"`
	Documentation string   `json:"documentation" yaml:"documentation"`
	Doc           string   `json:"doc" yaml:"doc"`
}

func (c CompletionItem) wire() any {
	if c.IsConstant() {
		return constantWire{Kind: KindConstant, Name: c.Name, Value: c.Value, Documentation: c.Documentation}
	}
	params := c.Parameters
	if params == nil {
		params = []string{}
	}
	return functionWire{Kind: KindFunction, Name: c.Name, Parameters: params, Documentation: c.Documentation}
}

func (c *CompletionItem) fromWire(w itemWire) {
	doc := w.Documentation
	if doc == "" {
		doc = w.Doc
	}
	params := w.Parameters
	if params == nil {
		params = w.Params
	}

	kind := w.Kind
	if kind == "" {
		kind = KindFunction
		if w.Value != nil {
			kind = KindConstant
		}
	}

	if kind == KindConstant {
		value := ""
		if w.Value != nil {
			value = *w.Value
		}
		*c = Constant(w.Name, value, doc)
		return
	}
	*c = Function(w.Name, params, doc)
}

// MarshalJSON implements json.Marshaler.
func (c CompletionItem) MarshalJSON() ([]byte, error) {
	return marshalNoEscape(c.wire())
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *CompletionItem) UnmarshalJSON(data []byte) error {
	var w itemWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	c.fromWire(w)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (c CompletionItem) MarshalYAML() (any, error) {
	return c.wire(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *CompletionItem) UnmarshalYAML(node *yaml.Node) error {
	var w itemWire
	if err := node.Decode(&w); err != nil {
		return err
	}
	c.fromWire(w)
	return nil
}

// HarvestRecord is the persisted interchange record. Once written it is never
// modified; the next harvest run replaces it wholesale.
type HarvestRecord struct {
	RuntimeVersion    string           `json:"runtime_version" yaml:"runtime_version"`
	Module            string           `json:"module,omitempty" yaml:"module,omitempty"`
	BuiltinFunctions  []CompletionItem `json:"builtin_functions" yaml:"builtin_functions"`
	TypeMethods       *TypeMethods     `json:"type_methods" yaml:"type_methods"`
	ModuleCompletions []CompletionItem `json:"module_completions" yaml:"module_completions"`
}

// New returns an empty record with every collection initialised.
func New(runtimeVersion, module string) *HarvestRecord {
	return &HarvestRecord{
		RuntimeVersion:    runtimeVersion,
		Module:            module,
		BuiltinFunctions:  []CompletionItem{},
		TypeMethods:       NewTypeMethods(),
		ModuleCompletions: []CompletionItem{},
	}
}

// normalize replaces nil collections so the serialised form always has [] / {}.
func (r *HarvestRecord) normalize() {
	if r.BuiltinFunctions == nil {
		r.BuiltinFunctions = []CompletionItem{}
	}
	if r.TypeMethods == nil {
		r.TypeMethods = NewTypeMethods()
	}
	if r.ModuleCompletions == nil {
		r.ModuleCompletions = []CompletionItem{}
	}
}

// ModuleConstants returns the module's constant-form items in harvest order.
func (r *HarvestRecord) ModuleConstants() []CompletionItem {
	var out []CompletionItem
	for _, item := range r.ModuleCompletions {
		if item.IsConstant() {
			out = append(out, item)
		}
	}
	return out
}

// ModuleFunctions returns the module's function-form items in harvest order.
func (r *HarvestRecord) ModuleFunctions() []CompletionItem {
	var out []CompletionItem
	for _, item := range r.ModuleCompletions {
		if !item.IsConstant() {
			out = append(out, item)
		}
	}
	return out
}

// Stats holds item counts per group, used for command summaries.
type Stats struct {
	BuiltinFunctions int
	Types            map[string]int
	ModuleConstants  int
	ModuleFunctions  int
}

// Total returns the number of items across every group.
func (s Stats) Total() int {
	total := s.BuiltinFunctions + s.ModuleConstants + s.ModuleFunctions
	for _, n := range s.Types {
		total += n
	}
	return total
}

// Stats counts the record's items.
func (r *HarvestRecord) Stats() Stats {
	s := Stats{
		BuiltinFunctions: len(r.BuiltinFunctions),
		Types:            make(map[string]int),
		ModuleConstants:  len(r.ModuleConstants()),
		ModuleFunctions:  len(r.ModuleFunctions()),
	}
	if r.TypeMethods != nil {
		r.TypeMethods.Each(func(name string, items []CompletionItem) {
			s.Types[name] = len(items)
		})
	}
	return s
}
