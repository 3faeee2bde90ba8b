package emit

import (
	"strings"
	"time"
	"unicode"

	"github.com/mvp-joe/docharvest/internal/record"
)

const indent = "    "

// DefaultTypeOrder is the priority order of container-type blocks. Types not
// listed here follow in record order.
var DefaultTypeOrder = []string{"str", "list", "dict", "set", "frozenset", "bytes", "bytearray", "tuple"}

// typeNames holds the struct name and prose name for well-known types.
var typeNames = map[string]struct{ structName, prose string }{
	"str":       {"StringMethods", "string"},
	"list":      {"ListMethods", "list"},
	"dict":      {"DictMethods", "dict"},
	"set":       {"SetMethods", "set"},
	"frozenset": {"FrozensetMethods", "frozenset"},
	"bytes":     {"BytesMethods", "bytes"},
	"bytearray": {"BytearrayMethods", "bytearray"},
	"tuple":     {"TupleMethods", "tuple"},
}

// Group is one emitted declaration block.
type Group struct {
	ID    string // builtins, type:<name> or module
	Title string // section title used in standalone output
	Text  string // declaration text without a trailing newline
	Items int
}

// Options configures an Emitter.
type Options struct {
	// Overrides replaces the emitted text of specific parameters. Nil means
	// DefaultOverrides; an empty table disables overriding.
	Overrides Overrides
	// TypeOrder is the block priority for container types. Nil means
	// DefaultTypeOrder.
	TypeOrder []string
	// Clock stamps the standalone header. Nil means time.Now.
	Clock func() time.Time
}

// Emitter renders records as Swift CompletionItem declarations. Apart from
// the standalone header timestamp its output depends only on the record.
type Emitter struct {
	overrides Overrides
	typeOrder []string
	clock     func() time.Time
}

// New creates an Emitter.
func New(opts Options) *Emitter {
	e := &Emitter{
		overrides: opts.Overrides,
		typeOrder: opts.TypeOrder,
		clock:     opts.Clock,
	}
	if e.overrides == nil {
		e.overrides = DefaultOverrides()
	}
	if e.typeOrder == nil {
		e.typeOrder = DefaultTypeOrder
	}
	if e.clock == nil {
		e.clock = time.Now
	}
	return e
}

// Groups renders every group in emission order: built-in functions, one
// block per container type, then the module block.
func (e *Emitter) Groups(rec *record.HarvestRecord) []Group {
	groups := []Group{e.builtins(rec)}

	for _, typeName := range e.orderedTypes(rec) {
		methods, _ := rec.TypeMethods.Get(typeName)
		groups = append(groups, e.typeMethods(typeName, methods))
	}

	if module := moduleName(rec); module != "" {
		groups = append(groups, e.module(module, rec))
	}
	return groups
}

// Group renders a single group by identifier.
func (e *Emitter) Group(rec *record.HarvestRecord, id string) (Group, bool) {
	for _, g := range e.Groups(rec) {
		if g.ID == id {
			return g, true
		}
	}
	return Group{}, false
}

// Standalone renders all groups under section headers, for review or for
// inclusion as a separate source file.
func (e *Emitter) Standalone(rec *record.HarvestRecord) string {
	var b strings.Builder
	b.WriteString("// MARK: - Generated Python Completions\n")
	b.WriteString("// Generated from Python " + rec.ShortRuntimeVersion() + " documentation\n")
	b.WriteString(timestampPrefix + e.clock().UTC().Format(time.RFC3339) + "\n")

	for _, g := range e.Groups(rec) {
		b.WriteString("\n")
		b.WriteString(indent + "// MARK: - " + g.Title + "\n")
		b.WriteString(g.Text)
		b.WriteString("\n")
	}
	return b.String()
}

const timestampPrefix = "// Generated on: "

// StripTimestamp removes the generation timestamp line so two standalone
// outputs can be compared for equality.
func StripTimestamp(text string) string {
	lines := strings.SplitAfter(text, "\n")
	var b strings.Builder
	b.Grow(len(text))
	for _, line := range lines {
		if strings.HasPrefix(line, timestampPrefix) {
			continue
		}
		b.WriteString(line)
	}
	return b.String()
}

func (e *Emitter) builtins(rec *record.HarvestRecord) Group {
	lines := []string{indent + "private static let builtinFunctions: [CompletionItem] = ["}
	for _, item := range rec.BuiltinFunctions {
		lines = append(lines, indent+indent+e.function(record.GroupBuiltins, item)+",")
	}
	lines = append(lines, indent+"]")

	return Group{
		ID:    record.GroupBuiltins,
		Title: "Built-in Functions",
		Text:  strings.Join(lines, "\n"),
		Items: len(rec.BuiltinFunctions),
	}
}

func (e *Emitter) typeMethods(typeName string, methods []record.CompletionItem) Group {
	structName, prose := TypeStructName(typeName)
	groupID := record.TypeGroup(typeName)

	lines := []string{
		indent + "/// " + capitalize(typeName) + " type methods - for use when type inference determines an object is a " + prose,
		indent + "struct " + structName + " {",
		indent + indent + "static let methods: [CompletionItem] = [",
	}
	for _, item := range methods {
		lines = append(lines, indent+indent+indent+e.function(groupID, item)+",")
	}
	lines = append(lines, indent+indent+"]", indent+"}")

	return Group{
		ID:    groupID,
		Title: capitalize(typeName) + " Methods",
		Text:  strings.Join(lines, "\n"),
		Items: len(methods),
	}
}

func (e *Emitter) module(module string, rec *record.HarvestRecord) Group {
	constants := rec.ModuleConstants()
	functions := rec.ModuleFunctions()
	label := capitalize(module)

	lines := []string{indent + "private static let " + camelModule(module) + "ModuleCompletions: [CompletionItem] = ["}
	if len(constants) > 0 {
		lines = append(lines, indent+indent+"// "+label+" module constants")
		for _, item := range constants {
			lines = append(lines, indent+indent+constantLiteral(item)+",")
		}
	}
	if len(functions) > 0 {
		if len(constants) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, indent+indent+"// "+label+" module functions")
		for _, item := range functions {
			lines = append(lines, indent+indent+e.function(record.GroupModule, item)+",")
		}
	}
	lines = append(lines, indent+"]")

	return Group{
		ID:    record.GroupModule,
		Title: label + " Module",
		Text:  strings.Join(lines, "\n"),
		Items: len(constants) + len(functions),
	}
}

// function renders a function-form item, escaping every parameter unless
// the override table names it.
func (e *Emitter) function(group string, item record.CompletionItem) string {
	params := make([]string, len(item.Parameters))
	for i, p := range item.Parameters {
		if text, ok := e.overrides.lookup(group, item.Name, p); ok {
			params[i] = text
			continue
		}
		params[i] = record.EscapeLiteral(p)
	}
	return functionLiteral(item.Name, params, item.Documentation)
}

// orderedTypes lists the record's types in priority order, then any others
// in record order.
func (e *Emitter) orderedTypes(rec *record.HarvestRecord) []string {
	present := make(map[string]bool, rec.TypeMethods.Len())
	for _, name := range rec.TypeMethods.Names() {
		present[name] = true
	}

	ordered := make([]string, 0, len(present))
	seen := make(map[string]bool, len(present))
	for _, name := range e.typeOrder {
		if present[name] && !seen[name] {
			ordered = append(ordered, name)
			seen[name] = true
		}
	}
	for _, name := range rec.TypeMethods.Names() {
		if !seen[name] {
			ordered = append(ordered, name)
			seen[name] = true
		}
	}
	return ordered
}

// TypeStructName returns the Swift struct name for a container type and the
// word used for it in the struct's doc comment.
func TypeStructName(typeName string) (structName, prose string) {
	if n, ok := typeNames[typeName]; ok {
		return n.structName, n.prose
	}
	return capitalize(typeName) + "Methods", typeName
}

func moduleName(rec *record.HarvestRecord) string {
	if rec.Module != "" {
		return rec.Module
	}
	if len(rec.ModuleCompletions) == 0 {
		return ""
	}
	name := rec.ModuleCompletions[0].Name
	if i := strings.IndexByte(name, '.'); i > 0 {
		return name[:i]
	}
	return "module"
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// camelModule turns "os.path" into "osPath".
func camelModule(module string) string {
	parts := strings.FieldsFunc(module, func(r rune) bool { return r == '.' || r == '_' })
	if len(parts) == 0 {
		return "module"
	}
	out := strings.ToLower(parts[0])
	for _, p := range parts[1:] {
		out += capitalize(p)
	}
	return out
}
