package harvest

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	sitter "github.com/tree-sitter/go-tree-sitter"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	"go.uber.org/zap"

	"github.com/mvp-joe/docharvest/internal/logger"
)

// DefaultStubsVersion is reported as the runtime version of stub harvests
// when none is configured.
const DefaultStubsVersion = "3.0"

// StubOptions configures a StubIntrospector.
type StubOptions struct {
	// Dir holds builtins.pyi and <module>.pyi (or .py).
	Dir string
	// Version is the language version the stubs describe.
	Version string
	Logger  *zap.SugaredLogger
}

// StubIntrospector reads the documented surface from Python stub files
// without running an interpreter.
type StubIntrospector struct {
	dir     string
	version string
	lang    *sitter.Language
	log     *zap.SugaredLogger
}

// NewStubIntrospector creates an introspector over a stub directory.
func NewStubIntrospector(opts StubOptions) (*StubIntrospector, error) {
	if opts.Dir == "" {
		return nil, errors.WithHint(
			errors.Wrap(ErrRuntimeUnavailable, "no stubs directory configured"),
			"set harvest.stubs_dir to a directory containing builtins.pyi")
	}
	if opts.Version == "" {
		opts.Version = DefaultStubsVersion
	}
	log := opts.Logger
	if log == nil {
		log = logger.ComponentLogger("stubs")
	}
	return &StubIntrospector{
		dir:     opts.Dir,
		version: opts.Version,
		lang:    sitter.NewLanguage(python.Language()),
		log:     log,
	}, nil
}

// Introspect parses builtins.pyi and the module stub.
func (s *StubIntrospector) Introspect(ctx context.Context, req Request) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	builtinsPath, ok := s.findStub("builtins")
	if !ok {
		return nil, errors.WithHint(
			errors.Wrapf(ErrRuntimeUnavailable, "builtins.pyi not found in %s", s.dir),
			"point harvest.stubs_dir at a typeshed stdlib directory")
	}
	builtinsDefs, err := s.parseFile(builtinsPath)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		RuntimeVersion: s.version + " (stubs)",
		Builtins:       make([]RawMember, 0, len(req.Builtins)),
		Types:          make([]RawGroup, 0, len(req.Types)),
		Module:         RawGroup{Name: req.Module, Members: []RawMember{}},
	}

	for _, name := range req.Builtins {
		def, ok := builtinsDefs.lookup(name)
		if !ok {
			snap.Builtins = append(snap.Builtins, RawMember{Name: name, Error: "not found in builtins stub", Params: []RawParam{}})
			continue
		}
		snap.Builtins = append(snap.Builtins, def.member(name))
	}

	for _, typeName := range req.Types {
		group := RawGroup{Name: typeName, Members: []RawMember{}}
		def, ok := builtinsDefs.lookup(typeName)
		if !ok || def.class == nil {
			group.Error = "not a class in builtins stub"
			snap.Types = append(snap.Types, group)
			continue
		}
		group.Resolved = true
		for _, method := range def.class.order {
			m := def.class.defs[method]
			if m.function == nil || m.property {
				continue
			}
			group.Members = append(group.Members, m.member(method))
		}
		snap.Types = append(snap.Types, group)
	}

	if req.Module != "" {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		snap.Module = s.moduleGroup(req.Module)
	}

	return snap, nil
}

func (s *StubIntrospector) moduleGroup(module string) RawGroup {
	group := RawGroup{Name: module, Members: []RawMember{}}
	path, ok := s.findStub(module)
	if !ok {
		group.Error = "no stub for module " + module
		return group
	}
	defs, err := s.parseFile(path)
	if err != nil {
		group.Error = err.Error()
		return group
	}
	group.Resolved = true
	for _, name := range defs.order {
		group.Members = append(group.Members, defs.defs[name].member(name))
	}
	return group
}

func (s *StubIntrospector) findStub(module string) (string, bool) {
	rel := filepath.FromSlash(strings.ReplaceAll(module, ".", "/"))
	for _, candidate := range []string{rel + ".pyi", filepath.Join(rel, "__init__.pyi"), rel + ".py"} {
		path := filepath.Join(s.dir, candidate)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

func (s *StubIntrospector) parseFile(path string) (*stubScope, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read stub %s", path)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(s.lang); err != nil {
		return nil, errors.Wrap(err, "failed to load python grammar")
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, errors.Wrap(ErrMalformedSnapshot, "failed to parse stub "+path)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		s.log.Warnw("Stub contains syntax errors, continuing with what parsed",
			logger.FieldPath, path)
	}

	scope := newStubScope()
	collectScope(root, source, scope)
	s.log.Debugw("Parsed stub", logger.FieldPath, path, logger.FieldCount, len(scope.order))
	return scope, nil
}

// stubScope is the ordered set of public names defined in a module or class body.
type stubScope struct {
	order []string
	defs  map[string]*stubDef
}

func newStubScope() *stubScope {
	return &stubScope{defs: make(map[string]*stubDef)}
}

func (s *stubScope) lookup(name string) (*stubDef, bool) {
	def, ok := s.defs[name]
	return def, ok
}

// add keeps the first definition of a name, so overloads resolve to the
// first signature.
func (s *stubScope) add(name string, def *stubDef) {
	if strings.HasPrefix(name, "_") && name != "__init__" && name != "__new__" {
		return
	}
	if _, exists := s.defs[name]; exists {
		return
	}
	s.order = append(s.order, name)
	s.defs[name] = def
}

type stubDef struct {
	doc      string
	value    string
	function *stubFunction
	class    *stubScope
	property bool
}

type stubFunction struct {
	params []RawParam
}

// member converts a definition into a raw member. Classes are callable
// through their constructor.
func (d *stubDef) member(name string) RawMember {
	m := RawMember{Name: name, Resolved: true, Doc: d.doc, Params: []RawParam{}}
	switch {
	case d.function != nil && !d.property:
		m.Callable = true
		m.Params = d.function.params
	case d.class != nil:
		m.Callable = true
		if ctor, ok := d.constructor(); ok {
			m.Params = dropReceiver(ctor.params)
		}
	default:
		m.Value = d.value
	}
	return m
}

func (d *stubDef) constructor() (*stubFunction, bool) {
	for _, name := range []string{"__init__", "__new__"} {
		if def, ok := d.class.defs[name]; ok && def.function != nil {
			return def.function, true
		}
	}
	return nil, false
}

func dropReceiver(params []RawParam) []RawParam {
	if len(params) > 0 && (params[0].Name == "self" || params[0].Name == "cls") {
		return params[1:]
	}
	return params
}

// collectScope records the definitions directly inside a module or block.
// Version-guarded if blocks are descended into so their definitions count.
func collectScope(node *sitter.Node, source []byte, scope *stubScope) {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "function_definition":
			addFunction(child, source, scope, false)
		case "class_definition":
			addClass(child, source, scope)
		case "decorated_definition":
			addDecorated(child, source, scope)
		case "expression_statement":
			addAssignment(child, source, scope)
		case "if_statement":
			if block := child.ChildByFieldName("consequence"); block != nil {
				collectScope(block, source, scope)
			}
		}
	}
}

func addDecorated(node *sitter.Node, source []byte, scope *stubScope) {
	def := node.ChildByFieldName("definition")
	if def == nil {
		return
	}
	property := false
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == "decorator" {
			text := strings.TrimSpace(strings.TrimPrefix(child.Utf8Text(source), "@"))
			if text == "property" || strings.HasSuffix(text, ".setter") || strings.HasSuffix(text, ".deleter") {
				property = true
			}
		}
	}
	switch def.Kind() {
	case "function_definition":
		addFunction(def, source, scope, property)
	case "class_definition":
		addClass(def, source, scope)
	}
}

func addFunction(node *sitter.Node, source []byte, scope *stubScope, property bool) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	fn := &stubFunction{params: []RawParam{}}
	if params := node.ChildByFieldName("parameters"); params != nil {
		fn.params = parseParameters(params, source)
	}
	scope.add(nameNode.Utf8Text(source), &stubDef{
		doc:      bodyDocstring(node, source),
		function: fn,
		property: property,
	})
}

func addClass(node *sitter.Node, source []byte, scope *stubScope) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	members := newStubScope()
	if body := node.ChildByFieldName("body"); body != nil {
		collectScope(body, source, members)
	}
	scope.add(nameNode.Utf8Text(source), &stubDef{
		doc:   bodyDocstring(node, source),
		class: members,
	})
}

// addAssignment handles "name = value" and annotated-only "name: type".
func addAssignment(stmt *sitter.Node, source []byte, scope *stubScope) {
	if stmt.NamedChildCount() == 0 {
		return
	}
	assign := stmt.NamedChild(0)
	if assign == nil || assign.Kind() != "assignment" {
		return
	}
	left := assign.ChildByFieldName("left")
	if left == nil || left.Kind() != "identifier" {
		return
	}
	value := ""
	if right := assign.ChildByFieldName("right"); right != nil && right.Kind() != "ellipsis" {
		value = right.Utf8Text(source)
	}
	scope.add(left.Utf8Text(source), &stubDef{value: value})
}

// bodyDocstring returns the first string statement of a definition's body.
func bodyDocstring(def *sitter.Node, source []byte) string {
	body := def.ChildByFieldName("body")
	if body == nil || body.NamedChildCount() == 0 {
		return ""
	}
	first := body.NamedChild(0)
	if first == nil || first.Kind() != "expression_statement" || first.NamedChildCount() == 0 {
		return ""
	}
	str := first.NamedChild(0)
	if str == nil || str.Kind() != "string" {
		return ""
	}
	return unquote(str.Utf8Text(source))
}

func parseParameters(node *sitter.Node, source []byte) []RawParam {
	params := []RawParam{}
	keywordOnly := false
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "positional_separator":
			for j := range params {
				params[j].Kind = KindPositionalOnly
			}
			continue
		case "keyword_separator":
			keywordOnly = true
			continue
		}

		p, ok := parseParameter(child, source)
		if !ok {
			continue
		}
		if p.Kind == KindVarPositional {
			keywordOnly = true
		} else if keywordOnly && p.Kind == KindPositionalOrKeyword {
			p.Kind = KindKeywordOnly
		}
		params = append(params, p)
	}
	return params
}

func parseParameter(node *sitter.Node, source []byte) (RawParam, bool) {
	p := RawParam{Kind: KindPositionalOrKeyword, DefaultKind: DefaultEmpty}

	switch node.Kind() {
	case "identifier":
		p.Name = node.Utf8Text(source)
	case "list_splat_pattern":
		p.Name = strings.TrimPrefix(node.Utf8Text(source), "*")
		p.Kind = KindVarPositional
	case "dictionary_splat_pattern":
		p.Name = strings.TrimPrefix(node.Utf8Text(source), "**")
		p.Kind = KindVarKeyword
	case "typed_parameter":
		// The name is the first named child; it may itself be a splat pattern.
		inner := node.NamedChild(0)
		if inner == nil {
			return p, false
		}
		q, ok := parseParameter(inner, source)
		if !ok {
			return p, false
		}
		return q, true
	case "default_parameter", "typed_default_parameter":
		name := node.ChildByFieldName("name")
		if name == nil {
			return p, false
		}
		p.Name = name.Utf8Text(source)
		if value := node.ChildByFieldName("value"); value != nil {
			p.DefaultKind, p.Default = describeDefault(value, source)
		}
	default:
		return p, false
	}
	return p, p.Name != ""
}

func describeDefault(value *sitter.Node, source []byte) (string, string) {
	switch value.Kind() {
	case "none":
		return DefaultNone, ""
	case "string":
		return DefaultStr, unquote(value.Utf8Text(source))
	default:
		return DefaultOther, value.Utf8Text(source)
	}
}

// unquote strips a string literal's prefix and quotes. Escape sequences are
// left as written.
func unquote(literal string) string {
	s := strings.TrimLeft(literal, "rRbBuUfF")
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if len(s) >= 2*len(q) && strings.HasPrefix(s, q) && strings.HasSuffix(s, q) {
			return s[len(q) : len(s)-len(q)]
		}
	}
	return s
}
