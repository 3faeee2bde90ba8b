package harvest

// Test Plan for StubIntrospector:
// - functions in builtins.pyi resolve with docstrings and parameter kinds
// - typed, defaulted and splat parameters map to the same descriptors a runtime gives
// - overloads keep the first definition
// - definitions inside version guards are found
// - classes resolve as types; properties and private names are left out
// - annotated-only module names become constants with an empty value
// - unknown builtins, non-class types and missing module stubs are unresolved, not errors
// - a stubs directory without builtins.pyi is ErrRuntimeUnavailable
// - a stub harvest runs end to end through the Harvester

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stubsDir = "testdata/stubs"

func introspectStubs(t *testing.T, req Request) *Snapshot {
	t.Helper()
	s, err := NewStubIntrospector(StubOptions{Dir: stubsDir, Version: "3.12"})
	require.NoError(t, err)
	snap, err := s.Introspect(context.Background(), req)
	require.NoError(t, err)
	return snap
}

func TestStubIntrospector_Builtins(t *testing.T) {
	t.Parallel()

	snap := introspectStubs(t, Request{Builtins: []string{"abs", "print", "sorted", "aiter", "list", "copyright", "nosuch"}})
	assert.Equal(t, "3.12 (stubs)", snap.RuntimeVersion)
	require.Len(t, snap.Builtins, 7)

	abs := snap.Builtins[0]
	assert.True(t, abs.Resolved)
	assert.True(t, abs.Callable)
	assert.Equal(t, "Return the absolute value of the argument.", abs.Doc)
	assert.Equal(t, []RawParam{{Name: "x", Kind: KindPositionalOnly, DefaultKind: DefaultEmpty}}, abs.Params)

	printMember := snap.Builtins[1]
	assert.Equal(t, []RawParam{
		{Name: "args", Kind: KindVarPositional, DefaultKind: DefaultEmpty},
		{Name: "sep", Kind: KindKeywordOnly, DefaultKind: DefaultStr, Default: " "},
		{Name: "end", Kind: KindKeywordOnly, DefaultKind: DefaultStr, Default: `\n`},
		{Name: "file", Kind: KindKeywordOnly, DefaultKind: DefaultNone},
		{Name: "flush", Kind: KindKeywordOnly, DefaultKind: DefaultOther, Default: "False"},
	}, printMember.Params)
	assert.Equal(t, "Prints the values to a stream, or to sys.stdout by default.", CleanDocstring(printMember.Doc, DefaultDocLimit))

	sorted := snap.Builtins[2]
	assert.Equal(t, []string{"iterable", "key=None", "reverse=False"}, RenderParameters(sorted.Params))

	aiter := snap.Builtins[3]
	assert.True(t, aiter.Resolved, "definitions under version guards are found")

	list := snap.Builtins[4]
	assert.True(t, list.Callable)
	assert.Equal(t, []string{"iterable=()"}, RenderParameters(list.Params))

	copyrightMember := snap.Builtins[5]
	assert.True(t, copyrightMember.Resolved)
	assert.False(t, copyrightMember.Callable)

	assert.False(t, snap.Builtins[6].Resolved)
	assert.NotEmpty(t, snap.Builtins[6].Error)
}

func TestStubIntrospector_Types(t *testing.T) {
	t.Parallel()

	snap := introspectStubs(t, Request{Types: []string{"list", "tuple", "abs", "nosuch"}})
	require.Len(t, snap.Types, 4)

	list := snap.Types[0]
	require.True(t, list.Resolved)
	var names []string
	for _, m := range list.Members {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"__init__", "append", "pop"}, names)
	assert.Equal(t, []string{"index=-1"}, RenderParameters(list.Members[2].Params))

	tuple := snap.Types[1]
	require.True(t, tuple.Resolved)
	require.Len(t, tuple.Members, 1, "properties are not methods")
	assert.Equal(t, "count", tuple.Members[0].Name)

	assert.False(t, snap.Types[2].Resolved, "a function is not a type")
	assert.False(t, snap.Types[3].Resolved)
}

func TestStubIntrospector_Module(t *testing.T) {
	t.Parallel()

	snap := introspectStubs(t, Request{Module: "math"})
	require.True(t, snap.Module.Resolved)

	byName := make(map[string]RawMember)
	var order []string
	for _, m := range snap.Module.Members {
		byName[m.Name] = m
		order = append(order, m.Name)
	}
	assert.Equal(t, []string{"e", "pi", "tau", "sqrt", "isclose", "log"}, order)

	assert.False(t, byName["pi"].Callable)
	assert.Equal(t, "", byName["pi"].Value)
	assert.Equal(t, "6.283185307179586", byName["tau"].Value)
	assert.Equal(t, []string{"a", "b", "rel_tol=1e-09", "abs_tol=0.0"}, RenderParameters(byName["isclose"].Params))
	assert.Equal(t, []string{"x", "base=..."}, RenderParameters(byName["log"].Params))
	assert.Equal(t, "log(x, [base=math.e]) Return the logarithm of x to the given base.", CleanDocstring(byName["log"].Doc, DefaultDocLimit))
}

func TestStubIntrospector_MissingModule(t *testing.T) {
	t.Parallel()

	snap := introspectStubs(t, Request{Module: "cmath"})
	assert.False(t, snap.Module.Resolved)
	assert.Contains(t, snap.Module.Error, "cmath")
}

func TestStubIntrospector_MissingBuiltins(t *testing.T) {
	t.Parallel()

	s, err := NewStubIntrospector(StubOptions{Dir: t.TempDir()})
	require.NoError(t, err)
	_, err = s.Introspect(context.Background(), Request{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRuntimeUnavailable))

	_, err = NewStubIntrospector(StubOptions{})
	assert.True(t, errors.Is(err, ErrRuntimeUnavailable))
}

func TestStubHarvest_EndToEnd(t *testing.T) {
	t.Parallel()

	s, err := NewStubIntrospector(StubOptions{Dir: stubsDir})
	require.NoError(t, err)
	h, err := New(s, Options{})
	require.NoError(t, err)

	rec, report, err := h.Harvest(context.Background(), Request{
		Builtins: []string{"abs", "print"},
		Types:    []string{"list"},
		Module:   "math",
	})
	require.NoError(t, err)
	assert.Empty(t, report.Skipped)

	assert.Equal(t, "3.0.0", rec.ShortRuntimeVersion())
	require.NoError(t, rec.CheckRuntime(">= 3.0"))

	methods, ok := rec.TypeMethods.Get("list")
	require.True(t, ok)
	require.Len(t, methods, 2, "__init__ is private")
	assert.Equal(t, "append", methods[0].Name)

	pi, ok := itemNamed(rec.ModuleCompletions, "math.pi")
	require.True(t, ok)
	assert.Equal(t, "The mathematical constant pi.", pi.Documentation)
}
