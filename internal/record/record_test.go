package record

// Test Plan for the interchange record:
// - JSON encoding keeps type_methods in insertion order (not sorted)
// - JSON encoding writes [] for empty parameter lists and does not escape < > &
// - constants serialise with value, functions with parameters
// - Save/Load round-trips JSON and YAML records, including type order
// - Encode is byte-stable for the same record
// - Load accepts records written by the older harvester (python_version, math_module, params/doc)
// - Load rejects unknown extensions with ErrUnsupportedFormat
// - Load of a missing file fails
// - Decode keeps type_methods in document order for JSON and YAML, turns null method lists into [] and rejects non-object type_methods
// - Encode does not modify the record it is given
// - ModuleConstants/ModuleFunctions partition module items in harvest order
// - RuntimeSemver parses sys.version strings, including pre-releases
// - CheckRuntime accepts/rejects against a constraint

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() *HarvestRecord {
	rec := New("3.13.1 (main, Dec  3 2024, 17:59:52) [Clang 16.0.0]", "math")
	rec.BuiltinFunctions = []CompletionItem{
		Function("abs", []string{"x"}, "Return the absolute value of the argument."),
		Function("print", []string{"*args", "sep=' '", "end='\n'", "file=None", "flush=False"}, "Prints the values to a stream, or to sys.stdout by default."),
	}
	// Deliberately not alphabetical.
	rec.TypeMethods.Set("str", []CompletionItem{Function("upper", nil, "Return a copy of the string converted to uppercase.")})
	rec.TypeMethods.Set("list", []CompletionItem{Function("append", []string{"object"}, "Append object to the end of the list.")})
	rec.TypeMethods.Set("dict", []CompletionItem{Function("get", []string{"key", "default=None"}, "Return the value for key if key is in the dictionary, else default.")})
	rec.ModuleCompletions = []CompletionItem{
		Function("math.sqrt", []string{"x"}, "Return the square root of x."),
		Constant("math.pi", "3.141592653589793", "The mathematical constant pi."),
		Function("math.isclose", []string{"a", "b", "rel_tol=1e-09", "abs_tol=0.0"}, "Determine whether two floating-point numbers are close in value."),
		Constant("math.e", "2.718281828459045", "The mathematical constant e."),
	}
	return rec
}

func TestEncodeJSON_PreservesTypeOrder(t *testing.T) {
	t.Parallel()

	data, err := Encode(sampleRecord(), FormatJSON)
	require.NoError(t, err)

	text := string(data)
	strIdx := strings.Index(text, `"str"`)
	listIdx := strings.Index(text, `"list"`)
	dictIdx := strings.Index(text, `"dict"`)
	require.True(t, strIdx > 0 && listIdx > 0 && dictIdx > 0, "all type keys present")
	assert.Less(t, strIdx, listIdx)
	assert.Less(t, listIdx, dictIdx)
	assert.True(t, strings.HasSuffix(text, "}\n"))
}

func TestEncodeJSON_ItemShapes(t *testing.T) {
	t.Parallel()

	rec := New("3.13.1", "math")
	rec.BuiltinFunctions = []CompletionItem{Function("breakpoint", nil, "Call sys.breakpointhook(*args, **kws) if a < b & c > d.")}
	rec.ModuleCompletions = []CompletionItem{Constant("math.pi", "3.141592653589793", "The mathematical constant pi.")}

	data, err := Encode(rec, FormatJSON)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, `"parameters": []`)
	assert.Contains(t, text, "a < b & c > d")
	assert.NotContains(t, text, `\u003c`)
	assert.Contains(t, text, `"value": "3.141592653589793"`)
	assert.Contains(t, text, `"type": "constant"`)
	assert.Contains(t, text, `"type_methods": {}`)
}

func TestEncode_IsStable(t *testing.T) {
	t.Parallel()

	for _, format := range []Format{FormatJSON, FormatYAML} {
		first, err := Encode(sampleRecord(), format)
		require.NoError(t, err)
		second, err := Encode(sampleRecord(), format)
		require.NoError(t, err)
		assert.Equal(t, string(first), string(second), "format %s", format)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"python_docs.json", "python_docs.yaml", "python_docs.yml"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), name)
			want := sampleRecord()
			require.NoError(t, Save(path, want))

			got, err := Load(path)
			require.NoError(t, err)

			assert.Equal(t, want.RuntimeVersion, got.RuntimeVersion)
			assert.Equal(t, "math", got.Module)
			assert.Equal(t, want.BuiltinFunctions, got.BuiltinFunctions)
			assert.Equal(t, want.ModuleCompletions, got.ModuleCompletions)
			assert.Equal(t, []string{"str", "list", "dict"}, got.TypeMethods.Names())

			methods, ok := got.TypeMethods.Get("dict")
			require.True(t, ok)
			assert.Equal(t, []string{"key", "default=None"}, methods[0].Parameters)

			// Parameter order and the raw newline in print's default survive.
			assert.Equal(t, "end='\n'", got.BuiltinFunctions[1].Parameters[2])
		})
	}
}

func TestLoad_LegacyRecord(t *testing.T) {
	t.Parallel()

	legacy := `{
  "python_version": "3.13.0 (main, Oct  7 2024) [Clang 15.0.0]",
  "builtin_functions": [
    {"name": "abs", "params": ["x"], "doc": "Return the absolute value of the argument."}
  ],
  "type_methods": {
    "tuple": [{"name": "count", "params": ["value"], "doc": "Return number of occurrences of value."}],
    "bytes": []
  },
  "math_module": [
    {"type": "constant", "name": "math.tau", "value": "6.283185307179586", "doc": ""},
    {"type": "function", "name": "math.ceil", "params": ["x"], "doc": "Return the ceiling of x as an Integral."}
  ]
}`
	path := filepath.Join(t.TempDir(), "python_docs.json")
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	rec, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "3.13.0", rec.ShortRuntimeVersion())
	assert.Equal(t, "math", rec.Module)
	require.Len(t, rec.BuiltinFunctions, 1)
	assert.Equal(t, Function("abs", []string{"x"}, "Return the absolute value of the argument."), rec.BuiltinFunctions[0])
	assert.Equal(t, []string{"tuple", "bytes"}, rec.TypeMethods.Names())
	require.Len(t, rec.ModuleCompletions, 2)
	assert.True(t, rec.ModuleCompletions[0].IsConstant())
	assert.Equal(t, "6.283185307179586", rec.ModuleCompletions[0].Value)
	assert.False(t, rec.ModuleCompletions[1].IsConstant())
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "record.toml"))
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	_, err = Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"type_methods": []}`), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)
}

func TestDecode_TypeMethodsDocumentOrder(t *testing.T) {
	t.Parallel()

	jsonDoc := `{"runtime_version": "3.12.0", "builtin_functions": [], "module_completions": [],
  "type_methods": {
    "tuple": [{"name": "count", "parameters": ["value"], "documentation": "Return number of occurrences of value."}],
    "str": null
  }}`
	yamlDoc := `runtime_version: 3.12.0
builtin_functions: []
module_completions: []
type_methods:
  tuple:
    - name: count
      parameters: [value]
      documentation: Return number of occurrences of value.
  str:
`

	for _, tt := range []struct {
		format Format
		data   string
	}{{FormatJSON, jsonDoc}, {FormatYAML, yamlDoc}} {
		t.Run(string(tt.format), func(t *testing.T) {
			t.Parallel()

			rec, err := Decode([]byte(tt.data), tt.format)
			require.NoError(t, err)
			assert.Equal(t, []string{"tuple", "str"}, rec.TypeMethods.Names())

			tuple, ok := rec.TypeMethods.Get("tuple")
			require.True(t, ok)
			assert.Equal(t, []CompletionItem{Function("count", []string{"value"}, "Return number of occurrences of value.")}, tuple)

			str, ok := rec.TypeMethods.Get("str")
			require.True(t, ok)
			assert.NotNil(t, str)
			assert.Empty(t, str)

			out, err := Encode(rec, FormatJSON)
			require.NoError(t, err)
			assert.Contains(t, string(out), `"str": []`)
			assert.Less(t, strings.Index(string(out), `"tuple"`), strings.Index(string(out), `"str"`))
		})
	}
}

func TestDecode_TypeMethodsNotAnObject(t *testing.T) {
	t.Parallel()

	_, err := Decode([]byte(`{"runtime_version": "3.12.0", "type_methods": ["str"]}`), FormatJSON)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "type_methods")

	_, err = Decode([]byte("runtime_version: 3.12.0\ntype_methods: [str]\n"), FormatYAML)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "type_methods")
}

func TestEncode_DoesNotModifyRecord(t *testing.T) {
	t.Parallel()

	rec := &HarvestRecord{RuntimeVersion: "3.12.0", Module: "math"}
	data, err := Encode(rec, FormatJSON)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"builtin_functions": []`)
	assert.Contains(t, string(data), `"type_methods": {}`)

	assert.Nil(t, rec.BuiltinFunctions)
	assert.Nil(t, rec.TypeMethods)
	assert.Nil(t, rec.ModuleCompletions)
}

func TestModulePartition(t *testing.T) {
	t.Parallel()

	rec := sampleRecord()

	constants := rec.ModuleConstants()
	require.Len(t, constants, 2)
	assert.Equal(t, "math.pi", constants[0].Name)
	assert.Equal(t, "math.e", constants[1].Name)

	functions := rec.ModuleFunctions()
	require.Len(t, functions, 2)
	assert.Equal(t, "math.sqrt", functions[0].Name)
	assert.Equal(t, "math.isclose", functions[1].Name)

	stats := rec.Stats()
	assert.Equal(t, 2, stats.BuiltinFunctions)
	assert.Equal(t, map[string]int{"str": 1, "list": 1, "dict": 1}, stats.Types)
	assert.Equal(t, 9, stats.Total())
}

func TestRuntimeSemver(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want string
	}{
		{raw: "3.13.1 (main, Dec  3 2024, 17:59:52) [Clang 16.0.0]", want: "3.13.1"},
		{raw: "3.14.0rc1 (main, Jul 22 2025)", want: "3.14.0"},
		{raw: "3.12", want: "3.12.0"},
	}

	for _, tt := range tests {
		rec := &HarvestRecord{RuntimeVersion: tt.raw}
		v, err := rec.RuntimeSemver()
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, v.String())
	}

	_, err := (&HarvestRecord{RuntimeVersion: "stubs"}).RuntimeSemver()
	assert.Error(t, err)
	assert.Equal(t, "stubs", (&HarvestRecord{RuntimeVersion: "stubs"}).ShortRuntimeVersion())
}

func TestCheckRuntime(t *testing.T) {
	t.Parallel()

	rec := &HarvestRecord{RuntimeVersion: "3.13.1 (main)"}

	assert.NoError(t, rec.CheckRuntime(""))
	assert.NoError(t, rec.CheckRuntime(">= 3.8"))

	err := rec.CheckRuntime(">= 3.14")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRuntimeMismatch))

	assert.Error(t, rec.CheckRuntime("not a constraint"))
}
