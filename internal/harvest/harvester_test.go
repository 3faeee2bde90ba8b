package harvest

// Test Plan for Harvester:
// - builtins from a captured 3.11 snapshot render parameters and first-paragraph docs
// - unresolvable builtins and types are skipped, reported and logged as warnings
// - signature failures (math.hypot, math.log) keep the item with [] parameters
// - module items are qualified, constants keep their value and get fallback docs
// - module exclude globs drop members before classification
// - type groups follow the requested order, methods drop self and private names
// - progress events fire once per member and once on completion
// - introspector errors are wrapped; a nil snapshot is malformed
// - invalid exclude patterns fail construction

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mvp-joe/docharvest/internal/record"
)

var fixtureRequest = Request{
	Builtins: []string{"abs", "print", "len", "sorted", "open", "nosuch"},
	Types:    []string{"list", "tuple", "nosuch"},
	Module:   "math",
}

// fixtureIntrospector replays a captured snapshot.
type fixtureIntrospector struct {
	snap *Snapshot
	err  error
}

func (f *fixtureIntrospector) Introspect(ctx context.Context, req Request) (*Snapshot, error) {
	return f.snap, f.err
}

func loadFixture(t *testing.T) *Snapshot {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "snapshot_py311.json"))
	require.NoError(t, err)
	snap, err := ParseSnapshot(data)
	require.NoError(t, err)
	return snap
}

func harvestFixture(t *testing.T, opts Options) (*record.HarvestRecord, *Report, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	opts.Logger = zap.New(core).Sugar()

	h, err := New(&fixtureIntrospector{snap: loadFixture(t)}, opts)
	require.NoError(t, err)

	rec, report, err := h.Harvest(context.Background(), fixtureRequest)
	require.NoError(t, err)
	return rec, report, logs
}

func itemNamed(items []record.CompletionItem, name string) (record.CompletionItem, bool) {
	for _, item := range items {
		if item.Name == name {
			return item, true
		}
	}
	return record.CompletionItem{}, false
}

func TestHarvest_Builtins(t *testing.T) {
	t.Parallel()

	rec, _, _ := harvestFixture(t, Options{})

	assert.Equal(t, "3.11.7", rec.ShortRuntimeVersion())
	require.Len(t, rec.BuiltinFunctions, 5)

	abs := rec.BuiltinFunctions[0]
	assert.Equal(t, record.Function("abs", []string{"x"}, "Return the absolute value of the argument."), abs)

	printItem, ok := itemNamed(rec.BuiltinFunctions, "print")
	require.True(t, ok)
	assert.Equal(t, []string{"*args", "sep=' '", "end='\n'", "file=None", "flush=False"}, printItem.Parameters)
	assert.Equal(t, "Prints the values to a stream, or to sys.stdout by default.", printItem.Documentation)

	sortedItem, ok := itemNamed(rec.BuiltinFunctions, "sorted")
	require.True(t, ok)
	assert.Equal(t, []string{"iterable", "key=None", "reverse=False"}, sortedItem.Parameters)

	openItem, ok := itemNamed(rec.BuiltinFunctions, "open")
	require.True(t, ok)
	assert.Equal(t, []string{"file", "mode='r'", "buffering=-1", "encoding=None", "errors=None", "newline=None", "closefd=True", "opener=None"}, openItem.Parameters)
	assert.Equal(t, "Open file and return a stream. Raise OSError upon failure.", openItem.Documentation)
}

func TestHarvest_SkipsUnresolvable(t *testing.T) {
	t.Parallel()

	rec, report, logs := harvestFixture(t, Options{})

	_, ok := itemNamed(rec.BuiltinFunctions, "nosuch")
	assert.False(t, ok)
	_, ok = rec.TypeMethods.Get("nosuch")
	assert.False(t, ok)

	require.Len(t, report.Skipped, 2)
	assert.Equal(t, SkippedItem{Group: record.GroupBuiltins, Name: "nosuch", Reason: "not found in builtins"}, report.Skipped[0])
	assert.Equal(t, record.TypeGroup("nosuch"), report.Skipped[1].Group)

	warnings := logs.FilterMessage("Skipping item").FilterLevelExact(zapcore.WarnLevel)
	assert.Equal(t, 2, warnings.Len())
}

func TestHarvest_SignatureFallback(t *testing.T) {
	t.Parallel()

	rec, report, logs := harvestFixture(t, Options{})

	for _, name := range []string{"math.hypot", "math.log"} {
		item, ok := itemNamed(rec.ModuleCompletions, name)
		require.True(t, ok, name)
		assert.False(t, item.IsConstant())
		assert.NotNil(t, item.Parameters)
		assert.Empty(t, item.Parameters)
		assert.NotEmpty(t, item.Documentation)
	}
	assert.Equal(t, []string{"math.hypot", "math.log"}, report.SignatureFallbacks)
	assert.Equal(t, 2, logs.FilterMessage("Signature unavailable, using empty parameter list").Len())
}

func TestHarvest_Module(t *testing.T) {
	t.Parallel()

	rec, _, _ := harvestFixture(t, Options{ConstantDocs: map[string]string{"pi": "The mathematical constant pi."}})

	assert.Equal(t, "math", rec.Module)
	require.Len(t, rec.ModuleCompletions, 9)
	for _, item := range rec.ModuleCompletions {
		assert.Regexp(t, `^math\.`, item.Name)
	}

	pi, ok := itemNamed(rec.ModuleCompletions, "math.pi")
	require.True(t, ok)
	assert.Equal(t, record.Constant("math.pi", "3.141592653589793", "The mathematical constant pi."), pi)

	e, ok := itemNamed(rec.ModuleCompletions, "math.e")
	require.True(t, ok)
	assert.Equal(t, "", e.Documentation, "only configured constants get fallback docs")

	isclose, ok := itemNamed(rec.ModuleCompletions, "math.isclose")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b", "rel_tol=1e-09", "abs_tol=0.0"}, isclose.Parameters)

	assert.Len(t, rec.ModuleConstants(), 4)
	assert.Len(t, rec.ModuleFunctions(), 5)
}

func TestHarvest_DefaultConstantDocs(t *testing.T) {
	t.Parallel()

	rec, _, _ := harvestFixture(t, Options{})

	tau, ok := itemNamed(rec.ModuleCompletions, "math.tau")
	require.True(t, ok)
	assert.Equal(t, DefaultConstantDocs["tau"], tau.Documentation)
}

func TestHarvest_ModuleExclude(t *testing.T) {
	t.Parallel()

	rec, report, _ := harvestFixture(t, Options{ModuleExclude: []string{"is*", "hypot"}})

	_, ok := itemNamed(rec.ModuleCompletions, "math.isclose")
	assert.False(t, ok)
	_, ok = itemNamed(rec.ModuleCompletions, "math.hypot")
	assert.False(t, ok)
	assert.ElementsMatch(t, []string{"isclose", "hypot"}, report.Excluded)
	assert.Equal(t, []string{"math.log"}, report.SignatureFallbacks)
}

func TestHarvest_TypeMethods(t *testing.T) {
	t.Parallel()

	rec, _, _ := harvestFixture(t, Options{})

	assert.Equal(t, []string{"list", "tuple"}, rec.TypeMethods.Names())

	methods, ok := rec.TypeMethods.Get("list")
	require.True(t, ok)
	require.Len(t, methods, 11)
	assert.Equal(t, "append", methods[0].Name)
	assert.Equal(t, []string{"object"}, methods[0].Parameters)

	index, ok := itemNamed(methods, "index")
	require.True(t, ok)
	assert.Equal(t, []string{"value", "start=0", "stop=9223372036854775807"}, index.Parameters)

	clearItem, ok := itemNamed(methods, "clear")
	require.True(t, ok)
	assert.Equal(t, []string{}, clearItem.Parameters)
}

func TestHarvest_TypeOrderFollowsRequest(t *testing.T) {
	t.Parallel()

	h, err := New(&fixtureIntrospector{snap: loadFixture(t)}, Options{})
	require.NoError(t, err)

	req := fixtureRequest
	req.Types = []string{"tuple", "list"}
	rec, _, err := h.Harvest(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"tuple", "list"}, rec.TypeMethods.Names())
}

type recordingProgress struct {
	started  bool
	total    int
	items    int
	complete bool
}

func (p *recordingProgress) OnIntrospectStart(Request)               { p.started = true }
func (p *recordingProgress) OnHarvestStart(total int)                { p.total = total }
func (p *recordingProgress) OnItem(string, string)                   { p.items++ }
func (p *recordingProgress) OnHarvestComplete(record.Stats, *Report) { p.complete = true }

func TestHarvest_Progress(t *testing.T) {
	t.Parallel()

	progress := &recordingProgress{}
	harvestFixture(t, Options{Progress: progress})

	assert.True(t, progress.started)
	assert.True(t, progress.complete)
	// 6 builtins + 11 list + 2 tuple + 9 math
	assert.Equal(t, 28, progress.total)
	assert.Equal(t, progress.total, progress.items)
}

func TestHarvest_IntrospectorFailure(t *testing.T) {
	t.Parallel()

	h, err := New(&fixtureIntrospector{err: ErrRuntimeUnavailable}, Options{})
	require.NoError(t, err)
	_, _, err = h.Harvest(context.Background(), fixtureRequest)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRuntimeUnavailable))

	h, err = New(&fixtureIntrospector{}, Options{})
	require.NoError(t, err)
	_, _, err = h.Harvest(context.Background(), fixtureRequest)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedSnapshot))
}

func TestNew_InvalidExcludePattern(t *testing.T) {
	t.Parallel()

	_, err := New(&fixtureIntrospector{}, Options{ModuleExclude: []string{"[unclosed"}})
	assert.Error(t, err)
}
