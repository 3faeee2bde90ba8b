package logger

// Test Plan for the global logger:
// - Initialize builds console and JSON loggers and honours Verbose
// - ComponentLogger is a no-op before Initialize
// - ComponentLogger names entries and tags them with the component field

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{name: "console output", opts: Options{}},
		{name: "console verbose", opts: Options{Verbose: true}},
		{name: "json output", opts: Options{JSON: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Cleanup(func() {
				Logger = zap.NewNop().Sugar()
			})

			require.NoError(t, Initialize(tt.opts))
			require.NotNil(t, Logger)
			assert.Equal(t, tt.opts.Verbose, Logger.Desugar().Core().Enabled(zap.DebugLevel))
		})
	}
}

func TestComponentLogger_DefaultsToNop(t *testing.T) {
	l := ComponentLogger("harvest")
	require.NotNil(t, l)
	// The package-level logger is a no-op until Initialize is called.
	assert.False(t, l.Desugar().Core().Enabled(zap.ErrorLevel))
}

func TestComponentLogger_TagsComponent(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	prev := Logger
	Logger = zap.New(core).Sugar()
	t.Cleanup(func() { Logger = prev })

	ComponentLogger("patch").Warnw("Region skipped", FieldRegion, "builtins")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "patch", entry.LoggerName)
	assert.Equal(t, "patch", entry.ContextMap()[FieldComponent])
	assert.Equal(t, "builtins", entry.ContextMap()[FieldRegion])
}
