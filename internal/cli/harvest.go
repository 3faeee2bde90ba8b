package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/mvp-joe/docharvest/internal/config"
	"github.com/mvp-joe/docharvest/internal/harvest"
	"github.com/mvp-joe/docharvest/internal/logger"
	"github.com/mvp-joe/docharvest/internal/record"
)

// harvestCmd represents the harvest command
var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Introspect a Python runtime and write the interchange record",
	Long: `Harvest reads signatures and docstrings from a Python runtime and writes
them to the interchange record (record.path).

The runtime is chosen by harvest.runtime:
  embedded  the CPython build bundled into docharvest (default)
  system    an interpreter on the host (harvest.python)
  stubs     .pyi stub files parsed without running Python (harvest.stubs_dir)

Items that cannot be resolved are skipped with a warning; items without a
signature get an empty parameter list. The record is replaced wholesale.

Examples:
  # Harvest with the embedded runtime
  docharvest harvest

  # Harvest from the host interpreter
  DOCHARVEST_HARVEST_RUNTIME=system docharvest harvest

  # Harvest from typeshed stubs
  docharvest harvest --config ci/docharvest.yml --quiet
`,
	RunE: runHarvest,
}

func init() {
	rootCmd.AddCommand(harvestCmd)
}

func runHarvest(cmd *cobra.Command, args []string) error {
	// Ctrl+C cancels introspection and kills the interpreter
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	introspector, err := newIntrospector(cfg.Harvest)
	if err != nil {
		return err
	}

	out := summary(cmd)
	_, err = executeHarvest(ctx, cfg, introspector, NewCLIProgressReporter(out, quiet), out)
	return err
}

// newIntrospector builds the introspector selected by harvest.runtime.
func newIntrospector(cfg config.HarvestConfig) (harvest.Introspector, error) {
	switch strings.ToLower(cfg.Runtime) {
	case config.RuntimeStubs:
		return harvest.NewStubIntrospector(harvest.StubOptions{
			Dir:     cfg.StubsDir,
			Version: cfg.StubsVersion,
		})
	case config.RuntimeSystem:
		return harvest.NewPythonIntrospector(harvest.PythonOptions{
			Mode:        harvest.RuntimeSystem,
			Interpreter: cfg.Python,
		})
	default:
		return harvest.NewPythonIntrospector(harvest.PythonOptions{
			Mode:       harvest.RuntimeEmbedded,
			RuntimeDir: cfg.RuntimeDir,
		})
	}
}

// executeHarvest runs one harvest and saves the record.
func executeHarvest(ctx context.Context, cfg *config.Config, introspector harvest.Introspector, progress harvest.ProgressReporter, out io.Writer) (*harvest.Report, error) {
	log := logger.ComponentLogger("cli")

	h, err := harvest.New(introspector, harvest.Options{
		DocLimit:      cfg.Harvest.DocLimit,
		ModuleExclude: cfg.Harvest.ModuleExclude,
		ConstantDocs:  cfg.Harvest.ConstantDocs,
		Progress:      progress,
	})
	if err != nil {
		return nil, err
	}

	req := harvest.Request{
		Builtins: cfg.Harvest.Builtins,
		Types:    cfg.Harvest.Types,
		Module:   cfg.Harvest.Module,
	}
	rec, report, err := h.Harvest(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := record.Save(cfg.Record.Path, rec); err != nil {
		return report, errors.Wrap(err, "failed to save record")
	}
	log.Infow("Record written",
		logger.FieldPath, cfg.Record.Path,
		logger.FieldRuntime, rec.RuntimeVersion,
		logger.FieldCount, rec.Stats().Total())

	fmt.Fprintf(out, "✓ Record written: %s (Python %s)\n", cfg.Record.Path, rec.ShortRuntimeVersion())
	return report, nil
}
