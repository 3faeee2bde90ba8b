package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/docharvest/internal/config"
	"github.com/mvp-joe/docharvest/internal/emit"
	"github.com/mvp-joe/docharvest/internal/patch"
	"github.com/mvp-joe/docharvest/internal/record"
)

var generateStdout bool

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Render the record as a standalone Swift snippet file",
	Long: `Generate reads the interchange record and writes every group (built-in
functions, one block per container type, the module block) under section
headers to generate.output.

The record's runtime version must satisfy generate.runtime_constraint. When
only the header timestamp would change, the output file is left alone.

Examples:
  # Write scripts/generated_completions.swift
  docharvest generate

  # Print to stdout for review
  docharvest generate --stdout
`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().BoolVar(&generateStdout, "stdout", false, "print the snippets instead of writing generate.output")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if generateStdout {
		rec, err := loadRecord(cfg)
		if err != nil {
			return err
		}
		_, err = io.WriteString(cmd.OutOrStdout(), emit.New(emit.Options{}).Standalone(rec))
		return err
	}

	_, err = executeGenerate(cfg, emit.New(emit.Options{}), summary(cmd))
	return err
}

// loadRecord reads the record and checks its runtime against the constraint.
func loadRecord(cfg *config.Config) (*record.HarvestRecord, error) {
	rec, err := record.Load(cfg.Record.Path)
	if err != nil {
		return nil, err
	}
	if err := rec.CheckRuntime(cfg.Generate.RuntimeConstraint); err != nil {
		return nil, err
	}
	return rec, nil
}

// executeGenerate renders the record and writes the standalone file.
func executeGenerate(cfg *config.Config, emitter *emit.Emitter, out io.Writer) (*patch.FileResult, error) {
	rec, err := loadRecord(cfg)
	if err != nil {
		return nil, err
	}

	text := emitter.Standalone(rec)

	// A new timestamp alone is not a change
	if existing, err := os.ReadFile(cfg.Generate.Output); err == nil &&
		emit.StripTimestamp(string(existing)) == emit.StripTimestamp(text) {
		fmt.Fprintf(out, "✓ %s is up to date\n", cfg.Generate.Output)
		return &patch.FileResult{
			Result:  &patch.Result{Text: string(existing)},
			Path:    cfg.Generate.Output,
			OldSize: len(existing),
			NewSize: len(existing),
		}, nil
	}

	fr, err := patch.WriteStandalone(cfg.Generate.Output, text)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(out, "✓ Generated %s from Python %s\n", cfg.Generate.Output, rec.ShortRuntimeVersion())
	writeStats(out, rec.Stats())
	return fr, nil
}
