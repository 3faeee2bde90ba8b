package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/mvp-joe/docharvest/internal/config"
	"github.com/mvp-joe/docharvest/internal/emit"
	"github.com/mvp-joe/docharvest/internal/logger"
	"github.com/mvp-joe/docharvest/internal/patch"
)

// applyCmd represents the apply command
var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Splice generated groups into marked regions of the target file",
	Long: `Apply renders the record and replaces the content of each configured
region of apply.target with the matching group. Everything outside the
regions is left byte-for-byte unchanged, and the file is only written when
its content changes.

A region whose markers are missing is skipped with a warning. With
apply.strict every region must be found, otherwise nothing is written.

Examples:
  # Patch Sources/PySwiftIDE/MonacoAnalyzer.swift
  docharvest apply

  # Fail instead of skipping regions with missing markers
  DOCHARVEST_APPLY_STRICT=true docharvest apply
`,
	RunE: runApply,
}

func init() {
	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	_, err = executeApply(cfg, emit.New(emit.Options{}), summary(cmd))
	return err
}

// buildRegions pairs each configured region with its rendered group. Regions
// whose group is absent from the record are returned separately.
func buildRegions(cfg *config.Config, groups []emit.Group) (regions []patch.Region, missing []config.RegionConfig) {
	byID := make(map[string]emit.Group, len(groups))
	for _, g := range groups {
		byID[g.ID] = g
	}

	for _, rc := range cfg.Regions() {
		g, ok := byID[rc.Group]
		if !ok {
			missing = append(missing, rc)
			continue
		}
		regions = append(regions, patch.Region{
			Name:        rc.Name,
			Start:       rc.Start,
			End:         rc.End,
			Mode:        patch.Mode(strings.ToLower(rc.Mode)),
			Replacement: g.Text,
		})
	}
	return regions, missing
}

// executeApply patches the target file with the record's groups.
func executeApply(cfg *config.Config, emitter *emit.Emitter, out io.Writer) (*patch.FileResult, error) {
	log := logger.ComponentLogger("cli")

	rec, err := loadRecord(cfg)
	if err != nil {
		return nil, err
	}

	regions, missing := buildRegions(cfg, emitter.Groups(rec))
	for _, rc := range missing {
		log.Warnw("Region skipped, group not in record",
			logger.FieldRegion, rc.Name,
			logger.FieldGroup, rc.Group)
	}
	if cfg.Apply.Strict && len(missing) > 0 {
		names := make([]string, len(missing))
		for i, rc := range missing {
			names[i] = rc.Name + " (" + rc.Group + ")"
		}
		return nil, errors.WithHint(
			errors.Newf("groups not in record: %s", strings.Join(names, ", ")),
			"re-run docharvest harvest or remove the regions from apply.regions")
	}

	applier := patch.NewApplier(patch.Options{Strict: cfg.Apply.Strict})
	fr, err := applier.ApplyFile(cfg.Apply.Target, regions)
	if err != nil {
		return fr, err
	}

	writeApplySummary(out, fr, missing)
	return fr, nil
}

func writeApplySummary(w io.Writer, fr *patch.FileResult, missing []config.RegionConfig) {
	if fr.Written {
		fmt.Fprintf(w, "✓ Updated %s\n", fr.Path)
		fmt.Fprintf(w, "  Original size: %d bytes\n", fr.OldSize)
		fmt.Fprintf(w, "  New size:      %d bytes\n", fr.NewSize)
		fmt.Fprintf(w, "  Difference:    %+d bytes\n", fr.Delta())
	} else {
		fmt.Fprintf(w, "✓ %s is up to date\n", fr.Path)
	}

	for _, r := range fr.Regions {
		status := "unchanged"
		if r.Changed {
			status = "replaced"
		}
		if r.State == patch.StateSkipped {
			continue
		}
		fmt.Fprintf(w, "  %-12s %s\n", r.Name, status)
	}

	skipped := fr.Skipped()
	if len(skipped)+len(missing) == 0 {
		return
	}
	fmt.Fprintf(w, "⚠ Skipped %d region(s):\n", len(skipped)+len(missing))
	for _, r := range skipped {
		fmt.Fprintf(w, "  %-12s marker not found: %s\n", r.Name, r.Missing)
	}
	for _, rc := range missing {
		fmt.Fprintf(w, "  %-12s group %s not in record\n", rc.Name, rc.Group)
	}
}
