package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/mvp-joe/docharvest/internal/config"
	"github.com/mvp-joe/docharvest/internal/patch"
)

// regionsCmd represents the regions command
var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "List configured regions and whether their markers are in the target",
	Long: `Regions prints every region apply would patch, with its group, markers and
whether both markers are present in apply.target. Nothing is written.

Without apply.regions in the config, one region per group is derived:
BEGIN-BUILTINS/END-BUILTINS, BEGIN-<TYPE>-METHODS/END-<TYPE>-METHODS and
BEGIN-<MODULE>-MODULE/END-<MODULE>-MODULE.`,
	RunE: runRegions,
}

func init() {
	rootCmd.AddCommand(regionsCmd)
}

func runRegions(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	_, err = executeRegions(cfg, cmd.OutOrStdout())
	return err
}

// executeRegions checks every configured region against the target.
func executeRegions(cfg *config.Config, out io.Writer) ([]patch.RegionResult, error) {
	data, err := os.ReadFile(cfg.Apply.Target)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read target %s", cfg.Apply.Target)
	}

	configured := cfg.Regions()
	regions := make([]patch.Region, len(configured))
	for i, rc := range configured {
		regions[i] = patch.Region{Name: rc.Name, Start: rc.Start, End: rc.End, Mode: patch.Mode(rc.Mode)}
	}
	results := patch.Check(string(data), regions)

	found := 0
	for i, rc := range configured {
		status := "✓"
		if results[i].State == patch.StateSkipped {
			status = "✗ missing " + results[i].Missing
		} else {
			found++
		}
		fmt.Fprintf(out, "%s (%s) %s\n", rc.Name, rc.Group, status)
		fmt.Fprintf(out, "  start: %s%s\n", rc.Start, lineSuffix(results[i].StartLine))
		fmt.Fprintf(out, "  end:   %s%s\n", rc.End, lineSuffix(results[i].EndLine))
	}
	fmt.Fprintf(out, "\n%d of %d regions found in %s\n", found, len(configured), cfg.Apply.Target)
	return results, nil
}

func lineSuffix(line int) string {
	if line == 0 {
		return ""
	}
	return fmt.Sprintf(" (line %d)", line)
}
