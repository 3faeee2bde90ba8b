package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/mvp-joe/docharvest/internal/config"
	"github.com/mvp-joe/docharvest/internal/logger"
)

var (
	cfgFile    string
	projectDir string
	verbose    bool
	jsonLogs   bool
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "docharvest",
	Short: "Harvest Python documentation into editor completion tables",
	Long: `docharvest keeps an editor's Python completion tables in sync with a real
Python runtime.

The pipeline has three stages, each its own command:
  harvest   introspect the runtime and write the interchange record
  generate  render the record as a standalone Swift snippet file
  apply     splice the rendered groups into marked regions of a source file

Configuration is read from .docharvest/config.yml in the project directory,
with DOCHARVEST_* environment overrides.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logger.Initialize(logger.Options{JSON: jsonLogs, Verbose: verbose})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is <project>/.docharvest/config.yml)")
	rootCmd.PersistentFlags().StringVar(&projectDir, "project", "", "project root (default is the working directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "log as JSON lines")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "disable progress bars and summaries")
}

// printError writes err and any hints attached to it.
func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)
	for _, hint := range errors.GetAllHints(err) {
		fmt.Fprintf(w, "Hint: %s\n", hint)
	}
}

// loadConfig loads the project configuration selected by the global flags,
// layered over the machine-wide configuration.
func loadConfig() (*config.Config, error) {
	root := projectDir
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "failed to get working directory")
		}
		root = wd
	}

	var loader config.Loader
	if cfgFile != "" {
		loader = config.NewFileLoader(root, cfgFile)
	} else {
		loader = config.NewLoader(root)
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	global, err := config.LoadGlobalConfig()
	if err != nil {
		return nil, err
	}
	cfg.ApplyGlobal(global)
	return cfg, nil
}

// summary returns where command summaries go; nothing is printed in quiet mode.
func summary(cmd *cobra.Command) io.Writer {
	if quiet {
		return io.Discard
	}
	return cmd.OutOrStdout()
}
