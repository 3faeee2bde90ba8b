package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/mvp-joe/docharvest/internal/harvest"
	"github.com/mvp-joe/docharvest/internal/record"
)

// CLIProgressReporter renders harvest progress as a progress bar followed by
// a per-group summary.
type CLIProgressReporter struct {
	quiet     bool
	out       io.Writer
	bar       *progressbar.ProgressBar
	startTime time.Time
}

// NewCLIProgressReporter creates a reporter writing to out.
func NewCLIProgressReporter(out io.Writer, quiet bool) *CLIProgressReporter {
	return &CLIProgressReporter{
		quiet:     quiet,
		out:       out,
		startTime: time.Now(),
	}
}

func (c *CLIProgressReporter) OnIntrospectStart(req harvest.Request) {
	if c.quiet {
		return
	}
	module := req.Module
	if module == "" {
		module = "none"
	}
	fmt.Fprintf(c.out, "Introspecting runtime: %d builtins, %d types, module %s\n",
		len(req.Builtins), len(req.Types), module)
}

func (c *CLIProgressReporter) OnHarvestStart(totalItems int) {
	if c.quiet {
		return
	}
	c.bar = progressbar.NewOptions(totalItems,
		progressbar.OptionSetWriter(c.out),
		progressbar.OptionSetDescription("Harvesting"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(c.out)
		}),
	)
}

func (c *CLIProgressReporter) OnItem(group, name string) {
	if c.quiet || c.bar == nil {
		return
	}
	_ = c.bar.Add(1)
}

func (c *CLIProgressReporter) OnHarvestComplete(stats record.Stats, report *harvest.Report) {
	if c.quiet {
		return
	}
	if c.bar != nil {
		_ = c.bar.Finish()
		c.bar = nil
	}

	fmt.Fprintf(c.out, "✓ Harvest complete: %d items in %.1fs\n", stats.Total(), time.Since(c.startTime).Seconds())
	writeStats(c.out, stats)

	if report == nil {
		return
	}
	if n := len(report.Skipped); n > 0 {
		fmt.Fprintf(c.out, "  Skipped:   %d\n", n)
		for _, s := range report.Skipped {
			fmt.Fprintf(c.out, "    - %s %s: %s\n", s.Group, s.Name, s.Reason)
		}
	}
	if n := len(report.SignatureFallbacks); n > 0 {
		fmt.Fprintf(c.out, "  No signature (empty parameters): %s\n", strings.Join(report.SignatureFallbacks, ", "))
	}
	if n := len(report.Excluded); n > 0 {
		fmt.Fprintf(c.out, "  Excluded:  %d\n", n)
	}
}

// writeStats prints per-group item counts.
func writeStats(w io.Writer, stats record.Stats) {
	fmt.Fprintf(w, "  Built-in functions: %d\n", stats.BuiltinFunctions)
	for _, name := range slices.Sorted(maps.Keys(stats.Types)) {
		fmt.Fprintf(w, "  %s methods: %d\n", name, stats.Types[name])
	}
	if stats.ModuleConstants+stats.ModuleFunctions > 0 {
		fmt.Fprintf(w, "  Module constants: %d\n", stats.ModuleConstants)
		fmt.Fprintf(w, "  Module functions: %d\n", stats.ModuleFunctions)
	}
}
