package patch

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/mvp-joe/docharvest/internal/atomicfile"
	"github.com/mvp-joe/docharvest/internal/logger"
)

// ErrMissingMarkers indicates strict mode found a region without its markers.
var ErrMissingMarkers = errors.New("region markers not found")

// Options configures an Applier.
type Options struct {
	// Strict requires every region's markers before anything is written.
	Strict bool
	Logger *zap.SugaredLogger
}

// Applier merges generated regions into hand-maintained text.
type Applier struct {
	strict bool
	log    *zap.SugaredLogger
}

// NewApplier creates an Applier.
func NewApplier(opts Options) *Applier {
	log := opts.Logger
	if log == nil {
		log = logger.ComponentLogger("patch")
	}
	return &Applier{strict: opts.Strict, log: log}
}

// Result is the outcome of patching text.
type Result struct {
	Text    string
	Regions []RegionResult
}

// Changed reports whether any region's content was replaced.
func (r *Result) Changed() bool {
	for _, reg := range r.Regions {
		if reg.Changed {
			return true
		}
	}
	return false
}

// Skipped returns the regions whose markers were not found.
func (r *Result) Skipped() []RegionResult {
	var out []RegionResult
	for _, reg := range r.Regions {
		if reg.State == StateSkipped {
			out = append(out, reg)
		}
	}
	return out
}

// Apply patches regions into text in order. A region whose markers are
// missing is skipped with a warning and the rest still apply. Text outside
// the replaced spans is copied through unchanged.
func (a *Applier) Apply(text string, regions []Region) *Result {
	res := &Result{Text: text, Regions: make([]RegionResult, 0, len(regions))}
	for _, r := range regions {
		var rr RegionResult
		res.Text, rr = applyRegion(res.Text, r)
		res.Regions = append(res.Regions, rr)

		switch {
		case rr.State == StateSkipped:
			a.log.Warnw("Region skipped, marker not found",
				logger.FieldRegion, r.Name,
				logger.FieldMarker, rr.Missing)
		case rr.KeptText != "":
			a.log.Warnw("End marker line holds other text, kept as is",
				logger.FieldRegion, r.Name,
				logger.FieldMarker, r.End,
				"kept", rr.KeptText)
		case r.Mode == ModeInclusive && !(strings.Contains(r.Replacement, r.Start) && strings.Contains(r.Replacement, r.End)):
			a.log.Warnw("Inclusive replacement does not contain its markers; the region cannot be found again",
				logger.FieldRegion, r.Name)
		default:
			a.log.Debugw("Region applied",
				logger.FieldRegion, r.Name,
				"changed", rr.Changed)
		}
	}
	return res
}

// Check reports, without changing anything, which regions have both markers.
func Check(text string, regions []Region) []RegionResult {
	out := make([]RegionResult, 0, len(regions))
	for _, r := range regions {
		_, rr := applyRegion(text, r)
		out = append(out, rr)
	}
	return out
}

// FileResult is the outcome of patching a file on disk.
type FileResult struct {
	*Result
	Path    string
	Written bool
	OldSize int
	NewSize int
}

// Delta is the size change in bytes.
func (f *FileResult) Delta() int {
	return f.NewSize - f.OldSize
}

// ApplyFile patches the file at path. The file is written only when its
// content changes, atomically and with its permissions kept. In strict mode
// any missing marker fails the run before anything is written.
func (a *Applier) ApplyFile(path string, regions []Region) (*FileResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read target %s", path)
	}
	original := string(data)

	res := a.Apply(original, regions)
	fr := &FileResult{Result: res, Path: path, OldSize: len(original), NewSize: len(res.Text)}

	if skipped := res.Skipped(); a.strict && len(skipped) > 0 {
		names := make([]string, len(skipped))
		for i, s := range skipped {
			names[i] = s.Name
		}
		return fr, errors.WithHint(
			errors.Wrapf(ErrMissingMarkers, "%s: %s", path, strings.Join(names, ", ")),
			"add the missing markers to the target or set apply.strict: false")
	}

	if res.Text == original {
		a.log.Infow("Target unchanged", logger.FieldPath, path)
		fr.NewSize = fr.OldSize
		return fr, nil
	}

	if err := atomicfile.WriteFile(path, []byte(res.Text)); err != nil {
		return fr, errors.Wrapf(err, "failed to write target %s", path)
	}
	fr.Written = true
	a.log.Infow("Target updated",
		logger.FieldPath, path,
		logger.FieldSize, fr.NewSize,
		logger.FieldDelta, fr.Delta())
	return fr, nil
}

// WriteStandalone writes the full generated text to its own file, with no
// region search. Unchanged content is not rewritten.
func WriteStandalone(path, text string) (*FileResult, error) {
	fr := &FileResult{Result: &Result{Text: text}, Path: path, NewSize: len(text)}

	existing, err := os.ReadFile(path)
	switch {
	case err == nil:
		fr.OldSize = len(existing)
		if string(existing) == text {
			return fr, nil
		}
	case !os.IsNotExist(err):
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}

	if err := atomicfile.WriteFile(path, []byte(text)); err != nil {
		return nil, errors.Wrapf(err, "failed to write %s", path)
	}
	fr.Written = true
	return fr, nil
}
