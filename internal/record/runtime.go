package record

import (
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/cockroachdb/errors"
)

var (
	// ErrRuntimeMismatch indicates a record harvested from a runtime outside
	// the configured version constraint.
	ErrRuntimeMismatch = errors.New("record runtime does not satisfy constraint")

	// leading "3.13.1" or "3.14.0rc1" of sys.version
	runtimeVersionRe = regexp.MustCompile(`^(\d+)\.(\d+)(?:\.(\d+))?`)
)

// RuntimeSemver parses the version number at the start of RuntimeVersion.
// Pre-release suffixes are dropped so "3.14.0rc1" compares as 3.14.0.
func (r *HarvestRecord) RuntimeSemver() (*semver.Version, error) {
	field := strings.TrimSpace(r.RuntimeVersion)
	m := runtimeVersionRe.FindStringSubmatch(field)
	if m == nil {
		return nil, errors.Newf("cannot parse runtime version %q", r.RuntimeVersion)
	}

	patch := m[3]
	if patch == "" {
		patch = "0"
	}
	v, err := semver.NewVersion(m[1] + "." + m[2] + "." + patch)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid runtime version %q", r.RuntimeVersion)
	}
	return v, nil
}

// ShortRuntimeVersion returns "major.minor.patch" for headers and summaries,
// or the raw first word when the version cannot be parsed.
func (r *HarvestRecord) ShortRuntimeVersion() string {
	if v, err := r.RuntimeSemver(); err == nil {
		return v.String()
	}
	if fields := strings.Fields(r.RuntimeVersion); len(fields) > 0 {
		return fields[0]
	}
	return "unknown"
}

// CheckRuntime verifies the record's runtime against a semver constraint such
// as ">= 3.8". An empty constraint accepts any runtime.
func (r *HarvestRecord) CheckRuntime(constraint string) error {
	if strings.TrimSpace(constraint) == "" {
		return nil
	}

	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return errors.Wrapf(err, "invalid runtime constraint %q", constraint)
	}

	v, err := r.RuntimeSemver()
	if err != nil {
		return err
	}

	if !c.Check(v) {
		return errors.WithHint(
			errors.Wrapf(ErrRuntimeMismatch, "record harvested from %s, need %s", v, constraint),
			"re-run harvest with a newer interpreter or relax generate.runtime_constraint")
	}
	return nil
}
