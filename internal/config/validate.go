package config

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/cockroachdb/errors"
	"github.com/gobwas/glob"

	"github.com/mvp-joe/docharvest/internal/record"
)

var (
	// ErrInvalidRuntime indicates an unsupported harvest runtime mode
	ErrInvalidRuntime = errors.New("invalid harvest runtime")

	// ErrMissingInterpreter indicates runtime=system without an interpreter
	ErrMissingInterpreter = errors.New("missing python interpreter")

	// ErrMissingStubsDir indicates runtime=stubs without a stubs directory
	ErrMissingStubsDir = errors.New("missing stubs directory")

	// ErrInvalidDocLimit indicates a non-positive doc limit
	ErrInvalidDocLimit = errors.New("invalid doc limit")

	// ErrInvalidPattern indicates a module exclude pattern that does not compile
	ErrInvalidPattern = errors.New("invalid exclude pattern")

	// ErrInvalidRecordPath indicates a record path with an unsupported extension
	ErrInvalidRecordPath = errors.New("invalid record path")

	// ErrInvalidConstraint indicates an unparsable runtime constraint
	ErrInvalidConstraint = errors.New("invalid runtime constraint")

	// ErrEmptyPath indicates a required output or target path is missing
	ErrEmptyPath = errors.New("empty path")

	// ErrInvalidRegion indicates a region with a bad group, marker or mode
	ErrInvalidRegion = errors.New("invalid region")

	// ErrDuplicateRegion indicates two regions with the same name
	ErrDuplicateRegion = errors.New("duplicate region")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if err := validateHarvest(&cfg.Harvest); err != nil {
		errs = append(errs, err)
	}

	if err := validateRecord(&cfg.Record); err != nil {
		errs = append(errs, err)
	}

	if err := validateGenerate(&cfg.Generate); err != nil {
		errs = append(errs, err)
	}

	if err := validateApply(&cfg.Apply); err != nil {
		errs = append(errs, err)
	}

	return joinErrors(errs)
}

func validateHarvest(cfg *HarvestConfig) error {
	var errs []error

	switch strings.ToLower(cfg.Runtime) {
	case RuntimeEmbedded:
	case RuntimeSystem:
		if strings.TrimSpace(cfg.Python) == "" {
			errs = append(errs, fmt.Errorf("%w: python is required for runtime 'system'", ErrMissingInterpreter))
		}
	case RuntimeStubs:
		if strings.TrimSpace(cfg.StubsDir) == "" {
			errs = append(errs, fmt.Errorf("%w: stubs_dir is required for runtime 'stubs'", ErrMissingStubsDir))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: must be 'embedded', 'system' or 'stubs', got '%s'", ErrInvalidRuntime, cfg.Runtime))
	}

	if cfg.DocLimit <= 0 {
		errs = append(errs, fmt.Errorf("%w: doc_limit must be positive, got %d", ErrInvalidDocLimit, cfg.DocLimit))
	}

	for _, pattern := range cfg.ModuleExclude {
		if _, err := glob.Compile(pattern); err != nil {
			errs = append(errs, fmt.Errorf("%w: module_exclude %q: %v", ErrInvalidPattern, pattern, err))
		}
	}

	return joinErrors(errs)
}

func validateRecord(cfg *RecordConfig) error {
	if strings.TrimSpace(cfg.Path) == "" {
		return fmt.Errorf("%w: record path is required", ErrEmptyPath)
	}
	if _, err := record.FormatFor(cfg.Path); err != nil {
		return fmt.Errorf("%w: %s must end in .json, .yaml or .yml", ErrInvalidRecordPath, cfg.Path)
	}
	return nil
}

func validateGenerate(cfg *GenerateConfig) error {
	var errs []error

	if strings.TrimSpace(cfg.Output) == "" {
		errs = append(errs, fmt.Errorf("%w: generate output is required", ErrEmptyPath))
	}

	// Empty constraint means any runtime version is accepted
	if cfg.RuntimeConstraint != "" {
		if _, err := semver.NewConstraint(cfg.RuntimeConstraint); err != nil {
			errs = append(errs, fmt.Errorf("%w: %q: %v", ErrInvalidConstraint, cfg.RuntimeConstraint, err))
		}
	}

	return joinErrors(errs)
}

func validateApply(cfg *ApplyConfig) error {
	var errs []error

	if strings.TrimSpace(cfg.Target) == "" {
		errs = append(errs, fmt.Errorf("%w: apply target is required", ErrEmptyPath))
	}

	seen := make(map[string]bool, len(cfg.Regions))
	for i, r := range cfg.Regions {
		label := r.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i+1)
			errs = append(errs, fmt.Errorf("%w: region %s has no name", ErrInvalidRegion, label))
		} else if seen[r.Name] {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateRegion, r.Name))
		}
		seen[r.Name] = true

		if _, _, ok := record.ParseGroup(r.Group); !ok {
			errs = append(errs, fmt.Errorf("%w: region %s: unknown group '%s' (valid: builtins, type:<name>, module)", ErrInvalidRegion, label, r.Group))
		}
		if r.Start == "" || r.End == "" {
			errs = append(errs, fmt.Errorf("%w: region %s: start and end markers are required", ErrInvalidRegion, label))
		} else if r.Start == r.End {
			errs = append(errs, fmt.Errorf("%w: region %s: start and end markers must differ", ErrInvalidRegion, label))
		}
		if m := strings.ToLower(r.Mode); m != "" && m != ModeExclusive && m != ModeInclusive {
			errs = append(errs, fmt.Errorf("%w: region %s: mode must be 'exclusive' or 'inclusive', got '%s'", ErrInvalidRegion, label, r.Mode))
		}
	}

	return joinErrors(errs)
}

// validationError combines multiple errors while keeping each one reachable
// through errors.Is.
type validationError struct {
	errs []error
}

func (v *validationError) Error() string {
	var msgs []string
	for _, err := range v.errs {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

func (v *validationError) Unwrap() []error {
	return v.errs
}

// joinErrors combines multiple errors into a single error with clear formatting.
// Nested validation errors are flattened into one list.
func joinErrors(errs []error) error {
	var flat []error
	for _, err := range errs {
		var nested *validationError
		if errors.As(err, &nested) {
			flat = append(flat, nested.errs...)
			continue
		}
		flat = append(flat, err)
	}

	switch len(flat) {
	case 0:
		return nil
	case 1:
		return flat[0]
	default:
		return &validationError{errs: flat}
	}
}
