package config

import (
	"path/filepath"
	"strings"

	"github.com/mvp-joe/docharvest/internal/record"
)

// Runtime modes accepted by harvest.runtime.
const (
	RuntimeEmbedded = "embedded"
	RuntimeSystem   = "system"
	RuntimeStubs    = "stubs"
)

// Region modes accepted by apply.regions[].mode.
const (
	ModeExclusive = "exclusive"
	ModeInclusive = "inclusive"
)

// Config represents the complete docharvest configuration.
// It can be loaded from .docharvest/config.yml with environment variable overrides.
type Config struct {
	Harvest  HarvestConfig  `yaml:"harvest" mapstructure:"harvest"`
	Record   RecordConfig   `yaml:"record" mapstructure:"record"`
	Generate GenerateConfig `yaml:"generate" mapstructure:"generate"`
	Apply    ApplyConfig    `yaml:"apply" mapstructure:"apply"`
}

// HarvestConfig selects the runtime and the surface to harvest.
type HarvestConfig struct {
	Runtime       string            `yaml:"runtime" mapstructure:"runtime"`               // "embedded", "system" or "stubs"
	Python        string            `yaml:"python" mapstructure:"python"`                 // interpreter for runtime=system
	RuntimeDir    string            `yaml:"runtime_dir" mapstructure:"runtime_dir"`       // unpack dir for the embedded interpreter
	StubsDir      string            `yaml:"stubs_dir" mapstructure:"stubs_dir"`           // .pyi directory for runtime=stubs
	StubsVersion  string            `yaml:"stubs_version" mapstructure:"stubs_version"`   // language version the stubs describe
	Builtins      []string          `yaml:"builtins" mapstructure:"builtins"`             // built-in allow-list, in output order
	Types         []string          `yaml:"types" mapstructure:"types"`                   // container types, in output order
	Module        string            `yaml:"module" mapstructure:"module"`                 // e.g. "math"; empty skips the module group
	ModuleExclude []string          `yaml:"module_exclude" mapstructure:"module_exclude"` // glob patterns on bare member names
	DocLimit      int               `yaml:"doc_limit" mapstructure:"doc_limit"`           // first-paragraph cut-off
	ConstantDocs  map[string]string `yaml:"constant_docs" mapstructure:"constant_docs"`   // fallback docs for module constants
}

// RecordConfig locates the interchange record.
type RecordConfig struct {
	Path string `yaml:"path" mapstructure:"path"` // .json, .yaml or .yml
}

// GenerateConfig controls standalone snippet output.
type GenerateConfig struct {
	Output            string `yaml:"output" mapstructure:"output"`
	RuntimeConstraint string `yaml:"runtime_constraint" mapstructure:"runtime_constraint"` // semver constraint on the record
}

// ApplyConfig controls patching of the hand-maintained target.
type ApplyConfig struct {
	Target  string         `yaml:"target" mapstructure:"target"`
	Strict  bool           `yaml:"strict" mapstructure:"strict"`
	Regions []RegionConfig `yaml:"regions" mapstructure:"regions"` // empty means one region per group
}

// RegionConfig binds a marker pair in the target to an emitted group.
type RegionConfig struct {
	Name  string `yaml:"name" mapstructure:"name"`
	Group string `yaml:"group" mapstructure:"group"` // builtins, type:<name> or module
	Start string `yaml:"start" mapstructure:"start"`
	End   string `yaml:"end" mapstructure:"end"`
	Mode  string `yaml:"mode" mapstructure:"mode"` // "exclusive" (default) or "inclusive"
}

// DefaultBuiltins is the built-in allow-list harvested when none is configured.
var DefaultBuiltins = []string{
	"abs", "all", "any", "ascii", "bin", "bool", "breakpoint", "bytearray",
	"bytes", "callable", "chr", "classmethod", "compile", "complex",
	"delattr", "dict", "dir", "divmod", "enumerate", "eval", "exec",
	"filter", "float", "format", "frozenset", "getattr", "globals",
	"hasattr", "hash", "help", "hex", "id", "input", "int", "isinstance",
	"issubclass", "iter", "len", "list", "locals", "map", "max",
	"memoryview", "min", "next", "object", "oct", "open", "ord", "pow",
	"print", "property", "range", "repr", "reversed", "round", "set",
	"setattr", "slice", "sorted", "staticmethod", "str", "sum", "super",
	"tuple", "type", "vars", "zip",
}

// DefaultTypes is the container-type list harvested when none is configured.
var DefaultTypes = []string{"str", "list", "dict", "set", "frozenset", "bytes", "bytearray", "tuple"}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Harvest: HarvestConfig{
			Runtime:      RuntimeEmbedded,
			Python:       "python3",
			StubsVersion: "3.0",
			Builtins:     append([]string(nil), DefaultBuiltins...),
			Types:        append([]string(nil), DefaultTypes...),
			Module:       "math",
			DocLimit:     300,
		},
		Record: RecordConfig{
			Path: "scripts/python_docs.json",
		},
		Generate: GenerateConfig{
			Output:            "scripts/generated_completions.swift",
			RuntimeConstraint: ">= 3.0",
		},
		Apply: ApplyConfig{
			Target: "Sources/PySwiftIDE/MonacoAnalyzer.swift",
		},
	}
}

// Regions returns the configured regions, or one default region per harvested
// group when none are configured.
func (c *Config) Regions() []RegionConfig {
	if len(c.Apply.Regions) > 0 {
		return c.Apply.Regions
	}
	return DefaultRegions(c.Harvest)
}

// DefaultRegions derives marker pairs from the harvested groups:
// BEGIN-BUILTINS/END-BUILTINS, BEGIN-STR-METHODS/END-STR-METHODS, ...,
// BEGIN-MATH-MODULE/END-MATH-MODULE.
func DefaultRegions(h HarvestConfig) []RegionConfig {
	regions := []RegionConfig{markerRegion(record.GroupBuiltins, record.GroupBuiltins, "BUILTINS")}
	for _, t := range h.Types {
		regions = append(regions, markerRegion(t, record.TypeGroup(t), markerSlug(t)+"-METHODS"))
	}
	if h.Module != "" {
		regions = append(regions, markerRegion(h.Module, record.GroupModule, markerSlug(h.Module)+"-MODULE"))
	}
	return regions
}

func markerRegion(name, group, slug string) RegionConfig {
	return RegionConfig{
		Name:  name,
		Group: group,
		Start: "BEGIN-" + slug,
		End:   "END-" + slug,
		Mode:  ModeExclusive,
	}
}

func markerSlug(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, ".", "-"))
}

// ResolvePaths makes every relative file path absolute against root.
func (c *Config) ResolvePaths(root string) {
	for _, p := range []*string{
		&c.Harvest.RuntimeDir,
		&c.Harvest.StubsDir,
		&c.Record.Path,
		&c.Generate.Output,
		&c.Apply.Target,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(root, *p)
		}
	}
}
