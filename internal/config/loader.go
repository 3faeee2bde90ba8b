package config

import (
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

// DirName is the per-project configuration directory.
const DirName = ".docharvest"

// EnvPrefix prefixes environment overrides, e.g. DOCHARVEST_HARVEST_RUNTIME.
const EnvPrefix = "DOCHARVEST"

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir    string
	configFile string
}

// NewLoader creates a loader that searches <rootDir>/.docharvest for
// config.yml or config.yaml.
func NewLoader(rootDir string) Loader {
	return &loader{rootDir: rootDir}
}

// NewFileLoader creates a loader for an explicit config file. Relative paths
// inside it still resolve against rootDir. A missing file is an error.
func NewFileLoader(rootDir, configFile string) Loader {
	return &loader{rootDir: rootDir, configFile: configFile}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (DOCHARVEST_*)
// 2. Config file (.docharvest/config.yml or .docharvest/config.yaml)
// 3. Default values
//
// Relative paths in the result are resolved against the root directory.
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(l.rootDir, DirName))
	}

	// Replace . with _ in env var names (e.g., DOCHARVEST_APPLY_STRICT)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable - we'll use defaults + env vars
		var notFound viper.ConfigFileNotFoundError
		if l.configFile != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "failed to read config file")
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	if err := Validate(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	cfg.ResolvePaths(l.rootDir)
	return cfg, nil
}

// envKeys are the scalar and list keys that can be overridden from the
// environment. Lists take comma-separated values.
var envKeys = []string{
	"harvest.runtime",
	"harvest.python",
	"harvest.runtime_dir",
	"harvest.stubs_dir",
	"harvest.stubs_version",
	"harvest.builtins",
	"harvest.types",
	"harvest.module",
	"harvest.module_exclude",
	"harvest.doc_limit",
	"record.path",
	"generate.output",
	"generate.runtime_constraint",
	"apply.target",
	"apply.strict",
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("harvest.runtime", defaults.Harvest.Runtime)
	v.SetDefault("harvest.python", defaults.Harvest.Python)
	v.SetDefault("harvest.runtime_dir", defaults.Harvest.RuntimeDir)
	v.SetDefault("harvest.stubs_dir", defaults.Harvest.StubsDir)
	v.SetDefault("harvest.stubs_version", defaults.Harvest.StubsVersion)
	v.SetDefault("harvest.builtins", defaults.Harvest.Builtins)
	v.SetDefault("harvest.types", defaults.Harvest.Types)
	v.SetDefault("harvest.module", defaults.Harvest.Module)
	v.SetDefault("harvest.module_exclude", []string{})
	v.SetDefault("harvest.doc_limit", defaults.Harvest.DocLimit)

	v.SetDefault("record.path", defaults.Record.Path)

	v.SetDefault("generate.output", defaults.Generate.Output)
	v.SetDefault("generate.runtime_constraint", defaults.Generate.RuntimeConstraint)

	v.SetDefault("apply.target", defaults.Apply.Target)
	v.SetDefault("apply.strict", defaults.Apply.Strict)
}
