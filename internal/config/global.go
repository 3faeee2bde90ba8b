// Package config loads docharvest configuration.
//
// It supports two configuration scopes:
//
// 1. Global Configuration (~/.docharvest/config.yml)
//   - Machine-wide settings shared by every project
//   - Where the embedded Python interpreter is unpacked
//   - Loaded via LoadGlobalConfig()
//
// 2. Project Configuration (.docharvest/config.yml)
//   - Allow-lists, container types, module
//   - Record, output and target paths
//   - Marker regions
//   - Loaded via Load()
//
// Configuration Hierarchy (highest to lowest priority):
//  1. Environment variables (DOCHARVEST_*)
//  2. Project config (.docharvest/config.yml)
//  3. Global config (~/.docharvest/config.yml)
//  4. Built-in defaults
//
// Environment Variable Convention:
//   - Prefix: DOCHARVEST_
//   - Nested fields: Use underscores (DOCHARVEST_HARVEST_RUNTIME)
//   - Lists are comma-separated (DOCHARVEST_HARVEST_TYPES=str,list)
package config

// GlobalConfig holds machine-wide configuration.
// Loaded from ~/.docharvest/config.yml (not project .docharvest/config.yml).
type GlobalConfig struct {
	Runtime GlobalRuntimeConfig `yaml:"runtime" mapstructure:"runtime"`
}

// GlobalRuntimeConfig holds settings for the embedded interpreter.
type GlobalRuntimeConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"` // unpack directory, empty for ~/.docharvest/python
}

// ApplyGlobal fills project settings left empty from the global config.
func (c *Config) ApplyGlobal(g *GlobalConfig) {
	if g == nil {
		return
	}
	if c.Harvest.RuntimeDir == "" {
		c.Harvest.RuntimeDir = g.Runtime.Dir
	}
}
