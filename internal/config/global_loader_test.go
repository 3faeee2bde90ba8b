package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Global Config Loader:
// - LoadGlobalConfig() returns an empty runtime dir when file doesn't exist (not an error)
// - LoadGlobalConfig() loads from ~/.docharvest/config.yml when present
// - environment variables override YAML values
// - malformed YAML is an error
// - ApplyGlobal fills only empty project settings

func TestLoadGlobalConfig_MissingFile(t *testing.T) {
	// Note: Cannot use t.Parallel() with t.Setenv()
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, err := LoadGlobalConfig()

	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Empty(t, cfg.Runtime.Dir)

	// The project setting stays empty so the harvester picks its default.
	project := Default()
	project.ApplyGlobal(cfg)
	assert.Empty(t, project.Harvest.RuntimeDir)
}

func TestLoadGlobalConfig_WithFile(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	dir := filepath.Join(tempHome, ".docharvest")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte("runtime:\n  dir: /opt/python-cache\n"), 0644))

	cfg, err := LoadGlobalConfig()

	require.NoError(t, err)
	assert.Equal(t, "/opt/python-cache", cfg.Runtime.Dir)
}

func TestLoadGlobalConfig_EnvOverride(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	dir := filepath.Join(tempHome, ".docharvest")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte("runtime:\n  dir: /from/file\n"), 0644))
	t.Setenv("DOCHARVEST_RUNTIME_DIR", "/from/env")

	cfg, err := LoadGlobalConfig()

	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.Runtime.Dir)
}

func TestLoadGlobalConfig_MalformedYaml(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte("runtime:\n  dir: \"unclosed\n"), 0644))

	cfg, err := loadGlobalConfig(dir)

	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestApplyGlobal(t *testing.T) {
	t.Parallel()

	g := &GlobalConfig{Runtime: GlobalRuntimeConfig{Dir: "/global/python"}}

	cfg := Default()
	cfg.ApplyGlobal(g)
	assert.Equal(t, "/global/python", cfg.Harvest.RuntimeDir)

	cfg = Default()
	cfg.Harvest.RuntimeDir = "/project/python"
	cfg.ApplyGlobal(g)
	assert.Equal(t, "/project/python", cfg.Harvest.RuntimeDir)

	cfg.ApplyGlobal(nil)
	assert.Equal(t, "/project/python", cfg.Harvest.RuntimeDir)
}
