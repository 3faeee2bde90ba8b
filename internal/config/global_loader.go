package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

// LoadGlobalConfig loads global configuration from ~/.docharvest/config.yml.
// Returns empty values if file doesn't exist (not an error); an empty
// runtime.dir leaves the harvest default in place.
// Environment variables override file values (DOCHARVEST_* prefix).
func LoadGlobalConfig() (*GlobalConfig, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user home directory")
	}
	return loadGlobalConfig(filepath.Join(home, DirName))
}

func loadGlobalConfig(dir string) (*GlobalConfig, error) {
	v := viper.New()

	// Look for ~/.docharvest/config.yml (NOT project .docharvest/config.yml)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AddConfigPath(dir)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("runtime.dir")

	// Read config (not an error if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "failed to read global config file")
		}
	}

	cfg := &GlobalConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal global config")
	}
	return cfg, nil
}
