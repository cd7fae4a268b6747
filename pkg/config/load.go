package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Load reads the configuration from the given file path. When path is empty
// the SNAPKEEP_CONFIG environment variable is consulted; when that is unset
// too, no file is read and the returned configuration holds only defaults
// and environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}

	v := viper.New()
	setupViper(v, path)

	if path != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %q: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// setupViper wires environment overrides and the config file location.
// Environment variables use the SNAPKEEP_ prefix with underscores, e.g.
// SNAPKEEP_CLEANUP_KEEP=7d or SNAPKEEP_LOGGING_LEVEL=debug.
func setupViper(v *viper.Viper, path string) {
	v.SetEnvPrefix("SNAPKEEP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Every key needs a default registered for AutomaticEnv to surface
	// its override through Unmarshal.
	v.SetDefault("root", "")
	v.SetDefault("subvolume_base", "")
	v.SetDefault("subvolume_names", []string{})
	v.SetDefault("cleanup.keep", "")
	v.SetDefault("logging.level", "")
	v.SetDefault("logging.format", "")
	v.SetDefault("metrics.textfile_path", "")

	if path != "" {
		// Format follows the file extension (.toml, .yaml, .yml).
		v.SetConfigFile(path)
	}
}
