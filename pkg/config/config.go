package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/prometheus/common/model"
)

// EnvConfigPath names the environment variable consulted for the
// configuration file path when the --config flag is absent.
const EnvConfigPath = "SNAPKEEP_CONFIG"

// Config is the root configuration structure for snapkeep.
//
// Configuration sources, in order of precedence:
//  1. Command-line flags (highest)
//  2. Environment variables (SNAPKEEP_*)
//  3. Configuration file (TOML or YAML)
//  4. Defaults (lowest)
type Config struct {
	// Root is the snapshot directory scanned and written by default.
	Root string `mapstructure:"root"`

	// SubvolumeBase is the directory the default source subvolumes live
	// under. Required when SubvolumeNames is set.
	SubvolumeBase string `mapstructure:"subvolume_base"`

	// SubvolumeNames lists the default source subvolumes, relative to
	// SubvolumeBase.
	SubvolumeNames []string `mapstructure:"subvolume_names"`

	// Cleanup holds retention defaults.
	Cleanup CleanupConfig `mapstructure:"cleanup"`

	// Logging controls log output.
	Logging LoggingConfig `mapstructure:"logging"`

	// Metrics controls the optional metrics textfile.
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// CleanupConfig holds the retention defaults for the cleanup command.
type CleanupConfig struct {
	// Keep is the default retention duration, in Prometheus duration
	// notation ("12h", "7d", "4w"). Empty means no default; cleanup then
	// requires --keep.
	Keep string `mapstructure:"keep"`
}

// LoggingConfig controls log output behavior.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`

	// Format is the log output format: text or json.
	Format string `mapstructure:"format" validate:"required,oneof=text json"`
}

// MetricsConfig controls the node-exporter textfile sink.
type MetricsConfig struct {
	// TextfilePath, when set, is the .prom file lifecycle metrics are
	// written to after create and cleanup runs. Empty disables the sink.
	TextfilePath string `mapstructure:"textfile_path"`
}

// Sources composes SubvolumeBase and SubvolumeNames into the default list of
// source subvolume paths. Nil when the file configures no defaults.
func (c *Config) Sources() []string {
	if len(c.SubvolumeNames) == 0 {
		return nil
	}
	sources := make([]string, 0, len(c.SubvolumeNames))
	for _, name := range c.SubvolumeNames {
		sources = append(sources, filepath.Join(c.SubvolumeBase, name))
	}
	return sources
}

// KeepDuration parses the configured cleanup retention. ok is false when no
// default is configured.
func (c *Config) KeepDuration() (keep time.Duration, ok bool, err error) {
	if c.Cleanup.Keep == "" {
		return 0, false, nil
	}
	d, err := model.ParseDuration(c.Cleanup.Keep)
	if err != nil {
		return 0, false, fmt.Errorf("invalid cleanup.keep duration %q: %w", c.Cleanup.Keep, err)
	}
	return time.Duration(d), true, nil
}
