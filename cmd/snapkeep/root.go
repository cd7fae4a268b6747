package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/snapkeep/snapkeep/pkg/config"
	"github.com/snapkeep/snapkeep/pkg/snapshot"
	"github.com/snapkeep/snapkeep/pkg/telemetry/logging"
	"github.com/snapkeep/snapkeep/pkg/telemetry/metrics"
	"github.com/snapkeep/snapkeep/pkg/volume"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "snapkeep",
	Short: "Manage btrfs snapshots",
	Long: `Snapkeep creates, lists, deletes, and prunes btrfs snapshots.

Snapshots are directory entries named "<subvolume>-<epoch-seconds>" under a
single snapshot root. The cleanup command deletes entries whose encoded
creation instant has aged past the retention duration; entries it does not
recognize are never touched.

Defaults for the snapshot root, the source subvolumes, and the retention
duration come from a TOML or YAML configuration file; explicit flags always
take precedence. Set SNAPKEEP_CONFIG to name the file when --config is not
given.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (TOML or YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// app holds the per-invocation wiring shared by the lifecycle commands.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	rec     *metrics.Recorder
	manager *snapshot.Manager
}

// newApp loads configuration and builds the logger, metrics recorder, and
// lifecycle manager over the btrfs-backed store.
func newApp() (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	log, err := logging.New(logging.Config{Level: level, Format: cfg.Logging.Format})
	if err != nil {
		return nil, err
	}

	rec := metrics.NewRecorder()
	manager := snapshot.NewManager(volume.NewBtrfsStore(), log, snapshot.WithMetrics(rec))
	return &app{cfg: cfg, log: log, rec: rec, manager: manager}, nil
}

// flushMetrics writes the run's metrics textfile when one is configured.
// Called via defer so partial runs still report what they did; a write
// failure is logged, never fatal.
func (a *app) flushMetrics() {
	path := a.cfg.Metrics.TextfilePath
	if path == "" {
		return
	}
	if err := a.rec.WriteTextfile(path); err != nil {
		a.log.Error("failed to write metrics textfile", "path", path, "error", err)
	}
}

// resolveRoot picks the snapshot root: explicit flag first, then config.
func (a *app) resolveRoot(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if a.cfg.Root != "" {
		return a.cfg.Root, nil
	}
	return "", fmt.Errorf("snapshot directory must be specified via --dir or the config file")
}

// requireRoot enforces the effective-uid check btrfs operations need.
// SNAPKEEP_SKIP_ROOT_CHECK bypasses it for test and packaging runs.
func requireRoot() error {
	if os.Getenv("SNAPKEEP_SKIP_ROOT_CHECK") != "" {
		return nil
	}
	if os.Geteuid() != 0 {
		return fmt.Errorf("must run as root for btrfs operations (try sudo)")
	}
	return nil
}
