package main

import (
	"fmt"
	"time"

	"github.com/prometheus/common/model"
	"github.com/spf13/cobra"
)

var cleanupFlags struct {
	dir  string
	keep string
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete snapshots older than the retention duration",
	Long: `Delete every snapshot whose creation instant is older than the retention
duration. An entry exactly at the cutoff is preserved.

Only entries whose names decode as "<subvolume>-<epoch-seconds>" and that
btrfs confirms are subvolumes are candidates; anything else is left alone.
A failed deletion is logged and the sweep continues, so an unattended run
makes maximum progress. Per-entry failures alone do not make the command
exit non-zero.

The retention duration accepts Prometheus notation: 90m, 12h, 7d, 4w.

Examples:
  snapkeep cleanup --dir /mnt/top-level/.snapshots --keep 7d
  snapkeep cleanup --config /etc/snapkeep.toml`,
	RunE: runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)

	cleanupCmd.Flags().StringVarP(&cleanupFlags.dir, "dir", "d", "", "snapshot directory (defaults to config)")
	cleanupCmd.Flags().StringVarP(&cleanupFlags.keep, "keep", "k", "", "retention duration, e.g. 7d (defaults to config)")
}

func runCleanup(cmd *cobra.Command, args []string) error {
	if err := requireRoot(); err != nil {
		return err
	}
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.flushMetrics()

	root, err := app.resolveRoot(cleanupFlags.dir)
	if err != nil {
		return err
	}

	keep, err := resolveKeep(app)
	if err != nil {
		return err
	}

	app.log.Info("cleaning snapshots", "root", root, "keep", keep.String())
	report, err := app.manager.Cleanup(cmd.Context(), root, keep)
	for _, p := range report.Deleted {
		fmt.Println(p)
	}
	if err != nil {
		return err
	}

	app.log.Info("retention sweep finished",
		"deleted", len(report.Deleted), "kept", report.Kept,
		"skipped", report.Skipped, "failed", report.Failed)
	return nil
}

// resolveKeep picks the retention duration: explicit flag first, then the
// config default.
func resolveKeep(app *app) (time.Duration, error) {
	if cleanupFlags.keep != "" {
		d, err := model.ParseDuration(cleanupFlags.keep)
		if err != nil {
			return 0, fmt.Errorf("invalid --keep duration %q: %w", cleanupFlags.keep, err)
		}
		return time.Duration(d), nil
	}
	keep, ok, err := app.cfg.KeepDuration()
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("retention duration must be specified via --keep or cleanup.keep in the config file")
	}
	return keep, nil
}
