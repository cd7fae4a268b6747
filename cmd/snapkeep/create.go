package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var createFlags struct {
	subvols []string
	dir     string
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create snapshots of the given subvolumes",
	Long: `Create a snapshot of each source subvolume under the snapshot root.

All snapshots of one invocation share a single creation timestamp, so a batch
is attributable to one logical point in time. Each new snapshot gets an empty
.ignore marker file inside it. The first failure aborts the invocation.

Sources come from repeated --subvol flags, or from subvolume_base and
subvolume_names in the config file when no flag is given.

Examples:
  # Snapshot the configured subvolumes
  snapkeep create --config /etc/snapkeep.toml

  # Snapshot explicit subvolumes into an explicit root
  snapkeep create --subvol /mnt/top-level/@nixos --subvol /mnt/top-level/@home \
      --dir /mnt/top-level/.snapshots`,
	RunE: runCreate,
}

func init() {
	rootCmd.AddCommand(createCmd)

	createCmd.Flags().StringArrayVarP(&createFlags.subvols, "subvol", "s", nil, "subvolume to snapshot (repeatable)")
	createCmd.Flags().StringVarP(&createFlags.dir, "dir", "d", "", "snapshot directory (defaults to config)")
}

func runCreate(cmd *cobra.Command, args []string) error {
	if err := requireRoot(); err != nil {
		return err
	}
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.flushMetrics()

	root, err := app.resolveRoot(createFlags.dir)
	if err != nil {
		return err
	}

	sources := createFlags.subvols
	if len(sources) == 0 {
		sources = app.cfg.Sources()
	}
	if len(sources) == 0 {
		return fmt.Errorf("no subvolumes specified: provide --subvol or subvolume_names in the config file")
	}

	app.log.Info("creating snapshots", "root", root, "sources", len(sources))
	created, err := app.manager.Create(cmd.Context(), sources, root)
	for _, p := range created {
		fmt.Println(p)
	}
	return err
}
