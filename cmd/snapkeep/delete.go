package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteFlags struct {
	snaps []string
}

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete specific snapshots",
	Long: `Delete the given snapshots.

At least one --snap is required: explicit deletion never defaults to
"everything". Each target must resolve to a genuine snapshot; the first
failure aborts the remaining deletions.

Examples:
  snapkeep delete --snap /mnt/top-level/.snapshots/@nixos-1700000000
  snapkeep delete --snap .snapshots/@nixos-1700000000 --snap .snapshots/@home-1700000000`,
	RunE: runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)

	deleteCmd.Flags().StringArrayVarP(&deleteFlags.snaps, "snap", "s", nil, "snapshot to delete (repeatable)")
}

func runDelete(cmd *cobra.Command, args []string) error {
	if err := requireRoot(); err != nil {
		return err
	}
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.flushMetrics()

	deleted, err := app.manager.Delete(cmd.Context(), deleteFlags.snaps)
	for _, p := range deleted {
		fmt.Println(p)
	}
	return err
}
