// Snapkeep manages point-in-time snapshots of btrfs subvolumes: creating
// them, listing them, deleting them explicitly, and pruning them by age.
//
// Snapshots live directly under a single root directory, one entry per
// snapshot, named "<subvolume>-<epoch-seconds>". The entry name is the only
// record tying a snapshot to its source subvolume and creation instant; every
// command rebuilds its view of the world by scanning that directory.
//
// Usage:
//
//	# Snapshot the configured subvolumes into the configured root
//	snapkeep create --config /etc/snapkeep.toml
//
//	# Snapshot explicit subvolumes
//	snapkeep create --subvol /mnt/top-level/@nixos --dir /mnt/top-level/.snapshots
//
//	# List snapshots with their generation counters
//	snapkeep list --dir /mnt/top-level/.snapshots
//
//	# Delete specific snapshots
//	snapkeep delete --snap /mnt/top-level/.snapshots/@nixos-1700000000
//
//	# Prune snapshots older than seven days
//	snapkeep cleanup --dir /mnt/top-level/.snapshots --keep 7d
//
// The configuration file (TOML or YAML) supplies defaults for the snapshot
// root, the source subvolumes, and the cleanup retention; explicit flags
// always win. The SNAPKEEP_CONFIG environment variable names the file when
// --config is absent.
package main

func main() {
	Execute()
}
