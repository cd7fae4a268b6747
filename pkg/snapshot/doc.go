// Package snapshot implements the snapshot lifecycle: creating snapshots of
// subvolumes, listing them, deleting them explicitly, and pruning them by age.
//
// All state is derived from the filesystem on every invocation. The snapshot
// root directory is scanned one level deep, each entry's name is decoded back
// into its source subvolume and creation instant (see package snapname), and
// the resulting registry drives the retention decision. Nothing is cached or
// persisted between runs, so an interrupted sweep simply resumes on the next
// invocation.
//
// Error policy is deliberately asymmetric. Create and Delete are
// operator-initiated and abort on the first failure. Cleanup runs unattended,
// typically from a timer, so a failure on one entry is logged and the sweep
// continues with the rest.
package snapshot
