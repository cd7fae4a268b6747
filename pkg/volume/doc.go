// Package volume defines the contract with the copy-on-write volume primitives
// and provides the two implementations of it.
//
// The lifecycle logic never talks to btrfs directly; it goes through the Store
// interface, which exposes exactly the four primitives it depends on: resolve
// a path to a subvolume handle, snapshot a subvolume to a destination path,
// delete a subvolume, and query its metadata. Each call is individually atomic
// from the caller's perspective; no transaction spans two of them.
//
// BtrfsStore is the production implementation, backed by the btrfs(8) CLI.
// MemStore is an in-memory implementation backed by plain directories, used by
// tests to exercise lifecycle behavior without a btrfs filesystem or root
// privileges.
package volume
