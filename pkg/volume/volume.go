package volume

import (
	"context"
	"errors"
)

// ErrNotSubvolume marks a path that resolved to something other than a
// managed subvolume. Scanning code treats it as a negative classification and
// skips the entry; explicit operations surface it to the operator.
var ErrNotSubvolume = errors.New("not a subvolume")

// Handle is a resolved reference to a subvolume. Handles are not cached
// across operations; every operation re-resolves its paths via Get.
type Handle struct {
	// Path is the absolute filesystem path the handle was resolved from.
	Path string
}

// Info carries the read-only metadata of a subvolume.
type Info struct {
	// Generation is the current generation counter of the subvolume.
	Generation uint64 `json:"generation" yaml:"generation"`

	// OriginTransID is the transaction id at which the subvolume was
	// created (otransid).
	OriginTransID uint64 `json:"origin_trans_id" yaml:"origin_trans_id"`
}

// Store is the set of copy-on-write primitives the snapshot lifecycle
// depends on.
type Store interface {
	// Get resolves a filesystem path to a subvolume handle. It returns an
	// error wrapping ErrNotSubvolume when the path does not refer to a
	// managed subvolume.
	Get(ctx context.Context, path string) (Handle, error)

	// Snapshot creates a snapshot of src at the destination path, which
	// must not already exist.
	Snapshot(ctx context.Context, src Handle, dst string) error

	// Delete removes the subvolume the handle refers to.
	Delete(ctx context.Context, h Handle) error

	// Info queries subvolume metadata. It has no side effects.
	Info(ctx context.Context, h Handle) (Info, error)
}
