package volume

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// BtrfsStore implements Store by shelling out to the btrfs(8) command line
// tool. It requires the btrfs binary on PATH and, for mutating operations,
// an effectively-root process.
type BtrfsStore struct {
	// Binary is the btrfs executable to invoke. Empty means "btrfs".
	Binary string
}

// NewBtrfsStore returns a Store backed by the btrfs CLI.
func NewBtrfsStore() *BtrfsStore {
	return &BtrfsStore{}
}

func (s *BtrfsStore) binary() string {
	if s.Binary != "" {
		return s.Binary
	}
	return "btrfs"
}

// run executes a btrfs subcommand and returns its stdout. Stderr is folded
// into the returned error.
func (s *BtrfsStore) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, s.binary(), args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("btrfs %s: %w", args[0], err)
		}
		return nil, fmt.Errorf("btrfs %s: %s: %w", args[0], msg, err)
	}
	return stdout.Bytes(), nil
}

// Get resolves path to a subvolume handle by asking btrfs to show it. A
// show failure whose stderr identifies the path as not being a subvolume is
// classified as ErrNotSubvolume; any other failure (transient I/O, missing
// binary) is reported as-is so callers do not mistake it for a negative
// classification.
func (s *BtrfsStore) Get(ctx context.Context, path string) (Handle, error) {
	if _, err := os.Lstat(path); err != nil {
		return Handle{}, fmt.Errorf("resolving %q: %w", path, err)
	}

	cmd := exec.CommandContext(ctx, s.binary(), "subvolume", "show", path)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if isNotSubvolume(msg) {
			return Handle{}, fmt.Errorf("%q: %w: %s", path, ErrNotSubvolume, msg)
		}
		if msg == "" {
			return Handle{}, fmt.Errorf("resolving %q: btrfs show: %w", path, err)
		}
		return Handle{}, fmt.Errorf("resolving %q: btrfs show: %s: %w", path, msg, err)
	}
	return Handle{Path: path}, nil
}

// isNotSubvolume reports whether a btrfs stderr message is a genuine
// negative classification rather than an operational failure. btrfs-progs
// has phrased the rejection a few ways across versions, and on non-btrfs
// filesystems the subvolume ioctl fails with ENOTTY.
func isNotSubvolume(stderr string) bool {
	msg := strings.ToLower(stderr)
	for _, marker := range []string{
		"not a subvolume",
		"not a btrfs subvolume",
		"not a btrfs filesystem",
		"inappropriate ioctl",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// Snapshot creates a snapshot of src at dst. The destination must not exist.
func (s *BtrfsStore) Snapshot(ctx context.Context, src Handle, dst string) error {
	if _, err := os.Lstat(dst); err == nil {
		return fmt.Errorf("snapshot destination %q already exists", dst)
	}
	if _, err := s.run(ctx, "subvolume", "snapshot", src.Path, dst); err != nil {
		return fmt.Errorf("snapshotting %q to %q: %w", src.Path, dst, err)
	}
	return nil
}

// Delete removes the subvolume behind h.
func (s *BtrfsStore) Delete(ctx context.Context, h Handle) error {
	if _, err := s.run(ctx, "subvolume", "delete", h.Path); err != nil {
		return fmt.Errorf("deleting %q: %w", h.Path, err)
	}
	return nil
}

// Info queries subvolume metadata from the show output.
func (s *BtrfsStore) Info(ctx context.Context, h Handle) (Info, error) {
	out, err := s.run(ctx, "subvolume", "show", h.Path)
	if err != nil {
		return Info{}, fmt.Errorf("querying %q: %w", h.Path, err)
	}
	info, err := parseShowInfo(out)
	if err != nil {
		return Info{}, fmt.Errorf("querying %q: %w", h.Path, err)
	}
	return info, nil
}

// parseShowInfo extracts the generation counters from `btrfs subvolume show`
// output, which is a block of tab-indented "Label:\tvalue" lines.
func parseShowInfo(out []byte) (Info, error) {
	var (
		info   Info
		gotGen bool
		gotOT  bool
	)
	for _, line := range strings.Split(string(out), "\n") {
		label, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(label) {
		case "Generation":
			n, err := strconv.ParseUint(value, 10, 64)
			if err != nil {
				return Info{}, fmt.Errorf("parsing generation %q: %w", value, err)
			}
			info.Generation = n
			gotGen = true
		case "Gen at creation":
			n, err := strconv.ParseUint(value, 10, 64)
			if err != nil {
				return Info{}, fmt.Errorf("parsing origin generation %q: %w", value, err)
			}
			info.OriginTransID = n
			gotOT = true
		}
	}
	if !gotGen || !gotOT {
		return Info{}, fmt.Errorf("generation counters missing from show output")
	}
	return info, nil
}
