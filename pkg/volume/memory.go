package volume

import (
	"context"
	"fmt"
	"os"
	"sync"
)

// MemStore is an in-memory Store backed by plain directories. Subvolume
// membership and metadata live in a map; Snapshot and Delete create and
// remove real directories so that directory scans and marker files behave as
// they do in production. It exists for tests and dry runs on machines
// without btrfs.
type MemStore struct {
	mu      sync.Mutex
	subvols map[string]Info
	nextGen uint64

	// GetErr, SnapshotErr, and DeleteErr, when set, are consulted before
	// the corresponding operation and may inject a failure.
	GetErr      func(path string) error
	SnapshotErr func(src, dst string) error
	DeleteErr   func(path string) error

	// Call counters, readable by tests.
	GetCalls      int
	SnapshotCalls int
	DeleteCalls   int
	InfoCalls     int
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		subvols: make(map[string]Info),
		nextGen: 1,
	}
}

// Add registers an existing directory as a subvolume with generated
// metadata and returns that metadata. The directory itself must already
// exist.
func (s *MemStore) Add(path string) Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	info := Info{Generation: s.nextGen, OriginTransID: s.nextGen}
	s.nextGen++
	s.subvols[path] = info
	return info
}

func (s *MemStore) Get(ctx context.Context, path string) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.GetCalls++
	if s.GetErr != nil {
		if err := s.GetErr(path); err != nil {
			return Handle{}, err
		}
	}
	if _, ok := s.subvols[path]; !ok {
		return Handle{}, fmt.Errorf("%q: %w", path, ErrNotSubvolume)
	}
	return Handle{Path: path}, nil
}

func (s *MemStore) Snapshot(ctx context.Context, src Handle, dst string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SnapshotCalls++
	if s.SnapshotErr != nil {
		if err := s.SnapshotErr(src.Path, dst); err != nil {
			return err
		}
	}
	if _, ok := s.subvols[src.Path]; !ok {
		return fmt.Errorf("%q: %w", src.Path, ErrNotSubvolume)
	}
	if _, err := os.Lstat(dst); err == nil {
		return fmt.Errorf("snapshot destination %q already exists", dst)
	}
	if err := os.Mkdir(dst, 0o755); err != nil {
		return fmt.Errorf("snapshotting %q to %q: %w", src.Path, dst, err)
	}
	info := Info{Generation: s.nextGen, OriginTransID: s.nextGen}
	s.nextGen++
	s.subvols[dst] = info
	return nil
}

func (s *MemStore) Delete(ctx context.Context, h Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DeleteCalls++
	if s.DeleteErr != nil {
		if err := s.DeleteErr(h.Path); err != nil {
			return err
		}
	}
	if _, ok := s.subvols[h.Path]; !ok {
		return fmt.Errorf("%q: %w", h.Path, ErrNotSubvolume)
	}
	if err := os.RemoveAll(h.Path); err != nil {
		return fmt.Errorf("deleting %q: %w", h.Path, err)
	}
	delete(s.subvols, h.Path)
	return nil
}

func (s *MemStore) Info(ctx context.Context, h Handle) (Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.InfoCalls++
	info, ok := s.subvols[h.Path]
	if !ok {
		return Info{}, fmt.Errorf("%q: %w", h.Path, ErrNotSubvolume)
	}
	return info, nil
}
