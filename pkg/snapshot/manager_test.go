package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/snapkeep/snapkeep/pkg/snapname"
	"github.com/snapkeep/snapkeep/pkg/volume"
)

func fixedClock(sec int64) Clock {
	return func() time.Time { return time.Unix(sec, 0) }
}

// newFixture builds a manager over a MemStore with a root directory and a
// set of source subvolumes registered in the store.
func newFixture(t *testing.T, now int64, sources ...string) (*Manager, *volume.MemStore, string, []string) {
	t.Helper()
	base := t.TempDir()
	root := filepath.Join(base, ".snapshots")
	if err := os.Mkdir(root, 0o755); err != nil {
		t.Fatal(err)
	}

	store := volume.NewMemStore()
	paths := make([]string, 0, len(sources))
	for _, name := range sources {
		p := filepath.Join(base, name)
		if err := os.Mkdir(p, 0o755); err != nil {
			t.Fatal(err)
		}
		store.Add(p)
		paths = append(paths, p)
	}

	m := NewManager(store, discardLogger(), WithClock(fixedClock(now)))
	return m, store, root, paths
}

// addSnapshot registers an existing snapshot entry under root, returning its
// path.
func addSnapshot(t *testing.T, store *volume.MemStore, root, name string) string {
	t.Helper()
	p := filepath.Join(root, name)
	if err := os.Mkdir(p, 0o755); err != nil {
		t.Fatal(err)
	}
	store.Add(p)
	return p
}

func TestCreateSharedTimestampAndMarker(t *testing.T) {
	const now = 1700000000
	m, _, root, sources := newFixture(t, now, "@nixos", "@data")

	created, err := m.Create(context.Background(), sources, root)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("created %d snapshots, want 2", len(created))
	}

	suffix := fmt.Sprintf("-%d", now)
	for _, p := range created {
		if !strings.HasSuffix(p, suffix) {
			t.Errorf("snapshot %q does not share the batch timestamp %d", p, now)
		}
		marker := filepath.Join(p, MarkerName)
		fi, err := os.Stat(marker)
		if err != nil {
			t.Errorf("marker file missing in %q: %v", p, err)
			continue
		}
		if fi.Size() != 0 {
			t.Errorf("marker file in %q should be empty, has %d bytes", p, fi.Size())
		}
	}

	if want := filepath.Join(root, "@nixos"+suffix); created[0] != want {
		t.Errorf("first snapshot = %q, want %q", created[0], want)
	}
}

func TestCreateMissingRoot(t *testing.T) {
	m, _, root, sources := newFixture(t, 1700000000, "@nixos")

	_, err := m.Create(context.Background(), sources, filepath.Join(root, "nope"))
	if !errors.Is(err, ErrRootNotFound) {
		t.Errorf("Create = %v, want ErrRootNotFound", err)
	}
}

func TestCreateAbortsOnFirstFailure(t *testing.T) {
	m, store, root, sources := newFixture(t, 1700000000, "@nixos", "@data")

	injected := errors.New("out of space")
	store.SnapshotErr = func(src, dst string) error {
		if strings.Contains(src, "@nixos") {
			return injected
		}
		return nil
	}

	created, err := m.Create(context.Background(), sources, root)
	if !errors.Is(err, injected) {
		t.Fatalf("Create = %v, want injected error", err)
	}
	if !strings.Contains(err.Error(), "@nixos") {
		t.Errorf("error %q should carry the offending path", err)
	}
	if len(created) != 0 {
		t.Errorf("no snapshot should precede the failing source, got %v", created)
	}
	// The second source must not have been attempted.
	if store.SnapshotCalls != 1 {
		t.Errorf("SnapshotCalls = %d, want 1 (abort on first failure)", store.SnapshotCalls)
	}
}

func TestCreateRejectsAmbiguousSourceName(t *testing.T) {
	m, store, root, sources := newFixture(t, 1700000000, "vol-2")

	_, err := m.Create(context.Background(), sources, root)
	if err == nil {
		t.Fatal("expected error for source name ending in -<digits>")
	}
	if store.SnapshotCalls != 0 {
		t.Errorf("SnapshotCalls = %d, want 0", store.SnapshotCalls)
	}
}

func TestDeleteEmptyTargets(t *testing.T) {
	m, store, _, _ := newFixture(t, 1700000000)

	_, err := m.Delete(context.Background(), nil)
	if !errors.Is(err, ErrNoTargets) {
		t.Fatalf("Delete = %v, want ErrNoTargets", err)
	}
	if store.GetCalls != 0 || store.DeleteCalls != 0 {
		t.Errorf("store was called (%d gets, %d deletes), want none",
			store.GetCalls, store.DeleteCalls)
	}
}

func TestDeleteAbortsOnUnresolvedTarget(t *testing.T) {
	m, store, root, _ := newFixture(t, 1700000000)
	snap := addSnapshot(t, store, root, "@nixos-1000")
	bogus := filepath.Join(root, "bogus")

	deleted, err := m.Delete(context.Background(), []string{bogus, snap})
	if !errors.Is(err, volume.ErrNotSubvolume) {
		t.Fatalf("Delete = %v, want ErrNotSubvolume", err)
	}
	if len(deleted) != 0 {
		t.Errorf("deleted = %v, want none", deleted)
	}
	if store.DeleteCalls != 0 {
		t.Errorf("DeleteCalls = %d, want 0 (abort before later targets)", store.DeleteCalls)
	}

	// The genuine snapshot must remain.
	if _, err := os.Stat(snap); err != nil {
		t.Errorf("surviving snapshot is gone: %v", err)
	}
}

func TestDeleteRemovesTargets(t *testing.T) {
	m, store, root, _ := newFixture(t, 1700000000)
	a := addSnapshot(t, store, root, "@nixos-1000")
	b := addSnapshot(t, store, root, "@data-1500")

	deleted, err := m.Delete(context.Background(), []string{a, b})
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(deleted) != 2 {
		t.Fatalf("deleted = %v, want both targets", deleted)
	}
	for _, p := range []string{a, b} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("%q should be gone, stat err = %v", p, err)
		}
	}
}

func TestListReportsGenuineSnapshotsOnly(t *testing.T) {
	m, store, root, _ := newFixture(t, 1700000000)
	snap := addSnapshot(t, store, root, "@nixos-1000")
	if err := os.Mkdir(filepath.Join(root, "plain-dir"), 0o755); err != nil {
		t.Fatal(err)
	}

	records, err := m.List(context.Background(), root)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("List returned %d records, want 1", len(records))
	}
	rec := records[0]
	if rec.Path != snap {
		t.Errorf("Path = %q, want %q", rec.Path, snap)
	}
	if rec.Generation == 0 || rec.OriginTransID == 0 {
		t.Errorf("store metadata not populated: %+v", rec)
	}
}

func TestListMissingRoot(t *testing.T) {
	m, _, root, _ := newFixture(t, 1700000000)
	if _, err := m.List(context.Background(), filepath.Join(root, "nope")); !errors.Is(err, ErrRootNotFound) {
		t.Errorf("List = %v, want ErrRootNotFound", err)
	}
}

// The scenario from the retention design: cutoff at 1600 deletes app-1000 and
// data-1500, preserves app-2000, and skips the undecodable entry.
func TestCleanupRetentionScenario(t *testing.T) {
	const now = 2600
	m, store, root, _ := newFixture(t, now)

	old1 := addSnapshot(t, store, root, "app-1000")
	old2 := addSnapshot(t, store, root, "data-1500")
	young := addSnapshot(t, store, root, "app-2000")
	foreign := filepath.Join(root, "not-a-snapshot")
	if err := os.Mkdir(foreign, 0o755); err != nil {
		t.Fatal(err)
	}

	report, err := m.Cleanup(context.Background(), root, 1000*time.Second)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}

	if len(report.Deleted) != 2 {
		t.Fatalf("Deleted = %v, want two entries", report.Deleted)
	}
	for _, p := range []string{old1, old2} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("%q should have been cleaned, stat err = %v", p, err)
		}
	}
	if _, err := os.Stat(young); err != nil {
		t.Errorf("young snapshot was deleted: %v", err)
	}
	if _, err := os.Stat(foreign); err != nil {
		t.Errorf("unrecognized entry was touched: %v", err)
	}
	if report.Kept != 1 {
		t.Errorf("Kept = %d, want 1", report.Kept)
	}
	if report.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", report.Skipped)
	}
}

// An entry exactly at the cutoff instant is preserved: the age comparison is
// strict.
func TestCleanupCutoffBoundary(t *testing.T) {
	const now = 2000
	m, store, root, _ := newFixture(t, now)
	boundary := addSnapshot(t, store, root, "app-1000")

	// keep = 1000s, so cutoff = 1000 exactly.
	report, err := m.Cleanup(context.Background(), root, 1000*time.Second)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if len(report.Deleted) != 0 || report.Kept != 1 {
		t.Errorf("report = %+v, want the boundary entry kept", report)
	}
	if _, err := os.Stat(boundary); err != nil {
		t.Errorf("boundary snapshot was deleted: %v", err)
	}
}

func TestCleanupSkipsNonSubvolumeCandidates(t *testing.T) {
	const now = 2600
	m, store, root, _ := newFixture(t, now)

	// Decodes fine but the store does not know it.
	impostor := filepath.Join(root, "app-1000")
	if err := os.Mkdir(impostor, 0o755); err != nil {
		t.Fatal(err)
	}
	genuine := addSnapshot(t, store, root, "data-1100")

	report, err := m.Cleanup(context.Background(), root, 1000*time.Second)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if _, err := os.Stat(impostor); err != nil {
		t.Errorf("non-subvolume entry was deleted: %v", err)
	}
	if _, err := os.Stat(genuine); !os.IsNotExist(err) {
		t.Errorf("genuine expired snapshot should be gone, stat err = %v", err)
	}
	if report.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", report.Skipped)
	}
}

// A transient resolution error on an expired entry is an operational
// failure, not a negative classification: it must be counted as failed, not
// silently skipped as foreign, and the sweep continues.
func TestCleanupCountsTransientGetFailure(t *testing.T) {
	const now = 2600
	m, store, root, _ := newFixture(t, now)

	flaky := addSnapshot(t, store, root, "app-1000")
	next := addSnapshot(t, store, root, "data-1100")

	injected := errors.New("input/output error")
	store.GetErr = func(path string) error {
		if path == flaky {
			return injected
		}
		return nil
	}

	report, err := m.Cleanup(context.Background(), root, 1000*time.Second)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if report.Failed != 1 {
		t.Errorf("Failed = %d, want 1", report.Failed)
	}
	if report.Skipped != 0 {
		t.Errorf("Skipped = %d, want 0 (transient error is not a classification)", report.Skipped)
	}
	if len(report.Deleted) != 1 || report.Deleted[0] != next {
		t.Errorf("Deleted = %v, want the entry after the failure", report.Deleted)
	}
	if _, err := os.Stat(flaky); err != nil {
		t.Errorf("entry with transient error must not be deleted: %v", err)
	}
}

func TestCleanupContinuesPastDeleteFailure(t *testing.T) {
	const now = 2600
	m, store, root, _ := newFixture(t, now)

	stuck := addSnapshot(t, store, root, "app-1000")
	next := addSnapshot(t, store, root, "data-1100")

	injected := errors.New("subvolume busy")
	store.DeleteErr = func(path string) error {
		if path == stuck {
			return injected
		}
		return nil
	}

	report, err := m.Cleanup(context.Background(), root, 1000*time.Second)
	if err != nil {
		t.Fatalf("Cleanup must not fail on a per-entry delete error, got %v", err)
	}
	if report.Failed != 1 {
		t.Errorf("Failed = %d, want 1", report.Failed)
	}
	if len(report.Deleted) != 1 || report.Deleted[0] != next {
		t.Errorf("Deleted = %v, want the entry after the failure", report.Deleted)
	}
	if _, err := os.Stat(next); !os.IsNotExist(err) {
		t.Errorf("sweep did not continue past the failure, stat err = %v", err)
	}
}

func TestCleanupMissingRoot(t *testing.T) {
	m, _, root, _ := newFixture(t, 1700000000)
	_, err := m.Cleanup(context.Background(), filepath.Join(root, "nope"), time.Hour)
	if !errors.Is(err, ErrRootNotFound) {
		t.Errorf("Cleanup = %v, want ErrRootNotFound", err)
	}
}

// Round trip: what Create writes, Cleanup recognizes and eventually prunes.
func TestCreateThenCleanup(t *testing.T) {
	const now = 1700000000
	m, store, root, sources := newFixture(t, now, "@nixos")

	created, err := m.Create(context.Background(), sources, root)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Re-check under a later clock: the snapshot has aged past keep.
	later := NewManager(store, discardLogger(), WithClock(fixedClock(now+7200)))
	report, err := later.Cleanup(context.Background(), root, time.Hour)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if len(report.Deleted) != 1 || report.Deleted[0] != created[0] {
		t.Errorf("Deleted = %v, want %v", report.Deleted, created)
	}
	if _, _, ok := snapname.Split(filepath.Base(created[0])); !ok {
		t.Errorf("created entry %q should decode", created[0])
	}
}
