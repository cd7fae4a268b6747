package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/snapkeep/snapkeep/pkg/snapname"
	"github.com/snapkeep/snapkeep/pkg/volume"
)

// MarkerName is the zero-length file created inside every new snapshot. Its
// presence (not its content) marks the snapshot for downstream tooling, and
// gives the snapshot a distinguishable modification time.
const MarkerName = ".ignore"

var (
	// ErrRootNotFound reports a snapshot root directory that does not
	// exist or is not a directory.
	ErrRootNotFound = errors.New("snapshot directory not found")

	// ErrNoTargets reports an explicit delete invoked with nothing to
	// delete. Explicit deletion never defaults to "everything".
	ErrNoTargets = errors.New("no snapshots specified")
)

// Metrics receives lifecycle events. All methods must tolerate being called
// from a single goroutine only; the manager never calls them concurrently.
type Metrics interface {
	SnapshotCreated()
	SnapshotDeleted()
	CleanupFailure()
}

// Clock supplies the current wall-clock time. Swapped out in tests.
type Clock func() time.Time

// Manager implements the four lifecycle operations over a volume store.
type Manager struct {
	store   volume.Store
	log     *slog.Logger
	now     Clock
	metrics Metrics
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces the wall-clock source.
func WithClock(now Clock) Option {
	return func(m *Manager) { m.now = now }
}

// WithMetrics attaches a lifecycle metrics sink.
func WithMetrics(metrics Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// NewManager returns a Manager operating through the given store.
func NewManager(store volume.Store, log *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		store: store,
		log:   log,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ListRecord is one row of List output.
type ListRecord struct {
	Path          string `json:"path" yaml:"path"`
	Generation    uint64 `json:"generation" yaml:"generation"`
	OriginTransID uint64 `json:"origin_trans_id" yaml:"origin_trans_id"`
}

// CleanupReport summarizes one retention sweep.
type CleanupReport struct {
	// Deleted lists the entries removed, in processing order.
	Deleted []string

	// Kept counts recognized snapshots preserved as too young.
	Kept int

	// Skipped counts entries passed over because their name did not
	// decode or the store did not recognize them as snapshots.
	Skipped int

	// Failed counts recognized, expired snapshots whose resolution or
	// deletion failed.
	Failed int
}

// checkRoot validates that the snapshot root exists and is a directory.
func checkRoot(root string) error {
	fi, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %q", ErrRootNotFound, root)
		}
		return fmt.Errorf("checking snapshot directory %q: %w", root, err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("%w: %q is not a directory", ErrRootNotFound, root)
	}
	return nil
}

// Create snapshots each source subvolume into root. One timestamp, captured
// once, is shared by every snapshot in the batch so the whole invocation is
// attributable to a single logical point in time.
//
// The first failure aborts the invocation: stopping loudly beats silently
// skipping a subvolume the operator expected snapshotted. Returns the created
// destination paths.
func (m *Manager) Create(ctx context.Context, sources []string, root string) ([]string, error) {
	if err := checkRoot(root); err != nil {
		return nil, err
	}

	ts := m.now().Unix()
	created := make([]string, 0, len(sources))
	for _, source := range sources {
		name := filepath.Base(source)
		if snapname.Ambiguous(name) {
			return created, fmt.Errorf(
				"subvolume name %q ends in %q followed by digits and would decode as a snapshot entry; rename the subvolume",
				name, string(snapname.Separator))
		}

		dst := filepath.Join(root, snapname.Join(name, ts))
		m.log.Debug("creating snapshot", "source", source, "destination", dst)

		h, err := m.store.Get(ctx, source)
		if err != nil {
			return created, fmt.Errorf("resolving subvolume %q: %w", source, err)
		}
		if err := m.store.Snapshot(ctx, h, dst); err != nil {
			return created, fmt.Errorf("creating snapshot %q for subvolume %q: %w", dst, source, err)
		}
		if err := touchMarker(dst); err != nil {
			return created, err
		}

		created = append(created, dst)
		if m.metrics != nil {
			m.metrics.SnapshotCreated()
		}
		m.log.Info("created snapshot", "source", source, "destination", dst)
	}
	return created, nil
}

// touchMarker creates the empty marker file inside a freshly created
// snapshot.
func touchMarker(snapPath string) error {
	path := filepath.Join(snapPath, MarkerName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("touching %q in snapshot %q: %w", MarkerName, snapPath, err)
	}
	return f.Close()
}

// Delete removes the given snapshots. An empty target set is an error before
// any store call is made. Each target must resolve to a genuine snapshot;
// the first failure aborts the remaining deletions, on the assumption that
// an explicit delete is operator-reviewed and a loud partial stop is better
// than a silent skip. Returns the paths deleted before any failure.
func (m *Manager) Delete(ctx context.Context, targets []string) ([]string, error) {
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}

	deleted := make([]string, 0, len(targets))
	for _, target := range targets {
		m.log.Debug("deleting snapshot", "path", target)
		h, err := m.store.Get(ctx, target)
		if err != nil {
			return deleted, fmt.Errorf("resolving snapshot %q: %w", target, err)
		}
		if err := m.store.Delete(ctx, h); err != nil {
			return deleted, fmt.Errorf("deleting snapshot %q: %w", target, err)
		}
		deleted = append(deleted, target)
		if m.metrics != nil {
			m.metrics.SnapshotDeleted()
		}
		m.log.Info("deleted snapshot", "path", target)
	}
	return deleted, nil
}

// List reports every genuine snapshot under root with its store metadata.
// Entries the store does not recognize as snapshots are skipped silently;
// List never mutates anything.
func (m *Manager) List(ctx context.Context, root string) ([]ListRecord, error) {
	if err := checkRoot(root); err != nil {
		return nil, err
	}

	entries, err := Scan(root, m.log)
	if err != nil {
		return nil, err
	}

	records := make([]ListRecord, 0, len(entries))
	for _, e := range entries {
		h, err := m.store.Get(ctx, e.Path)
		if err != nil {
			m.log.Debug("not a snapshot", "path", e.Path, "reason", err)
			continue
		}
		info, err := m.store.Info(ctx, h)
		if err != nil {
			return records, fmt.Errorf("querying snapshot %q: %w", e.Path, err)
		}
		records = append(records, ListRecord{
			Path:          e.Path,
			Generation:    info.Generation,
			OriginTransID: info.OriginTransID,
		})
	}
	return records, nil
}

// Cleanup deletes every recognized snapshot under root whose creation
// instant is strictly before now - keep. An entry exactly at the cutoff is
// preserved.
//
// Entries that do not decode, or that the store does not recognize, are
// never deleted. A failed deletion is logged and counted but does not stop
// the sweep: an unattended retention run makes maximum progress rather than
// aborting on the first problem entry.
func (m *Manager) Cleanup(ctx context.Context, root string, keep time.Duration) (CleanupReport, error) {
	var report CleanupReport

	if err := checkRoot(root); err != nil {
		return report, err
	}

	entries, err := Scan(root, m.log)
	if err != nil {
		return report, err
	}

	reg := BuildRegistry(entries)
	report.Skipped = len(entries) - reg.Len()

	cutoff := m.now().Add(-keep).Unix()
	m.log.Debug("retention sweep", "root", root, "cutoff", cutoff, "candidates", reg.Len())

	for _, rec := range reg.Records() {
		if rec.CreatedAt >= cutoff {
			report.Kept++
			m.log.Debug("keeping snapshot", "path", rec.Path, "created_at", rec.CreatedAt)
			continue
		}
		h, err := m.store.Get(ctx, rec.Path)
		if err != nil {
			// A negative classification is a skip; anything else is
			// an operational failure on an expired entry and must be
			// visible, not mistaken for a foreign object.
			if errors.Is(err, volume.ErrNotSubvolume) {
				report.Skipped++
				m.log.Debug("not a snapshot", "path", rec.Path, "reason", err)
				continue
			}
			report.Failed++
			if m.metrics != nil {
				m.metrics.CleanupFailure()
			}
			m.log.Error("failed to resolve snapshot, continuing", "path", rec.Path, "error", err)
			continue
		}
		if err := m.store.Delete(ctx, h); err != nil {
			report.Failed++
			if m.metrics != nil {
				m.metrics.CleanupFailure()
			}
			m.log.Error("failed to delete snapshot, continuing", "path", rec.Path, "error", err)
			continue
		}
		report.Deleted = append(report.Deleted, rec.Path)
		if m.metrics != nil {
			m.metrics.SnapshotDeleted()
		}
		m.log.Info("cleaned snapshot", "path", rec.Path, "created_at", rec.CreatedAt)
	}
	return report, nil
}
