package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.SnapshotCreated()
	r.SnapshotCreated()
	r.SnapshotDeleted()
	r.CleanupFailure()

	path := filepath.Join(t.TempDir(), "snapkeep.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}

	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := fi.Mode().Perm(); perm != 0o644 {
		t.Errorf("textfile mode = %o, want 644 so the collector can read it", perm)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)

	for _, want := range []string{
		"snapkeep_snapshots_created_total 2",
		"snapkeep_snapshots_deleted_total 1",
		"snapkeep_cleanup_failures_total 1",
		"snapkeep_last_run_timestamp_seconds",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("textfile missing %q:\n%s", want, out)
		}
	}
}

func TestWriteTextfileMissingDirectory(t *testing.T) {
	r := NewRecorder()
	err := r.WriteTextfile(filepath.Join(t.TempDir(), "missing", "snapkeep.prom"))
	if err == nil {
		t.Fatal("expected error for unwritable destination")
	}
}
