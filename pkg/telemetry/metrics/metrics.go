// Package metrics records lifecycle counters and writes them out in the
// Prometheus textfile format.
//
// snapkeep is a one-shot process, typically driven by a timer, so it cannot
// expose a scrape endpoint. Instead, when a textfile path is configured, the
// counters of the finished run are written as a .prom file for the
// node-exporter textfile collector to pick up.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Recorder accumulates lifecycle metrics for one invocation.
type Recorder struct {
	registry *prometheus.Registry

	created  prometheus.Counter
	deleted  prometheus.Counter
	failures prometheus.Counter
	lastRun  prometheus.Gauge
}

// NewRecorder returns a Recorder with all lifecycle metrics registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		created: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "snapkeep_snapshots_created_total",
			Help: "Snapshots created by this run.",
		}),
		deleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "snapkeep_snapshots_deleted_total",
			Help: "Snapshots deleted by this run, explicit and retention.",
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "snapkeep_cleanup_failures_total",
			Help: "Retention sweep entries that could not be resolved or deleted.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "snapkeep_last_run_timestamp_seconds",
			Help: "Unix time this run finished.",
		}),
	}
	r.registry.MustRegister(r.created, r.deleted, r.failures, r.lastRun)
	return r
}

// SnapshotCreated counts one created snapshot.
func (r *Recorder) SnapshotCreated() { r.created.Inc() }

// SnapshotDeleted counts one deleted snapshot.
func (r *Recorder) SnapshotDeleted() { r.deleted.Inc() }

// CleanupFailure counts one failed retention deletion.
func (r *Recorder) CleanupFailure() { r.failures.Inc() }

// WriteTextfile marks the run finished and writes the metrics to path in the
// Prometheus text exposition format. The file is written atomically via a
// temp file and rename so a collector never sees a partial write.
func (r *Recorder) WriteTextfile(path string) error {
	r.lastRun.Set(float64(time.Now().Unix()))

	families, err := r.registry.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("writing metrics file %q: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	// CreateTemp makes the file 0600; the collector usually runs as an
	// unprivileged user and must be able to read the renamed result.
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("writing metrics file %q: %w", path, err)
	}

	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(tmp, mf); err != nil {
			tmp.Close()
			return fmt.Errorf("writing metrics file %q: %w", path, err)
		}
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing metrics file %q: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("writing metrics file %q: %w", path, err)
	}
	return nil
}
