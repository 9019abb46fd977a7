package metrics

import (
	"sync"

	"github.com/marmos91/dittodrive/pkg/gc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// gcMetrics is the Prometheus implementation of gc.CollectorMetrics.
type gcMetrics struct {
	runsTotal    *prometheus.CounterVec
	runDuration  prometheus.Histogram
	deletedTotal *prometheus.CounterVec
	failedTotal  prometheus.Counter
}

var (
	gcMetricsOnce     sync.Once
	gcMetricsInstance *gcMetrics
)

// NewGCMetrics creates a new Prometheus-backed CollectorMetrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewGCMetrics() gc.CollectorMetrics {
	if !IsEnabled() {
		return nil
	}

	gcMetricsOnce.Do(func() {
		reg := GetRegistry()

		gcMetricsInstance = &gcMetrics{
			runsTotal: promauto.With(reg).NewCounterVec(
				prometheus.CounterOpts{
					Name: "dittodrive_gc_runs_total",
					Help: "Total number of garbage collection runs by status",
				},
				[]string{"status"},
			),
			runDuration: promauto.With(reg).NewHistogram(
				prometheus.HistogramOpts{
					Name:    "dittodrive_gc_run_duration_seconds",
					Help:    "Duration of garbage collection runs in seconds",
					Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
				},
			),
			deletedTotal: promauto.With(reg).NewCounterVec(
				prometheus.CounterOpts{
					Name: "dittodrive_gc_deleted_total",
					Help: "Total number of items removed by garbage collection by kind",
				},
				[]string{"kind"}, // content, archive
			),
			failedTotal: promauto.With(reg).NewCounter(
				prometheus.CounterOpts{
					Name: "dittodrive_gc_failed_total",
					Help: "Total number of items garbage collection failed to remove",
				},
			),
		}
	})

	return gcMetricsInstance
}

func (m *gcMetrics) RecordRun(stats *gc.Stats, err error) {
	m.runsTotal.WithLabelValues(statusLabel(err)).Inc()
	if stats == nil {
		return
	}

	m.runDuration.Observe(stats.Duration().Seconds())
	m.deletedTotal.WithLabelValues("content").Add(float64(stats.DeletedCount))
	m.deletedTotal.WithLabelValues("archive").Add(float64(stats.ArchivesDeleted))
	m.failedTotal.Add(float64(stats.FailedCount))
}
