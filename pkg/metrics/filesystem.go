package metrics

import (
	"sync"
	"time"

	"github.com/marmos91/dittodrive/pkg/filesystem"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// fileSystemMetrics is the Prometheus implementation of filesystem.FileSystemMetrics.
//
// All instances share the same vectors; storeType is attached as a label so
// several file systems (e.g. memory and badger backed) can report side by side.
type fileSystemMetrics struct {
	storeType string
	vecs      *fileSystemVecs
}

type fileSystemVecs struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
}

var (
	fileSystemVecsOnce     sync.Once
	fileSystemVecsInstance *fileSystemVecs
)

// NewFileSystemMetrics creates a new Prometheus-backed FileSystemMetrics instance.
//
// Parameters:
//   - storeType: Type of metadata store (e.g., "memory", "badger")
//     Used as a label to distinguish metrics from different store implementations.
//
// Returns nil if metrics are not enabled (InitRegistry not called), which
// causes the file system to use its built-in no-op implementation.
func NewFileSystemMetrics(storeType string) filesystem.FileSystemMetrics {
	if !IsEnabled() {
		return nil
	}

	fileSystemVecsOnce.Do(func() {
		reg := GetRegistry()

		fileSystemVecsInstance = &fileSystemVecs{
			operationsTotal: promauto.With(reg).NewCounterVec(
				prometheus.CounterOpts{
					Name: "dittodrive_filesystem_operations_total",
					Help: "Total number of file system operations by store type, operation, and status",
				},
				[]string{"store_type", "operation", "status"},
			),
			operationDuration: promauto.With(reg).NewHistogramVec(
				prometheus.HistogramOpts{
					Name: "dittodrive_filesystem_operation_duration_seconds",
					Help: "Duration of file system operations in seconds",
					Buckets: []float64{
						0.0001, // 100µs
						0.0005, // 500µs
						0.001,  // 1ms
						0.005,  // 5ms
						0.01,   // 10ms
						0.025,  // 25ms
						0.05,   // 50ms
						0.1,    // 100ms
						0.25,   // 250ms
						0.5,    // 500ms
						1.0,    // 1s
					},
				},
				[]string{"store_type", "operation"},
			),
		}
	})

	return &fileSystemMetrics{
		storeType: storeType,
		vecs:      fileSystemVecsInstance,
	}
}

func (m *fileSystemMetrics) RecordOperation(operation string, duration time.Duration, err error) {
	m.vecs.operationsTotal.WithLabelValues(m.storeType, operation, statusLabel(err)).Inc()
	m.vecs.operationDuration.WithLabelValues(m.storeType, operation).Observe(duration.Seconds())
}
