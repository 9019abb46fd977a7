package metrics

import (
	"sync"
	"time"

	"github.com/marmos91/dittodrive/pkg/content/s3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// s3Metrics is the Prometheus implementation of s3.S3Metrics interface.
//
// This implementation collects metrics about S3 operations including:
//   - Operation counts (GetObject, PutObject, etc.)
//   - Operation latency
//   - Bytes transferred
//   - Error rates
type s3Metrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	bytesTransferred  *prometheus.CounterVec
	errorsTotal       *prometheus.CounterVec
}

var (
	s3MetricsOnce     sync.Once
	s3MetricsInstance *s3Metrics
)

// NewS3Metrics creates a new Prometheus-backed S3Metrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called), which
// causes the S3 content store to use the built-in no-op implementation.
//
// This implements the s3.S3Metrics interface from pkg/content/s3/s3_metrics.go.
func NewS3Metrics() s3.S3Metrics {
	if !IsEnabled() {
		return nil // S3 content store will use noopMetrics
	}

	s3MetricsOnce.Do(func() {
		reg := GetRegistry()

		s3MetricsInstance = &s3Metrics{
			operationsTotal: promauto.With(reg).NewCounterVec(
				prometheus.CounterOpts{
					Name: "dittodrive_s3_operations_total",
					Help: "Total number of S3 operations by operation type and status",
				},
				[]string{"operation", "status"},
			),
			operationDuration: promauto.With(reg).NewHistogramVec(
				prometheus.HistogramOpts{
					Name: "dittodrive_s3_operation_duration_seconds",
					Help: "Duration of S3 operations in seconds",
					Buckets: []float64{
						0.01,  // 10ms
						0.025, // 25ms
						0.05,  // 50ms
						0.1,   // 100ms
						0.25,  // 250ms
						0.5,   // 500ms
						1.0,   // 1s
						2.5,   // 2.5s
						5.0,   // 5s
						10.0,  // 10s
						30.0,  // 30s
					},
				},
				[]string{"operation"},
			),
			bytesTransferred: promauto.With(reg).NewCounterVec(
				prometheus.CounterOpts{
					Name: "dittodrive_s3_bytes_transferred_total",
					Help: "Total bytes transferred in S3 operations",
				},
				[]string{"operation"}, // read or write
			),
			errorsTotal: promauto.With(reg).NewCounterVec(
				prometheus.CounterOpts{
					Name: "dittodrive_s3_errors_total",
					Help: "Total number of S3 operation errors by operation type",
				},
				[]string{"operation"},
			),
		}
	})

	return s3MetricsInstance
}

// ObserveOperation implements s3.S3Metrics.ObserveOperation
func (m *s3Metrics) ObserveOperation(operation string, duration time.Duration, err error) {
	if err != nil {
		m.errorsTotal.WithLabelValues(operation).Inc()
	}

	m.operationsTotal.WithLabelValues(operation, statusLabel(err)).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordBytes implements s3.S3Metrics.RecordBytes
func (m *s3Metrics) RecordBytes(operation string, bytes int64) {
	m.bytesTransferred.WithLabelValues(operation).Add(float64(bytes))
}
