package filesystem

import "time"

// FileSystemMetrics provides observability for file system operations.
//
// This is optional - if not provided, metrics collection is skipped.
// pkg/metrics provides the Prometheus implementation.
type FileSystemMetrics interface {
	// RecordOperation records a completed operation with its name, duration
	// and outcome.
	RecordOperation(operation string, duration time.Duration, err error)
}

// noopMetrics is a default no-op metrics implementation
type noopMetrics struct{}

func (noopMetrics) RecordOperation(operation string, duration time.Duration, err error) {}
