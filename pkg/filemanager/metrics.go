package filemanager

import "time"

// JobMetrics records file manager activity.
//
// Implementations must be safe for concurrent use. A nil JobMetrics in
// Config disables collection.
type JobMetrics interface {
	// RecordSubmission records an accepted (err == nil) or rejected submission.
	RecordSubmission(jobType string, err error)

	// RecordCompletion records a finished job and how long it ran.
	RecordCompletion(jobType string, duration time.Duration, err error)

	// RecordQuestion records an overwrite question being asked.
	RecordQuestion(jobType string)

	// SetActiveJobs reports the size of the active-job registry.
	SetActiveJobs(count int)
}

type noopMetrics struct{}

func (noopMetrics) RecordSubmission(jobType string, err error)                         {}
func (noopMetrics) RecordCompletion(jobType string, duration time.Duration, err error) {}
func (noopMetrics) RecordQuestion(jobType string)                                      {}
func (noopMetrics) SetActiveJobs(count int)                                            {}
