package metrics

import (
	"sync"
	"time"

	"github.com/marmos91/dittodrive/pkg/filemanager"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// jobMetrics is the Prometheus implementation of filemanager.JobMetrics.
//
// This implementation collects metrics about batch jobs including:
//   - Submissions by job type and status (accepted, rejected)
//   - Completions and run duration by job type and status
//   - Overwrite questions asked
//   - Active (pending or running) jobs
type jobMetrics struct {
	submissionsTotal *prometheus.CounterVec
	completionsTotal *prometheus.CounterVec
	jobDuration      *prometheus.HistogramVec
	questionsTotal   *prometheus.CounterVec
	activeJobs       prometheus.Gauge
}

var (
	jobMetricsOnce     sync.Once
	jobMetricsInstance *jobMetrics
)

// NewJobMetrics creates a new Prometheus-backed JobMetrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called), which
// causes the manager to use its built-in no-op implementation.
func NewJobMetrics() filemanager.JobMetrics {
	if !IsEnabled() {
		return nil
	}

	jobMetricsOnce.Do(func() {
		reg := GetRegistry()

		jobMetricsInstance = &jobMetrics{
			submissionsTotal: promauto.With(reg).NewCounterVec(
				prometheus.CounterOpts{
					Name: "dittodrive_job_submissions_total",
					Help: "Total number of job submissions by job type and status",
				},
				[]string{"job_type", "status"},
			),
			completionsTotal: promauto.With(reg).NewCounterVec(
				prometheus.CounterOpts{
					Name: "dittodrive_job_completions_total",
					Help: "Total number of finished jobs by job type and status",
				},
				[]string{"job_type", "status"},
			),
			jobDuration: promauto.With(reg).NewHistogramVec(
				prometheus.HistogramOpts{
					Name: "dittodrive_job_duration_seconds",
					Help: "Run duration of jobs in seconds, including time spent waiting for answers",
					Buckets: []float64{
						0.01,  // 10ms
						0.1,   // 100ms
						0.5,   // 500ms
						1.0,   // 1s
						5.0,   // 5s
						30.0,  // 30s
						60.0,  // 1min
						300.0, // 5min
						900.0, // 15min
						3600,  // 1h
					},
				},
				[]string{"job_type"},
			),
			questionsTotal: promauto.With(reg).NewCounterVec(
				prometheus.CounterOpts{
					Name: "dittodrive_job_questions_total",
					Help: "Total number of questions asked by jobs",
				},
				[]string{"job_type"},
			),
			activeJobs: promauto.With(reg).NewGauge(
				prometheus.GaugeOpts{
					Name: "dittodrive_jobs_active",
					Help: "Current number of pending or running jobs",
				},
			),
		}
	})

	return jobMetricsInstance
}

func (m *jobMetrics) RecordSubmission(jobType string, err error) {
	status := "accepted"
	if err != nil {
		status = "rejected"
	}
	m.submissionsTotal.WithLabelValues(jobType, status).Inc()
}

func (m *jobMetrics) RecordCompletion(jobType string, duration time.Duration, err error) {
	m.completionsTotal.WithLabelValues(jobType, statusLabel(err)).Inc()
	m.jobDuration.WithLabelValues(jobType).Observe(duration.Seconds())
}

func (m *jobMetrics) RecordQuestion(jobType string) {
	m.questionsTotal.WithLabelValues(jobType).Inc()
}

func (m *jobMetrics) SetActiveJobs(count int) {
	m.activeJobs.Set(float64(count))
}
