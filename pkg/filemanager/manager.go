// Package filemanager runs the batch jobs of the virtual file system: move,
// copy, delete and pack.
//
// Submitting a job returns its id immediately. Jobs wait in a bounded queue
// and run on a fixed pool of workers; inside a job the tree walk is strictly
// sequential. Callers follow a job through GetJobStatus, Join and Events, and
// answer its overwrite questions with Answer.
package filemanager

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/internal/ratelimiter"
	"github.com/marmos91/dittodrive/pkg/filesystem"
	"github.com/marmos91/dittodrive/pkg/job"
	"github.com/marmos91/dittodrive/pkg/metadata"
	"github.com/marmos91/dittodrive/pkg/reference"
	"github.com/sourcegraph/conc/pool"
)

// Defaults applied by NewManager to zero Config fields.
const (
	DefaultMaxConcurrent       = 4
	DefaultQueueSize           = 100
	DefaultStatusRetention     = time.Hour
	DefaultMaxRetainedStatuses = 1000
)

// Config configures a Manager.
type Config struct {
	// MaxConcurrent is the number of jobs running at the same time.
	MaxConcurrent int

	// QueueSize bounds the jobs waiting for a worker.
	QueueSize int

	// QuestionTimeout bounds the wait for an overwrite answer; an unanswered
	// question keeps the existing file. Zero waits forever.
	QuestionTimeout time.Duration

	// StatusRetention is how long a finished job stays queryable.
	StatusRetention time.Duration

	// MaxRetainedStatuses caps the finished jobs kept queryable.
	MaxRetainedStatuses int

	// SubmissionRate is the sustained submissions per second. Zero disables
	// throttling.
	SubmissionRate float64

	// SubmissionBurst is the submissions accepted at once.
	SubmissionBurst int

	// TempDir is where the pack archives are written. Defaults to
	// os.TempDir().
	TempDir string

	// Metrics records job activity. Nil disables collection.
	Metrics JobMetrics
}

func (c *Config) applyDefaults() {
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = DefaultMaxConcurrent
	}
	if c.QueueSize <= 0 {
		c.QueueSize = DefaultQueueSize
	}
	if c.StatusRetention <= 0 {
		c.StatusRetention = DefaultStatusRetention
	}
	if c.MaxRetainedStatuses <= 0 {
		c.MaxRetainedStatuses = DefaultMaxRetainedStatuses
	}
	if c.TempDir == "" {
		c.TempDir = os.TempDir()
	}
	if c.Metrics == nil {
		c.Metrics = noopMetrics{}
	}
}

// Manager submits and tracks file manager jobs.
//
// Thread Safety:
// All methods are safe for concurrent use.
type Manager struct {
	fs        filesystem.FileSystem
	generator *reference.Generator
	config    Config
	metrics   JobMetrics
	limiter   *ratelimiter.RateLimiter

	// ctx is the parent context of every job, cancelled by Close
	ctx    context.Context
	cancel context.CancelFunc

	queue      chan *job.Job
	workers    *pool.Pool
	dispatched chan struct{}

	mu       sync.RWMutex
	closed   bool
	jobs     map[string]*job.Job
	finished *expirable.LRU[string, job.Snapshot]

	active *activeJobs
	events *job.Broadcaster
}

// NewManager creates a manager and starts its dispatcher.
//
// Parameters:
//   - fs: the file system the jobs operate on
//   - generator: resolves the references of renamed and copied entities
//   - config: zero fields take the package defaults
func NewManager(fs filesystem.FileSystem, generator *reference.Generator, config Config) *Manager {
	config.applyDefaults()

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		fs:         fs,
		generator:  generator,
		config:     config,
		metrics:    config.Metrics,
		limiter:    ratelimiter.New(config.SubmissionRate, config.SubmissionBurst),
		ctx:        ctx,
		cancel:     cancel,
		queue:      make(chan *job.Job, config.QueueSize),
		workers:    pool.New().WithMaxGoroutines(config.MaxConcurrent),
		dispatched: make(chan struct{}),
		jobs:       make(map[string]*job.Job),
		finished:   expirable.NewLRU[string, job.Snapshot](config.MaxRetainedStatuses, nil, config.StatusRetention),
		active:     &activeJobs{},
		events:     job.NewBroadcaster(),
	}

	go m.dispatch()

	logger.Debug("File manager started: workers=%d queue=%d question_timeout=%s",
		config.MaxConcurrent, config.QueueSize, config.QuestionTimeout)
	return m
}

// dispatch hands queued jobs to the worker pool until the queue is closed,
// then waits for the running jobs.
func (m *Manager) dispatch() {
	defer close(m.dispatched)

	for j := range m.queue {
		m.workers.Go(func() {
			_ = j.Run(m.ctx)
		})
	}
	m.workers.Wait()
}

// ============================================================================
// Submission
// ============================================================================

// Move moves or renames paths to destination. See runMove for the modes.
//
// Returns the job id.
func (m *Manager) Move(ctx context.Context, issuer *metadata.Identity, paths []metadata.Path, destination metadata.Path) (string, error) {
	request := &MoveRequest{
		BatchRequest: m.newBatch(TypeMove, issuer, paths, true),
		Destination:  destination,
	}
	return m.submit(ctx, request, m.runMove)
}

// Copy copies paths into destination.
//
// Returns the job id.
func (m *Manager) Copy(ctx context.Context, issuer *metadata.Identity, paths []metadata.Path, destination metadata.Path) (string, error) {
	request := &MoveRequest{
		BatchRequest: m.newBatch(TypeCopy, issuer, paths, true),
		Destination:  destination,
	}
	return m.submit(ctx, request, m.runCopy)
}

// Delete deletes paths.
//
// Returns the job id.
func (m *Manager) Delete(ctx context.Context, issuer *metadata.Identity, paths []metadata.Path) (string, error) {
	request := m.newBatch(TypeDelete, issuer, paths, false)
	return m.submit(ctx, &request, m.runDelete)
}

// Pack writes paths into a zip archive addressed by output.
//
// Returns the job id.
func (m *Manager) Pack(ctx context.Context, issuer *metadata.Identity, paths []metadata.Path, output PackOutput) (string, error) {
	if output.FileName == "" || output.Document.IsZero() {
		m.metrics.RecordSubmission(TypePack, ErrInvalidRequest)
		return "", invalidRequest("the pack output needs a document and a file name")
	}
	request := &PackRequest{
		BatchRequest: m.newBatch(TypePack, issuer, paths, false),
		Output:       output,
	}
	return m.submit(ctx, request, m.runPack)
}

func (m *Manager) newBatch(jobType string, issuer *metadata.Identity, paths []metadata.Path, interactive bool) BatchRequest {
	return BatchRequest{
		ID:          uuid.NewString(),
		Type:        jobType,
		Paths:       copyPaths(paths),
		Issuer:      issuer,
		Interactive: interactive,
	}
}

// submit registers the job as active and queues it.
func (m *Manager) submit(ctx context.Context, request Request, runner job.Runner) (id string, err error) {
	batch := request.Batch()
	defer func() { m.metrics.RecordSubmission(batch.Type, err) }()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	for _, path := range batch.Paths {
		if !path.Valid() {
			return "", invalidRequest("empty path in a %s request", batch.Type)
		}
	}
	if !m.limiter.Allow() {
		return "", ErrRateLimited
	}

	j := job.New(batch.Type, runner,
		job.WithQuestionTimeout(m.config.QuestionTimeout),
		job.WithListener(m.onEvent),
		job.WithListener(m.events.Listener()),
	)
	if err := j.Initialize(request); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return "", ErrManagerClosed
	}

	select {
	case m.queue <- j:
	default:
		return "", ErrQueueFull
	}

	m.jobs[batch.ID] = j
	m.active.add(batch.ID)
	m.metrics.SetActiveJobs(m.active.len())

	logger.Info("Submitted %s job %s for %s (%d paths)", batch.Type, batch.ID, batch.Issuer.Name(), len(batch.Paths))
	return batch.ID, nil
}

// onEvent keeps the registries in sync with the job lifecycle. It runs on
// the goroutine of the job.
func (m *Manager) onEvent(e job.Event) {
	id, ok := strings.CutPrefix(e.JobID, JobIDPrefix)
	if !ok {
		return
	}

	switch e.Type {
	case job.EventQuestion:
		m.metrics.RecordQuestion(e.JobType)

	case job.EventFinished:
		m.mu.Lock()
		j, known := m.jobs[id]
		if known {
			delete(m.jobs, id)
			m.finished.Add(id, j.Status())
		}
		m.mu.Unlock()

		m.active.remove(id)
		m.metrics.SetActiveJobs(m.active.len())
		if !known {
			return
		}

		status := j.Status()
		m.metrics.RecordCompletion(e.JobType, status.EndTime.Sub(status.StartTime), j.Err())
		if e.Error != "" {
			logger.Warn("Job %s (%s) failed: %s", id, e.JobType, e.Error)
		} else {
			logger.Info("Job %s (%s) finished", id, e.JobType)
		}
	}
}

// ============================================================================
// Tracking
// ============================================================================

// GetJobStatus returns the status of an active or recently finished job.
// The id may carry the JobIDPrefix.
//
// Returns ErrJobNotFound for unknown or expired ids.
func (m *Manager) GetJobStatus(id string) (job.Snapshot, error) {
	id = strings.TrimPrefix(id, JobIDPrefix)

	m.mu.RLock()
	j, ok := m.jobs[id]
	m.mu.RUnlock()
	if ok {
		return j.Status(), nil
	}

	if status, ok := m.finished.Get(id); ok {
		return status, nil
	}
	return job.Snapshot{}, ErrJobNotFound
}

// GetActiveJobs returns the ids of the unfinished jobs in submission order.
func (m *Manager) GetActiveJobs() []string {
	return m.active.list()
}

// GetActiveJobsForDrive returns the active jobs whose first path is in
// drive.
func (m *Manager) GetActiveJobsForDrive(drive string) []string {
	ids := m.active.list()

	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]string, 0, len(ids))
	for _, id := range ids {
		j, ok := m.jobs[id]
		if !ok {
			continue
		}
		if request, ok := j.Request().(Request); ok && request.Batch().Drive() == drive {
			result = append(result, id)
		}
	}
	return result
}

// Answer answers the pending question of a job.
//
// Returns ErrJobNotFound for unknown ids and job.ErrNoQuestion when the job
// is not waiting for an answer.
func (m *Manager) Answer(id string, answer any) error {
	id = strings.TrimPrefix(id, JobIDPrefix)

	m.mu.RLock()
	j, ok := m.jobs[id]
	m.mu.RUnlock()
	if !ok {
		return ErrJobNotFound
	}
	return j.Answer(answer)
}

// Join blocks until the job finished or ctx is done.
//
// Returns ErrJobNotFound for unknown ids.
func (m *Manager) Join(ctx context.Context, id string) error {
	id = strings.TrimPrefix(id, JobIDPrefix)

	m.mu.RLock()
	j, ok := m.jobs[id]
	m.mu.RUnlock()
	if ok {
		return j.Join(ctx)
	}

	if m.finished.Contains(id) {
		return nil
	}
	return ErrJobNotFound
}

// Events subscribes to the lifecycle events of every job. The channel is
// closed by the returned cancel function or by Close. Events are dropped
// when the buffer is full.
func (m *Manager) Events(buffer int) (<-chan job.Event, func()) {
	return m.events.Subscribe(buffer)
}

// Close stops accepting jobs and waits for the queued and running ones.
// When ctx ends first, the jobs are cancelled (pending questions give up)
// and Close still waits for them to return.
//
// Returns the ctx error if the jobs had to be cancelled.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		<-m.dispatched
		return nil
	}
	m.closed = true
	close(m.queue)
	m.mu.Unlock()

	var err error
	select {
	case <-m.dispatched:
	case <-ctx.Done():
		err = ctx.Err()
		logger.Warn("File manager close timed out, cancelling %d jobs", m.active.len())
		m.cancel()
		<-m.dispatched
	}

	m.cancel()
	m.events.Close()
	return err
}
