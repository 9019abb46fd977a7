// Package job provides the lifecycle shared by every long running batch
// operation: a state machine, a nested progress stack, a job log, a blocking
// question/answer rendezvous and completion joins.
//
// A Job wraps a Runner. The runner does the actual work and reports through
// the Job it receives:
//
//	j := job.New("delete", func(ctx context.Context, j *job.Job) error {
//		j.PushLevel(len(paths))
//		defer j.PopLevel()
//		for _, p := range paths {
//			deletePath(ctx, p)
//			j.Step()
//		}
//		return nil
//	})
//	j.Initialize(request)
//	go j.Run(ctx)
//	j.Join(ctx)
package job

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/sourcegraph/conc/panics"
)

// Request is what a job is initialized with.
type Request interface {
	// JobID returns the id the job runs under.
	JobID() string
}

// Runner performs the work of a job.
type Runner func(ctx context.Context, j *Job) error

// Option configures a Job.
type Option func(*Job)

// WithQuestionTimeout bounds how long Ask waits for an answer. Zero waits
// until the context is cancelled.
func WithQuestionTimeout(d time.Duration) Option {
	return func(j *Job) {
		j.questionTimeout = d
	}
}

// WithListener registers a listener receiving every lifecycle event.
func WithListener(l Listener) Option {
	return func(j *Job) {
		j.listeners = append(j.listeners, l)
	}
}

// Snapshot is a consistent copy of a job's status.
type Snapshot struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	State      State          `json:"state"`
	Progress   Progress       `json:"progress"`
	Log        []LogEntry     `json:"log,omitempty"`
	Question   any            `json:"question,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
	StartTime  time.Time      `json:"start_time,omitzero"`
	EndTime    time.Time      `json:"end_time,omitzero"`
	Error      string         `json:"error,omitempty"`
}

// Job is one execution of a Runner.
//
// Thread Safety:
// Status, Answer and Join may be called from any goroutine while Run
// executes. The progress, log and attribute methods are meant for the
// runner's goroutine but are safe anywhere.
type Job struct {
	jobType string
	runner  Runner

	questionTimeout time.Duration
	listeners       []Listener

	mu         sync.RWMutex
	id         string
	request    Request
	state      State
	progress   progressStack
	log        []LogEntry
	question   any
	answered   bool
	attributes map[string]any
	startTime  time.Time
	endTime    time.Time
	err        error

	// answers is the rendezvous between Answer and a waiting Ask. Its
	// capacity of one lets Answer hand over without blocking.
	answers chan any
	done    chan struct{}
}

// New creates a job in state NONE.
func New(jobType string, runner Runner, opts ...Option) *Job {
	j := &Job{
		jobType:    jobType,
		runner:     runner,
		attributes: make(map[string]any),
		answers:    make(chan any, 1),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// ID returns the id assigned by Initialize.
func (j *Job) ID() string {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.id
}

// Type returns the job type.
func (j *Job) Type() string {
	return j.jobType
}

// Request returns the request the job was initialized with.
func (j *Job) Request() Request {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.request
}

// State returns the current state.
func (j *Job) State() State {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.state
}

// Initialize binds the request and moves the job to INITIALIZED.
func (j *Job) Initialize(request Request) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.state != StateNone {
		return fmt.Errorf("%w: cannot initialize a %s job", ErrInvalidState, j.state)
	}

	j.request = request
	j.id = request.JobID()
	j.state = StateInitialized
	return nil
}

// Run executes the runner and blocks until it returns. A panic in the
// runner is recovered and reported as the run error.
//
// Returns the run error, or ErrInvalidState if the job is not INITIALIZED.
func (j *Job) Run(ctx context.Context) error {
	j.mu.Lock()
	if j.state != StateInitialized {
		state := j.state
		j.mu.Unlock()
		return fmt.Errorf("%w: cannot run a %s job", ErrInvalidState, state)
	}
	j.state = StateRunning
	j.startTime = time.Now()
	j.mu.Unlock()

	j.emit(Event{Type: EventStarted})

	var runErr error
	if recovered := panics.Try(func() { runErr = j.runner(ctx, j) }); recovered != nil {
		runErr = recovered.AsError()
		logger.Error("Job %s (%s) panicked: %v", j.ID(), j.jobType, recovered.Value)
	}

	j.mu.Lock()
	j.state = StateFinished
	j.endTime = time.Now()
	j.err = runErr
	j.question = nil
	j.progress.finish()
	j.mu.Unlock()

	event := Event{Type: EventFinished}
	if runErr != nil {
		event.Error = runErr.Error()
	}
	j.emit(event)

	// Listeners have seen FINISHED by the time Join returns
	close(j.done)

	return runErr
}

// Status returns a snapshot of the job status.
func (j *Job) Status() Snapshot {
	j.mu.RLock()
	defer j.mu.RUnlock()

	snapshot := Snapshot{
		ID:         j.id,
		Type:       j.jobType,
		State:      j.state,
		Progress:   j.progress.snapshot(),
		Log:        slices.Clone(j.log),
		Question:   j.question,
		Attributes: maps.Clone(j.attributes),
		StartTime:  j.startTime,
		EndTime:    j.endTime,
	}
	if j.err != nil {
		snapshot.Error = j.err.Error()
	}
	return snapshot
}

// Err returns the run error once the job is FINISHED.
func (j *Job) Err() error {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.err
}

// Done is closed when the job reaches FINISHED.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Join blocks until the job is FINISHED or ctx is done.
func (j *Job) Join(ctx context.Context) error {
	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// JoinTimeout blocks until the job is FINISHED or d elapsed. Returns true if
// the job finished.
func (j *Job) JoinTimeout(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-j.done:
		return true
	case <-timer.C:
		return false
	}
}

// ============================================================================
// Questions
// ============================================================================

// Ask publishes question, moves the job to WAITING and blocks until Answer
// is called, the question timeout elapses or ctx is done.
//
// Returns:
//   - any: the answer given to Answer
//   - error: ErrQuestionTimeout, the context error, or ErrInvalidState if
//     the job is not RUNNING
func (j *Job) Ask(ctx context.Context, question any) (any, error) {
	j.mu.Lock()
	if j.state != StateRunning {
		state := j.state
		j.mu.Unlock()
		return nil, fmt.Errorf("%w: cannot ask from a %s job", ErrInvalidState, state)
	}
	// A value left over from a previous question is never an answer to this one
	select {
	case <-j.answers:
	default:
	}
	j.state = StateWaiting
	j.question = question
	j.answered = false
	j.mu.Unlock()

	j.emit(Event{Type: EventQuestion})

	var timeout <-chan time.Time
	if j.questionTimeout > 0 {
		timer := time.NewTimer(j.questionTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	var (
		answer any
		err    error
	)
	select {
	case answer = <-j.answers:
	case <-timeout:
		err = ErrQuestionTimeout
	case <-ctx.Done():
		err = ctx.Err()
	}

	j.mu.Lock()
	if err != nil {
		// An answer may have been handed over right before giving up
		select {
		case answer = <-j.answers:
			err = nil
		default:
		}
	}
	j.state = StateRunning
	j.question = nil
	j.answered = false
	j.mu.Unlock()

	if err != nil {
		return nil, err
	}

	j.emit(Event{Type: EventAnswered})
	return answer, nil
}

// Answer hands answer to the pending question.
//
// Each question takes exactly one answer: a second call made before Ask
// resumes is rejected instead of being kept for the next question.
//
// Returns ErrNoQuestion if the job is not WAITING or the question was
// already answered.
func (j *Job) Answer(answer any) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.state != StateWaiting || j.answered {
		return ErrNoQuestion
	}

	select {
	case j.answers <- answer:
		j.answered = true
		return nil
	default:
		return ErrNoQuestion
	}
}

// ============================================================================
// Progress, log and attributes
// ============================================================================

// PushLevel starts a sub-phase of total steps within the current step.
func (j *Job) PushLevel(total int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.progress.push(total)
}

// Step marks one unit of the current sub-phase as done.
func (j *Job) Step() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.progress.step()
}

// PopLevel closes the current sub-phase.
func (j *Job) PopLevel() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.progress.pop()
}

// Log returns the job logger.
func (j *Job) Log() Logger {
	return Logger{job: j}
}

// SetAttribute sets a job specific status field.
func (j *Job) SetAttribute(key string, value any) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.attributes[key] = value
}

// Attribute returns a job specific status field.
func (j *Job) Attribute(key string) (any, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	value, ok := j.attributes[key]
	return value, ok
}

func (j *Job) emit(e Event) {
	e.JobID = j.ID()
	e.JobType = j.jobType
	e.Time = time.Now()

	for _, listener := range j.listeners {
		listener(e)
	}
}
