package filemanager

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/marmos91/dittodrive/pkg/job"
	"github.com/marmos91/dittodrive/pkg/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingJobMetrics struct {
	mu          sync.Mutex
	submissions map[string]int
	rejected    int
	completions int
	questions   int
	active      int
}

func newRecordingJobMetrics() *recordingJobMetrics {
	return &recordingJobMetrics{submissions: make(map[string]int)}
}

func (m *recordingJobMetrics) RecordSubmission(jobType string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.rejected++
		return
	}
	m.submissions[jobType]++
}

func (m *recordingJobMetrics) RecordCompletion(jobType string, duration time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completions++
}

func (m *recordingJobMetrics) RecordQuestion(jobType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.questions++
}

func (m *recordingJobMetrics) SetActiveJobs(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = count
}

// blockingMove submits a move stuck on an overwrite question.
func blockingMove(t *testing.T, f *fixture) string {
	t.Helper()
	id, err := f.manager.Move(f.ctx, alice, []metadata.Path{filePath("src", "src-a")}, folderPath("dst"))
	require.NoError(t, err)
	f.waitForQuestion(id, ref("dst-a"))
	return id
}

func TestActiveJobs(t *testing.T) {
	metrics := newRecordingJobMetrics()
	f := collisionFixture(t, Config{Metrics: metrics})

	id := blockingMove(t, f)

	assert.Equal(t, []string{id}, f.manager.GetActiveJobs())
	assert.Equal(t, []string{id}, f.manager.GetActiveJobsForDrive(testDrive))
	assert.Empty(t, f.manager.GetActiveJobsForDrive("other"))

	status, err := f.manager.GetJobStatus(JobIDPrefix + id)
	require.NoError(t, err)
	assert.Equal(t, job.StateWaiting, status.State)
	assert.Equal(t, JobIDPrefix+id, status.ID)
	assert.Equal(t, TypeMove, status.Type)

	require.NoError(t, f.manager.Answer(id, OverwriteAnswer{Overwrite: false, AskAgain: true}))
	f.join(id, nil)

	assert.Empty(t, f.manager.GetActiveJobs())

	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	assert.Equal(t, 1, metrics.submissions[TypeMove])
	assert.Equal(t, 1, metrics.completions)
	assert.Equal(t, 1, metrics.questions)
	assert.Equal(t, 0, metrics.active)
}

func TestFinishedStatusRetained(t *testing.T) {
	f := newFixture(t, Config{MaxRetainedStatuses: 2})

	var ids []string
	for range 3 {
		id, err := f.manager.Delete(f.ctx, alice, nil)
		f.join(id, err)
		ids = append(ids, id)
	}

	_, err := f.manager.GetJobStatus(ids[0])
	assert.ErrorIs(t, err, ErrJobNotFound)
	assert.ErrorIs(t, f.manager.Join(f.ctx, ids[0]), ErrJobNotFound)

	for _, id := range ids[1:] {
		status, err := f.manager.GetJobStatus(id)
		require.NoError(t, err)
		assert.Equal(t, job.StateFinished, status.State)
		assert.NoError(t, f.manager.Join(f.ctx, id))
	}
}

func TestUnknownJob(t *testing.T) {
	f := newFixture(t, Config{})

	_, err := f.manager.GetJobStatus("missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
	assert.ErrorIs(t, f.manager.Answer("missing", DefaultOverwriteAnswer()), ErrJobNotFound)
	assert.ErrorIs(t, f.manager.Join(f.ctx, "missing"), ErrJobNotFound)
}

func TestAnswerWithoutQuestion(t *testing.T) {
	f := newFixture(t, Config{})
	id, err := f.manager.Delete(f.ctx, alice, nil)
	f.join(id, err)

	assert.ErrorIs(t, f.manager.Answer(id, DefaultOverwriteAnswer()), ErrJobNotFound)
}

func TestPathsCopiedOnSubmission(t *testing.T) {
	f := collisionFixture(t, Config{})

	paths := []metadata.Path{filePath("src", "src-a")}
	id, err := f.manager.Move(f.ctx, alice, paths, folderPath("dst"))
	require.NoError(t, err)
	paths[0] = filePath("src", "src-b")

	assert.Equal(t, ref("src-a"), f.waitForQuestion(id, ref("dst-a")).Source)
	require.NoError(t, f.manager.Answer(id, OverwriteAnswer{Overwrite: false, AskAgain: true}))
	f.join(id, nil)
}

func TestSubmissionRejectsEmptyPath(t *testing.T) {
	metrics := newRecordingJobMetrics()
	f := newFixture(t, Config{Metrics: metrics})

	_, err := f.manager.Delete(f.ctx, alice, []metadata.Path{{}})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Empty(t, f.manager.GetActiveJobs())

	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	assert.Equal(t, 1, metrics.rejected)
}

func TestQueueFull(t *testing.T) {
	f := collisionFixture(t, Config{MaxConcurrent: 1, QueueSize: 1})
	blocked := blockingMove(t, f)

	// The single worker is busy: at most one job waits in the dispatcher
	// and one in the queue
	var err error
	accepted := 0
	for range 5 {
		if _, err = f.manager.Delete(f.ctx, alice, nil); err != nil {
			break
		}
		accepted++
	}
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.LessOrEqual(t, accepted, 2)

	require.NoError(t, f.manager.Answer(blocked, OverwriteAnswer{Overwrite: false, AskAgain: true}))
}

func TestRateLimited(t *testing.T) {
	f := newFixture(t, Config{SubmissionRate: 0.001, SubmissionBurst: 1})

	id, err := f.manager.Delete(f.ctx, alice, nil)
	f.join(id, err)

	_, err = f.manager.Delete(f.ctx, alice, nil)
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestSubmitAfterClose(t *testing.T) {
	f := newFixture(t, Config{})
	require.NoError(t, f.manager.Close(context.Background()))

	_, err := f.manager.Delete(f.ctx, alice, nil)
	assert.ErrorIs(t, err, ErrManagerClosed)
}

func TestSubmitWithCancelledContext(t *testing.T) {
	f := newFixture(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.manager.Delete(ctx, alice, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCloseCancelsWaitingJobs(t *testing.T) {
	f := collisionFixture(t, Config{})
	id := blockingMove(t, f)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, f.manager.Close(ctx), context.DeadlineExceeded)

	status, err := f.manager.GetJobStatus(id)
	require.NoError(t, err)
	assert.Equal(t, job.StateFinished, status.State)
	assert.True(t, f.exists("dst-a"))
	assert.Empty(t, f.manager.GetActiveJobs())
}

func TestEventsClosedOnClose(t *testing.T) {
	f := newFixture(t, Config{})
	events, cancel := f.manager.Events(16)
	defer cancel()

	id, err := f.manager.Delete(f.ctx, alice, nil)
	f.join(id, err)
	require.NoError(t, f.manager.Close(context.Background()))

	var types []job.EventType
	for e := range events {
		assert.Equal(t, JobIDPrefix+id, e.JobID)
		types = append(types, e.Type)
	}
	assert.Equal(t, []job.EventType{job.EventStarted, job.EventFinished}, types)
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		name     string
		elements []string
		want     metadata.Path
		err      bool
	}{
		{name: "folder", elements: []string{"docs"}, want: folderPath("docs")},
		{name: "folder with empty child", elements: []string{"docs", ""}, want: folderPath("docs")},
		{name: "file", elements: []string{"docs", "a.txt"}, want: filePath("docs", "a.txt")},
		{name: "file without parent", elements: []string{"", "a.txt"}, want: metadata.NewFilePath(metadata.Reference{}, ref("a.txt"))},
		{name: "empty", elements: []string{"", ""}, err: true},
		{name: "no elements", elements: nil, err: true},
		{name: "too many", elements: []string{"a", "b", "c"}, err: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := ParsePath(testDrive, tt.elements)
			if tt.err {
				assert.True(t, errors.Is(err, ErrInvalidRequest))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, path)
		})
	}
}

func TestActiveJobsRegistry(t *testing.T) {
	var active activeJobs
	active.add("a")
	active.add("b")
	active.add("a")
	active.remove("unknown")

	ids := active.list()
	assert.Equal(t, []string{"a", "b"}, ids)

	ids[0] = "changed"
	assert.Equal(t, []string{"a", "b"}, active.list())

	active.remove("a")
	assert.Equal(t, []string{"b"}, active.list())
	assert.Equal(t, 1, active.len())
}
