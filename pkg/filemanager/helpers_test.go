package filemanager

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	contentmemory "github.com/marmos91/dittodrive/pkg/content/memory"
	"github.com/marmos91/dittodrive/pkg/filesystem"
	"github.com/marmos91/dittodrive/pkg/job"
	"github.com/marmos91/dittodrive/pkg/metadata"
	metadatamemory "github.com/marmos91/dittodrive/pkg/metadata/memory"
	"github.com/marmos91/dittodrive/pkg/reference"
	"github.com/stretchr/testify/require"
)

const testDrive = "drive"

var (
	alice = &metadata.Identity{Username: "alice"}
	bob   = &metadata.Identity{Username: "bob"}
)

func ref(name string) metadata.Reference {
	return metadata.NewReference(testDrive, name)
}

func folderPath(name string) metadata.Path {
	return metadata.NewFolderPath(ref(name))
}

func filePath(folder, file string) metadata.Path {
	return metadata.NewFilePath(ref(folder), ref(file))
}

// fixture is a manager over in-memory stores.
type fixture struct {
	t        *testing.T
	ctx      context.Context
	fs       *filesystem.DefaultFileSystem
	contents *contentmemory.MemoryContentStore
	counter  *countingFileSystem
	manager  *Manager
}

func newFixture(t *testing.T, config Config) *fixture {
	t.Helper()

	ctx := context.Background()
	contentStore, err := contentmemory.NewMemoryContentStore(ctx)
	require.NoError(t, err)

	fs := filesystem.New(metadatamemory.NewMemoryMetadataStore(), contentStore, nil)
	counter := &countingFileSystem{FileSystem: fs}
	generator := reference.NewGenerator(fs, reference.GeneratorConfig{})

	if config.TempDir == "" {
		config.TempDir = t.TempDir()
	}
	manager := NewManager(counter, generator, config)

	t.Cleanup(func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, manager.Close(closeCtx))
	})

	return &fixture{t: t, ctx: ctx, fs: fs, contents: contentStore, counter: counter, manager: manager}
}

func (f *fixture) folder(name, displayName, parent string) {
	f.t.Helper()
	var parentRef metadata.Reference
	if parent != "" {
		parentRef = ref(parent)
	}
	_, err := f.fs.CreateFolder(f.ctx, ref(name), displayName, parentRef)
	require.NoError(f.t, err)
}

func (f *fixture) file(name, displayName, content string, parents ...string) {
	f.t.Helper()
	refs := make([]metadata.Reference, 0, len(parents))
	for _, parent := range parents {
		refs = append(refs, ref(parent))
	}
	_, err := f.fs.CreateFile(f.ctx, ref(name), displayName, refs, strings.NewReader(content))
	require.NoError(f.t, err)
}

func (f *fixture) deny(name, username string, rights metadata.Rights) {
	f.t.Helper()
	require.NoError(f.t, f.fs.SetAccess(f.ctx, ref(name), username, rights))
}

func (f *fixture) getFolder(name string) *metadata.Folder {
	f.t.Helper()
	folder, err := f.fs.GetFolder(f.ctx, ref(name))
	require.NoError(f.t, err)
	return folder
}

func (f *fixture) getFile(name string) *metadata.File {
	f.t.Helper()
	file, err := f.fs.GetFile(f.ctx, ref(name))
	require.NoError(f.t, err)
	return file
}

func (f *fixture) exists(name string) bool {
	f.t.Helper()
	exists, err := f.fs.Exists(f.ctx, ref(name))
	require.NoError(f.t, err)
	return exists
}

// join waits for the job and returns its final status.
func (f *fixture) join(id string, err error) job.Snapshot {
	f.t.Helper()
	require.NoError(f.t, err)

	ctx, cancel := context.WithTimeout(f.ctx, 5*time.Second)
	defer cancel()
	require.NoError(f.t, f.manager.Join(ctx, id))

	status, err := f.manager.GetJobStatus(id)
	require.NoError(f.t, err)
	require.Equal(f.t, job.StateFinished, status.State)
	return status
}

// waitForQuestion waits until the job asks whether to overwrite
// destination and returns the question.
func (f *fixture) waitForQuestion(id string, destination metadata.Reference) OverwriteQuestion {
	f.t.Helper()

	var question OverwriteQuestion
	require.Eventually(f.t, func() bool {
		status, err := f.manager.GetJobStatus(id)
		if err != nil || status.State != job.StateWaiting {
			return false
		}
		q, ok := status.Question.(OverwriteQuestion)
		if !ok || q.Destination != destination {
			return false
		}
		question = q
		return true
	}, 5*time.Second, time.Millisecond)

	return question
}

// logContains reports whether a job log line contains text.
func logContains(status job.Snapshot, text string) bool {
	for _, entry := range status.Log {
		if strings.Contains(entry.Message, text) {
			return true
		}
	}
	return false
}

// questionsAsked drains the buffered events and counts the questions.
func questionsAsked(events <-chan job.Event) int {
	questions := 0
	for {
		select {
		case e := <-events:
			if e.Type == job.EventQuestion {
				questions++
			}
		default:
			return questions
		}
	}
}

// countingFileSystem counts the mutating calls made by the jobs.
type countingFileSystem struct {
	filesystem.FileSystem

	mu      sync.Mutex
	saves   []metadata.Reference
	deletes []metadata.Reference
}

func (c *countingFileSystem) Save(ctx context.Context, entity metadata.Entity) error {
	c.mu.Lock()
	c.saves = append(c.saves, entity.GetReference())
	c.mu.Unlock()
	return c.FileSystem.Save(ctx, entity)
}

func (c *countingFileSystem) Delete(ctx context.Context, ref metadata.Reference) error {
	c.mu.Lock()
	c.deletes = append(c.deletes, ref)
	c.mu.Unlock()
	return c.FileSystem.Delete(ctx, ref)
}

func (c *countingFileSystem) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saves, c.deletes = nil, nil
}

func (c *countingFileSystem) calls() (saves, deletes []metadata.Reference) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]metadata.Reference(nil), c.saves...), append([]metadata.Reference(nil), c.deletes...)
}
