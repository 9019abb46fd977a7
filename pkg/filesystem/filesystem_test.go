package filesystem

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	contentmemory "github.com/marmos91/dittodrive/pkg/content/memory"
	"github.com/marmos91/dittodrive/pkg/metadata"
	metadatamemory "github.com/marmos91/dittodrive/pkg/metadata/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ref(name string) metadata.Reference {
	return metadata.NewReference("drive", name)
}

type recordingMetrics struct {
	mu         sync.Mutex
	operations []string
}

func (m *recordingMetrics) RecordOperation(operation string, duration time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operations = append(m.operations, operation)
}

func newTestFileSystem(t *testing.T, metrics FileSystemMetrics) *DefaultFileSystem {
	t.Helper()

	contentStore, err := contentmemory.NewMemoryContentStore(context.Background())
	require.NoError(t, err)
	return New(metadatamemory.NewMemoryMetadataStore(), contentStore, metrics)
}

func readAll(t *testing.T, fs *DefaultFileSystem, file metadata.Reference) string {
	t.Helper()

	rc, err := fs.GetContent(context.Background(), file)
	require.NoError(t, err)
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	fs := newTestFileSystem(t, nil)

	_, err := fs.CreateFolder(ctx, ref("root"), "Root", metadata.Reference{})
	require.NoError(t, err)
	_, err = fs.CreateFolder(ctx, ref("docs"), "Docs", ref("root"))
	require.NoError(t, err)
	file, err := fs.CreateFile(ctx, ref("a.txt"), "a.txt", []metadata.Reference{ref("docs"), ref("root")}, strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), file.Size)
	assert.NotEmpty(t, file.ContentID)

	root, err := fs.GetFolder(ctx, ref("root"))
	require.NoError(t, err)
	assert.Equal(t, []metadata.Reference{ref("docs")}, root.ChildFolders)
	assert.Equal(t, []metadata.Reference{ref("a.txt")}, root.ChildFiles)

	assert.Equal(t, "hello", readAll(t, fs, ref("a.txt")))

	_, err = fs.CreateFolder(ctx, ref("docs"), "Again", ref("root"))
	assert.True(t, metadata.IsErrorCode(err, metadata.ErrAlreadyExists))

	_, err = fs.CreateFolder(ctx, ref("orphan"), "Orphan", ref("missing"))
	assert.True(t, metadata.IsNotFound(err))

	_, err = fs.CreateFile(ctx, ref("b.txt"), "b.txt", nil, strings.NewReader(""))
	assert.True(t, metadata.IsErrorCode(err, metadata.ErrInvalidArgument))

	roots, err := fs.ListRoots(ctx, "drive")
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, "Root", roots[0].Name)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	fs := newTestFileSystem(t, nil)

	_, err := fs.CreateFolder(ctx, ref("root"), "Root", metadata.Reference{})
	require.NoError(t, err)
	file, err := fs.CreateFile(ctx, ref("a.txt"), "a.txt", []metadata.Reference{ref("root")}, strings.NewReader("bytes"))
	require.NoError(t, err)

	t.Run("NonEmptyFolder", func(t *testing.T) {
		err := fs.Delete(ctx, ref("root"))
		assert.True(t, metadata.IsErrorCode(err, metadata.ErrNotEmpty))
	})

	t.Run("FileRemovesContent", func(t *testing.T) {
		require.NoError(t, fs.Delete(ctx, ref("a.txt")))

		exists, err := fs.Exists(ctx, ref("a.txt"))
		require.NoError(t, err)
		assert.False(t, exists)

		exists, err = fs.ContentStore().ContentExists(ctx, file.ContentID)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("EmptyFolder", func(t *testing.T) {
		require.NoError(t, fs.Delete(ctx, ref("root")))
		err := fs.Delete(ctx, ref("root"))
		assert.True(t, metadata.IsNotFound(err))
	})
}

func TestRename(t *testing.T) {
	ctx := context.Background()
	fs := newTestFileSystem(t, nil)

	_, err := fs.CreateFolder(ctx, ref("root"), "Root", metadata.Reference{})
	require.NoError(t, err)
	_, err = fs.CreateFolder(ctx, ref("other"), "Other", metadata.Reference{})
	require.NoError(t, err)
	_, err = fs.CreateFolder(ctx, ref("docs"), "Docs", ref("root"))
	require.NoError(t, err)

	folder, err := fs.GetFolder(ctx, ref("docs"))
	require.NoError(t, err)
	folder.Name = "Papers"
	folder.Parent = ref("other")
	require.NoError(t, fs.Rename(ctx, folder, ref("papers")))
	assert.Equal(t, ref("papers"), folder.Reference)

	renamed, err := fs.GetFolder(ctx, ref("papers"))
	require.NoError(t, err)
	assert.Equal(t, "Papers", renamed.Name)
	assert.Equal(t, ref("other"), renamed.Parent)

	root, err := fs.GetFolder(ctx, ref("root"))
	require.NoError(t, err)
	assert.Empty(t, root.ChildFolders)

	other, err := fs.GetFolder(ctx, ref("other"))
	require.NoError(t, err)
	assert.Equal(t, []metadata.Reference{ref("papers")}, other.ChildFolders)

	err = fs.Rename(ctx, renamed, ref("root"))
	assert.True(t, metadata.IsErrorCode(err, metadata.ErrAlreadyExists))
}

func TestCopy(t *testing.T) {
	ctx := context.Background()
	fs := newTestFileSystem(t, nil)

	_, err := fs.CreateFolder(ctx, ref("root"), "Root", metadata.Reference{})
	require.NoError(t, err)
	_, err = fs.CreateFolder(ctx, ref("docs"), "Docs", ref("root"))
	require.NoError(t, err)
	source, err := fs.CreateFile(ctx, ref("a.txt"), "a.txt", []metadata.Reference{ref("root"), ref("docs")}, strings.NewReader("payload"))
	require.NoError(t, err)

	t.Run("File", func(t *testing.T) {
		require.NoError(t, fs.Copy(ctx, ref("a.txt"), ref("a-copy.txt")))

		duplicate, err := fs.GetFile(ctx, ref("a-copy.txt"))
		require.NoError(t, err)
		assert.Equal(t, source.Parents, duplicate.Parents)
		assert.Equal(t, source.Name, duplicate.Name)
		assert.NotEqual(t, source.ContentID, duplicate.ContentID)
		assert.Equal(t, "payload", readAll(t, fs, ref("a-copy.txt")))

		// Deleting the copy keeps the source content
		require.NoError(t, fs.Delete(ctx, ref("a-copy.txt")))
		assert.Equal(t, "payload", readAll(t, fs, ref("a.txt")))
	})

	t.Run("FolderIsShallow", func(t *testing.T) {
		require.NoError(t, fs.Copy(ctx, ref("root"), ref("root-copy")))

		duplicate, err := fs.GetFolder(ctx, ref("root-copy"))
		require.NoError(t, err)
		assert.Equal(t, "Root", duplicate.Name)
		assert.True(t, duplicate.IsEmpty())
	})

	t.Run("TargetTaken", func(t *testing.T) {
		err := fs.Copy(ctx, ref("a.txt"), ref("docs"))
		assert.True(t, metadata.IsErrorCode(err, metadata.ErrAlreadyExists))
	})

	t.Run("MissingSource", func(t *testing.T) {
		err := fs.Copy(ctx, ref("missing"), ref("fresh"))
		assert.True(t, metadata.IsNotFound(err))
	})
}

func TestPendingContentWhileWriting(t *testing.T) {
	fs := newTestFileSystem(t, nil)
	ctx := context.Background()
	_, err := fs.CreateFolder(ctx, ref("root"), "Root", metadata.Reference{})
	require.NoError(t, err)

	reader, writer := io.Pipe()
	done := make(chan error, 1)
	go func() {
		_, err := fs.CreateFile(ctx, ref("big"), "big.bin", []metadata.Reference{ref("root")}, reader)
		done <- err
	}()

	// The content ID is pending until the record is saved
	require.Eventually(t, func() bool { return len(fs.PendingContent()) == 1 }, 2*time.Second, time.Millisecond)

	_, err = writer.Write([]byte("payload"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	require.NoError(t, <-done)

	assert.Empty(t, fs.PendingContent())
	assert.Equal(t, "payload", readAll(t, fs, ref("big")))
}

func TestAccess(t *testing.T) {
	ctx := context.Background()
	fs := newTestFileSystem(t, nil)

	_, err := fs.CreateFolder(ctx, ref("root"), "Root", metadata.Reference{})
	require.NoError(t, err)
	_, err = fs.CreateFile(ctx, ref("key.pub"), "key.pub", []metadata.Reference{ref("root")}, strings.NewReader("secret"))
	require.NoError(t, err)

	require.NoError(t, fs.SetAccess(ctx, ref("key.pub"), metadata.EveryoneKey, metadata.RightNone))
	require.NoError(t, fs.SetAccess(ctx, ref("key.pub"), "alice", metadata.RightView))

	alice := metadata.NewAuthContext(ctx, &metadata.Identity{Username: "alice"})
	bob := metadata.NewAuthContext(ctx, &metadata.Identity{Username: "bob"})
	admin := metadata.NewAuthContext(ctx, &metadata.Identity{Username: "root", Admin: true})
	anonymous := metadata.NewAuthContext(ctx, nil)

	assert.True(t, fs.CanView(alice, ref("key.pub")))
	assert.False(t, fs.CanEdit(alice, ref("key.pub")))
	assert.False(t, fs.CanView(bob, ref("key.pub")))
	assert.False(t, fs.CanView(anonymous, ref("key.pub")))
	assert.True(t, fs.CanDelete(admin, ref("key.pub")))

	// No rule grants everything
	assert.True(t, fs.CanDelete(bob, ref("root")))

	// Missing entities grant nothing
	assert.False(t, fs.CanView(admin, ref("missing")))

	require.NoError(t, fs.SetAccess(ctx, ref("key.pub"), "", metadata.RightNone))
	assert.True(t, fs.CanEdit(bob, ref("key.pub")))
}

func TestSaveRejectsUnknownEntity(t *testing.T) {
	fs := newTestFileSystem(t, nil)

	var entity metadata.Entity
	err := fs.Save(context.Background(), entity)
	assert.True(t, metadata.IsErrorCode(err, metadata.ErrInvalidArgument))
}

func TestMetricsRecorded(t *testing.T) {
	ctx := context.Background()
	metrics := &recordingMetrics{}
	fs := newTestFileSystem(t, metrics)

	_, err := fs.CreateFolder(ctx, ref("root"), "Root", metadata.Reference{})
	require.NoError(t, err)
	_, _ = fs.GetFolder(ctx, ref("root"))
	_, _ = fs.GetFile(ctx, ref("missing"))

	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	assert.Equal(t, []string{"Save", "GetFolder", "GetFile"}, metrics.operations)
}
