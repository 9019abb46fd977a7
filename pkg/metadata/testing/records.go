package testing

import (
	"context"
	"testing"

	"github.com/marmos91/dittodrive/pkg/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunRecordTests executes single record tests
func (suite *StoreTestSuite) RunRecordTests(t *testing.T) {
	t.Run("PutAndGetFolder", suite.testPutAndGetFolder)
	t.Run("PutAndGetFile", suite.testPutAndGetFile)
	t.Run("ReturnedRecordsAreCopies", suite.testReturnedRecordsAreCopies)
	t.Run("KindAndExists", suite.testKindAndExists)
	t.Run("WrongKind", suite.testWrongKind)
	t.Run("NotFound", suite.testNotFound)
	t.Run("InvalidArguments", suite.testInvalidArguments)
	t.Run("CancelledContext", suite.testCancelledContext)
}

func (suite *StoreTestSuite) testPutAndGetFolder(t *testing.T) {
	store := suite.newStore(t)
	ctx := context.Background()

	root := &metadata.Folder{
		Reference: Ref("root"),
		Name:      "Root",
		Access:    metadata.Access{"alice": metadata.RightView},
	}
	require.NoError(t, store.PutFolder(ctx, root))

	got, err := store.GetFolder(ctx, Ref("root"))
	require.NoError(t, err)
	assert.Equal(t, "Root", got.Name)
	assert.True(t, got.IsRoot())
	assert.True(t, got.IsEmpty())
	assert.Equal(t, metadata.RightView, got.Access["alice"])
}

func (suite *StoreTestSuite) testPutAndGetFile(t *testing.T) {
	store := suite.newStore(t)
	ctx := context.Background()

	mustPutFolder(t, store, "a", metadata.Reference{})
	mustPutFolder(t, store, "b", metadata.Reference{})

	file := &metadata.File{
		Reference: Ref("doc"),
		Name:      "doc.txt",
		Parents:   []metadata.Reference{Ref("a"), Ref("b")},
		ContentID: "c1",
		Size:      42,
	}
	require.NoError(t, store.PutFile(ctx, file))

	got, err := store.GetFile(ctx, Ref("doc"))
	require.NoError(t, err)
	assert.Equal(t, "doc.txt", got.Name)
	assert.ElementsMatch(t, []metadata.Reference{Ref("a"), Ref("b")}, got.Parents)
	assert.Equal(t, metadata.ContentID("c1"), got.ContentID)
	assert.Equal(t, int64(42), got.Size)
}

func (suite *StoreTestSuite) testReturnedRecordsAreCopies(t *testing.T) {
	store := suite.newStore(t)
	ctx := context.Background()

	mustPutFolder(t, store, "a", metadata.Reference{})
	mustPutFile(t, store, "doc", "", Ref("a"))

	file, err := store.GetFile(ctx, Ref("doc"))
	require.NoError(t, err)
	file.Name = "changed"
	file.Parents = append(file.Parents, Ref("other"))

	again, err := store.GetFile(ctx, Ref("doc"))
	require.NoError(t, err)
	assert.Equal(t, "doc", again.Name)
	assert.Equal(t, []metadata.Reference{Ref("a")}, again.Parents)
}

func (suite *StoreTestSuite) testKindAndExists(t *testing.T) {
	store := suite.newStore(t)
	ctx := context.Background()

	mustPutFolder(t, store, "a", metadata.Reference{})
	mustPutFile(t, store, "doc", "", Ref("a"))

	kind, err := store.Kind(ctx, Ref("a"))
	require.NoError(t, err)
	assert.Equal(t, metadata.KindFolder, kind)

	kind, err = store.Kind(ctx, Ref("doc"))
	require.NoError(t, err)
	assert.Equal(t, metadata.KindFile, kind)

	exists, err := store.Exists(ctx, Ref("doc"))
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.Exists(ctx, Ref("missing"))
	require.NoError(t, err)
	assert.False(t, exists)
}

func (suite *StoreTestSuite) testWrongKind(t *testing.T) {
	store := suite.newStore(t)
	ctx := context.Background()

	mustPutFolder(t, store, "a", metadata.Reference{})
	mustPutFile(t, store, "doc", "", Ref("a"))

	_, err := store.GetFolder(ctx, Ref("doc"))
	assert.True(t, metadata.IsErrorCode(err, metadata.ErrNotFolder))

	_, err = store.GetFile(ctx, Ref("a"))
	assert.True(t, metadata.IsErrorCode(err, metadata.ErrIsFolder))

	err = store.PutFolder(ctx, &metadata.Folder{Reference: Ref("doc"), Name: "doc"})
	assert.True(t, metadata.IsErrorCode(err, metadata.ErrNotFolder))

	err = store.PutFile(ctx, &metadata.File{Reference: Ref("a"), Name: "a", Parents: []metadata.Reference{Ref("a")}})
	assert.True(t, metadata.IsErrorCode(err, metadata.ErrIsFolder))

	err = store.PutFolder(ctx, &metadata.Folder{Reference: Ref("sub"), Name: "sub", Parent: Ref("doc")})
	assert.True(t, metadata.IsErrorCode(err, metadata.ErrNotFolder))
}

func (suite *StoreTestSuite) testNotFound(t *testing.T) {
	store := suite.newStore(t)
	ctx := context.Background()

	_, err := store.GetFolder(ctx, Ref("missing"))
	assert.True(t, metadata.IsNotFound(err))

	_, err = store.GetFile(ctx, Ref("missing"))
	assert.True(t, metadata.IsNotFound(err))

	_, err = store.Kind(ctx, Ref("missing"))
	assert.True(t, metadata.IsNotFound(err))

	assert.True(t, metadata.IsNotFound(store.Delete(ctx, Ref("missing"))))
}

func (suite *StoreTestSuite) testInvalidArguments(t *testing.T) {
	store := suite.newStore(t)
	ctx := context.Background()

	err := store.PutFolder(ctx, &metadata.Folder{Name: "no ref"})
	assert.True(t, metadata.IsErrorCode(err, metadata.ErrInvalidArgument))

	err = store.PutFolder(ctx, &metadata.Folder{Reference: Ref("self"), Parent: Ref("self")})
	assert.True(t, metadata.IsErrorCode(err, metadata.ErrInvalidArgument))

	err = store.PutFile(ctx, &metadata.File{Reference: Ref("orphan"), Name: "orphan"})
	assert.True(t, metadata.IsErrorCode(err, metadata.ErrInvalidArgument))

	// Parent links never cross drives
	other := metadata.NewReference("other", "root")
	err = store.PutFolder(ctx, &metadata.Folder{Reference: Ref("child"), Name: "child", Parent: other})
	assert.True(t, metadata.IsErrorCode(err, metadata.ErrInvalidArgument))

	err = store.PutFile(ctx, &metadata.File{Reference: Ref("doc"), Name: "doc", Parents: []metadata.Reference{other}})
	assert.True(t, metadata.IsErrorCode(err, metadata.ErrInvalidArgument))
}

func (suite *StoreTestSuite) testCancelledContext(t *testing.T) {
	store := suite.newStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.GetFolder(ctx, Ref("a"))
	assert.ErrorIs(t, err, context.Canceled)

	err = store.PutFolder(ctx, &metadata.Folder{Reference: Ref("a"), Name: "a"})
	assert.ErrorIs(t, err, context.Canceled)
}
