package testing

import (
	"context"
	"testing"

	"github.com/marmos91/dittodrive/pkg/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunRenameTests executes reference rename tests
func (suite *StoreTestSuite) RunRenameTests(t *testing.T) {
	t.Run("RenameFile", suite.testRenameFile)
	t.Run("RenameFolderKeepsChildrenUntilRelinked", suite.testRenameFolderKeepsChildrenUntilRelinked)
	t.Run("ErrorTargetTaken", suite.testRenameErrorTargetTaken)
	t.Run("ErrorCrossDrive", suite.testRenameErrorCrossDrive)
	t.Run("ErrorNotFound", suite.testRenameErrorNotFound)
}

func (suite *StoreTestSuite) testRenameFile(t *testing.T) {
	store := suite.newStore(t)
	ctx := context.Background()

	a := mustPutFolder(t, store, "a", metadata.Reference{})
	mustPutFile(t, store, "old", "c1", a.Reference)

	require.NoError(t, store.Rename(ctx, Ref("old"), Ref("new")))

	_, err := store.GetFile(ctx, Ref("old"))
	assert.True(t, metadata.IsNotFound(err))

	file, err := store.GetFile(ctx, Ref("new"))
	require.NoError(t, err)
	assert.Equal(t, Ref("new"), file.Reference)
	assert.Equal(t, metadata.ContentID("c1"), file.ContentID)

	folder, err := store.GetFolder(ctx, a.Reference)
	require.NoError(t, err)
	assert.Equal(t, []metadata.Reference{Ref("new")}, folder.ChildFiles)
}

func (suite *StoreTestSuite) testRenameFolderKeepsChildrenUntilRelinked(t *testing.T) {
	store := suite.newStore(t)
	ctx := context.Background()

	root := mustPutFolder(t, store, "root", metadata.Reference{})
	mustPutFolder(t, store, "old", root.Reference)
	child := mustPutFolder(t, store, "child", Ref("old"))

	require.NoError(t, store.Rename(ctx, Ref("old"), Ref("new")))

	renamed, err := store.GetFolder(ctx, Ref("new"))
	require.NoError(t, err)
	assert.Equal(t, root.Reference, renamed.Parent)
	assert.Empty(t, renamed.ChildFolders)

	child.Parent = Ref("new")
	require.NoError(t, store.PutFolder(ctx, child))

	renamed, err = store.GetFolder(ctx, Ref("new"))
	require.NoError(t, err)
	assert.Equal(t, []metadata.Reference{child.Reference}, renamed.ChildFolders)

	parent, err := store.GetFolder(ctx, root.Reference)
	require.NoError(t, err)
	assert.Equal(t, []metadata.Reference{Ref("new")}, parent.ChildFolders)
}

func (suite *StoreTestSuite) testRenameErrorTargetTaken(t *testing.T) {
	store := suite.newStore(t)

	mustPutFolder(t, store, "a", metadata.Reference{})
	mustPutFolder(t, store, "b", metadata.Reference{})

	err := store.Rename(context.Background(), Ref("a"), Ref("b"))
	assert.True(t, metadata.IsErrorCode(err, metadata.ErrAlreadyExists))
}

func (suite *StoreTestSuite) testRenameErrorCrossDrive(t *testing.T) {
	store := suite.newStore(t)

	mustPutFolder(t, store, "a", metadata.Reference{})

	err := store.Rename(context.Background(), Ref("a"), metadata.NewReference("other", "a"))
	assert.True(t, metadata.IsErrorCode(err, metadata.ErrInvalidArgument))
}

func (suite *StoreTestSuite) testRenameErrorNotFound(t *testing.T) {
	store := suite.newStore(t)

	err := store.Rename(context.Background(), Ref("missing"), Ref("new"))
	assert.True(t, metadata.IsNotFound(err))
}
