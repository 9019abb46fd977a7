package testing

import (
	"context"
	"testing"

	"github.com/marmos91/dittodrive/pkg/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunHierarchyTests executes child computation and root listing tests
func (suite *StoreTestSuite) RunHierarchyTests(t *testing.T) {
	t.Run("ChildrenAreComputedAndSorted", suite.testChildrenAreComputedAndSorted)
	t.Run("ReparentFolder", suite.testReparentFolder)
	t.Run("FileWithSeveralParents", suite.testFileWithSeveralParents)
	t.Run("DeleteUnlinksFromParents", suite.testDeleteUnlinksFromParents)
	t.Run("ListRoots", suite.testListRoots)
	t.Run("DrivesAreIsolated", suite.testDrivesAreIsolated)
}

func (suite *StoreTestSuite) testChildrenAreComputedAndSorted(t *testing.T) {
	store := suite.newStore(t)
	ctx := context.Background()

	root := mustPutFolder(t, store, "root", metadata.Reference{})
	mustPutFolder(t, store, "zeta", root.Reference)
	mustPutFolder(t, store, "alpha", root.Reference)
	mustPutFile(t, store, "b.txt", "", root.Reference)
	mustPutFile(t, store, "a.txt", "", root.Reference)

	got, err := store.GetFolder(ctx, root.Reference)
	require.NoError(t, err)
	assert.Equal(t, []metadata.Reference{Ref("alpha"), Ref("zeta")}, got.ChildFolders)
	assert.Equal(t, []metadata.Reference{Ref("a.txt"), Ref("b.txt")}, got.ChildFiles)
	assert.False(t, got.IsEmpty())
}

func (suite *StoreTestSuite) testReparentFolder(t *testing.T) {
	store := suite.newStore(t)
	ctx := context.Background()

	a := mustPutFolder(t, store, "a", metadata.Reference{})
	b := mustPutFolder(t, store, "b", metadata.Reference{})
	child := mustPutFolder(t, store, "child", a.Reference)

	child.Parent = b.Reference
	require.NoError(t, store.PutFolder(ctx, child))

	gotA, err := store.GetFolder(ctx, a.Reference)
	require.NoError(t, err)
	assert.Empty(t, gotA.ChildFolders)

	gotB, err := store.GetFolder(ctx, b.Reference)
	require.NoError(t, err)
	assert.Equal(t, []metadata.Reference{child.Reference}, gotB.ChildFolders)
}

func (suite *StoreTestSuite) testFileWithSeveralParents(t *testing.T) {
	store := suite.newStore(t)
	ctx := context.Background()

	a := mustPutFolder(t, store, "a", metadata.Reference{})
	b := mustPutFolder(t, store, "b", metadata.Reference{})
	c := mustPutFolder(t, store, "c", metadata.Reference{})
	file := mustPutFile(t, store, "doc", "", a.Reference, b.Reference)

	file.ReplaceParent(a.Reference, c.Reference)
	require.NoError(t, store.PutFile(ctx, file))

	for ref, want := range map[metadata.Reference]int{a.Reference: 0, b.Reference: 1, c.Reference: 1} {
		folder, err := store.GetFolder(ctx, ref)
		require.NoError(t, err)
		assert.Len(t, folder.ChildFiles, want, "children of %s", ref)
	}
}

func (suite *StoreTestSuite) testDeleteUnlinksFromParents(t *testing.T) {
	store := suite.newStore(t)
	ctx := context.Background()

	a := mustPutFolder(t, store, "a", metadata.Reference{})
	sub := mustPutFolder(t, store, "sub", a.Reference)
	file := mustPutFile(t, store, "doc", "", a.Reference)

	require.NoError(t, store.Delete(ctx, sub.Reference))
	require.NoError(t, store.Delete(ctx, file.Reference))

	got, err := store.GetFolder(ctx, a.Reference)
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())

	exists, err := store.Exists(ctx, file.Reference)
	require.NoError(t, err)
	assert.False(t, exists)
}

func (suite *StoreTestSuite) testListRoots(t *testing.T) {
	store := suite.newStore(t)
	ctx := context.Background()

	mustPutFolder(t, store, "second", metadata.Reference{})
	first := mustPutFolder(t, store, "first", metadata.Reference{})
	mustPutFolder(t, store, "nested", first.Reference)

	roots, err := store.ListRoots(ctx, TestDrive)
	require.NoError(t, err)
	assert.Equal(t, []metadata.Reference{Ref("first"), Ref("second")}, roots)
}

func (suite *StoreTestSuite) testDrivesAreIsolated(t *testing.T) {
	store := suite.newStore(t)
	ctx := context.Background()

	mustPutFolder(t, store, "root", metadata.Reference{})
	other := metadata.NewReference("other", "root")
	require.NoError(t, store.PutFolder(ctx, &metadata.Folder{Reference: other, Name: "root"}))
	require.NoError(t, store.PutFile(ctx, &metadata.File{
		Reference: metadata.NewReference("other", "doc"),
		Name:      "doc",
		Parents:   []metadata.Reference{other},
	}))

	got, err := store.GetFolder(ctx, Ref("root"))
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())

	roots, err := store.ListRoots(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, []metadata.Reference{other}, roots)
}
