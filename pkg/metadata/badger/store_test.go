package badger

import (
	"context"
	"testing"

	"github.com/marmos91/dittodrive/pkg/metadata"
	metadatatesting "github.com/marmos91/dittodrive/pkg/metadata/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBadgerMetadataStore runs the complete Store test suite against an
// in-memory BadgerDB instance.
func TestBadgerMetadataStore(t *testing.T) {
	suite := &metadatatesting.StoreTestSuite{
		NewStore: func() metadata.Store {
			store, err := NewBadgerMetadataStore(context.Background(), BadgerMetadataStoreConfig{InMemory: true})
			if err != nil {
				t.Fatalf("failed to create badger store: %v", err)
			}
			return store
		},
	}

	suite.Run(t)
}

// TestBadgerMetadataStore_Persistence verifies records and child links
// survive a close and reopen of the database directory.
func TestBadgerMetadataStore_Persistence(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := NewBadgerMetadataStoreWithDefaults(ctx, dir)
	require.NoError(t, err)

	root := metadata.NewReference("d", "root")
	require.NoError(t, store.PutFolder(ctx, &metadata.Folder{Reference: root, Name: "root"}))
	require.NoError(t, store.PutFile(ctx, &metadata.File{
		Reference: metadata.NewReference("d", "doc"),
		Name:      "doc",
		Parents:   []metadata.Reference{root},
		ContentID: "c1",
	}))
	require.NoError(t, store.Close())

	reopened, err := NewBadgerMetadataStoreWithDefaults(ctx, dir)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	folder, err := reopened.GetFolder(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, []metadata.Reference{metadata.NewReference("d", "doc")}, folder.ChildFiles)
}

func TestParseChildKey(t *testing.T) {
	parent := metadata.NewReference("d", "parent")

	child, kind, ok := parseChildKey(parent, keyChild(parent, parent.WithName("a:b"), metadata.KindFolder))
	require.True(t, ok)
	assert.Equal(t, metadata.KindFolder, kind)
	assert.Equal(t, parent.WithName("a:b"), child)

	_, _, ok = parseChildKey(parent, keyChildPrefix(parent))
	assert.False(t, ok)
}
