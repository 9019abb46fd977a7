package fs

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/marmos91/dittodrive/pkg/content"
	contenttesting "github.com/marmos91/dittodrive/pkg/content/testing"
	"github.com/marmos91/dittodrive/pkg/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFSContentStore runs the complete ContentStore test suite against a
// store rooted in a fresh temporary directory per test.
func TestFSContentStore(t *testing.T) {
	suite := &contenttesting.StoreTestSuite{
		NewStore: func() content.ContentStore {
			store, err := NewFSContentStore(context.Background(), t.TempDir())
			if err != nil {
				t.Fatalf("Failed to create fs store: %v", err)
			}
			return store
		},
	}

	suite.Run(t)
}

func TestFSContentStore_IDsCannotEscapeBasePath(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()

	store, err := NewFSContentStore(ctx, base)
	require.NoError(t, err)

	id := metadata.ContentID("../../etc/passwd")
	_, err = store.WriteContent(ctx, id, bytes.NewReader([]byte("x")))
	require.NoError(t, err)

	entries, err := os.ReadDir(base)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	ids, err := store.ListAllContent(ctx)
	require.NoError(t, err)
	assert.Equal(t, []metadata.ContentID{id}, ids)
}

func TestFSContentStore_ListSkipsForeignFiles(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()

	store, err := NewFSContentStore(ctx, base)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(base, "not-hex"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(base, tempPrefix+"123"), []byte("x"), 0644))

	ids, err := store.ListAllContent(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
