package testing

import (
	"context"
	"testing"

	"github.com/marmos91/dittodrive/pkg/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunGCTests executes content reference listing tests
func (suite *StoreTestSuite) RunGCTests(t *testing.T) {
	t.Run("ListContentIDs", suite.testListContentIDs)
}

func (suite *StoreTestSuite) testListContentIDs(t *testing.T) {
	store := suite.newStore(t)
	ctx := context.Background()

	a := mustPutFolder(t, store, "a", metadata.Reference{})
	mustPutFile(t, store, "one", "c1", a.Reference)
	mustPutFile(t, store, "two", "c2", a.Reference)
	mustPutFile(t, store, "empty", "", a.Reference)

	ids, err := store.ListContentIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []metadata.ContentID{"c1", "c2"}, ids)

	require.NoError(t, store.Delete(ctx, Ref("two")))

	ids, err = store.ListContentIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []metadata.ContentID{"c1"}, ids)
}
