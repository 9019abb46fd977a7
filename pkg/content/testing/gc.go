package testing

import (
	"testing"

	"github.com/marmos91/dittodrive/pkg/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunGCTests executes listing, batch deletion and statistics tests.
func (suite *StoreTestSuite) RunGCTests(t *testing.T) {
	t.Run("ListAllContent", suite.testListAllContent)
	t.Run("DeleteBatch", suite.testDeleteBatch)
	t.Run("GetStorageStats", suite.testGetStorageStats)
}

func (suite *StoreTestSuite) testListAllContent(t *testing.T) {
	store := suite.NewStore()

	ids, err := store.ListAllContent(testContext())
	require.NoError(t, err)
	assert.Empty(t, ids)

	mustWriteContent(t, store, generateTestID("a"), []byte("a"))
	mustWriteContent(t, store, generateTestID("b"), []byte("b"))

	ids, err = store.ListAllContent(testContext())
	require.NoError(t, err)
	assert.ElementsMatch(t, []metadata.ContentID{generateTestID("a"), generateTestID("b")}, ids)
}

func (suite *StoreTestSuite) testDeleteBatch(t *testing.T) {
	store := suite.NewStore()

	keep := generateTestID("keep")
	drop := []metadata.ContentID{generateTestID("drop-1"), generateTestID("drop-2")}

	mustWriteContent(t, store, keep, []byte("keep"))
	for _, id := range drop {
		mustWriteContent(t, store, id, []byte("drop"))
	}

	// Missing IDs are not failures
	failures, err := store.DeleteBatch(testContext(), append(drop, generateTestID("never-written")))
	require.NoError(t, err)
	assert.Empty(t, failures)

	ids, err := store.ListAllContent(testContext())
	require.NoError(t, err)
	assert.Equal(t, []metadata.ContentID{keep}, ids)
}

func (suite *StoreTestSuite) testGetStorageStats(t *testing.T) {
	store := suite.NewStore()

	mustWriteContent(t, store, generateTestID("one"), []byte("1234"))
	mustWriteContent(t, store, generateTestID("two"), []byte("12345678"))

	stats, err := store.GetStorageStats(testContext())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), stats.ContentCount)
	assert.Equal(t, uint64(12), stats.UsedSize)
	assert.Equal(t, uint64(6), stats.AverageSize)
}
