package testing

import (
	"bytes"
	"testing"

	"github.com/marmos91/dittodrive/pkg/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunWriteTests executes all write, copy and delete tests.
func (suite *StoreTestSuite) RunWriteTests(t *testing.T) {
	t.Run("WriteContent_Basic", suite.testWriteContentBasic)
	t.Run("WriteContent_Overwrite", suite.testWriteContentOverwrite)
	t.Run("WriteContent_Empty", suite.testWriteContentEmpty)
	t.Run("WriteContent_InvalidID", suite.testWriteContentInvalidID)
	t.Run("CopyContent_Independent", suite.testCopyContentIndependent)
	t.Run("CopyContent_NotFound", suite.testCopyContentNotFound)
	t.Run("Delete_Success", suite.testDeleteSuccess)
	t.Run("Delete_Idempotent", suite.testDeleteIdempotent)
}

// ============================================================================
// WriteContent Tests
// ============================================================================

func (suite *StoreTestSuite) testWriteContentBasic(t *testing.T) {
	store := suite.NewStore()
	id := generateTestID("write-basic")
	testData := []byte("Hello, World!")

	mustWriteContent(t, store, id, testData)

	assertContentEquals(t, store, id, testData)
}

func (suite *StoreTestSuite) testWriteContentOverwrite(t *testing.T) {
	store := suite.NewStore()
	id := generateTestID("write-overwrite")

	mustWriteContent(t, store, id, []byte("Old data that is longer"))
	mustWriteContent(t, store, id, []byte("New data"))

	assertContentEquals(t, store, id, []byte("New data"))
}

func (suite *StoreTestSuite) testWriteContentEmpty(t *testing.T) {
	store := suite.NewStore()
	id := generateTestID("write-empty")

	mustWriteContent(t, store, id, []byte{})

	assertContentEquals(t, store, id, []byte{})
}

func (suite *StoreTestSuite) testWriteContentInvalidID(t *testing.T) {
	store := suite.NewStore()

	_, err := store.WriteContent(testContext(), "", bytes.NewReader([]byte("x")))
	assert.ErrorIs(t, err, content.ErrInvalidContentID)
}

// ============================================================================
// CopyContent Tests
// ============================================================================

func (suite *StoreTestSuite) testCopyContentIndependent(t *testing.T) {
	store := suite.NewStore()
	src := generateTestID("copy-src")
	dst := generateTestID("copy-dst")

	mustWriteContent(t, store, src, []byte("original"))
	require.NoError(t, store.CopyContent(testContext(), src, dst))

	assertContentEquals(t, store, dst, []byte("original"))

	// Rewriting the source must not leak into the copy
	mustWriteContent(t, store, src, []byte("rewritten"))
	assertContentEquals(t, store, dst, []byte("original"))

	require.NoError(t, store.Delete(testContext(), src))
	assertContentEquals(t, store, dst, []byte("original"))
}

func (suite *StoreTestSuite) testCopyContentNotFound(t *testing.T) {
	store := suite.NewStore()

	err := store.CopyContent(testContext(), generateTestID("missing"), generateTestID("dst"))
	assert.ErrorIs(t, err, content.ErrContentNotFound)
}

// ============================================================================
// Delete Tests
// ============================================================================

func (suite *StoreTestSuite) testDeleteSuccess(t *testing.T) {
	store := suite.NewStore()
	id := generateTestID("delete")

	mustWriteContent(t, store, id, []byte("data"))
	require.NoError(t, store.Delete(testContext(), id))

	assertNotExists(t, store, id)
}

func (suite *StoreTestSuite) testDeleteIdempotent(t *testing.T) {
	store := suite.NewStore()
	id := generateTestID("delete-twice")

	require.NoError(t, store.Delete(testContext(), id))
	mustWriteContent(t, store, id, []byte("data"))
	require.NoError(t, store.Delete(testContext(), id))
	require.NoError(t, store.Delete(testContext(), id))
}
