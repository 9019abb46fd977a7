package testing

import (
	"context"
	"testing"

	"github.com/marmos91/dittodrive/pkg/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunBasicTests executes read-side ContentStore tests.
func (suite *StoreTestSuite) RunBasicTests(t *testing.T) {
	t.Run("ReadContent_NotFound", suite.testReadContentNotFound)
	t.Run("GetContentSize_NotFound", suite.testGetContentSizeNotFound)
	t.Run("ContentExists", suite.testContentExists)
	t.Run("ReadContent_CancelledContext", suite.testReadContentCancelledContext)
}

func (suite *StoreTestSuite) testReadContentNotFound(t *testing.T) {
	store := suite.NewStore()

	_, err := store.ReadContent(testContext(), generateTestID("missing"))
	assert.ErrorIs(t, err, content.ErrContentNotFound)
}

func (suite *StoreTestSuite) testGetContentSizeNotFound(t *testing.T) {
	store := suite.NewStore()

	_, err := store.GetContentSize(testContext(), generateTestID("missing"))
	assert.ErrorIs(t, err, content.ErrContentNotFound)
}

func (suite *StoreTestSuite) testContentExists(t *testing.T) {
	store := suite.NewStore()
	id := generateTestID("exists")

	assertNotExists(t, store, id)

	mustWriteContent(t, store, id, []byte("data"))

	exists, err := store.ContentExists(testContext(), id)
	require.NoError(t, err)
	assert.True(t, exists)
}

func (suite *StoreTestSuite) testReadContentCancelledContext(t *testing.T) {
	store := suite.NewStore()

	ctx, cancel := context.WithCancel(testContext())
	cancel()

	_, err := store.ReadContent(ctx, generateTestID("cancelled"))
	assert.ErrorIs(t, err, context.Canceled)
}
