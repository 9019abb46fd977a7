package testing

import (
	"bytes"
	"io"
	"testing"

	"github.com/marmos91/dittodrive/pkg/content"
	"github.com/marmos91/dittodrive/pkg/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// generateTestID returns a content ID unique to the calling test.
func generateTestID(name string) metadata.ContentID {
	return metadata.ContentID("test-" + name)
}

// mustWriteContent writes content and fails the test if it errors.
func mustWriteContent(t *testing.T, store content.ContentStore, id metadata.ContentID, data []byte) {
	t.Helper()
	n, err := store.WriteContent(testContext(), id, bytes.NewReader(data))
	require.NoError(t, err, "WriteContent should succeed")
	require.Equal(t, int64(len(data)), n, "WriteContent should report every byte")
}

// mustReadContent reads content and fails the test if it errors.
func mustReadContent(t *testing.T, store content.ContentStore, id metadata.ContentID) []byte {
	t.Helper()
	reader, err := store.ReadContent(testContext(), id)
	require.NoError(t, err, "ReadContent should succeed")
	defer func() { _ = reader.Close() }()

	data, err := io.ReadAll(reader)
	require.NoError(t, err, "Reading content should succeed")
	return data
}

// assertContentEquals verifies both the bytes and the reported size.
func assertContentEquals(t *testing.T, store content.ContentStore, id metadata.ContentID, expected []byte) {
	t.Helper()
	assert.Equal(t, expected, mustReadContent(t, store, id))

	size, err := store.GetContentSize(testContext(), id)
	require.NoError(t, err, "GetContentSize should succeed")
	assert.Equal(t, uint64(len(expected)), size)
}

// assertNotExists verifies the content is gone.
func assertNotExists(t *testing.T, store content.ContentStore, id metadata.ContentID) {
	t.Helper()
	exists, err := store.ContentExists(testContext(), id)
	require.NoError(t, err)
	assert.False(t, exists, "content %s should not exist", id)
}
