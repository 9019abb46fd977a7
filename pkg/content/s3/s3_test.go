package s3

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/marmos91/dittodrive/pkg/content"
	contenttesting "github.com/marmos91/dittodrive/pkg/content/testing"
	"github.com/marmos91/dittodrive/pkg/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBucket = "dittodrive-test-bucket"

// TestS3ContentStore runs the complete ContentStore test suite against an
// in-memory S3 API.
func TestS3ContentStore(t *testing.T) {
	suite := &contenttesting.StoreTestSuite{
		NewStore: func() content.ContentStore {
			store, err := NewS3ContentStore(context.Background(), S3ContentStoreConfig{
				Client:    newFakeS3Client(testBucket),
				Bucket:    testBucket,
				KeyPrefix: "content/",
			})
			if err != nil {
				t.Fatalf("Failed to create S3 store: %v", err)
			}
			return store
		},
	}

	suite.Run(t)
}

func TestNewS3ContentStore_Validation(t *testing.T) {
	ctx := context.Background()

	_, err := NewS3ContentStore(ctx, S3ContentStoreConfig{Bucket: testBucket})
	assert.Error(t, err)

	_, err = NewS3ContentStore(ctx, S3ContentStoreConfig{Client: newFakeS3Client(testBucket)})
	assert.Error(t, err)

	_, err = NewS3ContentStore(ctx, S3ContentStoreConfig{Client: newFakeS3Client(testBucket), Bucket: "other"})
	assert.ErrorContains(t, err, `failed to access bucket "other"`)
}

func TestS3ContentStore_KeyPrefix(t *testing.T) {
	ctx := context.Background()
	client := newFakeS3Client(testBucket)
	client.objects["unrelated"] = []byte("x")

	store, err := NewS3ContentStore(ctx, S3ContentStoreConfig{Client: client, Bucket: testBucket, KeyPrefix: "drive/"})
	require.NoError(t, err)

	_, err = store.WriteContent(ctx, "abc", bytes.NewReader([]byte("data")))
	require.NoError(t, err)
	assert.Contains(t, client.objects, "drive/abc")

	ids, err := store.ListAllContent(ctx)
	require.NoError(t, err)
	assert.Equal(t, []metadata.ContentID{"abc"}, ids)
}

func TestS3ContentStore_DeleteBatchReportsFailures(t *testing.T) {
	ctx := context.Background()
	client := newFakeS3Client(testBucket)

	store, err := NewS3ContentStore(ctx, S3ContentStoreConfig{Client: client, Bucket: testBucket})
	require.NoError(t, err)

	for _, id := range []metadata.ContentID{"a", "b"} {
		_, err := store.WriteContent(ctx, id, bytes.NewReader([]byte(id)))
		require.NoError(t, err)
	}
	client.failDeleteKeys["b"] = true

	failures, err := store.DeleteBatch(ctx, []metadata.ContentID{"a", "b"})
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.ErrorContains(t, failures["b"], "AccessDenied")
}

type recordingMetrics struct {
	operations []string
	bytes      map[string]int64
}

func (m *recordingMetrics) ObserveOperation(operation string, _ time.Duration, _ error) {
	m.operations = append(m.operations, operation)
}

func (m *recordingMetrics) RecordBytes(operation string, n int64) {
	m.bytes[operation] += n
}

func TestS3ContentStore_Metrics(t *testing.T) {
	ctx := context.Background()
	metrics := &recordingMetrics{bytes: make(map[string]int64)}

	store, err := NewS3ContentStore(ctx, S3ContentStoreConfig{
		Client:  newFakeS3Client(testBucket),
		Bucket:  testBucket,
		Metrics: metrics,
	})
	require.NoError(t, err)

	_, err = store.WriteContent(ctx, "id", bytes.NewReader([]byte("12345")))
	require.NoError(t, err)

	reader, err := store.ReadContent(ctx, "id")
	require.NoError(t, err)
	buf := new(bytes.Buffer)
	_, err = buf.ReadFrom(reader)
	require.NoError(t, err)
	require.NoError(t, reader.Close())

	assert.Equal(t, []string{"PutObject", "GetObject"}, metrics.operations)
	assert.Equal(t, int64(5), metrics.bytes["write"])
	assert.Equal(t, int64(5), metrics.bytes["read"])
}
