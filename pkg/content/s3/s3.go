// Package s3 implements S3-based content storage.
package s3

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/marmos91/dittodrive/pkg/metadata"
)

// S3API is the subset of the S3 client used by the content store.
//
// *s3.Client satisfies it. Tests substitute an in-memory implementation.
type S3API interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)

	s3.ListObjectsV2APIClient
}

// S3ContentStore implements ContentStore using Amazon S3 or S3-compatible storage.
//
// Key Design:
//   - Each ContentID maps to one object: keyPrefix + ContentID
//   - ContentIDs are opaque (UUIDs in practice), the bucket layout does not
//     mirror the folder hierarchy since files can have several parents
//
// S3 Characteristics:
//   - Object storage: writes replace the whole object
//   - Copies are server-side (CopyObject), no bytes go through the process
//   - No local caching (every read hits S3)
//   - Supports custom endpoint for S3-compatible storage (MinIO, Cubbit DS3, etc.)
//
// Thread Safety:
// This implementation is safe for concurrent use by multiple goroutines.
// Concurrent writes to the same ContentID result in last-write-wins.
type S3ContentStore struct {
	client    S3API
	bucket    string
	keyPrefix string
	metrics   S3Metrics
}

// S3ContentStoreConfig contains configuration for S3 content store.
type S3ContentStoreConfig struct {
	// Client is the configured S3 client
	Client S3API

	// Bucket is the S3 bucket name
	Bucket string

	// KeyPrefix is an optional prefix for all object keys
	// Example: "dittodrive/content/" results in keys like "dittodrive/content/abc123"
	KeyPrefix string

	// Metrics receives operation observations (nil disables collection)
	Metrics S3Metrics
}

// NewS3ContentStore creates a new S3-based content store.
//
// The bucket must already exist - this function does not create it.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - cfg: S3 configuration
//
// Returns:
//   - *S3ContentStore: Initialized S3 content store
//   - error: Returns error if bucket access fails or context is cancelled
func NewS3ContentStore(ctx context.Context, cfg S3ContentStoreConfig) (*S3ContentStore, error) {
	// ========================================================================
	// Step 1: Check context before S3 operations
	// ========================================================================

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// ========================================================================
	// Step 2: Validate configuration
	// ========================================================================

	if cfg.Client == nil {
		return nil, fmt.Errorf("S3 client is required")
	}

	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}

	// ========================================================================
	// Step 3: Verify bucket access
	// ========================================================================

	_, err := cfg.Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to access bucket %q: %w", cfg.Bucket, err)
	}

	return &S3ContentStore{
		client:    cfg.Client,
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
		metrics:   metrics,
	}, nil
}

// getObjectKey returns the full S3 object key for a given content ID.
func (s *S3ContentStore) getObjectKey(id metadata.ContentID) string {
	return s.keyPrefix + string(id)
}

// contentIDFromKey strips keyPrefix from an object key.
func (s *S3ContentStore) contentIDFromKey(key string) metadata.ContentID {
	return metadata.ContentID(strings.TrimPrefix(key, s.keyPrefix))
}

// Close is a no-op: the S3 client holds no per-store resources.
func (s *S3ContentStore) Close() error {
	return nil
}

// isNotFound reports whether err is an S3 missing-object error. GetObject
// reports NoSuchKey, HeadObject reports a bare NotFound.
func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noSuchKey) || errors.As(err, &notFound)
}
