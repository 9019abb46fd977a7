package s3

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/marmos91/dittodrive/pkg/content"
	"github.com/marmos91/dittodrive/pkg/metadata"
)

// maxBatchSize is the DeleteObjects per-request limit.
const maxBatchSize = 1000

// ListAllContent returns all content IDs under the key prefix.
//
// Uses ListObjectsV2 pagination, checking the context between pages.
func (s *S3ContentStore) ListAllContent(ctx context.Context) ([]metadata.ContentID, error) {
	var contentIDs []metadata.ContentID

	err := s.walkObjects(ctx, func(obj types.Object) {
		if obj.Key == nil {
			return
		}
		contentIDs = append(contentIDs, s.contentIDFromKey(*obj.Key))
	})
	if err != nil {
		return nil, err
	}
	return contentIDs, nil
}

// DeleteBatch removes multiple objects using DeleteObjects, up to 1000 keys
// per request.
//
// Returns:
//   - map[metadata.ContentID]error: Per-object failures reported by S3
//   - error: Only returns error for context cancellation
func (s *S3ContentStore) DeleteBatch(ctx context.Context, ids []metadata.ContentID) (map[metadata.ContentID]error, error) {
	failures := make(map[metadata.ContentID]error)

	for i := 0; i < len(ids); i += maxBatchSize {
		if err := ctx.Err(); err != nil {
			for j := i; j < len(ids); j++ {
				failures[ids[j]] = err
			}
			return failures, err
		}

		batch := ids[i:min(i+maxBatchSize, len(ids))]

		objects := make([]types.ObjectIdentifier, len(batch))
		for j, id := range batch {
			objects[j] = types.ObjectIdentifier{Key: aws.String(s.getObjectKey(id))}
		}

		start := time.Now()
		result, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{
				Objects: objects,
				Quiet:   aws.Bool(true),
			},
		})
		s.metrics.ObserveOperation("DeleteObjects", time.Since(start), err)
		if err != nil {
			for _, id := range batch {
				failures[id] = err
			}
			continue
		}

		for _, deleteErr := range result.Errors {
			if deleteErr.Key == nil {
				continue
			}

			errMsg := "unknown error"
			if deleteErr.Code != nil && deleteErr.Message != nil {
				errMsg = fmt.Sprintf("%s: %s", *deleteErr.Code, *deleteErr.Message)
			}
			failures[s.contentIDFromKey(*deleteErr.Key)] = errors.New(errMsg)
		}
	}

	return failures, nil
}

// GetStorageStats sums object sizes under the key prefix.
func (s *S3ContentStore) GetStorageStats(ctx context.Context) (*content.StorageStats, error) {
	var used, count uint64

	err := s.walkObjects(ctx, func(obj types.Object) {
		if obj.Size != nil {
			used += uint64(*obj.Size)
		}
		count++
	})
	if err != nil {
		return nil, err
	}
	return content.NewStorageStats(used, count), nil
}

// walkObjects calls fn for every object under the key prefix.
func (s *S3ContentStore) walkObjects(ctx context.Context, fn func(types.Object)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.keyPrefix),
	})

	for paginator.HasMorePages() {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		page, err := paginator.NextPage(ctx)
		s.metrics.ObserveOperation("ListObjectsV2", time.Since(start), err)
		if err != nil {
			return fmt.Errorf("failed to list objects: %w", err)
		}

		for _, obj := range page.Contents {
			fn(obj)
		}
	}
	return nil
}
