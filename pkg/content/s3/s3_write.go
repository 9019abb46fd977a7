package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/marmos91/dittodrive/pkg/content"
	"github.com/marmos91/dittodrive/pkg/metadata"
)

// WriteContent uploads the whole stream as a single object.
//
// The stream is buffered so the request carries a Content-Length and can be
// retried by the SDK.
// TODO: switch to multipart uploads for streams above 5GB (the PutObject limit).
func (s *S3ContentStore) WriteContent(ctx context.Context, id metadata.ContentID, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if id == "" {
		return 0, content.ErrInvalidContentID
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("failed to read content %s: %w", id, err)
	}

	start := time.Now()
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.getObjectKey(id)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	s.metrics.ObserveOperation("PutObject", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("failed to put object to S3: %w", err)
	}

	s.metrics.RecordBytes("write", int64(len(data)))
	return int64(len(data)), nil
}

// CopyContent duplicates src into dst with a server-side copy.
func (s *S3ContentStore) CopyContent(ctx context.Context, src, dst metadata.ContentID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dst == "" {
		return content.ErrInvalidContentID
	}

	start := time.Now()
	_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.bucket),
		Key:        aws.String(s.getObjectKey(dst)),
		CopySource: aws.String(s.bucket + "/" + url.PathEscape(s.getObjectKey(src))),
	})
	s.metrics.ObserveOperation("CopyObject", time.Since(start), err)
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("content %s: %w", src, content.ErrContentNotFound)
		}
		return fmt.Errorf("failed to copy object: %w", err)
	}
	return nil
}

// Delete removes the object for the content ID.
//
// S3 DeleteObject is idempotent: deleting a missing key succeeds.
func (s *S3ContentStore) Delete(ctx context.Context, id metadata.ContentID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.getObjectKey(id)),
	})
	s.metrics.ObserveOperation("DeleteObject", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}
