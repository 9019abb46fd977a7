package content

import (
	"context"
	"io"

	"github.com/marmos91/dittodrive/pkg/metadata"
)

// ContentStore manages the binary content of files.
//
// Content is addressed by metadata.ContentID and is opaque to the store: it
// knows nothing about folders, names or parents. The file system layer keeps
// File.ContentID in sync with the store and decides when content is copied
// or deleted.
//
// Content Lifecycle:
//  1. WriteContent stores a complete stream under a new ContentID
//  2. ReadContent streams it back (packing, downloads)
//  3. CopyContent duplicates it when a file is copied
//  4. Delete removes it when its file is deleted
//  5. ListAllContent/DeleteBatch let garbage collection reclaim content
//     whose metadata is gone (crash between metadata and content updates)
//
// Thread Safety:
// Implementations must be safe for concurrent use by multiple goroutines.
// Concurrent writes to the same ContentID are last-write-wins.
type ContentStore interface {
	// ReadContent returns a reader for the content identified by the given ID.
	//
	// The caller must close the returned ReadCloser.
	//
	// Returns:
	//   - io.ReadCloser: Reader for the content
	//   - error: ErrContentNotFound if the content does not exist
	ReadContent(ctx context.Context, id metadata.ContentID) (io.ReadCloser, error)

	// WriteContent stores the whole stream under id, replacing any previous
	// content.
	//
	// Returns:
	//   - int64: Number of bytes written
	//   - error: Storage failures or context cancellation
	WriteContent(ctx context.Context, id metadata.ContentID, r io.Reader) (int64, error)

	// GetContentSize returns the size of the content in bytes.
	//
	// Returns ErrContentNotFound if the content does not exist.
	GetContentSize(ctx context.Context, id metadata.ContentID) (uint64, error)

	// ContentExists checks if content with the given ID exists.
	ContentExists(ctx context.Context, id metadata.ContentID) (bool, error)

	// CopyContent duplicates the content of src under dst, replacing dst.
	//
	// Returns ErrContentNotFound if src does not exist.
	CopyContent(ctx context.Context, src, dst metadata.ContentID) error

	// Delete removes the content.
	//
	// The operation is idempotent: deleting non-existent content returns nil.
	Delete(ctx context.Context, id metadata.ContentID) error

	// ListAllContent returns every content ID held by the store.
	//
	// For large stores this may be expensive; it is meant for periodic
	// garbage collection, not for the request path.
	ListAllContent(ctx context.Context) ([]metadata.ContentID, error)

	// DeleteBatch removes several content IDs at once.
	//
	// Returns:
	//   - map[ContentID]error: Per-ID failures (missing IDs are not failures)
	//   - error: Only for failures that abort the whole batch (context)
	DeleteBatch(ctx context.Context, ids []metadata.ContentID) (failures map[metadata.ContentID]error, err error)

	// GetStorageStats returns storage statistics.
	GetStorageStats(ctx context.Context) (*StorageStats, error)

	// Close releases resources held by the store.
	Close() error
}

// StorageStats contains statistics about content storage.
type StorageStats struct {
	// UsedSize is the number of bytes used by content
	UsedSize uint64

	// ContentCount is the number of content items stored
	ContentCount uint64

	// AverageSize is UsedSize / ContentCount (0 when empty)
	AverageSize uint64
}

// NewStorageStats computes the derived fields of StorageStats.
func NewStorageStats(used, count uint64) *StorageStats {
	stats := &StorageStats{UsedSize: used, ContentCount: count}
	if count > 0 {
		stats.AverageSize = used / count
	}
	return stats
}
