package fs

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/marmos91/dittodrive/pkg/content"
	"github.com/marmos91/dittodrive/pkg/metadata"
)

// tempPrefix marks in-flight writes. Files carrying it are never reported by
// ListAllContent.
const tempPrefix = ".tmp-"

// FSContentStore implements ContentStore using the local filesystem.
//
// Each content item is one regular file directly under basePath. The file
// name is the hex encoding of the ContentID, which keeps arbitrary IDs
// (slashes, dots) from escaping basePath.
//
// Write Strategy:
// WriteContent streams into a temporary file in basePath and renames it over
// the final name once the stream is complete, so readers never observe a
// partially written item.
//
// Thread Safety:
// Safe for concurrent use. Concurrent writes to the same ID are resolved by
// the last rename.
type FSContentStore struct {
	basePath string
}

// NewFSContentStore creates a filesystem content store rooted at basePath.
//
// The directory is created if it doesn't exist.
//
// Parameters:
//   - ctx: Context for cancellation
//   - basePath: Directory holding the content files
//
// Returns:
//   - *FSContentStore: Initialized store
//   - error: Returns error if the directory cannot be created
func NewFSContentStore(ctx context.Context, basePath string) (*FSContentStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &FSContentStore{basePath: basePath}, nil
}

// getFilePath maps a ContentID to its file path.
func (r *FSContentStore) getFilePath(id metadata.ContentID) (string, error) {
	if id == "" {
		return "", content.ErrInvalidContentID
	}
	return filepath.Join(r.basePath, hex.EncodeToString([]byte(id))), nil
}

// ReadContent opens the content file for reading.
func (r *FSContentStore) ReadContent(ctx context.Context, id metadata.ContentID) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filePath, err := r.getFilePath(id)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
		}
		return nil, fmt.Errorf("failed to open content: %w", err)
	}

	return file, nil
}

// WriteContent streams r into the content file for id.
//
// Context Cancellation:
// Checked before starting. A cancellation during the copy surfaces as a
// read error from r if r honours the context.
func (r *FSContentStore) WriteContent(ctx context.Context, id metadata.ContentID, src io.Reader) (int64, error) {
	// ========================================================================
	// Step 1: Validate
	// ========================================================================

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	filePath, err := r.getFilePath(id)
	if err != nil {
		return 0, err
	}

	// ========================================================================
	// Step 2: Stream into a temporary file
	// ========================================================================

	tmp, err := os.CreateTemp(r.basePath, tempPrefix+"*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary content file: %w", err)
	}
	tmpPath := tmp.Name()

	written, copyErr := io.Copy(tmp, src)
	closeErr := tmp.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("failed to write content %s: %w", id, err)
	}

	// ========================================================================
	// Step 3: Publish atomically
	// ========================================================================

	if err := os.Rename(tmpPath, filePath); err != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("failed to publish content %s: %w", id, err)
	}

	return written, nil
}

// GetContentSize returns the size of the content file.
func (r *FSContentStore) GetContentSize(ctx context.Context, id metadata.ContentID) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	filePath, err := r.getFilePath(id)
	if err != nil {
		return 0, err
	}

	info, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
		}
		return 0, fmt.Errorf("failed to stat content: %w", err)
	}

	return uint64(info.Size()), nil
}

// ContentExists checks if the content file exists.
func (r *FSContentStore) ContentExists(ctx context.Context, id metadata.ContentID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	filePath, err := r.getFilePath(id)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(filePath)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check content existence: %w", err)
}

// CopyContent streams src into dst through WriteContent.
func (r *FSContentStore) CopyContent(ctx context.Context, src, dst metadata.ContentID) error {
	reader, err := r.ReadContent(ctx, src)
	if err != nil {
		return err
	}
	defer func() { _ = reader.Close() }()

	if _, err := r.WriteContent(ctx, dst, reader); err != nil {
		return err
	}
	return nil
}

// Delete removes the content file. Deleting missing content is not an error.
func (r *FSContentStore) Delete(ctx context.Context, id metadata.ContentID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	filePath, err := r.getFilePath(id)
	if err != nil {
		return err
	}

	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete content %s: %w", id, err)
	}
	return nil
}

// GetStorageStats sums the size of every content file.
func (r *FSContentStore) GetStorageStats(ctx context.Context) (*content.StorageStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(r.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read content directory: %w", err)
	}

	var used, count uint64
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), tempPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Removed concurrently
			continue
		}
		used += uint64(info.Size())
		count++
	}

	return content.NewStorageStats(used, count), nil
}

// Close is a no-op: the store keeps no open handles.
func (r *FSContentStore) Close() error {
	return nil
}
