package fs

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/metadata"
)

// ListAllContent returns all content IDs stored in the base directory.
//
// File names that are not valid hex (foreign files dropped into the
// directory) are skipped with a warning.
//
// Returns:
//   - []metadata.ContentID: List of all content IDs
//   - error: Returns error for context cancellation or filesystem failures
func (r *FSContentStore) ListAllContent(ctx context.Context) ([]metadata.ContentID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(r.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read content directory: %w", err)
	}

	contentIDs := make([]metadata.ContentID, 0, len(entries))

	for i, entry := range entries {
		// Check context periodically (every 100 entries)
		if i%100 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		if entry.IsDir() || strings.HasPrefix(entry.Name(), tempPrefix) {
			continue
		}

		decoded, err := hex.DecodeString(entry.Name())
		if err != nil {
			logger.Warn("Skipping foreign file %q in content directory", entry.Name())
			continue
		}
		contentIDs = append(contentIDs, metadata.ContentID(decoded))
	}

	return contentIDs, nil
}

// DeleteBatch removes multiple content items in one operation.
//
// For filesystem storage, this performs deletions sequentially. The operation
// is best-effort - partial failures are allowed and returned in the map.
//
// Returns:
//   - map[metadata.ContentID]error: Map of failed deletions (empty = all succeeded)
//   - error: Only returns error for context cancellation
func (r *FSContentStore) DeleteBatch(ctx context.Context, ids []metadata.ContentID) (map[metadata.ContentID]error, error) {
	failures := make(map[metadata.ContentID]error)

	for i, id := range ids {
		// Check context periodically (every 10 deletions)
		if i%10 == 0 {
			if err := ctx.Err(); err != nil {
				for j := i; j < len(ids); j++ {
					failures[ids[j]] = err
				}
				return failures, err
			}
		}

		if err := r.Delete(ctx, id); err != nil {
			failures[id] = err
		}
	}

	return failures, nil
}
