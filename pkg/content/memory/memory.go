package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/marmos91/dittodrive/pkg/content"
	"github.com/marmos91/dittodrive/pkg/metadata"
)

// MemoryContentStore implements ContentStore using in-memory storage.
//
// This implementation stores all content in memory using a map. It's designed for:
//   - Testing and development
//   - Ephemeral drives
//
// Characteristics:
//   - Fast: All operations are memory-speed
//   - Volatile: Data lost on restart
//   - Memory-bound: Limited by available RAM
//
// Thread Safety:
// All operations are protected by a sync.RWMutex. Stored slices are never
// modified in place: WriteContent always installs a fresh slice, so readers
// can share it without copying.
type MemoryContentStore struct {
	// data stores the actual file content keyed by ContentID
	data map[metadata.ContentID][]byte

	// mu protects concurrent access to data map
	mu sync.RWMutex
}

// NewMemoryContentStore creates a new in-memory content store.
//
// Parameters:
//   - ctx: Context for cancellation (checked before initialization)
//
// Returns:
//   - *MemoryContentStore: Initialized store
//   - error: Only returns error if context is cancelled
func NewMemoryContentStore(ctx context.Context) (*MemoryContentStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &MemoryContentStore{
		data: make(map[metadata.ContentID][]byte),
	}, nil
}

// ReadContent returns a reader for the content identified by the given ID.
//
// Context Cancellation:
// Only checked before acquiring the lock. Once the reader is returned,
// it's independent of the context.
func (s *MemoryContentStore) ReadContent(ctx context.Context, id metadata.ContentID) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, exists := s.data[id]
	if !exists {
		return nil, fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

// WriteContent reads r to the end and stores the bytes under id.
func (s *MemoryContentStore) WriteContent(ctx context.Context, id metadata.ContentID, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if id == "" {
		return 0, content.ErrInvalidContentID
	}

	// Buffer outside the lock: r may be slow
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("failed to read content %s: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[id] = data
	return int64(len(data)), nil
}

// GetContentSize returns the size of the content in bytes.
func (s *MemoryContentStore) GetContentSize(ctx context.Context, id metadata.ContentID) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, exists := s.data[id]
	if !exists {
		return 0, fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
	}
	return uint64(len(data)), nil
}

// ContentExists checks if content with the given ID exists.
func (s *MemoryContentStore) ContentExists(ctx context.Context, id metadata.ContentID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.data[id]
	return exists, nil
}

// CopyContent makes dst share the bytes of src. Both entries stay
// independent because stored slices are never mutated.
func (s *MemoryContentStore) CopyContent(ctx context.Context, src, dst metadata.ContentID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dst == "" {
		return content.ErrInvalidContentID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, exists := s.data[src]
	if !exists {
		return fmt.Errorf("content %s: %w", src, content.ErrContentNotFound)
	}
	s.data[dst] = data
	return nil
}

// Delete removes the content. Deleting missing content is not an error.
func (s *MemoryContentStore) Delete(ctx context.Context, id metadata.ContentID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, id)
	return nil
}

// ListAllContent returns every stored content ID in sorted order.
func (s *MemoryContentStore) ListAllContent(ctx context.Context) ([]metadata.ContentID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]metadata.ContentID, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// DeleteBatch removes several content IDs under a single lock.
func (s *MemoryContentStore) DeleteBatch(ctx context.Context, ids []metadata.ContentID) (map[metadata.ContentID]error, error) {
	failures := make(map[metadata.ContentID]error)
	if err := ctx.Err(); err != nil {
		for _, id := range ids {
			failures[id] = err
		}
		return failures, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		delete(s.data, id)
	}
	return failures, nil
}

// GetStorageStats returns statistics about the stored content.
func (s *MemoryContentStore) GetStorageStats(ctx context.Context) (*content.StorageStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var used uint64
	for _, data := range s.data {
		used += uint64(len(data))
	}
	return content.NewStorageStats(used, uint64(len(s.data))), nil
}

// Close is a no-op for the memory store.
func (s *MemoryContentStore) Close() error {
	return nil
}
