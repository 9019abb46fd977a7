package filesystem

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/content"
	"github.com/marmos91/dittodrive/pkg/metadata"
)

// DefaultFileSystem implements FileSystem over a metadata store and a
// content store.
//
// Content Coordination:
// Every file owns its content: copying a file copies the bytes under a new
// ContentID, deleting a file deletes them. Metadata is always written before
// content is removed, so a crash leaves orphaned content (reclaimed by the
// garbage collector) rather than files pointing at missing bytes.
//
// Content written ahead of its file record is reported by PendingContent
// until the record is saved, so the garbage collector can leave it alone.
//
// Thread Safety:
// The pending set is guarded by its own mutex; everything else is as safe
// for concurrent use as the stores it wraps.
type DefaultFileSystem struct {
	metadataStore metadata.Store
	contentStore  content.ContentStore
	metrics       FileSystemMetrics

	pendingMu sync.Mutex
	pending   map[metadata.ContentID]struct{}
}

// New creates a file system over the given stores.
//
// Parameters:
//   - metadataStore: Folder and file records
//   - contentStore: File bytes
//   - metrics: Optional metrics collector (nil for no-op)
func New(metadataStore metadata.Store, contentStore content.ContentStore, metrics FileSystemMetrics) *DefaultFileSystem {
	if metrics == nil {
		metrics = noopMetrics{}
	}

	return &DefaultFileSystem{
		metadataStore: metadataStore,
		contentStore:  contentStore,
		metrics:       metrics,
		pending:       make(map[metadata.ContentID]struct{}),
	}
}

// MetadataStore returns the underlying metadata store.
func (fs *DefaultFileSystem) MetadataStore() metadata.Store {
	return fs.metadataStore
}

// ContentStore returns the underlying content store.
func (fs *DefaultFileSystem) ContentStore() content.ContentStore {
	return fs.contentStore
}

// record reports one operation to the metrics collector.
func (fs *DefaultFileSystem) record(operation string, start time.Time, err error) {
	fs.metrics.RecordOperation(operation, time.Since(start), err)
}

// GetFolder returns the folder with its children computed.
func (fs *DefaultFileSystem) GetFolder(ctx context.Context, ref metadata.Reference) (folder *metadata.Folder, err error) {
	defer func(start time.Time) { fs.record("GetFolder", start, err) }(time.Now())

	return fs.metadataStore.GetFolder(ctx, ref)
}

// GetFile returns the file record.
func (fs *DefaultFileSystem) GetFile(ctx context.Context, ref metadata.Reference) (file *metadata.File, err error) {
	defer func(start time.Time) { fs.record("GetFile", start, err) }(time.Now())

	return fs.metadataStore.GetFile(ctx, ref)
}

// Exists reports whether a folder or a file is stored under ref.
func (fs *DefaultFileSystem) Exists(ctx context.Context, ref metadata.Reference) (exists bool, err error) {
	defer func(start time.Time) { fs.record("Exists", start, err) }(time.Now())

	return fs.metadataStore.Exists(ctx, ref)
}

// Save persists a *metadata.Folder or a *metadata.File.
func (fs *DefaultFileSystem) Save(ctx context.Context, entity metadata.Entity) (err error) {
	defer func(start time.Time) { fs.record("Save", start, err) }(time.Now())

	switch e := entity.(type) {
	case *metadata.Folder:
		return fs.metadataStore.PutFolder(ctx, e)
	case *metadata.File:
		return fs.metadataStore.PutFile(ctx, e)
	default:
		return metadata.NewInvalidArgumentError(fmt.Sprintf("unsupported entity type %T", entity), metadata.Reference{})
	}
}

// Delete removes the entity stored under ref.
//
// Folders must be empty. For files the record is removed first and the
// content afterwards; a failure to remove the content is only logged.
func (fs *DefaultFileSystem) Delete(ctx context.Context, ref metadata.Reference) (err error) {
	defer func(start time.Time) { fs.record("Delete", start, err) }(time.Now())

	kind, err := fs.metadataStore.Kind(ctx, ref)
	if err != nil {
		return err
	}

	if kind == metadata.KindFolder {
		folder, err := fs.metadataStore.GetFolder(ctx, ref)
		if err != nil {
			return err
		}
		if !folder.IsEmpty() {
			return &metadata.StoreError{
				Code:    metadata.ErrNotEmpty,
				Message: "folder is not empty",
				Path:    ref.String(),
			}
		}
		return fs.metadataStore.Delete(ctx, ref)
	}

	file, err := fs.metadataStore.GetFile(ctx, ref)
	if err != nil {
		return err
	}
	if err := fs.metadataStore.Delete(ctx, ref); err != nil {
		return err
	}

	if file.ContentID != "" {
		if err := fs.contentStore.Delete(ctx, file.ContentID); err != nil {
			logger.Warn("Failed to delete content %s of file %s (left for garbage collection): %v",
				file.ContentID, ref, err)
		}
	}
	return nil
}

// Rename persists the entity under newRef and removes the old record.
//
// The record is renamed first, then saved with the entity's in-memory state
// (a new name or a new parent set by the caller).
func (fs *DefaultFileSystem) Rename(ctx context.Context, entity metadata.Entity, newRef metadata.Reference) (err error) {
	defer func(start time.Time) { fs.record("Rename", start, err) }(time.Now())

	oldRef := entity.GetReference()
	if oldRef != newRef {
		if err := fs.metadataStore.Rename(ctx, oldRef, newRef); err != nil {
			return err
		}
	}

	switch e := entity.(type) {
	case *metadata.Folder:
		e.Reference = newRef
		return fs.metadataStore.PutFolder(ctx, e)
	case *metadata.File:
		e.Reference = newRef
		return fs.metadataStore.PutFile(ctx, e)
	default:
		return metadata.NewInvalidArgumentError(fmt.Sprintf("unsupported entity type %T", entity), oldRef)
	}
}

// Copy duplicates the source record under target without its children.
//
// A copied folder keeps the name, parent and access rules of the source. A
// copied file additionally keeps its parents, and its content is copied
// under a fresh ContentID.
func (fs *DefaultFileSystem) Copy(ctx context.Context, source, target metadata.Reference) (err error) {
	defer func(start time.Time) { fs.record("Copy", start, err) }(time.Now())

	exists, err := fs.metadataStore.Exists(ctx, target)
	if err != nil {
		return err
	}
	if exists {
		return metadata.NewAlreadyExistsError(target)
	}

	kind, err := fs.metadataStore.Kind(ctx, source)
	if err != nil {
		return err
	}

	if kind == metadata.KindFolder {
		folder, err := fs.metadataStore.GetFolder(ctx, source)
		if err != nil {
			return err
		}
		duplicate := folder.Clone()
		duplicate.Reference = target
		duplicate.ChildFolders = nil
		duplicate.ChildFiles = nil
		return fs.metadataStore.PutFolder(ctx, duplicate)
	}

	file, err := fs.metadataStore.GetFile(ctx, source)
	if err != nil {
		return err
	}
	duplicate := file.Clone()
	duplicate.Reference = target

	if file.ContentID != "" {
		duplicate.ContentID = newContentID()
		fs.beginContent(duplicate.ContentID)
		defer fs.endContent(duplicate.ContentID)
		if err := fs.contentStore.CopyContent(ctx, file.ContentID, duplicate.ContentID); err != nil {
			return fmt.Errorf("failed to copy content of %s: %w", source, err)
		}
	}

	if err := fs.metadataStore.PutFile(ctx, duplicate); err != nil {
		if duplicate.ContentID != "" {
			_ = fs.contentStore.Delete(ctx, duplicate.ContentID)
		}
		return err
	}
	return nil
}

// GetContent streams the content of a file. A file without content reads
// as empty.
func (fs *DefaultFileSystem) GetContent(ctx context.Context, ref metadata.Reference) (rc io.ReadCloser, err error) {
	defer func(start time.Time) { fs.record("GetContent", start, err) }(time.Now())

	file, err := fs.metadataStore.GetFile(ctx, ref)
	if err != nil {
		return nil, err
	}
	if file.ContentID == "" {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}

	return fs.contentStore.ReadContent(ctx, file.ContentID)
}

// PendingContent returns the content IDs written by a call that has not
// saved the owning file record yet.
func (fs *DefaultFileSystem) PendingContent() []metadata.ContentID {
	fs.pendingMu.Lock()
	defer fs.pendingMu.Unlock()

	ids := make([]metadata.ContentID, 0, len(fs.pending))
	for id := range fs.pending {
		ids = append(ids, id)
	}
	return ids
}

// beginContent marks id as written ahead of its record. Must be called
// before the content store sees id.
func (fs *DefaultFileSystem) beginContent(id metadata.ContentID) {
	fs.pendingMu.Lock()
	defer fs.pendingMu.Unlock()
	fs.pending[id] = struct{}{}
}

func (fs *DefaultFileSystem) endContent(id metadata.ContentID) {
	fs.pendingMu.Lock()
	defer fs.pendingMu.Unlock()
	delete(fs.pending, id)
}

// newContentID returns a fresh random content identifier.
func newContentID() metadata.ContentID {
	return metadata.ContentID(uuid.NewString())
}
