package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/marmos91/dittodrive/pkg/metadata"
)

// MemoryMetadataStore implements metadata.Store using in-memory maps.
//
// It is suitable for:
//   - Testing and development environments
//   - Ephemeral drives where persistence is not required
//
// Thread Safety:
// All operations are protected by a single read-write mutex (mu). Reads take
// the read lock, mutations take the write lock.
//
// Storage Model:
//
//  1. Records (folders, files):
//     Map a reference to the stored record. Records are cloned on the way in
//     and on the way out so callers can never mutate store state.
//
//  2. Child indexes (childFolders, childFiles):
//     Map a folder reference to the set of references linking to it. They
//     are maintained on every put, delete and rename, and make GetFolder
//     independent of the total number of records.
//
// Consistency Guarantees:
//   - Every folder with a non-zero Parent appears in childFolders[Parent]
//   - Every file appears in childFiles[p] for each p in Parents
//   - A reference is never stored both as a folder and as a file
type MemoryMetadataStore struct {
	mu sync.RWMutex

	folders map[metadata.Reference]*metadata.Folder
	files   map[metadata.Reference]*metadata.File

	childFolders map[metadata.Reference]map[metadata.Reference]struct{}
	childFiles   map[metadata.Reference]map[metadata.Reference]struct{}
}

// NewMemoryMetadataStore creates an empty in-memory store.
func NewMemoryMetadataStore() *MemoryMetadataStore {
	return &MemoryMetadataStore{
		folders:      make(map[metadata.Reference]*metadata.Folder),
		files:        make(map[metadata.Reference]*metadata.File),
		childFolders: make(map[metadata.Reference]map[metadata.Reference]struct{}),
		childFiles:   make(map[metadata.Reference]map[metadata.Reference]struct{}),
	}
}

// GetFolder returns a copy of the folder with its children computed.
func (s *MemoryMetadataStore) GetFolder(ctx context.Context, ref metadata.Reference) (*metadata.Folder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	folder, ok := s.folders[ref]
	if !ok {
		if _, isFile := s.files[ref]; isFile {
			return nil, &metadata.StoreError{
				Code:    metadata.ErrNotFolder,
				Message: "not a folder",
				Path:    ref.String(),
			}
		}
		return nil, metadata.NewNotFoundError(ref, "folder")
	}

	result := folder.Clone()
	result.ChildFolders = sortedRefs(s.childFolders[ref])
	result.ChildFiles = sortedRefs(s.childFiles[ref])
	return result, nil
}

// GetFile returns a copy of the file record.
func (s *MemoryMetadataStore) GetFile(ctx context.Context, ref metadata.Reference) (*metadata.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	file, ok := s.files[ref]
	if !ok {
		if _, isFolder := s.folders[ref]; isFolder {
			return nil, &metadata.StoreError{
				Code:    metadata.ErrIsFolder,
				Message: "is a folder",
				Path:    ref.String(),
			}
		}
		return nil, metadata.NewNotFoundError(ref, "file")
	}

	return file.Clone(), nil
}

// Kind returns the kind of the entity stored under ref.
func (s *MemoryMetadataStore) Kind(ctx context.Context, ref metadata.Reference) (metadata.EntityKind, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.folders[ref]; ok {
		return metadata.KindFolder, nil
	}
	if _, ok := s.files[ref]; ok {
		return metadata.KindFile, nil
	}
	return "", metadata.NewNotFoundError(ref, "entity")
}

// Exists reports whether a folder or a file is stored under ref.
func (s *MemoryMetadataStore) Exists(ctx context.Context, ref metadata.Reference) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, isFolder := s.folders[ref]
	_, isFile := s.files[ref]
	return isFolder || isFile, nil
}

// PutFolder creates or replaces a folder record.
func (s *MemoryMetadataStore) PutFolder(ctx context.Context, folder *metadata.Folder) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateFolder(folder); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ref := folder.Reference
	if _, isFile := s.files[ref]; isFile {
		return &metadata.StoreError{Code: metadata.ErrNotFolder, Message: "reference is used by a file", Path: ref.String()}
	}
	if !folder.Parent.IsZero() {
		if _, isFile := s.files[folder.Parent]; isFile {
			return &metadata.StoreError{Code: metadata.ErrNotFolder, Message: "parent is a file", Path: folder.Parent.String()}
		}
	}

	if existing, ok := s.folders[ref]; ok {
		unlink(s.childFolders, existing.Parent, ref)
	}

	stored := folder.Clone()
	stored.ChildFolders = nil
	stored.ChildFiles = nil
	s.folders[ref] = stored
	link(s.childFolders, stored.Parent, ref)

	return nil
}

// PutFile creates or replaces a file record.
func (s *MemoryMetadataStore) PutFile(ctx context.Context, file *metadata.File) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateFile(file); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ref := file.Reference
	if _, isFolder := s.folders[ref]; isFolder {
		return &metadata.StoreError{Code: metadata.ErrIsFolder, Message: "reference is used by a folder", Path: ref.String()}
	}

	if existing, ok := s.files[ref]; ok {
		for _, parent := range existing.Parents {
			unlink(s.childFiles, parent, ref)
		}
	}

	stored := file.Clone()
	s.files[ref] = stored
	for _, parent := range stored.Parents {
		link(s.childFiles, parent, ref)
	}

	return nil
}

// Delete removes the record stored under ref.
func (s *MemoryMetadataStore) Delete(ctx context.Context, ref metadata.Reference) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if folder, ok := s.folders[ref]; ok {
		unlink(s.childFolders, folder.Parent, ref)
		delete(s.folders, ref)
		return nil
	}

	if file, ok := s.files[ref]; ok {
		for _, parent := range file.Parents {
			unlink(s.childFiles, parent, ref)
		}
		delete(s.files, ref)
		return nil
	}

	return metadata.NewNotFoundError(ref, "entity")
}

// Rename moves the record stored under oldRef to newRef.
//
// The child indexes keyed by oldRef are left in place: they mirror the
// parent links of the child records, which still point to oldRef until the
// caller saves them again.
func (s *MemoryMetadataStore) Rename(ctx context.Context, oldRef, newRef metadata.Reference) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if newRef.IsZero() || newRef.Drive != oldRef.Drive {
		return metadata.NewInvalidArgumentError("rename target must be in the same drive", newRef)
	}
	if oldRef == newRef {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.folders[newRef]; ok {
		return metadata.NewAlreadyExistsError(newRef)
	}
	if _, ok := s.files[newRef]; ok {
		return metadata.NewAlreadyExistsError(newRef)
	}

	if folder, ok := s.folders[oldRef]; ok {
		unlink(s.childFolders, folder.Parent, oldRef)
		delete(s.folders, oldRef)
		folder.Reference = newRef
		s.folders[newRef] = folder
		link(s.childFolders, folder.Parent, newRef)
		return nil
	}

	if file, ok := s.files[oldRef]; ok {
		for _, parent := range file.Parents {
			unlink(s.childFiles, parent, oldRef)
		}
		delete(s.files, oldRef)
		file.Reference = newRef
		s.files[newRef] = file
		for _, parent := range file.Parents {
			link(s.childFiles, parent, newRef)
		}
		return nil
	}

	return metadata.NewNotFoundError(oldRef, "entity")
}

// ListRoots returns the root folders of a drive.
func (s *MemoryMetadataStore) ListRoots(ctx context.Context, drive string) ([]metadata.Reference, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var roots []metadata.Reference
	for ref, folder := range s.folders {
		if ref.Drive == drive && folder.IsRoot() {
			roots = append(roots, ref)
		}
	}
	sortReferences(roots)
	return roots, nil
}

// ListContentIDs returns every content ID referenced by a file record,
// deduplicated.
func (s *MemoryMetadataStore) ListContentIDs(ctx context.Context) ([]metadata.ContentID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[metadata.ContentID]struct{}, len(s.files))
	ids := make([]metadata.ContentID, 0, len(s.files))
	for _, file := range s.files {
		if file.ContentID == "" {
			continue
		}
		if _, ok := seen[file.ContentID]; !ok {
			seen[file.ContentID] = struct{}{}
			ids = append(ids, file.ContentID)
		}
	}
	return ids, nil
}

// Close is a no-op for the memory store.
func (s *MemoryMetadataStore) Close() error {
	return nil
}

// ============================================================================
// Helpers
// ============================================================================

func validateFolder(folder *metadata.Folder) error {
	if folder == nil || folder.Reference.IsZero() {
		return metadata.NewInvalidArgumentError("folder reference is required", metadata.Reference{})
	}
	if folder.Parent == folder.Reference {
		return metadata.NewInvalidArgumentError("folder cannot be its own parent", folder.Reference)
	}
	if !folder.Parent.IsZero() && folder.Parent.Drive != folder.Reference.Drive {
		return metadata.NewInvalidArgumentError("parent must be in the same drive", folder.Parent)
	}
	return nil
}

func validateFile(file *metadata.File) error {
	if file == nil || file.Reference.IsZero() {
		return metadata.NewInvalidArgumentError("file reference is required", metadata.Reference{})
	}
	if len(file.Parents) == 0 {
		return metadata.NewInvalidArgumentError("file must have at least one parent", file.Reference)
	}
	for _, parent := range file.Parents {
		if parent.Drive != file.Reference.Drive {
			return metadata.NewInvalidArgumentError("parent must be in the same drive", parent)
		}
	}
	return nil
}

func link(index map[metadata.Reference]map[metadata.Reference]struct{}, parent, child metadata.Reference) {
	if parent.IsZero() {
		return
	}
	children, ok := index[parent]
	if !ok {
		children = make(map[metadata.Reference]struct{})
		index[parent] = children
	}
	children[child] = struct{}{}
}

func unlink(index map[metadata.Reference]map[metadata.Reference]struct{}, parent, child metadata.Reference) {
	children, ok := index[parent]
	if !ok {
		return
	}
	delete(children, child)
	if len(children) == 0 {
		delete(index, parent)
	}
}

func sortedRefs(set map[metadata.Reference]struct{}) []metadata.Reference {
	if len(set) == 0 {
		return nil
	}
	refs := make([]metadata.Reference, 0, len(set))
	for ref := range set {
		refs = append(refs, ref)
	}
	sortReferences(refs)
	return refs
}

func sortReferences(refs []metadata.Reference) {
	slices.SortFunc(refs, func(a, b metadata.Reference) int {
		return cmp.Or(cmp.Compare(a.Drive, b.Drive), cmp.Compare(a.Name, b.Name))
	})
}
