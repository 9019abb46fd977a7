package metadata

import (
	"context"
)

// ============================================================================
// Store Interface
// ============================================================================

// Store persists folder and file records.
//
// The store manages the hierarchy (records, parent links, access rules) but
// does NOT manage file content. File bytes live in a content store and are
// referenced by File.ContentID; callers coordinate the two.
//
// Children Computation:
// Folder.ChildFolders and Folder.ChildFiles are derived by the store on every
// GetFolder call from the parent links of the other records of the same
// drive. They are sorted by reference name so traversals are deterministic.
//
// Error Handling:
// Business errors are returned as *StoreError (ErrNotFound, ErrAlreadyExists,
// ErrInvalidArgument, ...). Infrastructure failures are wrapped errors.
//
// Atomicity:
// Each call is atomic for the single record it touches. There is no
// multi-record transaction: callers performing tree walks accept that a
// crash leaves the tree partially updated.
//
// Thread Safety:
// Implementations must be safe for concurrent use by multiple goroutines.
type Store interface {
	// GetFolder returns a fresh copy of the folder with its children computed.
	//
	// Returns:
	//   - *Folder: folder record; mutating it does not affect the store
	//   - error: ErrNotFound if missing, ErrNotFolder if ref is a file
	GetFolder(ctx context.Context, ref Reference) (*Folder, error)

	// GetFile returns a fresh copy of the file record.
	//
	// Returns:
	//   - *File: file record; mutating it does not affect the store
	//   - error: ErrNotFound if missing, ErrIsFolder if ref is a folder
	GetFile(ctx context.Context, ref Reference) (*File, error)

	// Kind returns the kind of the entity stored under ref.
	//
	// Returns:
	//   - EntityKind: KindFolder or KindFile
	//   - error: ErrNotFound if nothing is stored under ref
	Kind(ctx context.Context, ref Reference) (EntityKind, error)

	// Exists reports whether a folder or a file is stored under ref.
	Exists(ctx context.Context, ref Reference) (bool, error)

	// PutFolder creates or replaces a folder record.
	//
	// Returns ErrInvalidArgument for a zero reference, a folder parented to
	// itself or a parent in another drive, ErrNotFolder if the parent is a file, ErrIsFolder/ErrNotFolder
	// when the reference is already used by an entity of the other kind.
	PutFolder(ctx context.Context, folder *Folder) error

	// PutFile creates or replaces a file record.
	//
	// Returns ErrInvalidArgument if the file has no parent or a parent in
	// another drive.
	PutFile(ctx context.Context, file *File) error

	// Delete removes the record stored under ref. Children are not touched.
	//
	// Returns ErrNotFound if nothing is stored under ref.
	Delete(ctx context.Context, ref Reference) error

	// Rename moves the record stored under oldRef to newRef. Records linking
	// to oldRef (children) are not updated.
	//
	// Returns ErrNotFound if oldRef is missing, ErrAlreadyExists if newRef
	// is taken, ErrInvalidArgument if the drives differ.
	Rename(ctx context.Context, oldRef, newRef Reference) error

	// ListRoots returns the root folders of a drive, sorted by reference name.
	ListRoots(ctx context.Context, drive string) ([]Reference, error)

	// ListContentIDs returns every content ID referenced by a file record.
	// Used by garbage collection to find orphaned content.
	ListContentIDs(ctx context.Context) ([]ContentID, error)

	// Close releases resources held by the store.
	Close() error
}
