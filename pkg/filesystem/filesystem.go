// Package filesystem exposes the virtual hierarchy (folders, multi-parent
// files and their content) to the batch jobs.
//
// FileSystem is the narrow contract the jobs depend on. DefaultFileSystem
// implements it by composing a metadata.Store (records and parent links) with
// a content.ContentStore (file bytes).
package filesystem

import (
	"context"
	"io"

	"github.com/marmos91/dittodrive/pkg/metadata"
)

// FileSystem is everything the batch jobs call into.
//
// Records returned by GetFolder and GetFile are fresh copies: callers mutate
// them locally and persist the changes with Save or Rename. Nothing is cached
// between calls.
//
// Error Handling:
// Missing entities are reported as *metadata.StoreError with ErrNotFound
// (see metadata.IsNotFound). The permission checks never fail: an entity that
// cannot be loaded grants no right.
type FileSystem interface {
	// GetFolder returns the folder with its children computed.
	GetFolder(ctx context.Context, ref metadata.Reference) (*metadata.Folder, error)

	// GetFile returns the file record.
	GetFile(ctx context.Context, ref metadata.Reference) (*metadata.File, error)

	// Exists reports whether a folder or a file is stored under ref.
	Exists(ctx context.Context, ref metadata.Reference) (bool, error)

	// CanView reports whether auth.Identity may read the entity.
	CanView(auth *metadata.AuthContext, ref metadata.Reference) bool

	// CanEdit reports whether auth.Identity may modify the entity.
	CanEdit(auth *metadata.AuthContext, ref metadata.Reference) bool

	// CanDelete reports whether auth.Identity may delete the entity.
	CanDelete(auth *metadata.AuthContext, ref metadata.Reference) bool

	// Save persists a *metadata.Folder or a *metadata.File.
	Save(ctx context.Context, entity metadata.Entity) error

	// Delete removes the entity. Deleting a file also removes its content.
	//
	// Returns ErrNotEmpty for a folder that still has children.
	Delete(ctx context.Context, ref metadata.Reference) error

	// Rename persists the entity's current state under newRef and removes
	// the old record. The entity's Reference is updated in place.
	//
	// Children linking to the old reference are not updated.
	Rename(ctx context.Context, entity metadata.Entity, newRef metadata.Reference) error

	// Copy duplicates the source record under target without its children.
	// A copied file gets its own copy of the content.
	//
	// Returns ErrAlreadyExists if target is taken.
	Copy(ctx context.Context, source, target metadata.Reference) error

	// GetContent streams the content of a file. The caller closes the reader.
	GetContent(ctx context.Context, ref metadata.Reference) (io.ReadCloser, error)
}
