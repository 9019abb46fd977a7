package filemanager

import (
	"context"

	"github.com/marmos91/dittodrive/pkg/filesystem"
	"github.com/marmos91/dittodrive/pkg/job"
	"github.com/marmos91/dittodrive/pkg/metadata"
	"github.com/marmos91/dittodrive/pkg/reference"
)

// walker holds what every tree walk of a running job needs.
//
// A walker is used by the job's own goroutine only. Every per-entity
// failure is written to the job log and the walk moves on.
type walker struct {
	ctx       context.Context
	job       *job.Job
	fs        filesystem.FileSystem
	generator *reference.Generator
	auth      *metadata.AuthContext
	overwrite overwritePolicy
}

func newWalker(ctx context.Context, j *job.Job, fs filesystem.FileSystem, generator *reference.Generator, batch *BatchRequest) *walker {
	return &walker{
		ctx:       ctx,
		job:       j,
		fs:        fs,
		generator: generator,
		auth:      metadata.NewAuthContext(ctx, batch.Issuer),
		overwrite: overwritePolicy{interactive: batch.Interactive},
	}
}

func (w *walker) log() job.Logger {
	return w.job.Log()
}

// interrupted reports whether the job context is done, logging it once per
// top-level path.
func (w *walker) interrupted() bool {
	if err := w.ctx.Err(); err != nil {
		w.log().Warn("Interrupted: %v", err)
		return true
	}
	return false
}

// ============================================================================
// Loading
// ============================================================================

// folder loads a folder, returning nil when it is missing. Other failures
// are logged.
func (w *walker) folder(ref metadata.Reference) *metadata.Folder {
	if ref.IsZero() {
		return nil
	}
	folder, err := w.fs.GetFolder(w.ctx, ref)
	if err != nil {
		if !metadata.IsNotFound(err) {
			w.log().Error("Failed to load the folder [%s]: %v", ref, err)
		}
		return nil
	}
	return folder
}

// file loads a file, returning nil when it is missing. Other failures are
// logged.
func (w *walker) file(ref metadata.Reference) *metadata.File {
	if ref.IsZero() {
		return nil
	}
	file, err := w.fs.GetFile(w.ctx, ref)
	if err != nil {
		if !metadata.IsNotFound(err) {
			w.log().Error("Failed to load the file [%s]: %v", ref, err)
		}
		return nil
	}
	return file
}

func (w *walker) exists(ref metadata.Reference) bool {
	if ref.IsZero() {
		return false
	}
	exists, err := w.fs.Exists(w.ctx, ref)
	if err != nil {
		w.log().Error("Failed to check whether [%s] exists: %v", ref, err)
		return false
	}
	return exists
}

// ============================================================================
// Persistence
// ============================================================================

func (w *walker) save(entity metadata.Entity) bool {
	if err := w.fs.Save(w.ctx, entity); err != nil {
		w.log().Error("Failed to save [%s]: %v", entity.GetReference(), err)
		return false
	}
	return true
}

func (w *walker) delete(ref metadata.Reference) bool {
	if err := w.fs.Delete(w.ctx, ref); err != nil {
		w.log().Error("Failed to delete [%s]: %v", ref, err)
		return false
	}
	return true
}

// rename persists entity under a free reference derived from target. The
// entity's Reference is updated on success.
func (w *walker) rename(entity metadata.Entity, target metadata.Reference) bool {
	ref, err := w.generator.Unique(w.ctx, target)
	if err != nil {
		w.log().Error("Failed to find a free name for [%s]: %v", target, err)
		return false
	}
	defer w.generator.Release(ref)

	if err := w.fs.Rename(w.ctx, entity, ref); err != nil {
		w.log().Error("Failed to rename [%s] to [%s]: %v", entity.GetReference(), ref, err)
		return false
	}
	return true
}

// duplicate copies source under a free reference derived from target and
// returns the reference of the copy.
func (w *walker) duplicate(source, target metadata.Reference) (metadata.Reference, bool) {
	ref, err := w.generator.Unique(w.ctx, target)
	if err != nil {
		w.log().Error("Failed to find a free name for [%s]: %v", target, err)
		return metadata.Reference{}, false
	}
	defer w.generator.Release(ref)

	if err := w.fs.Copy(w.ctx, source, ref); err != nil {
		w.log().Error("Failed to copy [%s] to [%s]: %v", source, ref, err)
		return metadata.Reference{}, false
	}
	return ref, true
}

// removeFromParent drops one parent link of file, deleting the file when it
// was the last one.
func (w *walker) removeFromParent(file *metadata.File, parent metadata.Reference) bool {
	file.RemoveParent(parent)
	if len(file.Parents) == 0 {
		return w.delete(file.Reference)
	}
	return w.save(file)
}

// ============================================================================
// Hierarchy
// ============================================================================

// childFolderNamed returns the child folder of parent named name.
func (w *walker) childFolderNamed(parent *metadata.Folder, name string) *metadata.Folder {
	for _, ref := range parent.ChildFolders {
		if child := w.folder(ref); child != nil && child.Name == name {
			return child
		}
	}
	return nil
}

// childFileNamed returns the child file of parent named name.
func (w *walker) childFileNamed(parent *metadata.Folder, name string) *metadata.File {
	for _, ref := range parent.ChildFiles {
		if child := w.file(ref); child != nil && child.Name == name {
			return child
		}
	}
	return nil
}

// isDescendantOrSelf walks the ancestors of ref looking for ancestor. A
// missing folder ends the walk.
func (w *walker) isDescendantOrSelf(ref, ancestor metadata.Reference) bool {
	seen := make(map[metadata.Reference]struct{})
	for !ref.IsZero() {
		if ref == ancestor {
			return true
		}
		if _, loop := seen[ref]; loop {
			return false
		}
		seen[ref] = struct{}{}

		folder := w.folder(ref)
		if folder == nil {
			return false
		}
		ref = folder.Parent
	}
	return false
}
