package filemanager

import (
	"context"

	"github.com/marmos91/dittodrive/pkg/job"
	"github.com/marmos91/dittodrive/pkg/metadata"
)

// runMove executes a MoveRequest.
//
// The mode is chosen by the shape of the request:
//   - bulk: the destination is an existing folder; every path is moved into
//     it keeping its name
//   - rename: a single path and a destination with a name; the entity is
//     moved and/or renamed to exactly that path
//
// Any other request is a no-op.
func (m *Manager) runMove(ctx context.Context, j *job.Job) error {
	request := j.Request().(*MoveRequest)
	w := newWalker(ctx, j, m.fs, m.generator, &request.BatchRequest)
	destination := request.Destination

	switch {
	case destination.HasFolder() && !destination.HasFile() && w.exists(destination.Folder):
		j.PushLevel(len(request.Paths))
		defer j.PopLevel()

		for _, path := range request.Paths {
			if w.interrupted() {
				return ctx.Err()
			}
			w.movePath(path, destination.Folder)
			j.Step()
		}

	case len(request.Paths) == 1 && destination.HasFile():
		w.renamePath(request.Paths[0], destination)
	}

	return nil
}

func (w *walker) movePath(path metadata.Path, newParent metadata.Reference) {
	if path.HasFile() {
		w.moveFile(path.File, path.Folder, newParent)
	} else if path.HasFolder() {
		w.moveFolder(path.Folder, newParent)
	}
}

// ============================================================================
// Move
// ============================================================================

func (w *walker) moveFolder(ref, newParentRef metadata.Reference) {
	// Step 1: cycle and drive guards
	if w.isDescendantOrSelf(newParentRef, ref) {
		w.log().Error("Cannot move [%s] to a sub-folder of itself.", ref)
		return
	}
	if ref.Drive != newParentRef.Drive {
		w.log().Error("Cannot move [%s] to another drive [%s].", ref, newParentRef.Drive)
		return
	}

	// Step 2: already there
	folder := w.folder(ref)
	if folder == nil || folder.Parent == newParentRef {
		return
	}

	// Step 3: rights and destination
	if !w.fs.CanEdit(w.auth, ref) {
		w.log().Error("You are not allowed to move the folder [%s].", ref)
		return
	}
	newParent := w.folder(newParentRef)
	if newParent == nil {
		w.log().Error("The destination folder [%s] doesn't exist.", newParentRef)
		return
	}

	// Step 4: merge into a same-named child, or re-parent
	if existing := w.childFolderNamed(newParent, folder.Name); existing != nil {
		w.mergeFolder(folder, existing.Reference)
		return
	}

	folder.Parent = newParentRef
	w.save(folder)
}

// mergeFolder moves the children of source into target and deletes source
// once it is empty.
func (w *walker) mergeFolder(source *metadata.Folder, target metadata.Reference) {
	w.job.PushLevel(len(source.ChildFolders) + len(source.ChildFiles) + 1)
	defer w.job.PopLevel()

	for _, child := range source.ChildFolders {
		w.moveFolder(child, target)
		w.job.Step()
	}
	for _, child := range source.ChildFiles {
		w.moveFile(child, source.Reference, target)
		w.job.Step()
	}

	if remaining := w.folder(source.Reference); remaining != nil && remaining.IsEmpty() {
		w.delete(source.Reference)
	}
	w.job.Step()
}

func (w *walker) moveFile(ref, oldParentRef, newParentRef metadata.Reference) {
	if oldParentRef == newParentRef {
		return
	}
	if ref.Drive != newParentRef.Drive {
		w.log().Error("Cannot move [%s] to another drive [%s].", ref, newParentRef.Drive)
		return
	}

	file := w.file(ref)
	if file == nil {
		return
	}
	if !w.fs.CanEdit(w.auth, ref) {
		w.log().Error("You are not allowed to move the file [%s].", ref)
		return
	}
	newParent := w.folder(newParentRef)
	if newParent == nil {
		w.log().Error("The destination folder [%s] doesn't exist.", newParentRef)
		return
	}

	existing := w.childFileNamed(newParent, file.Name)
	if existing != nil && existing.Reference != file.Reference {
		if !w.fs.CanEdit(w.auth, existing.Reference) || !w.fs.CanDelete(w.auth, existing.Reference) ||
			!w.overwrite.shouldOverwrite(w.ctx, w.job, ref, existing.Reference) {
			return
		}
		if !w.removeFromParent(existing, newParentRef) {
			return
		}
	}

	changed := file.RemoveParent(oldParentRef)
	changed = file.AddParent(newParentRef) || changed
	if changed {
		w.save(file)
	}
}

// ============================================================================
// Rename
// ============================================================================

func (w *walker) renamePath(source, destination metadata.Path) {
	if source.HasFile() {
		w.renameFile(source, destination)
	} else if source.HasFolder() {
		w.renameFolder(source.Folder, destination)
	}
}

func (w *walker) renameFolder(ref metadata.Reference, destination metadata.Path) {
	folder := w.folder(ref)
	if folder == nil {
		return
	}
	if !w.fs.CanEdit(w.auth, ref) {
		w.log().Error("You are not allowed to rename the folder [%s].", ref)
		return
	}

	newParentRef := destination.Folder
	if newParentRef.IsZero() {
		newParentRef = folder.Parent
	}
	if newParentRef == folder.Parent && destination.File == ref {
		return
	}

	if newParentRef.IsZero() {
		// A root folder only changes its name
		w.renameFolderTo(folder, destination.File)
		return
	}

	if newParentRef != folder.Parent && w.isDescendantOrSelf(newParentRef, ref) {
		w.log().Error("Cannot move [%s] to a sub-folder of itself.", ref)
		return
	}

	newParent := w.folder(newParentRef)
	if newParent == nil {
		w.log().Error("The destination folder [%s] doesn't exist.", newParentRef)
		return
	}
	// The folder keeps its display name when only its parent changes
	name := destination.File.Name
	if destination.File == ref {
		name = folder.Name
	}
	if existing := w.childFolderNamed(newParent, name); existing != nil && existing.Reference != ref {
		w.log().Error("A folder with the same name [%s] already exists under [%s].", name, newParentRef)
		return
	}

	folder.Parent = newParentRef
	if destination.File == ref {
		w.save(folder)
		return
	}
	w.renameFolderTo(folder, destination.File)
}

// renameFolderTo renames folder and points its children at the new
// reference.
func (w *walker) renameFolderTo(folder *metadata.Folder, target metadata.Reference) {
	oldRef := folder.Reference
	if target.Drive != oldRef.Drive {
		w.log().Error("Cannot move [%s] to another drive [%s].", oldRef, target.Drive)
		return
	}

	childFolders, childFiles := folder.ChildFolders, folder.ChildFiles
	folder.Name = target.Name
	if !w.rename(folder, target) {
		return
	}

	for _, ref := range childFolders {
		if child := w.folder(ref); child != nil {
			child.Parent = folder.Reference
			w.save(child)
		}
	}
	for _, ref := range childFiles {
		if child := w.file(ref); child != nil && child.ReplaceParent(oldRef, folder.Reference) {
			w.save(child)
		}
	}
}

func (w *walker) renameFile(source, destination metadata.Path) {
	file := w.file(source.File)
	if file == nil {
		return
	}
	if !w.fs.CanEdit(w.auth, source.File) {
		w.log().Error("You are not allowed to rename the file [%s].", source.File)
		return
	}

	changed := false
	if destination.HasFolder() && source.HasFolder() && destination.Folder != source.Folder {
		if destination.Folder.Drive != file.Reference.Drive {
			w.log().Error("Cannot move [%s] to another drive [%s].", file.Reference, destination.Folder.Drive)
			return
		}
		if !w.exists(destination.Folder) {
			w.log().Error("The destination folder [%s] doesn't exist.", destination.Folder)
			return
		}
		changed = file.RemoveParent(source.Folder)
		changed = file.AddParent(destination.Folder) || changed
	}

	renamed := file.Reference != destination.File
	if !changed && !renamed {
		return
	}
	if renamed && destination.File.Drive != file.Reference.Drive {
		w.log().Error("Cannot move [%s] to another drive [%s].", file.Reference, destination.File.Drive)
		return
	}

	// No parent of the new set may already hold a file with the resulting
	// name
	name := file.Name
	if renamed {
		name = destination.File.Name
	}
	for _, parentRef := range file.Parents {
		parent := w.folder(parentRef)
		if parent == nil {
			continue
		}
		if existing := w.childFileNamed(parent, name); existing != nil && existing.Reference != file.Reference {
			w.log().Error("A file with the same name [%s] already exists under [%s].", name, parentRef)
			return
		}
	}

	if !renamed {
		w.save(file)
		return
	}
	file.Name = name
	w.rename(file, destination.File)
}
