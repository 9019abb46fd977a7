package filemanager

import (
	"context"

	"github.com/marmos91/dittodrive/pkg/job"
	"github.com/marmos91/dittodrive/pkg/metadata"
)

// runCopy executes a MoveRequest as a copy. Nothing happens unless the
// destination folder exists.
func (m *Manager) runCopy(ctx context.Context, j *job.Job) error {
	request := j.Request().(*MoveRequest)
	w := newWalker(ctx, j, m.fs, m.generator, &request.BatchRequest)
	destination := request.Destination

	if len(request.Paths) == 0 || !w.exists(destination.Folder) {
		return nil
	}

	j.PushLevel(len(request.Paths))
	defer j.PopLevel()

	for _, path := range request.Paths {
		if w.interrupted() {
			return ctx.Err()
		}
		w.copyPath(path, destination)
		j.Step()
	}
	return nil
}

func (w *walker) copyPath(path, destination metadata.Path) {
	if path.Drive() != destination.Folder.Drive {
		w.log().Error("Cannot copy [%s] to another drive [%s].", path, destination.Folder.Drive)
		return
	}
	if path.HasFile() {
		w.copyFile(path.File, destination)
	} else if path.HasFolder() {
		w.copyFolder(path.Folder, destination)
	}
}

// ============================================================================
// Files
// ============================================================================

func (w *walker) copyFile(ref metadata.Reference, destination metadata.Path) {
	file := w.file(ref)
	if file == nil {
		return
	}
	if !w.fs.CanView(w.auth, ref) {
		w.log().Error("You are not allowed to copy the file [%s].", ref)
		return
	}

	toOtherFolder := !file.HasParent(destination.Folder)
	switch {
	case !destination.HasFile() && toOtherFolder:
		w.copyFileTo(file, destination.Folder, file.Name)
	case destination.HasFile() && (destination.File.Name != file.Name || toOtherFolder):
		w.copyFileTo(file, destination.Folder, destination.File.Name)
	}
}

func (w *walker) copyFileTo(file *metadata.File, parentRef metadata.Reference, name string) {
	parent := w.folder(parentRef)
	if parent == nil {
		w.log().Error("The destination folder [%s] doesn't exist.", parentRef)
		return
	}

	if existing := w.childFileNamed(parent, name); existing != nil {
		if !w.fs.CanDelete(w.auth, existing.Reference) ||
			!w.overwrite.shouldOverwrite(w.ctx, w.job, file.Reference, existing.Reference) {
			return
		}
		if !w.removeFromParent(existing, parentRef) {
			return
		}
	}

	ref, ok := w.duplicate(file.Reference, parentRef.WithName(name))
	if !ok {
		return
	}
	duplicate := w.file(ref)
	if duplicate == nil {
		return
	}
	duplicate.Name = name
	duplicate.Parents = []metadata.Reference{parentRef}
	w.save(duplicate)
}

// ============================================================================
// Folders
// ============================================================================

func (w *walker) copyFolder(ref metadata.Reference, destination metadata.Path) {
	if w.isDescendantOrSelf(destination.Folder, ref) {
		w.log().Error("Cannot copy [%s] to a sub-folder of itself.", ref)
		return
	}

	folder := w.folder(ref)
	if folder == nil {
		return
	}
	if !w.fs.CanView(w.auth, ref) {
		w.log().Error("You are not allowed to copy the folder [%s].", ref)
		return
	}

	toOtherFolder := destination.Folder != folder.Parent
	switch {
	case !destination.HasFile() && toOtherFolder:
		w.copyFolderTo(folder, destination.Folder, folder.Name)
	case destination.HasFile() && (destination.File.Name != folder.Name || toOtherFolder):
		w.copyFolderTo(folder, destination.Folder, destination.File.Name)
	}
}

func (w *walker) copyFolderTo(folder *metadata.Folder, parentRef metadata.Reference, name string) {
	parent := w.folder(parentRef)
	if parent == nil {
		w.log().Error("The destination folder [%s] doesn't exist.", parentRef)
		return
	}

	// Merge into an existing same-named folder
	if existing := w.childFolderNamed(parent, name); existing != nil {
		w.copyChildren(folder, existing.Reference)
		return
	}

	ref, ok := w.duplicate(folder.Reference, parentRef.WithName(name))
	if !ok {
		return
	}
	duplicate := w.folder(ref)
	if duplicate == nil {
		return
	}
	duplicate.Name = name
	duplicate.Parent = parentRef
	if !w.save(duplicate) {
		return
	}

	w.copyChildren(folder, ref)
}

// copyChildren copies the files, then the folders, of source into target.
func (w *walker) copyChildren(source *metadata.Folder, target metadata.Reference) {
	w.job.PushLevel(len(source.ChildFiles) + len(source.ChildFolders))
	defer w.job.PopLevel()

	destination := metadata.NewFolderPath(target)
	for _, child := range source.ChildFiles {
		w.copyFile(child, destination)
		w.job.Step()
	}
	for _, child := range source.ChildFolders {
		w.copyFolder(child, destination)
		w.job.Step()
	}
}
