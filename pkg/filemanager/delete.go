package filemanager

import (
	"context"

	"github.com/marmos91/dittodrive/pkg/job"
	"github.com/marmos91/dittodrive/pkg/metadata"
)

// runDelete executes a delete BatchRequest.
//
// A file path with a parent only unlinks the file from that parent; the file
// itself is deleted when it has no parent left or when no parent is given.
// A folder is emptied bottom-up and deleted if nothing is left in it.
func (m *Manager) runDelete(ctx context.Context, j *job.Job) error {
	request := j.Request().(*BatchRequest)
	w := newWalker(ctx, j, m.fs, m.generator, request)

	j.PushLevel(len(request.Paths))
	defer j.PopLevel()

	for _, path := range request.Paths {
		if w.interrupted() {
			return ctx.Err()
		}
		if path.HasFile() {
			w.deleteFile(path.File, path.Folder)
		} else if path.HasFolder() {
			w.deleteFolder(path.Folder)
		}
		j.Step()
	}
	return nil
}

func (w *walker) deleteFile(ref, parentRef metadata.Reference) {
	file := w.file(ref)
	if file == nil {
		return
	}

	changed := file.RemoveParent(parentRef)
	if parentRef.IsZero() || len(file.Parents) == 0 {
		if !w.fs.CanDelete(w.auth, ref) {
			w.log().Error("You are not allowed to delete the file [%s].", ref)
			return
		}
		w.delete(ref)
		return
	}

	if changed {
		if !w.fs.CanEdit(w.auth, ref) {
			w.log().Error("You are not allowed to edit the file [%s].", ref)
			return
		}
		w.save(file)
	}
}

func (w *walker) deleteFolder(ref metadata.Reference) {
	if !w.fs.CanDelete(w.auth, ref) {
		w.log().Error("You are not allowed to delete the folder [%s].", ref)
		return
	}

	folder := w.folder(ref)
	if folder == nil {
		return
	}

	w.job.PushLevel(len(folder.ChildFolders) + len(folder.ChildFiles) + 1)
	defer w.job.PopLevel()

	for _, child := range folder.ChildFolders {
		w.deleteFolder(child)
		w.job.Step()
	}
	for _, child := range folder.ChildFiles {
		w.deleteFile(child, ref)
		w.job.Step()
	}

	// Children may have survived (denied, or added meanwhile)
	if remaining := w.folder(ref); remaining != nil && remaining.IsEmpty() {
		w.delete(ref)
	}
	w.job.Step()
}
