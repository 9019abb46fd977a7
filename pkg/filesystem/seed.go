package filesystem

import (
	"context"
	"fmt"
	"io"

	"github.com/marmos91/dittodrive/pkg/metadata"
)

// CreateFolder stores a new folder. A zero parent creates a drive root.
//
// Returns ErrAlreadyExists if ref is taken and ErrNotFound if the parent
// folder is missing.
func (fs *DefaultFileSystem) CreateFolder(ctx context.Context, ref metadata.Reference, name string, parent metadata.Reference) (*metadata.Folder, error) {
	if name == "" {
		return nil, metadata.NewInvalidArgumentError("folder name is required", ref)
	}
	if err := fs.checkAbsent(ctx, ref); err != nil {
		return nil, err
	}
	if !parent.IsZero() {
		if _, err := fs.metadataStore.GetFolder(ctx, parent); err != nil {
			return nil, err
		}
	}

	folder := &metadata.Folder{Reference: ref, Name: name, Parent: parent}
	if err := fs.Save(ctx, folder); err != nil {
		return nil, err
	}
	return folder, nil
}

// CreateFile stores a new file linked under parents, with the bytes read
// from r as content.
//
// Returns ErrAlreadyExists if ref is taken and ErrNotFound if a parent
// folder is missing.
func (fs *DefaultFileSystem) CreateFile(ctx context.Context, ref metadata.Reference, name string, parents []metadata.Reference, r io.Reader) (*metadata.File, error) {
	if name == "" {
		return nil, metadata.NewInvalidArgumentError("file name is required", ref)
	}
	if len(parents) == 0 {
		return nil, metadata.NewInvalidArgumentError("file must have at least one parent", ref)
	}
	if err := fs.checkAbsent(ctx, ref); err != nil {
		return nil, err
	}
	for _, parent := range parents {
		if _, err := fs.metadataStore.GetFolder(ctx, parent); err != nil {
			return nil, err
		}
	}

	file := &metadata.File{Reference: ref, Name: name, ContentID: newContentID()}
	for _, parent := range parents {
		file.AddParent(parent)
	}

	fs.beginContent(file.ContentID)
	defer fs.endContent(file.ContentID)

	size, err := fs.contentStore.WriteContent(ctx, file.ContentID, r)
	if err != nil {
		return nil, fmt.Errorf("failed to write content of %s: %w", ref, err)
	}
	file.Size = size

	if err := fs.Save(ctx, file); err != nil {
		_ = fs.contentStore.Delete(ctx, file.ContentID)
		return nil, err
	}
	return file, nil
}

// SetAccess sets the rights of username on the entity. EveryoneKey sets the
// default rule; an empty username clears every rule of the entity.
func (fs *DefaultFileSystem) SetAccess(ctx context.Context, ref metadata.Reference, username string, rights metadata.Rights) error {
	entity, err := fs.loadEntity(ctx, ref)
	if err != nil {
		return err
	}

	update := func(access metadata.Access) metadata.Access {
		if username == "" {
			return nil
		}
		if access == nil {
			access = make(metadata.Access)
		}
		access[username] = rights
		return access
	}

	switch e := entity.(type) {
	case *metadata.Folder:
		e.Access = update(e.Access)
	case *metadata.File:
		e.Access = update(e.Access)
	}
	return fs.Save(ctx, entity)
}

// ListRoots returns the root folders of a drive.
func (fs *DefaultFileSystem) ListRoots(ctx context.Context, drive string) ([]*metadata.Folder, error) {
	refs, err := fs.metadataStore.ListRoots(ctx, drive)
	if err != nil {
		return nil, err
	}

	roots := make([]*metadata.Folder, 0, len(refs))
	for _, ref := range refs {
		folder, err := fs.metadataStore.GetFolder(ctx, ref)
		if err != nil {
			if metadata.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		roots = append(roots, folder)
	}
	return roots, nil
}

func (fs *DefaultFileSystem) checkAbsent(ctx context.Context, ref metadata.Reference) error {
	if ref.IsZero() {
		return metadata.NewInvalidArgumentError("reference is required", ref)
	}
	exists, err := fs.metadataStore.Exists(ctx, ref)
	if err != nil {
		return err
	}
	if exists {
		return metadata.NewAlreadyExistsError(ref)
	}
	return nil
}
