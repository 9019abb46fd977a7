package filesystem

import (
	"context"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/metadata"
)

// CanView reports whether auth.Identity holds the view right on ref.
func (fs *DefaultFileSystem) CanView(auth *metadata.AuthContext, ref metadata.Reference) bool {
	return fs.hasRight(auth, ref, metadata.RightView)
}

// CanEdit reports whether auth.Identity holds the edit right on ref.
func (fs *DefaultFileSystem) CanEdit(auth *metadata.AuthContext, ref metadata.Reference) bool {
	return fs.hasRight(auth, ref, metadata.RightEdit)
}

// CanDelete reports whether auth.Identity holds the delete right on ref.
func (fs *DefaultFileSystem) CanDelete(auth *metadata.AuthContext, ref metadata.Reference) bool {
	return fs.hasRight(auth, ref, metadata.RightDelete)
}

// hasRight evaluates the access rules attached to the entity. An entity that
// cannot be loaded grants nothing.
func (fs *DefaultFileSystem) hasRight(auth *metadata.AuthContext, ref metadata.Reference, want metadata.Rights) bool {
	ctx := context.Background()
	var identity *metadata.Identity
	if auth != nil {
		identity = auth.Identity
		if auth.Context != nil {
			ctx = auth.Context
		}
	}

	entity, err := fs.loadEntity(ctx, ref)
	if err != nil {
		logger.Debug("Access check %s on %s for %s: %v", want, ref, identity.Name(), err)
		return false
	}

	return entity.AccessRules().Allows(identity, want)
}

// loadEntity returns the folder or the file stored under ref.
func (fs *DefaultFileSystem) loadEntity(ctx context.Context, ref metadata.Reference) (metadata.Entity, error) {
	kind, err := fs.metadataStore.Kind(ctx, ref)
	if err != nil {
		return nil, err
	}
	if kind == metadata.KindFolder {
		return fs.metadataStore.GetFolder(ctx, ref)
	}
	return fs.metadataStore.GetFile(ctx, ref)
}
