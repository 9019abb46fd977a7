package badger

import (
	"context"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/marmos91/dittodrive/pkg/metadata"
)

// GetFolder returns the folder stored under ref with its children computed
// from the child index.
//
// Thread Safety: Safe for concurrent use.
//
// Returns:
//   - *metadata.Folder: A fresh copy of the folder record
//   - error: ErrNotFound, ErrNotFolder, or context errors
func (s *BadgerMetadataStore) GetFolder(ctx context.Context, ref metadata.Reference) (*metadata.Folder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var folder *metadata.Folder
	err := s.db.View(func(txn *badger.Txn) error {
		record, err := getRecord(txn, ref)
		if metadata.IsNotFound(err) {
			return metadata.NewNotFoundError(ref, "folder")
		}
		if err != nil {
			return err
		}
		if record.Kind != metadata.KindFolder {
			return &metadata.StoreError{Code: metadata.ErrNotFolder, Message: "not a folder", Path: ref.String()}
		}

		folder = record.Folder
		folder.Reference = ref
		folder.ChildFolders, folder.ChildFiles = listChildren(txn, ref)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return folder, nil
}

// GetFile returns the file stored under ref.
//
// Returns ErrNotFound if missing, ErrIsFolder if ref is a folder.
func (s *BadgerMetadataStore) GetFile(ctx context.Context, ref metadata.Reference) (*metadata.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var file *metadata.File
	err := s.db.View(func(txn *badger.Txn) error {
		record, err := getRecord(txn, ref)
		if metadata.IsNotFound(err) {
			return metadata.NewNotFoundError(ref, "file")
		}
		if err != nil {
			return err
		}
		if record.Kind != metadata.KindFile {
			return &metadata.StoreError{Code: metadata.ErrIsFolder, Message: "is a folder", Path: ref.String()}
		}

		file = record.File
		file.Reference = ref
		return nil
	})
	if err != nil {
		return nil, err
	}
	return file, nil
}

// Kind returns the kind of the entity stored under ref.
func (s *BadgerMetadataStore) Kind(ctx context.Context, ref metadata.Reference) (metadata.EntityKind, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var kind metadata.EntityKind
	err := s.db.View(func(txn *badger.Txn) error {
		record, err := getRecord(txn, ref)
		if err != nil {
			return err
		}
		kind = record.Kind
		return nil
	})
	return kind, err
}

// Exists reports whether a record is stored under ref.
func (s *BadgerMetadataStore) Exists(ctx context.Context, ref metadata.Reference) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var exists bool
	err := s.db.View(func(txn *badger.Txn) error {
		found, err := keyExists(txn, keyEntity(ref))
		exists = found
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to check entity %s: %w", ref, err)
	}
	return exists, nil
}

// PutFolder creates or replaces a folder record and moves its child link when
// the parent changed.
func (s *BadgerMetadataStore) PutFolder(ctx context.Context, folder *metadata.Folder) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if folder == nil || folder.Reference.IsZero() {
		return metadata.NewInvalidArgumentError("folder reference is required", metadata.Reference{})
	}
	if folder.Parent == folder.Reference {
		return metadata.NewInvalidArgumentError("folder cannot be its own parent", folder.Reference)
	}
	if !folder.Parent.IsZero() && folder.Parent.Drive != folder.Reference.Drive {
		return metadata.NewInvalidArgumentError("parent must be in the same drive", folder.Parent)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		ref := folder.Reference

		existing, err := getRecord(txn, ref)
		if err != nil && !metadata.IsNotFound(err) {
			return err
		}
		if existing != nil && existing.Kind != metadata.KindFolder {
			return &metadata.StoreError{Code: metadata.ErrNotFolder, Message: "reference is used by a file", Path: ref.String()}
		}

		if !folder.Parent.IsZero() {
			parent, err := getRecord(txn, folder.Parent)
			if err != nil && !metadata.IsNotFound(err) {
				return err
			}
			if parent != nil && parent.Kind != metadata.KindFolder {
				return &metadata.StoreError{Code: metadata.ErrNotFolder, Message: "parent is a file", Path: folder.Parent.String()}
			}
		}

		if existing != nil && !existing.Folder.Parent.IsZero() && existing.Folder.Parent != folder.Parent {
			if err := txn.Delete(keyChild(existing.Folder.Parent, ref, metadata.KindFolder)); err != nil {
				return fmt.Errorf("failed to unlink folder %s: %w", ref, err)
			}
		}

		stored := folder.Clone()
		stored.ChildFolders = nil
		stored.ChildFiles = nil

		data, err := encodeFolder(stored)
		if err != nil {
			return err
		}
		if err := txn.Set(keyEntity(ref), data); err != nil {
			return fmt.Errorf("failed to store folder %s: %w", ref, err)
		}

		if !stored.Parent.IsZero() {
			if err := txn.Set(keyChild(stored.Parent, ref, metadata.KindFolder), nil); err != nil {
				return fmt.Errorf("failed to link folder %s: %w", ref, err)
			}
		}
		return nil
	})
}

// PutFile creates or replaces a file record and reconciles its child links
// with the new parent set.
func (s *BadgerMetadataStore) PutFile(ctx context.Context, file *metadata.File) error {
	if err := ctx.Err(); err != nil {
		return err
	}
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

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		ref := file.Reference

		existing, err := getRecord(txn, ref)
		if err != nil && !metadata.IsNotFound(err) {
			return err
		}
		if existing != nil && existing.Kind != metadata.KindFile {
			return &metadata.StoreError{Code: metadata.ErrIsFolder, Message: "reference is used by a folder", Path: ref.String()}
		}

		if existing != nil {
			for _, parent := range existing.File.Parents {
				if file.HasParent(parent) {
					continue
				}
				if err := txn.Delete(keyChild(parent, ref, metadata.KindFile)); err != nil {
					return fmt.Errorf("failed to unlink file %s: %w", ref, err)
				}
			}
		}

		data, err := encodeFile(file)
		if err != nil {
			return err
		}
		if err := txn.Set(keyEntity(ref), data); err != nil {
			return fmt.Errorf("failed to store file %s: %w", ref, err)
		}

		for _, parent := range file.Parents {
			if err := txn.Set(keyChild(parent, ref, metadata.KindFile), nil); err != nil {
				return fmt.Errorf("failed to link file %s: %w", ref, err)
			}
		}
		return nil
	})
}

// Delete removes the record stored under ref and its own child links.
// Links of its children are left untouched.
func (s *BadgerMetadataStore) Delete(ctx context.Context, ref metadata.Reference) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		record, err := getRecord(txn, ref)
		if err != nil {
			return err
		}

		if err := unlinkRecord(txn, record, ref); err != nil {
			return err
		}
		if err := txn.Delete(keyEntity(ref)); err != nil {
			return fmt.Errorf("failed to delete entity %s: %w", ref, err)
		}
		return nil
	})
}

// Rename moves the record stored under oldRef to newRef and re-keys the
// links that point to it. Links keyed by oldRef (its own children) stay in
// place until the children are saved again.
func (s *BadgerMetadataStore) Rename(ctx context.Context, oldRef, newRef metadata.Reference) error {
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

	return s.db.Update(func(txn *badger.Txn) error {
		taken, err := keyExists(txn, keyEntity(newRef))
		if err != nil {
			return fmt.Errorf("failed to check entity %s: %w", newRef, err)
		}
		if taken {
			return metadata.NewAlreadyExistsError(newRef)
		}

		record, err := getRecord(txn, oldRef)
		if err != nil {
			return err
		}
		if err := unlinkRecord(txn, record, oldRef); err != nil {
			return err
		}
		if err := txn.Delete(keyEntity(oldRef)); err != nil {
			return fmt.Errorf("failed to delete entity %s: %w", oldRef, err)
		}

		var data []byte
		switch record.Kind {
		case metadata.KindFolder:
			record.Folder.Reference = newRef
			data, err = encodeFolder(record.Folder)
		default:
			record.File.Reference = newRef
			data, err = encodeFile(record.File)
		}
		if err != nil {
			return err
		}
		if err := txn.Set(keyEntity(newRef), data); err != nil {
			return fmt.Errorf("failed to store entity %s: %w", newRef, err)
		}
		return linkRecord(txn, record, newRef)
	})
}

// ListRoots returns the root folders of a drive.
func (s *BadgerMetadataStore) ListRoots(ctx context.Context, drive string) ([]metadata.Reference, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var roots []metadata.Reference
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = keyEntityDrivePrefix(drive)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			err := it.Item().Value(func(val []byte) error {
				record, err := decodeRecord(val)
				if err != nil {
					// Skip corrupted entries
					return nil
				}
				if record.Kind == metadata.KindFolder && record.Folder.IsRoot() {
					roots = append(roots, record.Folder.Reference)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return roots, nil
}

// ListContentIDs returns every content ID referenced by a file record,
// deduplicated.
//
// Performance:
// Scans every record of every drive. Context is checked every 1000 records.
func (s *BadgerMetadataStore) ListContentIDs(ctx context.Context) ([]metadata.ContentID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[metadata.ContentID]struct{})
	var ids []metadata.ContentID
	processed := 0

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixEntity)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			processed++
			if processed%1000 == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}

			err := it.Item().Value(func(val []byte) error {
				record, err := decodeRecord(val)
				if err != nil {
					return nil
				}
				if record.Kind != metadata.KindFile || record.File.ContentID == "" {
					return nil
				}
				if _, ok := seen[record.File.ContentID]; !ok {
					seen[record.File.ContentID] = struct{}{}
					ids = append(ids, record.File.ContentID)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan content ids: %w", err)
	}
	return ids, nil
}

// linkRecord writes the child links pointing to ref.
func linkRecord(txn *badger.Txn, record *entityRecord, ref metadata.Reference) error {
	if record.Kind == metadata.KindFolder {
		if record.Folder.Parent.IsZero() {
			return nil
		}
		return txn.Set(keyChild(record.Folder.Parent, ref, metadata.KindFolder), nil)
	}
	for _, parent := range record.File.Parents {
		if err := txn.Set(keyChild(parent, ref, metadata.KindFile), nil); err != nil {
			return fmt.Errorf("failed to link file %s: %w", ref, err)
		}
	}
	return nil
}

// unlinkRecord removes the child links pointing to ref.
func unlinkRecord(txn *badger.Txn, record *entityRecord, ref metadata.Reference) error {
	if record.Kind == metadata.KindFolder {
		if record.Folder.Parent.IsZero() {
			return nil
		}
		return txn.Delete(keyChild(record.Folder.Parent, ref, metadata.KindFolder))
	}
	for _, parent := range record.File.Parents {
		if err := txn.Delete(keyChild(parent, ref, metadata.KindFile)); err != nil {
			return fmt.Errorf("failed to unlink file %s: %w", ref, err)
		}
	}
	return nil
}
