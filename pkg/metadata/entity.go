package metadata

import (
	"maps"
	"slices"
)

// ContentID identifies the binary content of a file in a content store.
type ContentID string

// EntityKind distinguishes folders from files in stores that keep both in
// one namespace.
type EntityKind string

const (
	KindFolder EntityKind = "folder"
	KindFile   EntityKind = "file"
)

// Entity is implemented by *Folder and *File.
type Entity interface {
	// GetReference returns the entity id.
	GetReference() Reference

	// GetName returns the display name.
	GetName() string

	// Kind returns KindFolder or KindFile.
	Kind() EntityKind

	// AccessRules returns the per-user rights attached to the entity.
	AccessRules() Access
}

// Folder is a node of the hierarchy.
//
// ChildFolders and ChildFiles are computed by the store on every read and
// are never persisted: a folder's children are the folders whose Parent is
// this folder and the files whose Parents contain it.
type Folder struct {
	Reference Reference `json:"reference"`
	Name      string    `json:"name"`

	// Parent is the zero Reference for a root folder (a drive root).
	Parent Reference `json:"parent,omitzero"`

	Access Access `json:"access,omitempty"`

	ChildFolders []Reference `json:"-"`
	ChildFiles   []Reference `json:"-"`
}

func (f *Folder) GetReference() Reference { return f.Reference }
func (f *Folder) GetName() string         { return f.Name }
func (f *Folder) Kind() EntityKind        { return KindFolder }
func (f *Folder) AccessRules() Access     { return f.Access }

// IsRoot reports whether the folder has no parent.
func (f *Folder) IsRoot() bool {
	return f.Parent.IsZero()
}

// IsEmpty reports whether the folder had no children when it was read.
func (f *Folder) IsEmpty() bool {
	return len(f.ChildFolders) == 0 && len(f.ChildFiles) == 0
}

// Clone returns a deep copy.
func (f *Folder) Clone() *Folder {
	c := *f
	c.Access = maps.Clone(f.Access)
	c.ChildFolders = slices.Clone(f.ChildFolders)
	c.ChildFiles = slices.Clone(f.ChildFiles)
	return &c
}

// File is a leaf of the hierarchy. A file can be linked under several
// folders at once. A persisted file always has at least one parent: a file
// losing its last parent is deleted instead.
type File struct {
	Reference Reference   `json:"reference"`
	Name      string      `json:"name"`
	Parents   []Reference `json:"parents"`
	ContentID ContentID   `json:"content_id,omitempty"`
	Size      int64       `json:"size"`
	Access    Access      `json:"access,omitempty"`
}

func (f *File) GetReference() Reference { return f.Reference }
func (f *File) GetName() string         { return f.Name }
func (f *File) Kind() EntityKind        { return KindFile }
func (f *File) AccessRules() Access     { return f.Access }

// HasParent reports whether parent is one of the file's parents.
func (f *File) HasParent(parent Reference) bool {
	return slices.Contains(f.Parents, parent)
}

// AddParent links the file under parent. Returns true if the parent set changed.
func (f *File) AddParent(parent Reference) bool {
	if parent.IsZero() || f.HasParent(parent) {
		return false
	}
	f.Parents = append(f.Parents, parent)
	return true
}

// RemoveParent unlinks the file from parent. Returns true if the parent set changed.
func (f *File) RemoveParent(parent Reference) bool {
	i := slices.Index(f.Parents, parent)
	if i < 0 {
		return false
	}
	f.Parents = slices.Delete(f.Parents, i, i+1)
	return true
}

// ReplaceParent swaps oldParent for newParent, keeping the set semantics.
// Returns true if the parent set changed.
func (f *File) ReplaceParent(oldParent, newParent Reference) bool {
	changed := f.RemoveParent(oldParent)
	return f.AddParent(newParent) || changed
}

// Clone returns a deep copy.
func (f *File) Clone() *File {
	c := *f
	c.Parents = slices.Clone(f.Parents)
	c.Access = maps.Clone(f.Access)
	return &c
}
