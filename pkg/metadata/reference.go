package metadata

import (
	"fmt"
	"strings"
)

// referenceSeparator splits the drive from the entity name in the string form
// of a Reference.
const referenceSeparator = ":"

// Reference identifies a folder or a file.
//
// Drive scopes the entity: every folder and file of a drive shares the same
// Drive value, and unique names are generated per drive. Name is the unique
// document name of the entity inside its drive. It is distinct from the
// display name carried by Folder.Name and File.Name, which is what users see
// and what sibling collisions are checked against.
//
// The zero Reference means "unset".
type Reference struct {
	Drive string `json:"drive"`
	Name  string `json:"name"`
}

// NewReference creates a reference in the given drive.
func NewReference(drive, name string) Reference {
	return Reference{Drive: drive, Name: name}
}

// IsZero reports whether the reference is unset.
func (r Reference) IsZero() bool {
	return r.Drive == "" && r.Name == ""
}

// String returns "drive:name".
func (r Reference) String() string {
	if r.IsZero() {
		return ""
	}
	return r.Drive + referenceSeparator + r.Name
}

// WithName returns a reference to name in the same drive.
func (r Reference) WithName(name string) Reference {
	return Reference{Drive: r.Drive, Name: name}
}

// ParseReference parses the "drive:name" form produced by Reference.String.
// The empty string parses to the zero Reference.
func ParseReference(s string) (Reference, error) {
	if s == "" {
		return Reference{}, nil
	}

	drive, name, ok := strings.Cut(s, referenceSeparator)
	if !ok || drive == "" || name == "" {
		return Reference{}, fmt.Errorf("invalid reference %q: expected drive%sname", s, referenceSeparator)
	}

	return Reference{Drive: drive, Name: name}, nil
}

// Path identifies either a folder (Folder set, File unset) or a file under a
// specific parent folder (both set). Because files can have several parents,
// a bare file reference is not a complete path; a path with only File set
// means "the file, no parent specified".
//
// When used as a destination, a (Folder, File) path names the entity to be
// created or renamed under Folder.
//
// Path is a value type: comparable with == and never mutated after creation.
type Path struct {
	Folder Reference `json:"folder,omitzero"`
	File   Reference `json:"file,omitzero"`
}

// NewFolderPath returns the path of a folder.
func NewFolderPath(folder Reference) Path {
	return Path{Folder: folder}
}

// NewFilePath returns the path of a file (or child entity) under folder.
// folder may be the zero Reference.
func NewFilePath(folder, file Reference) Path {
	return Path{Folder: folder, File: file}
}

// HasFolder reports whether the folder component is set.
func (p Path) HasFolder() bool {
	return !p.Folder.IsZero()
}

// HasFile reports whether the file component is set.
func (p Path) HasFile() bool {
	return !p.File.IsZero()
}

// Valid reports whether at least one component is set.
func (p Path) Valid() bool {
	return p.HasFolder() || p.HasFile()
}

// Drive returns the drive the path points into.
func (p Path) Drive() string {
	if p.HasFolder() {
		return p.Folder.Drive
	}
	return p.File.Drive
}

func (p Path) String() string {
	switch {
	case p.HasFolder() && p.HasFile():
		return p.Folder.String() + "/" + p.File.String()
	case p.HasFolder():
		return p.Folder.String()
	default:
		return "/" + p.File.String()
	}
}
