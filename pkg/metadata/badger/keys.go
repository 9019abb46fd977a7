package badger

import (
	"github.com/marmos91/dittodrive/pkg/metadata"
)

// Key Schema
//
// All keys are namespaced with a one letter prefix so range scans never
// cross data types. Reference components are joined with keySep (NUL), which
// cannot appear in drive or entity names.
//
//	e:<drive>\0<name>                           -> entityRecord (JSON)
//	c:<drive>\0<parent>\0d<child>               -> empty (child folder link)
//	c:<drive>\0<parent>\0f<child>               -> empty (child file link)
//
// Parent links never cross drives, so a child index key carries the child
// name only and the child lives in the parent's drive.
const (
	prefixEntity = "e:"
	prefixChild  = "c:"

	keySep = "\x00"

	childFolderTag = 'd'
	childFileTag   = 'f'
)

// keyEntity returns the key of the record stored under ref.
func keyEntity(ref metadata.Reference) []byte {
	return []byte(prefixEntity + ref.Drive + keySep + ref.Name)
}

// keyEntityDrivePrefix returns the prefix shared by every record of a drive.
func keyEntityDrivePrefix(drive string) []byte {
	return []byte(prefixEntity + drive + keySep)
}

// keyChildPrefix returns the prefix shared by every child link of parent.
func keyChildPrefix(parent metadata.Reference) []byte {
	return []byte(prefixChild + parent.Drive + keySep + parent.Name + keySep)
}

// keyChild returns the child index key linking child under parent.
func keyChild(parent, child metadata.Reference, kind metadata.EntityKind) []byte {
	tag := byte(childFileTag)
	if kind == metadata.KindFolder {
		tag = childFolderTag
	}
	key := keyChildPrefix(parent)
	key = append(key, tag)
	return append(key, child.Name...)
}

// parseChildKey extracts the child reference and kind from a child index key
// found under keyChildPrefix(parent).
func parseChildKey(parent metadata.Reference, key []byte) (metadata.Reference, metadata.EntityKind, bool) {
	prefix := keyChildPrefix(parent)
	if len(key) <= len(prefix)+1 {
		return metadata.Reference{}, "", false
	}

	rest := key[len(prefix):]
	kind := metadata.KindFile
	if rest[0] == childFolderTag {
		kind = metadata.KindFolder
	}
	return parent.WithName(string(rest[1:])), kind, true
}
