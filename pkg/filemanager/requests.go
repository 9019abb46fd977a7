package filemanager

import (
	"slices"
	"strings"

	"github.com/marmos91/dittodrive/pkg/metadata"
)

// JobIDPrefix namespaces the ids of the jobs started by the file manager.
const JobIDPrefix = "filemanager/"

// Job types.
const (
	TypeMove   = "move"
	TypeCopy   = "copy"
	TypeDelete = "delete"
	TypePack   = "pack"
)

// Request is implemented by every file manager job request.
type Request interface {
	JobID() string

	// Batch returns the part shared by every request.
	Batch() *BatchRequest
}

// BatchRequest is a job request targeting a list of paths.
type BatchRequest struct {
	// ID is the job id returned to the caller (a UUID).
	ID string `json:"id"`

	// Type is the job type (TypeMove, TypeCopy, ...).
	Type string `json:"type"`

	// Paths are the paths the job operates on, in submission order.
	Paths []metadata.Path `json:"paths"`

	// Issuer is the identity the permission checks are made for.
	Issuer *metadata.Identity `json:"issuer,omitempty"`

	// Interactive enables the overwrite question. A non interactive job never
	// overwrites an existing file.
	Interactive bool `json:"interactive"`
}

// JobID returns the namespaced id the job runs under.
func (r *BatchRequest) JobID() string {
	return JobIDPrefix + r.ID
}

// Batch returns r.
func (r *BatchRequest) Batch() *BatchRequest {
	return r
}

// Drive returns the drive of the first path, or "" for an empty request.
func (r *BatchRequest) Drive() string {
	if len(r.Paths) == 0 {
		return ""
	}
	return r.Paths[0].Drive()
}

// MoveRequest is the request of both the move and the copy jobs.
type MoveRequest struct {
	BatchRequest

	// Destination is either a folder (bulk mode) or a folder and a name
	// (single rename mode).
	Destination metadata.Path `json:"destination"`
}

// PackOutput addresses the archive produced by a pack job.
type PackOutput struct {
	// Document scopes the archive: only users allowed on the document are
	// meant to download it.
	Document metadata.Reference `json:"document"`

	// FileName is the archive file name.
	FileName string `json:"file_name"`
}

// PackRequest is the request of the pack job.
type PackRequest struct {
	BatchRequest

	Output PackOutput `json:"output"`
}

// ParsePath builds a path from a [parent, child] pair of reference names.
// Empty strings mean unset.
//
// Returns ErrInvalidRequest for more than two elements or an empty path.
func ParsePath(drive string, elements []string) (metadata.Path, error) {
	if len(elements) == 0 || len(elements) > 2 {
		return metadata.Path{}, invalidRequest("a path is a [parent, child] pair, got %d elements", len(elements))
	}

	var path metadata.Path
	if name := strings.TrimSpace(elements[0]); name != "" {
		path.Folder = metadata.NewReference(drive, name)
	}
	if len(elements) > 1 {
		if name := strings.TrimSpace(elements[1]); name != "" {
			path.File = metadata.NewReference(drive, name)
		}
	}

	if !path.Valid() {
		return metadata.Path{}, invalidRequest("empty path %q", elements)
	}
	return path, nil
}

// copyPaths isolates a request from later changes to the caller's slice.
func copyPaths(paths []metadata.Path) []metadata.Path {
	return slices.Clone(paths)
}
