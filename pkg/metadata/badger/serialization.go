package badger

import (
	"encoding/json"
	"fmt"

	"github.com/marmos91/dittodrive/pkg/metadata"
)

// entityRecord is the persisted form of a folder or a file. Exactly one of
// Folder and File is set, matching Kind.
type entityRecord struct {
	Kind   metadata.EntityKind `json:"kind"`
	Folder *metadata.Folder    `json:"folder,omitempty"`
	File   *metadata.File      `json:"file,omitempty"`
}

func encodeFolder(folder *metadata.Folder) ([]byte, error) {
	data, err := json.Marshal(entityRecord{Kind: metadata.KindFolder, Folder: folder})
	if err != nil {
		return nil, fmt.Errorf("failed to encode folder %s: %w", folder.Reference, err)
	}
	return data, nil
}

func encodeFile(file *metadata.File) ([]byte, error) {
	data, err := json.Marshal(entityRecord{Kind: metadata.KindFile, File: file})
	if err != nil {
		return nil, fmt.Errorf("failed to encode file %s: %w", file.Reference, err)
	}
	return data, nil
}

func decodeRecord(data []byte) (*entityRecord, error) {
	var record entityRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode entity record: %w", err)
	}

	switch record.Kind {
	case metadata.KindFolder:
		if record.Folder == nil {
			return nil, fmt.Errorf("folder record without folder data")
		}
	case metadata.KindFile:
		if record.File == nil {
			return nil, fmt.Errorf("file record without file data")
		}
	default:
		return nil, fmt.Errorf("unknown entity kind %q", record.Kind)
	}

	return &record, nil
}
