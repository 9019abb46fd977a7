package memory

import (
	"testing"

	"github.com/marmos91/dittodrive/pkg/metadata"
	metadatatesting "github.com/marmos91/dittodrive/pkg/metadata/testing"
)

// TestMemoryMetadataStore runs the complete Store test suite
// against the MemoryMetadataStore implementation.
func TestMemoryMetadataStore(t *testing.T) {
	suite := &metadatatesting.StoreTestSuite{
		NewStore: func() metadata.Store {
			return NewMemoryMetadataStore()
		},
	}

	suite.Run(t)
}
