package testing

import (
	"testing"

	"github.com/marmos91/dittodrive/pkg/metadata"
)

// StoreTestSuite is a comprehensive test suite for metadata.Store
// implementations. Every backend runs the same suite so they stay
// interchangeable behind the Store interface.
type StoreTestSuite struct {
	// NewStore is a factory function that creates a fresh Store instance
	// for each test. This ensures test isolation.
	NewStore func() metadata.Store
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(test *testing.T) {
	test.Run("Records", suite.RunRecordTests)
	test.Run("Hierarchy", suite.RunHierarchyTests)
	test.Run("Rename", suite.RunRenameTests)
	test.Run("GarbageCollection", suite.RunGCTests)
}
