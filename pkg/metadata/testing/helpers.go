package testing

import (
	"context"
	"testing"

	"github.com/marmos91/dittodrive/pkg/metadata"
	"github.com/stretchr/testify/require"
)

// TestDrive is the drive every suite fixture lives in.
const TestDrive = "drive"

// Ref returns a reference in TestDrive.
func Ref(name string) metadata.Reference {
	return metadata.NewReference(TestDrive, name)
}

// newStore creates a store and closes it when the test ends.
func (suite *StoreTestSuite) newStore(t *testing.T) metadata.Store {
	t.Helper()

	store := suite.NewStore()
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// mustPutFolder stores a folder named after its reference.
func mustPutFolder(t *testing.T, store metadata.Store, name string, parent metadata.Reference) *metadata.Folder {
	t.Helper()

	folder := &metadata.Folder{Reference: Ref(name), Name: name, Parent: parent}
	require.NoError(t, store.PutFolder(context.Background(), folder))
	return folder
}

// mustPutFile stores a file named after its reference.
func mustPutFile(t *testing.T, store metadata.Store, name string, contentID metadata.ContentID, parents ...metadata.Reference) *metadata.File {
	t.Helper()

	file := &metadata.File{Reference: Ref(name), Name: name, Parents: parents, ContentID: contentID}
	require.NoError(t, store.PutFile(context.Background(), file))
	return file
}
