package testing

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/marmos91/filesmanager/pkg/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *StoreTestSuite) RunListingTests(test *testing.T) {
	test.Run("ListFiles_CreationOrder", suite.TestListFiles_CreationOrder)
	test.Run("ListFiles_Pagination", suite.TestListFiles_Pagination)
	test.Run("ListFiles_OffsetPastEnd", suite.TestListFiles_OffsetPastEnd)
	test.Run("ListFiles_ScopedToOwner", suite.TestListFiles_ScopedToOwner)
	test.Run("ListFiles_ScopedToParent", suite.TestListFiles_ScopedToParent)
	test.Run("ListFiles_EmptyParentIsRoot", suite.TestListFiles_EmptyParentIsRoot)
	test.Run("ListFiles_NegativeArguments", suite.TestListFiles_NegativeArguments)
}

func (suite *StoreTestSuite) TestListFiles_CreationOrder(test *testing.T) {
	store := suite.NewStore()
	ctx := context.Background()
	owner := uuid.NewString()

	// Names sort differently from creation order.
	for _, name := range []string{"zeta", "alpha", "mid"} {
		MustCreateFile(test, store, NewFileRecord(owner, metadata.RootParentID, name, metadata.FileTypeFolder))
	}

	// Act
	records, err := store.ListFiles(ctx, owner, metadata.RootParentID, 0, 20)

	// Assert
	require.NoError(test, err)
	assert.Equal(test, []string{"zeta", "alpha", "mid"}, names(records))
}

func (suite *StoreTestSuite) TestListFiles_Pagination(test *testing.T) {
	store := suite.NewStore()
	ctx := context.Background()
	owner := uuid.NewString()

	for i := 0; i < 25; i++ {
		MustCreateFile(test, store, NewFileRecord(owner, metadata.RootParentID, fmt.Sprintf("file-%02d", i), metadata.FileTypeFile))
	}

	first, err := store.ListFiles(ctx, owner, metadata.RootParentID, 0, 20)
	require.NoError(test, err)
	require.Len(test, first, 20)
	assert.Equal(test, "file-00", first[0].Name)
	assert.Equal(test, "file-19", first[19].Name)

	second, err := store.ListFiles(ctx, owner, metadata.RootParentID, 20, 20)
	require.NoError(test, err)
	require.Len(test, second, 5)
	assert.Equal(test, "file-20", second[0].Name)
	assert.Equal(test, "file-24", second[4].Name)
}

func (suite *StoreTestSuite) TestListFiles_OffsetPastEnd(test *testing.T) {
	store := suite.NewStore()
	ctx := context.Background()
	owner := uuid.NewString()
	MustCreateFile(test, store, NewFileRecord(owner, "", "only", metadata.FileTypeFolder))

	records, err := store.ListFiles(ctx, owner, metadata.RootParentID, 20, 20)

	require.NoError(test, err)
	assert.NotNil(test, records, "an empty page is an empty slice, not nil")
	assert.Empty(test, records)
}

func (suite *StoreTestSuite) TestListFiles_ScopedToOwner(test *testing.T) {
	store := suite.NewStore()
	ctx := context.Background()
	alice := uuid.NewString()
	bob := uuid.NewString()

	MustCreateFile(test, store, NewFileRecord(alice, "", "alice.txt", metadata.FileTypeFile))
	bobs := MustCreateFile(test, store, NewFileRecord(bob, "", "bob.txt", metadata.FileTypeFile))
	// Public records of other users never appear in a listing.
	_, err := store.SetPublic(ctx, bobs.ID, true)
	require.NoError(test, err)

	records, err := store.ListFiles(ctx, alice, metadata.RootParentID, 0, 20)

	require.NoError(test, err)
	assert.Equal(test, []string{"alice.txt"}, names(records))
}

func (suite *StoreTestSuite) TestListFiles_ScopedToParent(test *testing.T) {
	store := suite.NewStore()
	ctx := context.Background()
	owner := uuid.NewString()

	folder := MustCreateFile(test, store, NewFileRecord(owner, "", "images", metadata.FileTypeFolder))
	MustCreateFile(test, store, NewFileRecord(owner, folder.ID, "a.png", metadata.FileTypeImage))
	MustCreateFile(test, store, NewFileRecord(owner, folder.ID, "b.png", metadata.FileTypeImage))
	MustCreateFile(test, store, NewFileRecord(owner, "", "top.txt", metadata.FileTypeFile))

	inFolder, err := store.ListFiles(ctx, owner, folder.ID, 0, 20)
	require.NoError(test, err)
	assert.Equal(test, []string{"a.png", "b.png"}, names(inFolder))

	atRoot, err := store.ListFiles(ctx, owner, metadata.RootParentID, 0, 20)
	require.NoError(test, err)
	assert.Equal(test, []string{"images", "top.txt"}, names(atRoot))
}

func (suite *StoreTestSuite) TestListFiles_EmptyParentIsRoot(test *testing.T) {
	store := suite.NewStore()
	ctx := context.Background()
	owner := uuid.NewString()

	MustCreateFile(test, store, NewFileRecord(owner, "", "implicit", metadata.FileTypeFolder))
	MustCreateFile(test, store, NewFileRecord(owner, metadata.RootParentID, "explicit", metadata.FileTypeFolder))

	viaEmpty, err := store.ListFiles(ctx, owner, "", 0, 20)
	require.NoError(test, err)
	viaRoot, err := store.ListFiles(ctx, owner, metadata.RootParentID, 0, 20)
	require.NoError(test, err)

	assert.Equal(test, []string{"implicit", "explicit"}, names(viaEmpty))
	assert.Equal(test, names(viaEmpty), names(viaRoot))
	for _, record := range viaRoot {
		assert.Equal(test, metadata.RootParentID, record.ParentID)
	}
}

func (suite *StoreTestSuite) TestListFiles_NegativeArguments(test *testing.T) {
	store := suite.NewStore()

	_, err := store.ListFiles(context.Background(), uuid.NewString(), "", -1, 20)

	require.Error(test, err)
}
