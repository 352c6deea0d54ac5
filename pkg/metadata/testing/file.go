package testing

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/marmos91/filesmanager/pkg/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *StoreTestSuite) RunFileTests(test *testing.T) {
	test.Run("CreateFile_Success", suite.TestCreateFile_Success)
	test.Run("CreateFile_AssignsIncreasingSeq", suite.TestCreateFile_AssignsIncreasingSeq)
	test.Run("CreateFile_Duplicate", suite.TestCreateFile_Duplicate)
	test.Run("CreateFile_InvalidRecord", suite.TestCreateFile_InvalidRecord)
	test.Run("CreateFile_CallerMutationIsolated", suite.TestCreateFile_CallerMutationIsolated)
	test.Run("GetFile_NotFound", suite.TestGetFile_NotFound)
	test.Run("SetPublic_Toggle", suite.TestSetPublic_Toggle)
	test.Run("SetPublic_NotFound", suite.TestSetPublic_NotFound)
	test.Run("SetPublic_Concurrent", suite.TestSetPublic_Concurrent)
	test.Run("CountFiles", suite.TestCountFiles)
	test.Run("ListContentIDs", suite.TestListContentIDs)
}

func (suite *StoreTestSuite) TestCreateFile_Success(test *testing.T) {
	store := suite.NewStore()
	ctx := context.Background()
	owner := uuid.NewString()

	record := NewFileRecord(owner, metadata.RootParentID, "myText.txt", metadata.FileTypeFile)

	// Act
	err := store.CreateFile(ctx, record)

	// Assert
	require.NoError(test, err)
	got, err := store.GetFile(ctx, record.ID)
	require.NoError(test, err)
	assert.Equal(test, record.Name, got.Name)
	assert.Equal(test, record.Type, got.Type)
	assert.Equal(test, owner, got.OwnerID)
	assert.Equal(test, metadata.RootParentID, got.ParentID)
	assert.Equal(test, record.ContentID, got.ContentID)
	assert.Equal(test, record.LocalPath, got.LocalPath)
	assert.Equal(test, record.Size, got.Size)
	assert.False(test, got.IsPublic)
	assert.True(test, record.CreatedAt.Equal(got.CreatedAt), "CreatedAt should round-trip")
	assert.Equal(test, record.Seq, got.Seq)
}

func (suite *StoreTestSuite) TestCreateFile_AssignsIncreasingSeq(test *testing.T) {
	store := suite.NewStore()
	owner := uuid.NewString()

	first := MustCreateFile(test, store, NewFileRecord(owner, "", "a", metadata.FileTypeFolder))
	second := MustCreateFile(test, store, NewFileRecord(owner, "", "b", metadata.FileTypeFolder))

	assert.NotZero(test, first.Seq)
	assert.Greater(test, second.Seq, first.Seq)
}

func (suite *StoreTestSuite) TestCreateFile_Duplicate(test *testing.T) {
	store := suite.NewStore()
	ctx := context.Background()
	record := MustCreateFile(test, store, NewFileRecord(uuid.NewString(), "", "dup", metadata.FileTypeFolder))

	// Act
	err := store.CreateFile(ctx, record.Clone())

	// Assert
	require.Error(test, err)
	assert.True(test, metadata.IsAlreadyExistsError(err), "expected AlreadyExists, got %v", err)
}

func (suite *StoreTestSuite) TestCreateFile_InvalidRecord(test *testing.T) {
	store := suite.NewStore()
	ctx := context.Background()

	err := store.CreateFile(ctx, nil)
	require.Error(test, err)

	err = store.CreateFile(ctx, &metadata.FileRecord{Name: "no id"})
	require.Error(test, err)

	var storeErr *metadata.StoreError
	require.ErrorAs(test, err, &storeErr)
	assert.Equal(test, metadata.ErrInvalidArgument, storeErr.Code)
}

func (suite *StoreTestSuite) TestCreateFile_CallerMutationIsolated(test *testing.T) {
	store := suite.NewStore()
	ctx := context.Background()
	record := MustCreateFile(test, store, NewFileRecord(uuid.NewString(), "", "original", metadata.FileTypeFolder))

	record.Name = "mutated"
	got, err := store.GetFile(ctx, record.ID)
	require.NoError(test, err)
	got.Name = "mutated again"

	again, err := store.GetFile(ctx, record.ID)
	require.NoError(test, err)
	assert.Equal(test, "original", again.Name)
}

func (suite *StoreTestSuite) TestGetFile_NotFound(test *testing.T) {
	store := suite.NewStore()

	_, err := store.GetFile(context.Background(), uuid.NewString())

	require.Error(test, err)
	assert.True(test, metadata.IsNotFoundError(err), "expected NotFound, got %v", err)
}

func (suite *StoreTestSuite) TestSetPublic_Toggle(test *testing.T) {
	store := suite.NewStore()
	ctx := context.Background()
	record := MustCreateFile(test, store, NewFileRecord(uuid.NewString(), "", "photo.png", metadata.FileTypeImage))

	// Act
	updated, err := store.SetPublic(ctx, record.ID, true)

	// Assert
	require.NoError(test, err)
	assert.True(test, updated.IsPublic)
	assert.Equal(test, record.Name, updated.Name)

	got, err := store.GetFile(ctx, record.ID)
	require.NoError(test, err)
	assert.True(test, got.IsPublic)

	// Setting the same value again is idempotent.
	updated, err = store.SetPublic(ctx, record.ID, true)
	require.NoError(test, err)
	assert.True(test, updated.IsPublic)

	updated, err = store.SetPublic(ctx, record.ID, false)
	require.NoError(test, err)
	assert.False(test, updated.IsPublic)

	got, err = store.GetFile(ctx, record.ID)
	require.NoError(test, err)
	assert.False(test, got.IsPublic)
}

func (suite *StoreTestSuite) TestSetPublic_NotFound(test *testing.T) {
	store := suite.NewStore()

	_, err := store.SetPublic(context.Background(), uuid.NewString(), true)

	require.Error(test, err)
	assert.True(test, metadata.IsNotFoundError(err))
}

func (suite *StoreTestSuite) TestSetPublic_Concurrent(test *testing.T) {
	store := suite.NewStore()
	ctx := context.Background()
	record := MustCreateFile(test, store, NewFileRecord(uuid.NewString(), "", "shared", metadata.FileTypeFile))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(public bool) {
			defer wg.Done()
			_, err := store.SetPublic(ctx, record.ID, public)
			assert.NoError(test, err)
		}(i%2 == 0)
	}
	wg.Wait()

	// Whatever the final value is, the rest of the record is intact.
	got, err := store.GetFile(ctx, record.ID)
	require.NoError(test, err)
	assert.Equal(test, record.Name, got.Name)
	assert.Equal(test, record.ContentID, got.ContentID)
}

func (suite *StoreTestSuite) TestCountFiles(test *testing.T) {
	store := suite.NewStore()
	ctx := context.Background()
	owner := uuid.NewString()

	count, err := store.CountFiles(ctx)
	require.NoError(test, err)
	assert.Equal(test, 0, count)

	MustCreateFile(test, store, NewFileRecord(owner, "", "folder", metadata.FileTypeFolder))
	MustCreateFile(test, store, NewFileRecord(owner, "", "file.txt", metadata.FileTypeFile))
	MustCreateFile(test, store, NewFileRecord(owner, "", "image.png", metadata.FileTypeImage))

	count, err = store.CountFiles(ctx)
	require.NoError(test, err)
	assert.Equal(test, 3, count)
}

func (suite *StoreTestSuite) TestListContentIDs(test *testing.T) {
	store := suite.NewStore()
	ctx := context.Background()
	owner := uuid.NewString()

	MustCreateFile(test, store, NewFileRecord(owner, "", "folder", metadata.FileTypeFolder))
	file := MustCreateFile(test, store, NewFileRecord(owner, "", "file.txt", metadata.FileTypeFile))
	image := MustCreateFile(test, store, NewFileRecord(owner, "", "image.png", metadata.FileTypeImage))

	ids, err := store.ListContentIDs(ctx)

	require.NoError(test, err)
	assert.Len(test, ids, 2, "folders have no content")
	assert.Contains(test, ids, file.ContentID)
	assert.Contains(test, ids, image.ContentID)
}
