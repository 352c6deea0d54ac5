package testing

import (
	"testing"
	"time"

	"github.com/marmos91/filesmanager/pkg/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunGCTests exercises the listing used by garbage collection.
func (suite *StoreTestSuite) RunGCTests(t *testing.T) {
	t.Run("ListAllContent", suite.testListAllContent)
	t.Run("ListAllContent_AfterDelete", suite.testListAllContentAfterDelete)
}

func (suite *StoreTestSuite) testListAllContent(t *testing.T) {
	store := suite.NewStore()
	before := time.Now().Add(-time.Minute)

	first := generateTestID("gc")
	second := generateTestID("gc")
	mustWriteContent(t, store, first, []byte("one"))
	mustWriteContent(t, store, second, []byte("three"))
	mustWriteContent(t, store, content.ThumbnailID(second, 100), []byte("t"))

	infos, err := store.ListAllContent(testContext())
	require.NoError(t, err)

	byID := make(map[string]content.ContentInfo, len(infos))
	for _, info := range infos {
		byID[info.ID] = info
	}

	require.Contains(t, byID, first)
	require.Contains(t, byID, second)
	require.Contains(t, byID, content.ThumbnailID(second, 100))
	assert.Equal(t, int64(3), byID[first].Size)
	assert.Equal(t, int64(5), byID[second].Size)
	assert.True(t, byID[first].ModTime.After(before), "ModTime should be recent")
}

func (suite *StoreTestSuite) testListAllContentAfterDelete(t *testing.T) {
	store := suite.NewStore()
	id := generateTestID("gc-deleted")
	mustWriteContent(t, store, id, []byte("x"))
	require.NoError(t, store.Delete(testContext(), id))

	infos, err := store.ListAllContent(testContext())
	require.NoError(t, err)

	for _, info := range infos {
		assert.NotEqual(t, id, info.ID)
	}
}
