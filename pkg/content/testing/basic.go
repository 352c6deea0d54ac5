package testing

import (
	"testing"

	"github.com/marmos91/filesmanager/pkg/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunBasicTests exercises reads, existence checks and health.
func (suite *StoreTestSuite) RunBasicTests(t *testing.T) {
	t.Run("ReadContent_NotFound", suite.testReadContentNotFound)
	t.Run("GetContentSize_NotFound", suite.testGetContentSizeNotFound)
	t.Run("ContentExists", suite.testContentExists)
	t.Run("Location_Stable", suite.testLocationStable)
	t.Run("InvalidID", suite.testInvalidID)
	t.Run("Healthcheck", suite.testHealthcheck)
}

func (suite *StoreTestSuite) testReadContentNotFound(t *testing.T) {
	store := suite.NewStore()

	_, err := store.ReadContent(testContext(), generateTestID("missing"))

	require.Error(t, err)
	AssertErrorIs(t, content.ErrContentNotFound, err)
}

func (suite *StoreTestSuite) testGetContentSizeNotFound(t *testing.T) {
	store := suite.NewStore()

	_, err := store.GetContentSize(testContext(), generateTestID("missing"))

	AssertErrorIs(t, content.ErrContentNotFound, err)
}

func (suite *StoreTestSuite) testContentExists(t *testing.T) {
	store := suite.NewStore()
	id := generateTestID("exists")

	exists, err := store.ContentExists(testContext(), id)
	require.NoError(t, err, "missing content is not an error")
	assert.False(t, exists)

	mustWriteContent(t, store, id, []byte("Hello"))

	exists, err = store.ContentExists(testContext(), id)
	require.NoError(t, err)
	assert.True(t, exists)
}

func (suite *StoreTestSuite) testLocationStable(t *testing.T) {
	store := suite.NewStore()
	id := generateTestID("location")

	first := store.Location(id)
	assert.NotEmpty(t, first)
	assert.Contains(t, first, id)
	assert.Equal(t, first, store.Location(id), "Location must be deterministic")
	assert.NotEqual(t, first, store.Location(content.ThumbnailID(id, 500)))
}

func (suite *StoreTestSuite) testInvalidID(t *testing.T) {
	store := suite.NewStore()

	for _, id := range []string{"", "../escape", "a/b"} {
		err := store.WriteContent(testContext(), id, []byte("x"))
		AssertErrorIs(t, content.ErrInvalidContentID, err)
	}
}

func (suite *StoreTestSuite) testHealthcheck(t *testing.T) {
	store := suite.NewStore()

	require.NoError(t, store.Healthcheck(testContext()))
}
