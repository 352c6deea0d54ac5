package testing

import (
	"bytes"
	"sync"
	"testing"

	"github.com/marmos91/filesmanager/pkg/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunWriteTests executes all write and delete tests.
func (suite *StoreTestSuite) RunWriteTests(t *testing.T) {
	t.Run("WriteContent_Basic", suite.testWriteContentBasic)
	t.Run("WriteContent_Overwrite", suite.testWriteContentOverwrite)
	t.Run("WriteContent_Empty", suite.testWriteContentEmpty)
	t.Run("WriteContent_Large", suite.testWriteContentLarge)
	t.Run("WriteContent_Concurrent", suite.testWriteContentConcurrent)
	t.Run("WriteContent_Thumbnail", suite.testWriteContentThumbnail)
	t.Run("Delete_Success", suite.testDeleteSuccess)
	t.Run("Delete_Idempotent", suite.testDeleteIdempotent)
}

// ============================================================================
// WriteContent Tests
// ============================================================================

func (suite *StoreTestSuite) testWriteContentBasic(t *testing.T) {
	store := suite.NewStore()
	id := generateTestID("write-basic")
	testData := []byte("Hello, World!")

	mustWriteContent(t, store, id, testData)

	assertContentEquals(t, store, id, testData)
}

func (suite *StoreTestSuite) testWriteContentOverwrite(t *testing.T) {
	store := suite.NewStore()
	id := generateTestID("write-overwrite")

	mustWriteContent(t, store, id, []byte("Old data that is longer"))
	mustWriteContent(t, store, id, []byte("New data"))

	assertContentEquals(t, store, id, []byte("New data"))
}

func (suite *StoreTestSuite) testWriteContentEmpty(t *testing.T) {
	store := suite.NewStore()
	id := generateTestID("write-empty")

	mustWriteContent(t, store, id, []byte{})

	assertContentEquals(t, store, id, []byte{})
}

func (suite *StoreTestSuite) testWriteContentLarge(t *testing.T) {
	store := suite.NewStore()
	id := generateTestID("write-large")
	data := bytes.Repeat([]byte("0123456789abcdef"), 256*1024) // 4MB

	mustWriteContent(t, store, id, data)

	assertContentEquals(t, store, id, data)
}

// testWriteContentConcurrent checks that readers never observe a torn blob
// while writers race on the same id.
func (suite *StoreTestSuite) testWriteContentConcurrent(t *testing.T) {
	store := suite.NewStore()
	id := generateTestID("write-concurrent")
	a := bytes.Repeat([]byte("a"), 64*1024)
	b := bytes.Repeat([]byte("b"), 64*1024)
	mustWriteContent(t, store, id, a)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(data []byte) {
			defer wg.Done()
			assert.NoError(t, store.WriteContent(testContext(), id, data))
		}(map[bool][]byte{true: a, false: b}[i%2 == 0])
	}
	wg.Wait()

	got := mustReadContent(t, store, id)
	assert.True(t, bytes.Equal(got, a) || bytes.Equal(got, b), "blob must equal one complete write")
}

func (suite *StoreTestSuite) testWriteContentThumbnail(t *testing.T) {
	store := suite.NewStore()
	id := generateTestID("original")

	mustWriteContent(t, store, id, []byte("original"))
	mustWriteContent(t, store, content.ThumbnailID(id, 250), []byte("thumb"))

	assertContentEquals(t, store, id, []byte("original"))
	assertContentEquals(t, store, content.ThumbnailID(id, 250), []byte("thumb"))
}

// ============================================================================
// Delete Tests
// ============================================================================

func (suite *StoreTestSuite) testDeleteSuccess(t *testing.T) {
	store := suite.NewStore()
	id := generateTestID("delete")
	mustWriteContent(t, store, id, []byte("bye"))

	require.NoError(t, store.Delete(testContext(), id))

	exists, err := store.ContentExists(testContext(), id)
	require.NoError(t, err)
	assert.False(t, exists)
}

func (suite *StoreTestSuite) testDeleteIdempotent(t *testing.T) {
	store := suite.NewStore()
	id := generateTestID("delete-twice")

	require.NoError(t, store.Delete(testContext(), id), "deleting missing content succeeds")
	mustWriteContent(t, store, id, []byte("x"))
	require.NoError(t, store.Delete(testContext(), id))
	require.NoError(t, store.Delete(testContext(), id))
}
