package badger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/marmos91/filesmanager/pkg/metadata"
	metadatatesting "github.com/marmos91/filesmanager/pkg/metadata/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestStore creates a BadgerMetadataStore with custom configuration for testing
func createTestStore(t *testing.T, config BadgerMetadataStoreConfig) *BadgerMetadataStore {
	t.Helper()
	store, err := NewBadgerMetadataStore(context.Background(), config)
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}
	return store
}

// TestBadgerMetadataStore runs the complete MetadataStore test suite against
// an in-memory BadgerDB instance.
func TestBadgerMetadataStore(t *testing.T) {
	suite := &metadatatesting.StoreTestSuite{
		NewStore: func() metadata.MetadataStore {
			store := createTestStore(t, BadgerMetadataStoreConfig{InMemory: true})
			t.Cleanup(func() { _ = store.Close() })
			return store
		},
	}

	suite.Run(t)
}

// TestBadgerMetadataStore_WithCache runs the suite with the read cache on,
// which must not change any observable behavior.
func TestBadgerMetadataStore_WithCache(t *testing.T) {
	suite := &metadatatesting.StoreTestSuite{
		NewStore: func() metadata.MetadataStore {
			store := createTestStore(t, BadgerMetadataStoreConfig{
				InMemory:  true,
				CacheSize: 128,
				CacheTTL:  time.Minute,
			})
			t.Cleanup(func() { _ = store.Close() })
			return store
		},
	}

	suite.Run(t)
}

func TestBadgerMetadataStore_RequiresPath(t *testing.T) {
	_, err := NewBadgerMetadataStore(context.Background(), BadgerMetadataStoreConfig{})
	require.Error(t, err)
}

// TestBadgerMetadataStore_PersistsAcrossReopen verifies records, listing
// order and users survive a restart.
func TestBadgerMetadataStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	owner := uuid.NewString()

	store := createTestStore(t, BadgerMetadataStoreConfig{DBPath: dir})
	first := metadatatesting.MustCreateFile(t, store, metadatatesting.NewFileRecord(owner, "", "first", metadata.FileTypeFolder))
	user := metadatatesting.NewUser("persist@example.com")
	require.NoError(t, store.CreateUser(ctx, user))
	require.NoError(t, store.Close())

	reopened := createTestStore(t, BadgerMetadataStoreConfig{DBPath: dir})
	defer func() { _ = reopened.Close() }()

	second := metadatatesting.MustCreateFile(t, reopened, metadatatesting.NewFileRecord(owner, "", "second", metadata.FileTypeFolder))
	assert.Greater(t, second.Seq, first.Seq, "sequence must keep increasing after reopen")

	records, err := reopened.ListFiles(ctx, owner, metadata.RootParentID, 0, 20)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "first", records[0].Name)
	assert.Equal(t, "second", records[1].Name)

	got, err := reopened.GetUserByEmail(ctx, "persist@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestBadgerMetadataStore_CacheRefreshedOnSetPublic(t *testing.T) {
	store := createTestStore(t, BadgerMetadataStoreConfig{InMemory: true, CacheSize: 16})
	defer func() { _ = store.Close() }()
	ctx := context.Background()

	record := metadatatesting.MustCreateFile(t, store, metadatatesting.NewFileRecord(uuid.NewString(), "", "cached", metadata.FileTypeFile))

	// Warm the cache, then flip visibility.
	_, err := store.GetFile(ctx, record.ID)
	require.NoError(t, err)
	_, err = store.SetPublic(ctx, record.ID, true)
	require.NoError(t, err)

	got, err := store.GetFile(ctx, record.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPublic)
	assert.Equal(t, 1, store.cache.Len())
}
