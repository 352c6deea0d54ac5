package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/marmos91/filesmanager/pkg/content"
	contenttesting "github.com/marmos91/filesmanager/pkg/content/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFSContentStore runs the complete ContentStore test suite against a
// store rooted in a fresh temporary directory per test.
func TestFSContentStore(t *testing.T) {
	suite := &contenttesting.StoreTestSuite{
		NewStore: func() content.ContentStore {
			store, err := NewFSContentStore(context.Background(), t.TempDir())
			if err != nil {
				t.Fatalf("Failed to create FSContentStore: %v", err)
			}
			return store
		},
	}

	suite.Run(t)
}

func TestFSContentStore_LocationIsBlobFile(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	store, err := NewFSContentStore(ctx, dir)
	require.NoError(t, err)

	require.NoError(t, store.WriteContent(ctx, "blob-1", []byte("Hello")))

	data, err := os.ReadFile(store.Location("blob-1"))
	require.NoError(t, err)
	assert.Equal(t, "Hello", string(data))
	assert.Equal(t, filepath.Join(dir, "blob-1"), store.Location("blob-1"))

	info, err := os.Stat(store.Location("blob-1"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
}

func TestFSContentStore_CreatesNestedRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "a", "b")

	_, err := NewFSContentStore(context.Background(), root)
	require.NoError(t, err)

	info, err := os.Stat(root)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestFSContentStore_SkipsTempFiles(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	store, err := NewFSContentStore(ctx, dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, tempPrefix+"leftover"), []byte("x"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0755))
	require.NoError(t, store.WriteContent(ctx, "real", []byte("y")))

	infos, err := store.ListAllContent(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "real", infos[0].ID)
}
