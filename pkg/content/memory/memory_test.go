package memory

import (
	"context"
	"testing"

	"github.com/marmos91/filesmanager/pkg/content"
	contenttesting "github.com/marmos91/filesmanager/pkg/content/testing"
)

// TestMemoryContentStore runs the complete ContentStore test suite
// against the MemoryContentStore implementation.
func TestMemoryContentStore(t *testing.T) {
	suite := &contenttesting.StoreTestSuite{
		NewStore: func() content.ContentStore {
			store, err := NewMemoryContentStore(context.Background())
			if err != nil {
				t.Fatalf("Failed to create MemoryContentStore: %v", err)
			}
			return store
		},
	}

	suite.Run(t)
}

func TestMemoryContentStore_WriteCopiesInput(t *testing.T) {
	ctx := context.Background()
	store, err := NewMemoryContentStore(ctx)
	if err != nil {
		t.Fatalf("NewMemoryContentStore() error = %v", err)
	}

	data := []byte("abc")
	if err := store.WriteContent(ctx, "id", data); err != nil {
		t.Fatalf("WriteContent() error = %v", err)
	}
	data[0] = 'z'

	size, err := store.GetContentSize(ctx, "id")
	if err != nil || size != 3 {
		t.Fatalf("GetContentSize() = %d, %v", size, err)
	}
	reader, _ := store.ReadContent(ctx, "id")
	buf := make([]byte, 3)
	_, _ = reader.Read(buf)
	if string(buf) != "abc" {
		t.Fatalf("stored content mutated through caller slice: %q", buf)
	}
}
