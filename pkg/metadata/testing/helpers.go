package testing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/marmos91/filesmanager/pkg/metadata"
	"github.com/stretchr/testify/require"
)

// NewFileRecord builds a record of the given type with fresh ids.
// Records with content get a content id and a local path derived from it.
func NewFileRecord(ownerID, parentID, name string, fileType metadata.FileType) *metadata.FileRecord {
	record := &metadata.FileRecord{
		ID:        uuid.NewString(),
		Name:      name,
		Type:      fileType,
		OwnerID:   ownerID,
		ParentID:  parentID,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	if fileType.HasContent() {
		record.ContentID = uuid.NewString()
		record.LocalPath = "/tmp/files_manager/" + record.ContentID
		record.Size = 5
	}
	return record
}

// NewUser builds a user with a fresh id and a placeholder password hash.
func NewUser(email string) *metadata.User {
	return &metadata.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: "$2a$10$placeholderplaceholderplaceholderplaceholderpla",
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
}

// MustCreateFile creates record in store and fails the test on error.
func MustCreateFile(test *testing.T, store metadata.MetadataStore, record *metadata.FileRecord) *metadata.FileRecord {
	test.Helper()
	require.NoError(test, store.CreateFile(context.Background(), record))
	return record
}

// names extracts record names in order, for readable assertions.
func names(records []*metadata.FileRecord) []string {
	result := make([]string, 0, len(records))
	for _, record := range records {
		result = append(result, record.Name)
	}
	return result
}
