package testing

import (
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/marmos91/filesmanager/pkg/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertErrorIs checks if the error matches the expected error using errors.Is.
func AssertErrorIs(t *testing.T, expected error, actual error) {
	t.Helper()
	if !errors.Is(actual, expected) {
		t.Errorf("Expected error %v, got %v", expected, actual)
	}
}

// generateTestID returns a unique content id tagged with prefix.
func generateTestID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// mustWriteContent writes content and fails the test if it errors.
func mustWriteContent(t *testing.T, store content.ContentStore, id string, data []byte) {
	t.Helper()
	err := store.WriteContent(testContext(), id, data)
	require.NoError(t, err, "WriteContent should succeed")
}

// mustReadContent reads content and fails the test if it errors.
func mustReadContent(t *testing.T, store content.ContentStore, id string) []byte {
	t.Helper()
	reader, err := store.ReadContent(testContext(), id)
	require.NoError(t, err, "ReadContent should succeed")
	defer func() { _ = reader.Close() }()

	data, err := io.ReadAll(reader)
	require.NoError(t, err, "reading content should succeed")
	return data
}

// assertContentEquals verifies the stored bytes and size of id.
func assertContentEquals(t *testing.T, store content.ContentStore, id string, expected []byte) {
	t.Helper()
	assert.Equal(t, expected, mustReadContent(t, store, id), "content mismatch")

	size, err := store.GetContentSize(testContext(), id)
	require.NoError(t, err)
	assert.Equal(t, int64(len(expected)), size, "size mismatch")
}
