package s3

import (
	"context"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewS3ContentStore_RequiresClientAndBucket(t *testing.T) {
	ctx := context.Background()

	_, err := NewS3ContentStore(ctx, S3ContentStoreConfig{Bucket: "b"})
	require.Error(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = NewS3ContentStore(cancelled, S3ContentStoreConfig{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestS3ContentStore_KeysAndLocation(t *testing.T) {
	store := &S3ContentStore{bucket: "files", keyPrefix: "prod/"}

	assert.Equal(t, "prod/abc_250", store.getObjectKey("abc_250"))
	assert.Equal(t, "s3://files/prod/abc", store.Location("abc"))

	bare := &S3ContentStore{bucket: "files"}
	assert.Equal(t, "s3://files/abc", bare.Location("abc"))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(fmt.Errorf("wrapped: %w", &types.NoSuchKey{})))
	assert.True(t, isNotFound(&types.NotFound{}))
	assert.False(t, isNotFound(fmt.Errorf("boom")))
}
