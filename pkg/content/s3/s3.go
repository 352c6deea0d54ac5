package s3

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/marmos91/filesmanager/pkg/content"
)

// S3ContentStore implements ContentStore using Amazon S3 or S3-compatible storage.
//
// Key Design:
//   - The content id is the object key, behind an optional prefix
//   - Example: prefix "files/" and id "550e8400-..._250" → "files/550e8400-..._250"
//   - Location returns "s3://<bucket>/<key>", recorded as the file's localPath
//
// S3 Characteristics:
//   - PutObject replaces an object atomically, which gives full-overwrite
//     semantics for free
//   - Deleting a missing key succeeds, matching the idempotent Delete contract
//
// Thread Safety:
// This implementation is safe for concurrent use by multiple goroutines.
// Concurrent writes to the same id are last-write-wins.
type S3ContentStore struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
	metrics   S3Metrics
}

// S3ContentStoreConfig contains configuration for S3 content store.
type S3ContentStoreConfig struct {
	// Client is the configured S3 client
	Client *s3.Client

	// Bucket is the S3 bucket name
	Bucket string

	// KeyPrefix is an optional prefix for all object keys
	// Example: "filesmanager/" results in keys like "filesmanager/abc123"
	KeyPrefix string

	// Metrics receives per-operation observations. nil disables collection.
	Metrics S3Metrics
}

// NewS3ContentStore creates a new S3-based content store.
//
// The bucket must already exist; access is verified with HeadBucket.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - cfg: S3 configuration
//
// Returns:
//   - *S3ContentStore: Initialized S3 content store
//   - error: Returns error if bucket access fails or context is cancelled
func NewS3ContentStore(ctx context.Context, cfg S3ContentStoreConfig) (*S3ContentStore, error) {
	// ========================================================================
	// Step 1: Check context before S3 operations
	// ========================================================================

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// ========================================================================
	// Step 2: Validate configuration
	// ========================================================================

	if cfg.Client == nil {
		return nil, fmt.Errorf("S3 client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	prefix := cfg.KeyPrefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}

	// ========================================================================
	// Step 3: Verify bucket access
	// ========================================================================

	_, err := cfg.Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to access bucket %q: %w", cfg.Bucket, err)
	}

	return &S3ContentStore{
		client:    cfg.Client,
		bucket:    cfg.Bucket,
		keyPrefix: prefix,
		metrics:   metrics,
	}, nil
}

// getObjectKey returns the full S3 object key for a given content ID.
func (s *S3ContentStore) getObjectKey(id string) string {
	return s.keyPrefix + id
}

// Location returns the s3:// URI of the object backing id.
func (s *S3ContentStore) Location(id string) string {
	return "s3://" + s.bucket + "/" + s.getObjectKey(id)
}

// Healthcheck verifies the bucket is still reachable.
func (s *S3ContentStore) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("healthcheck failed: %w", err)
	}
	return nil
}

// isNotFound reports whether err is S3's "no such object" response.
// GetObject returns NoSuchKey while HeadObject returns a bare NotFound.
func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noSuchKey) || errors.As(err, &notFound)
}

// Ensure interface compliance.
var _ content.ContentStore = (*S3ContentStore)(nil)
