package s3

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/marmos91/filesmanager/pkg/content"
)

// ReadContent returns a reader streaming the object body.
//
// The caller is responsible for closing the returned ReadCloser.
func (s *S3ContentStore) ReadContent(ctx context.Context, id string) (rc io.ReadCloser, err error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveOperation("GetObject", time.Since(start), err)
	}()

	if err = ctx.Err(); err != nil {
		return nil, err
	}
	if err = content.ValidateID(id); err != nil {
		return nil, err
	}

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.getObjectKey(id)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
		}
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}

	// Wrap the body to track bytes read
	return &metricsReadCloser{
		ReadCloser: result.Body,
		metrics:    s.metrics,
	}, nil
}

func (s *S3ContentStore) GetContentSize(ctx context.Context, id string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := content.ValidateID(id); err != nil {
		return 0, err
	}

	result, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.getObjectKey(id)),
	})
	if err != nil {
		if isNotFound(err) {
			return 0, fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
		}
		return 0, fmt.Errorf("failed to head object: %w", err)
	}

	if result.ContentLength == nil {
		return 0, fmt.Errorf("content length not available for %s", id)
	}
	return *result.ContentLength, nil
}

func (s *S3ContentStore) ContentExists(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := content.ValidateID(id); err != nil {
		return false, err
	}

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.getObjectKey(id)),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object existence: %w", err)
	}
	return true, nil
}

// metricsReadCloser counts bytes read from an object body.
type metricsReadCloser struct {
	io.ReadCloser
	metrics S3Metrics
	read    int64
}

func (r *metricsReadCloser) Read(p []byte) (int, error) {
	n, err := r.ReadCloser.Read(p)
	r.read += int64(n)
	return n, err
}

func (r *metricsReadCloser) Close() error {
	r.metrics.RecordBytes("read", r.read)
	return r.ReadCloser.Close()
}
