package s3

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/marmos91/filesmanager/pkg/content"
)

// WriteContent uploads data with a single PutObject, replacing any object
// stored under the same key.
func (s *S3ContentStore) WriteContent(ctx context.Context, id string, data []byte) (err error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveOperation("PutObject", time.Since(start), err)
	}()

	if err = ctx.Err(); err != nil {
		return err
	}
	if err = content.ValidateID(id); err != nil {
		return err
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.getObjectKey(id)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("failed to put object to S3: %w", err)
	}

	s.metrics.RecordBytes("write", int64(len(data)))
	return nil
}

// Delete removes the object. S3 reports success for missing keys.
func (s *S3ContentStore) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveOperation("DeleteObject", time.Since(start), err)
	}()

	if err = ctx.Err(); err != nil {
		return err
	}
	if err = content.ValidateID(id); err != nil {
		return err
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.getObjectKey(id)),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to delete object from S3: %w", err)
	}
	return nil
}
