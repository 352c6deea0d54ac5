package e2e

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// LocalstackHelper creates and removes buckets on Localstack.
type LocalstackHelper struct {
	T        testing.TB
	Endpoint string
	Client   *s3.Client
	Buckets  []string
}

// NewLocalstackHelper connects to LOCALSTACK_ENDPOINT, or
// http://localhost:4566 when unset.
func NewLocalstackHelper(t testing.TB) *LocalstackHelper {
	t.Helper()

	endpoint := os.Getenv("LOCALSTACK_ENDPOINT")
	if endpoint == "" {
		endpoint = "http://localhost:4566"
	}

	cfg, err := awsConfig.LoadDefaultConfig(context.Background(),
		awsConfig.WithRegion("us-east-1"),
		awsConfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("test", "test", "")),
	)
	if err != nil {
		t.Fatalf("Failed to load AWS config: %v", err)
	}

	// Path-style URLs are required by Localstack.
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	helper := &LocalstackHelper{T: t, Endpoint: endpoint, Client: client}
	t.Cleanup(helper.Cleanup)
	return helper
}

// Available reports whether Localstack answers.
func (lh *LocalstackHelper) Available() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := lh.Client.ListBuckets(ctx, &s3.ListBucketsInput{})
	return err == nil
}

// CreateBucket creates a bucket that Cleanup removes.
func (lh *LocalstackHelper) CreateBucket(ctx context.Context, bucketName string) error {
	_, err := lh.Client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucketName)})
	if err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", bucketName, err)
	}
	lh.Buckets = append(lh.Buckets, bucketName)
	return nil
}

// Cleanup empties and deletes every bucket created by the helper.
func (lh *LocalstackHelper) Cleanup() {
	ctx := context.Background()
	for _, bucketName := range lh.Buckets {
		paginator := s3.NewListObjectsV2Paginator(lh.Client, &s3.ListObjectsV2Input{Bucket: aws.String(bucketName)})
		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				break
			}
			for _, obj := range page.Contents {
				_, _ = lh.Client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(bucketName), Key: obj.Key})
			}
		}
		_, _ = lh.Client.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: aws.String(bucketName)})
	}
	lh.Buckets = nil
}

// SetupS3Config gives config a fresh bucket.
func SetupS3Config(t testing.TB, config *TestConfig, helper *LocalstackHelper) {
	t.Helper()

	bucketName := fmt.Sprintf("filesmanager-e2e-%s-%d", config.Name, time.Now().UnixNano())
	if err := helper.CreateBucket(context.Background(), bucketName); err != nil {
		t.Fatalf("Failed to create S3 bucket: %v", err)
	}
	config.s3Bucket = bucketName
	config.s3Endpoint = helper.Endpoint
}
