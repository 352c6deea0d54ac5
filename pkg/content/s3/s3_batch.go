package s3

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/marmos91/filesmanager/pkg/content"
)

// ListAllContent lists every object under the key prefix.
//
// Keys nested below the prefix (containing "/") are not content ids this
// store wrote and are skipped.
func (s *S3ContentStore) ListAllContent(ctx context.Context) ([]content.ContentInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var infos []content.ContentInfo

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.keyPrefix),
	})

	for paginator.HasMorePages() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}

		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}

			id := strings.TrimPrefix(*obj.Key, s.keyPrefix)
			if id == "" || strings.Contains(id, "/") {
				continue
			}

			info := content.ContentInfo{ID: id}
			if obj.Size != nil {
				info.Size = *obj.Size
			}
			if obj.LastModified != nil {
				info.ModTime = *obj.LastModified
			}
			infos = append(infos, info)
		}
	}

	return infos, nil
}
