package cloud

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Client wraps S3 operations for export publishing.
type S3Client struct {
	client *s3.Client
	bucket string
}

// NewS3Client creates an S3 client for the given bucket.
func NewS3Client(ctx context.Context, bucket, region string) (*S3Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &S3Client{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
	}, nil
}

// Bucket returns the target bucket name.
func (c *S3Client) Bucket() string {
	return c.bucket
}

// UploadBytes puts data at key.
func (c *S3Client) UploadBytes(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("putting s3://%s/%s: %w", c.bucket, key, err)
	}
	return nil
}

// ExportKey builds the object key for one export run:
// <prefix>/<YYYY-MM-DD>/<HHMMSS>/<filename>.
func ExportKey(prefix string, runAt time.Time, filename string) string {
	prefix = strings.Trim(prefix, "/")
	return path.Join(prefix, runAt.Format("2006-01-02"), runAt.Format("150405"), filename)
}

// URI formats an s3:// URI for display.
func URI(bucket, key string) string {
	return "s3://" + bucket + "/" + key
}
