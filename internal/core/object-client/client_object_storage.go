package objectclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	cfg "github.com/markdave123-py/mindwise/internal/config"
	"github.com/markdave123-py/mindwise/internal/core"
)

const uploadTimeout = 2 * time.Minute

var _ core.ObjectClient = (*S3Client)(nil)

// S3Client archives page snapshots into a single bucket.
type S3Client struct {
	uploader *manager.Uploader
	region   string
	bucket   string
}

func NewS3Client(ctx context.Context, c *cfg.Config) (*S3Client, error) {
	if c.AwsAccessKey == "" || c.AwsSecretKey == "" {
		return nil, errors.New("AWS credentials not set")
	}
	if c.AwsRegion == "" {
		return nil, errors.New("AWS_REGION not set")
	}
	if c.BucketName == "" {
		return nil, errors.New("S3 bucket name not set")
	}

	awsCfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(c.AwsRegion),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AwsAccessKey, c.AwsSecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	slog.Info("object storage configured", "bucket", c.BucketName, "region", c.AwsRegion)

	return &S3Client{
		uploader: manager.NewUploader(s3.NewFromConfig(awsCfg)),
		region:   c.AwsRegion,
		bucket:   c.BucketName,
	}, nil
}

// UploadFile puts data under key in the configured bucket and returns its URL.
func (c *S3Client) UploadFile(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	ctxUpload, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	_, err := c.uploader.Upload(ctxUpload, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload failed: %w", err)
	}

	return objectURL(c.bucket, c.region, key), nil
}

func objectURL(bucket, region, key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, region, key)
}
