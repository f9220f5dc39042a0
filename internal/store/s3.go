package store

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mhpenta/stylegen"
	"github.com/mhpenta/stylegen/internal/logging"
)

// PutObjectAPI is the subset of *s3.Client used by S3Storage.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config configures an S3-compatible client.
type S3Config struct {
	Region string
	// Endpoint selects an S3-compatible service (MinIO, R2, ...). Path-style
	// addressing is used when it is set.
	Endpoint string
	// AccessKey and SecretKey are optional; the default credential chain is
	// used when they are empty.
	AccessKey string
	SecretKey string
}

// NewS3Client builds an S3 client from cfg.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			endpoint := cfg.Endpoint
			if !strings.Contains(endpoint, "://") {
				endpoint = "https://" + endpoint
			}
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// S3Storage exports images to a bucket.
type S3Storage struct {
	Client PutObjectAPI
	Bucket string
	// PublicURL is the base URL objects are served from. When empty SaveFile
	// returns an s3:// URI.
	PublicURL string
}

var _ stylegen.Storage = (*S3Storage)(nil)

func (s *S3Storage) SaveFile(ctx context.Context, data []byte, path string, contentType string) (string, error) {
	log := logging.FromContextOrDiscard(ctx).WithGroup("s3").With("bucket", s.Bucket, "object_key", path)
	log.Info("uploading generated image", "content_type", contentType, "size", len(data))

	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.Bucket),
		Key:           aws.String(path),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
		Body:          bytes.NewReader(data),
	})
	if err != nil {
		return "", fmt.Errorf("uploading to s3: %w", err)
	}

	if s.PublicURL != "" {
		return strings.TrimRight(s.PublicURL, "/") + "/" + path, nil
	}
	return "s3://" + s.Bucket + "/" + path, nil
}
