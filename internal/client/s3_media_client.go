package client

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	appConfig "kanban-sync/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"kanban-sync/internal/domain"
)

// s3API is the subset of the S3 client used for attachments
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3MediaClient stores attachments in an S3 bucket or a MinIO endpoint
type S3MediaClient struct {
	client   s3API
	bucket   string
	region   string
	endpoint string // set for MinIO
	logger   *zap.Logger
	now      func() time.Time
}

// NewS3MediaClient creates a new S3 media client
func NewS3MediaClient(ctx context.Context, cfg appConfig.S3Config, logger *zap.Logger) (*S3MediaClient, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("S3 bucket is required")
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("S3 region is required")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.Endpoint != "" {
		// MinIO requires explicit credentials
		if cfg.AccessKey == "" || cfg.SecretKey == "" {
			return nil, fmt.Errorf("access key and secret key are required for MinIO endpoint")
		}
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3MediaClient(s3Client, cfg, logger), nil
}

func newS3MediaClient(api s3API, cfg appConfig.S3Config, logger *zap.Logger) *S3MediaClient {
	return &S3MediaClient{
		client:   api,
		bucket:   cfg.Bucket,
		region:   cfg.Region,
		endpoint: cfg.Endpoint,
		logger:   logger,
		now:      time.Now,
	}
}

func (c *S3MediaClient) Configured() bool {
	return true
}

// Upload stores the file under a generated key and returns its URL
func (c *S3MediaClient) Upload(ctx context.Context, file MediaFile) (string, error) {
	key := c.GenerateFileKey(domain.AttachmentTypeFor(file.ContentType), file.Name)

	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(file.Data),
		ContentType: aws.String(file.ContentType),
	})
	if err != nil {
		c.logger.Error("Failed to upload attachment to S3", zap.Error(err), zap.String("key", key))
		return "", fmt.Errorf("failed to upload file to S3: %w", err)
	}
	return c.GetFileURL(key), nil
}

// GenerateFileKey builds a unique object key
// Format: kanban/{type}/{year}/{month}/{uuid}{ext}
func (c *S3MediaClient) GenerateFileKey(kind domain.AttachmentType, fileName string) string {
	now := c.now()
	return fmt.Sprintf("kanban/%s/%s/%s/%s%s",
		kind, now.Format("2006"), now.Format("01"), uuid.NewString(), strings.ToLower(path.Ext(fileName)))
}

// GetFileURL returns the public URL for a key
func (c *S3MediaClient) GetFileURL(key string) string {
	if c.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(c.endpoint, "/"), c.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.bucket, c.region, key)
}
