// Package storage uploads receipt images to S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/xelth-com/eckreceive/internal/config"
)

// ErrNotConfigured is returned when no bucket is set
var ErrNotConfigured = errors.New("receipt storage is not configured")

// Uploader stores a file and returns its public URL
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
}

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader writes objects with PutObject
type S3Uploader struct {
	client  putObjectAPI
	bucket  string
	baseURL string
}

// NewS3Uploader builds a client from cfg. Static keys are used when given,
// otherwise the default AWS credential chain applies.
func NewS3Uploader(ctx context.Context, cfg config.StorageConfig) (*S3Uploader, error) {
	if cfg.Bucket == "" {
		return nil, ErrNotConfigured
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	baseURL := cfg.PublicBaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
	return newS3Uploader(s3.NewFromConfig(awsCfg), cfg.Bucket, baseURL), nil
}

func newS3Uploader(client putObjectAPI, bucket, baseURL string) *S3Uploader {
	return &S3Uploader{client: client, bucket: bucket, baseURL: strings.TrimRight(baseURL, "/")}
}

func (u *S3Uploader) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("refusing to upload empty file %s", key)
	}

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return u.baseURL + "/" + key, nil
}

// ReceiptKey builds the object key for a session's receipt photo
func ReceiptKey(sessionID, filename string, now time.Time) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = ".jpg"
	}
	return fmt.Sprintf("receipts/%s/%s-%s%s", now.UTC().Format("2006/01/02"), sessionID, uuid.NewString()[:8], ext)
}
