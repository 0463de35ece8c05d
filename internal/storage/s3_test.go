package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xelth-com/eckreceive/internal/config"
)

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = params
	f.body, _ = io.ReadAll(params.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestUploadReturnsPublicURL(t *testing.T) {
	fake := &fakeS3{}
	u := newS3Uploader(fake, "receipts-bucket", "https://cdn.example.com/")

	url, err := u.Upload(context.Background(), "receipts/a.jpg", "image/jpeg", []byte("jpeg"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/receipts/a.jpg", url)
	assert.Equal(t, "receipts-bucket", *fake.input.Bucket)
	assert.Equal(t, "image/jpeg", *fake.input.ContentType)
	assert.Equal(t, []byte("jpeg"), fake.body)
}

func TestUploadErrors(t *testing.T) {
	u := newS3Uploader(&fakeS3{err: errors.New("access denied")}, "b", "https://x")

	_, err := u.Upload(context.Background(), "k", "image/png", []byte("png"))
	assert.ErrorContains(t, err, "access denied")

	_, err = u.Upload(context.Background(), "k", "image/png", nil)
	assert.Error(t, err)
}

func TestNewS3UploaderNeedsBucket(t *testing.T) {
	_, err := NewS3Uploader(context.Background(), config.StorageConfig{Region: "us-east-1"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestReceiptKey(t *testing.T) {
	key := ReceiptKey("sess-1", "IMG_0042.JPG", time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC))
	assert.True(t, strings.HasPrefix(key, "receipts/2026/03/04/sess-1-"), key)
	assert.True(t, strings.HasSuffix(key, ".jpg"), key)

	assert.True(t, strings.HasSuffix(ReceiptKey("s", "upload", time.Now()), ".jpg"))
}
