package store

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mhpenta/stylegen/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	f.body, _ = io.ReadAll(params.Body)
	return &s3.PutObjectOutput{}, f.err
}

func TestS3Storage_SaveFile(t *testing.T) {
	fake := &fakeS3{}
	s := &S3Storage{Client: fake, Bucket: "images"}

	url, err := s.SaveFile(context.Background(), []byte("png"), "generated/2025-03-01/a.png", "image/png")
	require.NoError(t, err)

	assert.Equal(t, "s3://images/generated/2025-03-01/a.png", url)
	assert.Equal(t, "images", aws.ToString(fake.input.Bucket))
	assert.Equal(t, "generated/2025-03-01/a.png", aws.ToString(fake.input.Key))
	assert.Equal(t, "image/png", aws.ToString(fake.input.ContentType))
	assert.Equal(t, int64(3), aws.ToInt64(fake.input.ContentLength))
	assert.Equal(t, []byte("png"), fake.body)

	s.PublicURL = "https://cdn.example.com/"
	url, err = s.SaveFile(context.Background(), []byte("png"), "a.png", "image/png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a.png", url)
}

func TestS3Storage_LogsObjectKey(t *testing.T) {
	var buf bytes.Buffer
	ctx := logging.NewContext(context.Background(), logging.New(&buf, "info", "text"))
	s := &S3Storage{Client: &fakeS3{}, Bucket: "images"}

	_, err := s.SaveFile(ctx, []byte("png"), "generated/2025-03-01/a.png", "image/png")
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "s3.object_key=generated/2025-03-01/a.png")
	assert.NotContains(t, buf.String(), "REDACTED")
}

func TestS3Storage_Error(t *testing.T) {
	boom := errors.New("access denied")
	s := &S3Storage{Client: &fakeS3{err: boom}, Bucket: "images"}

	_, err := s.SaveFile(context.Background(), []byte("png"), "a.png", "image/png")
	assert.ErrorIs(t, err, boom)
}

func TestNewS3Client(t *testing.T) {
	client, err := NewS3Client(context.Background(), S3Config{
		Region:    "us-east-1",
		Endpoint:  "localhost:9000",
		AccessKey: "minio",
		SecretKey: "minio123",
	})
	require.NoError(t, err)

	opts := client.Options()
	assert.Equal(t, "https://localhost:9000", aws.ToString(opts.BaseEndpoint))
	assert.True(t, opts.UsePathStyle)
	assert.Equal(t, "us-east-1", opts.Region)
}

func TestFileStorage_SaveFile(t *testing.T) {
	dir := t.TempDir()
	s := &FileStorage{Dir: dir}

	url, err := s.SaveFile(context.Background(), []byte("jpeg"), "generated/2025-03-01/b.jpg", "image/jpeg")
	require.NoError(t, err)

	want := filepath.Join(dir, "generated", "2025-03-01", "b.jpg")
	data, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg"), data)
	assert.Contains(t, url, "file://")
	assert.Contains(t, url, "b.jpg")
}

func TestFileStorage_StaysInsideDir(t *testing.T) {
	dir := t.TempDir()
	s := &FileStorage{Dir: filepath.Join(dir, "root")}

	_, err := s.SaveFile(context.Background(), []byte("x"), "../../escape.png", "image/png")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "root", "escape.png"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "escape.png"))
	assert.True(t, os.IsNotExist(err))
}
