package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMinio struct {
	putCalls    []putCall
	removeCalls []string
	putErr      error
	removeErr   error
}

type putCall struct {
	Bucket      string
	ObjectName  string
	Size        int64
	ContentType string
}

func (f *fakeMinio) PutObject(_ context.Context, bucket, objectName string, _ io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.putErr != nil {
		return minio.UploadInfo{}, f.putErr
	}
	f.putCalls = append(f.putCalls, putCall{
		Bucket:      bucket,
		ObjectName:  objectName,
		Size:        size,
		ContentType: opts.ContentType,
	})
	return minio.UploadInfo{Bucket: bucket, Key: objectName, Size: size}, nil
}

func (f *fakeMinio) RemoveObject(_ context.Context, bucket, objectName string, _ minio.RemoveObjectOptions) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removeCalls = append(f.removeCalls, objectName)
	return nil
}

func TestMinioStore_Upload(t *testing.T) {
	fake := &fakeMinio{}
	store := NewMinioStoreWithClient(fake, "blog-assets", "https://cdn.example.com/blog-assets/")

	publicID, url, err := store.Upload(context.Background(),
		strings.NewReader("data"), 4, "image/png", "posts")
	require.NoError(t, err)

	require.Len(t, fake.putCalls, 1)
	call := fake.putCalls[0]
	assert.Equal(t, "blog-assets", call.Bucket)
	assert.Equal(t, int64(4), call.Size)
	assert.Equal(t, "image/png", call.ContentType)

	assert.True(t, strings.HasPrefix(publicID, "posts/"))
	assert.True(t, strings.HasSuffix(publicID, ".png"))
	assert.Equal(t, "https://cdn.example.com/blog-assets/"+publicID, url,
		"the trailing slash on the public URL must not double up")
}

func TestMinioStore_Upload_UniqueKeys(t *testing.T) {
	fake := &fakeMinio{}
	store := NewMinioStoreWithClient(fake, "blog-assets", "https://cdn.example.com")

	first, _, err := store.Upload(context.Background(), strings.NewReader("a"), 1, "image/jpeg", "posts")
	require.NoError(t, err)
	second, _, err := store.Upload(context.Background(), strings.NewReader("b"), 1, "image/jpeg", "posts")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestMinioStore_Upload_Error(t *testing.T) {
	fake := &fakeMinio{putErr: errors.New("bucket missing")}
	store := NewMinioStoreWithClient(fake, "blog-assets", "https://cdn.example.com")

	_, _, err := store.Upload(context.Background(), strings.NewReader("a"), 1, "image/png", "posts")
	assert.Error(t, err)
}

func TestMinioStore_Delete(t *testing.T) {
	fake := &fakeMinio{}
	store := NewMinioStoreWithClient(fake, "blog-assets", "https://cdn.example.com")

	require.NoError(t, store.Delete(context.Background(), "posts/abc.png"))
	assert.Equal(t, []string{"posts/abc.png"}, fake.removeCalls)
}

func TestExtensionForContentType(t *testing.T) {
	tests := []struct {
		contentType string
		expected    string
	}{
		{"image/jpeg", ".jpg"},
		{"image/png", ".png"},
		{"image/gif", ".gif"},
		{"image/webp", ".webp"},
		{"application/octet-stream", ""},
	}
	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			assert.Equal(t, tt.expected, extensionForContentType(tt.contentType))
		})
	}
}
