// Package storage provides the remote object store client for image assets.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"nextblog/internal/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStore is the remote asset store consumed by the services. Uploads
// return the stored asset's metadata; deletions are independent per call.
type ObjectStore interface {
	Upload(ctx context.Context, reader io.Reader, size int64, contentType, folder string) (publicID, url string, err error)
	Delete(ctx context.Context, publicID string) error
}

// minioAPI is the subset of the minio client used by MinioStore.
type minioAPI interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// MinioStore is an S3-compatible ObjectStore backed by minio-go.
type MinioStore struct {
	client    minioAPI
	bucket    string
	publicURL string
}

// NewMinioStore creates a MinioStore from the application configuration.
func NewMinioStore(cfg *config.Config) (*MinioStore, error) {
	client, err := minio.New(cfg.StorageEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.StorageAccessKey, cfg.StorageSecretKey, ""),
		Secure: cfg.StorageUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}

	publicURL := cfg.StoragePublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.StorageUseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.StorageEndpoint, cfg.StorageBucket)
	}

	return &MinioStore{
		client:    client,
		bucket:    cfg.StorageBucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

// NewMinioStoreWithClient creates a MinioStore over an existing client.
// Intended for tests.
func NewMinioStoreWithClient(client minioAPI, bucket, publicURL string) *MinioStore {
	return &MinioStore{client: client, bucket: bucket, publicURL: strings.TrimRight(publicURL, "/")}
}

// Upload stores the object under a generated key within folder and returns
// the key as the asset's public ID together with its resolvable URL.
func (s *MinioStore) Upload(ctx context.Context, reader io.Reader, size int64, contentType, folder string) (string, string, error) {
	ext := extensionForContentType(contentType)
	objectName := path.Join(folder, uuid.New().String()+ext)

	_, err := s.client.PutObject(ctx, s.bucket, objectName, reader, size,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", "", fmt.Errorf("object store upload failed: %w", err)
	}

	return objectName, s.publicURL + "/" + objectName, nil
}

// Delete removes the object identified by publicID from the bucket.
func (s *MinioStore) Delete(ctx context.Context, publicID string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, publicID, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("object store delete failed: %w", err)
	}
	return nil
}

func extensionForContentType(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	}
	return ""
}

var _ ObjectStore = (*MinioStore)(nil)
