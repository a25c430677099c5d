package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStore wraps the MinIO client for report photo uploads.
type ObjectStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

func ConnectMinio(endpoint, accessKey, secretKey, bucket, publicURL string, useSSL bool) (*ObjectStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to minio: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		log.Printf("[OK] Created bucket '%s'", bucket)
	}

	return &ObjectStore{client: client, bucket: bucket, publicURL: publicURL}, nil
}

// SavePhoto stores the uploaded photo under a randomly generated object name,
// keeping only the original file extension, and returns its public URL.
func (s *ObjectStore) SavePhoto(ctx context.Context, originalName, contentType string, r io.Reader, size int64) (string, error) {
	objectName := uuid.New().String() + filepath.Ext(originalName)

	_, err := s.client.PutObject(ctx, s.bucket, objectName, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to store object: %w", err)
	}

	return fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucket, objectName), nil
}
