package objectstore

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/badurubalaji/msls-sub015/pkg/config"
)

// Store wraps the MinIO client for tenant-namespaced document storage
type Store struct {
	client *minio.Client
	bucket string
}

// New connects to the object store and ensures the bucket exists
func New(ctx context.Context, cfg *config.ObjectStoreConfig) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
	}

	return &Store{client: client, bucket: cfg.BucketName}, nil
}

// ObjectKey composes the tenant-namespaced key for an uploaded document,
// so object keys inherit the tenant scoping used everywhere else.
func ObjectKey(tenantID, documentID, fileName string) string {
	return fmt.Sprintf("tenants/%s/documents/%s/%s", tenantID, documentID, fileName)
}

// Put uploads an object
func (s *Store) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

// PresignedGet returns a time-limited download URL for an object
func (s *Store) PresignedGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, expiry, url.Values{})
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// Remove deletes an object
func (s *Store) Remove(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}
