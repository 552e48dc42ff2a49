package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"igrelations/pkg/config"
)

// ObjectAPI is the part of *minio.Client the object store uses
type ObjectAPI interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// ObjectStore uploads export documents to an S3 compatible bucket
type ObjectStore struct {
	client ObjectAPI
	bucket string
	prefix string
}

// NewMinioClient connects to the endpoint in cfg
func NewMinioClient(cfg config.ObjectStoreConfig) (*minio.Client, error) {
	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "https://"), "http://")
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return client, nil
}

// NewObjectStore creates a store writing under bucket/prefix
func NewObjectStore(client ObjectAPI, bucket, prefix string) *ObjectStore {
	return &ObjectStore{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

// Key returns the object key of name
func (s *ObjectStore) Key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// Location returns the s3 URL of name
func (s *ObjectStore) Location(name string) string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.Key(name))
}

// Put uploads size bytes from r as name and returns its location
func (s *ObjectStore) Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error) {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return "", fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		return "", fmt.Errorf("bucket %s does not exist", s.bucket)
	}

	key := s.Key(name)
	_, err = s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return s.Location(name), nil
}
