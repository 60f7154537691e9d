package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOConfig holds connection settings for an S3 compatible endpoint.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MinIOStorage stores blobs as objects inside a single bucket.
type MinIOStorage struct {
	client *minio.Client
	bucket string
}

// NewMinIOStorage connects to the endpoint and creates the bucket when missing.
func NewMinIOStorage(ctx context.Context, cfg MinIOConfig) (*MinIOStorage, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio bucket required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check minio bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create minio bucket: %w", err)
		}
	}

	return &MinIOStorage{client: client, bucket: cfg.Bucket}, nil
}

// Save uploads r under key. A negative size streams with multipart upload.
func (s *MinIOStorage) Save(ctx context.Context, key string, r io.Reader, size int64) error {
	cleaned, err := cleanKey(key)
	if err != nil {
		return err
	}
	if size < 0 {
		size = -1
	}
	if _, err := s.client.PutObject(ctx, s.bucket, cleaned, r, size, minio.PutObjectOptions{}); err != nil {
		return fmt.Errorf("put object %s: %w", cleaned, err)
	}
	return nil
}

// Exists reports whether key is present in the bucket.
func (s *MinIOStorage) Exists(ctx context.Context, key string) (bool, error) {
	cleaned, err := cleanKey(key)
	if err != nil {
		return false, err
	}
	if _, err := s.client.StatObject(ctx, s.bucket, cleaned, minio.StatObjectOptions{}); err != nil {
		if isMissingObject(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat object %s: %w", cleaned, err)
	}
	return true, nil
}

// Open returns a seekable handle on the object.
func (s *MinIOStorage) Open(ctx context.Context, key string) (*Object, error) {
	cleaned, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, cleaned, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", cleaned, err)
	}
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		if isMissingObject(err) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("stat object %s: %w", cleaned, err)
	}
	return &Object{ReadSeekCloser: obj, ReaderAt: obj, Size: info.Size}, nil
}

// Delete removes key; deleting a missing object is not an error.
func (s *MinIOStorage) Delete(ctx context.Context, key string) error {
	cleaned, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, cleaned, minio.RemoveObjectOptions{}); err != nil && !isMissingObject(err) {
		return fmt.Errorf("remove object %s: %w", cleaned, err)
	}
	return nil
}

func isMissingObject(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
}
