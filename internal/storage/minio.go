package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/presalekit/estimator/internal/common"
)

// ObjectStore is the slice of object storage the pipeline consumes: read the
// bytes of an uploaded file by key.
type ObjectStore interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
}

type MinioStore struct {
	client *minio.Client
	bucket string
	log    *slog.Logger
}

func NewMinioStore(cfg common.StorageConfig, log *slog.Logger) (*MinioStore, error) {
	if log == nil {
		log = slog.Default()
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinioStore{client: client, bucket: cfg.Bucket, log: log}, nil
}

// EnsureBucket creates the bucket if it does not exist yet.
func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket: %w", err)
	}
	s.log.Info("storage.bucket_created", "bucket", s.bucket)
	return nil
}

func (s *MinioStore) GetObject(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("s3 get object: %w", err)
	}
	defer func() {
		if err := obj.Close(); err != nil {
			s.log.Warn("storage.object_close_error", "key", key, "error", err)
		}
	}()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("s3 read object: %w", err)
	}
	return data, nil
}
