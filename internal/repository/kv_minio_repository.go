package repository

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"

	appErrors "github.com/noah-isme/qbank-admin-api/pkg/errors"
)

// MinioKVRepository stores each key as an object in a bucket.
type MinioKVRepository struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewMinioKVRepository builds the repository. Object names are prefix + key.
func NewMinioKVRepository(client *minio.Client, bucket, prefix string) *MinioKVRepository {
	return &MinioKVRepository{client: client, bucket: bucket, prefix: prefix}
}

func (r *MinioKVRepository) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := r.client.GetObject(ctx, r.bucket, r.objectName(key), minio.GetObjectOptions{})
	if err != nil {
		return nil, r.mapError(key, err)
	}
	defer obj.Close() //nolint:errcheck

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, r.mapError(key, err)
	}
	return data, nil
}

func (r *MinioKVRepository) Put(ctx context.Context, key string, value []byte) error {
	_, err := r.client.PutObject(ctx, r.bucket, r.objectName(key), bytes.NewReader(value), int64(len(value)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("minio put %s: %w", key, err)
	}
	return nil
}

func (r *MinioKVRepository) objectName(key string) string {
	return r.prefix + key
}

func (r *MinioKVRepository) mapError(key string, err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return appErrors.ErrKeyNotFound
	}
	return fmt.Errorf("minio get %s: %w", key, err)
}
