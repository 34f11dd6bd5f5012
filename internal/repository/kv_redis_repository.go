package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	appErrors "github.com/noah-isme/qbank-admin-api/pkg/errors"
)

// RedisKVRepository stores values as plain Redis strings without expiry.
type RedisKVRepository struct {
	client *redis.Client
}

// NewRedisKVRepository constructs a Redis-backed key/value store.
func NewRedisKVRepository(client *redis.Client) *RedisKVRepository {
	return &RedisKVRepository{client: client}
}

func (r *RedisKVRepository) Get(ctx context.Context, key string) ([]byte, error) {
	if r.client == nil {
		return nil, appErrors.ErrKeyNotFound
	}
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, appErrors.ErrKeyNotFound
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return raw, nil
}

func (r *RedisKVRepository) Put(ctx context.Context, key string, value []byte) error {
	if r.client == nil {
		return fmt.Errorf("redis put %s: client not configured", key)
	}
	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
