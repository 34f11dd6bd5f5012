package repository

import (
	"context"
	"sync"

	appErrors "github.com/noah-isme/qbank-admin-api/pkg/errors"
)

// MemoryKVRepository keeps values in process memory. Contents are lost on restart.
type MemoryKVRepository struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryKVRepository constructs an empty in-memory store.
func NewMemoryKVRepository() *MemoryKVRepository {
	return &MemoryKVRepository{values: make(map[string][]byte)}
}

// Get returns a copy of the value stored under key.
func (r *MemoryKVRepository) Get(ctx context.Context, key string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	value, ok := r.values[key]
	if !ok {
		return nil, appErrors.ErrKeyNotFound
	}
	return append([]byte(nil), value...), nil
}

// Put stores a copy of value under key.
func (r *MemoryKVRepository) Put(ctx context.Context, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[key] = append([]byte(nil), value...)
	return nil
}
