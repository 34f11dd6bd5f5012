package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	appErrors "github.com/noah-isme/qbank-admin-api/pkg/errors"
	"github.com/noah-isme/qbank-admin-api/pkg/storage"
)

var fileKeyReplacer = strings.NewReplacer(":", "_", "/", "_", "\\", "_")

// FileKVRepository stores one JSON file per key on local disk.
type FileKVRepository struct {
	storage *storage.LocalStorage
}

// NewFileKVRepository wraps a local storage directory.
func NewFileKVRepository(store *storage.LocalStorage) *FileKVRepository {
	return &FileKVRepository{storage: store}
}

func (r *FileKVRepository) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.storage.Read(fileName(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.ErrKeyNotFound
		}
		return nil, fmt.Errorf("file kv get %s: %w", key, err)
	}
	return data, nil
}

func (r *FileKVRepository) Put(ctx context.Context, key string, value []byte) error {
	if err := r.storage.Save(fileName(key), value); err != nil {
		return fmt.Errorf("file kv put %s: %w", key, err)
	}
	return nil
}

func fileName(key string) string {
	return fileKeyReplacer.Replace(key) + ".json"
}
