package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	appErrors "github.com/noah-isme/qbank-admin-api/pkg/errors"
)

// PostgresKVRepository stores values in the kv_store table.
type PostgresKVRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewPostgresKVRepository instantiates the repository.
func NewPostgresKVRepository(db *sqlx.DB) *PostgresKVRepository {
	return &PostgresKVRepository{db: db, now: time.Now}
}

type kvRow struct {
	Key       string    `db:"key"`
	Value     []byte    `db:"value"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Get loads the value stored under key.
func (r *PostgresKVRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	if err := r.db.GetContext(ctx, &value, `SELECT value FROM kv_store WHERE key = $1`, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrKeyNotFound
		}
		return nil, fmt.Errorf("get kv %s: %w", key, err)
	}
	return value, nil
}

// Put upserts the value under key in a single statement.
func (r *PostgresKVRepository) Put(ctx context.Context, key string, value []byte) error {
	row := kvRow{Key: key, Value: value, UpdatedAt: r.now().UTC()}
	const query = `INSERT INTO kv_store (key, value, updated_at)
VALUES (:key, :value, :updated_at)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("put kv %s: %w", key, err)
	}
	return nil
}
