package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"govdoc/internal/asset"
)

// BlobStore implements asset.BlobStore on the sys_blobs table.
type BlobStore struct {
	db *sql.DB
}

// Ensure compile-time interface compliance.
var (
	_ asset.BlobStore = (*BlobStore)(nil)
	_ asset.Deleter   = (*BlobStore)(nil)
)

// Get implements asset.BlobStore.
func (s *BlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM sys_blobs WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", key, asset.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get blob %s: %w", key, err)
	}
	return data, nil
}

// Put implements asset.BlobStore.
func (s *BlobStore) Put(ctx context.Context, data []byte, contentType string) (string, error) {
	key := asset.KeyFor(data)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sys_blobs (key, content_type, data, size)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (key) DO NOTHING
	`, key, contentType, data, len(data))
	if err != nil {
		return "", fmt.Errorf("put blob: %w", err)
	}
	return key, nil
}

// Delete implements asset.Deleter.
func (s *BlobStore) Delete(ctx context.Context, key string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sys_blobs WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("delete blob %s: %w", key, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s: %w", key, asset.ErrNotFound)
	}
	return nil
}
