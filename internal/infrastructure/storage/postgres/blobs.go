package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/klauspost/compress/zstd"

	"govdoc/internal/asset"
)

// CompressionAlgo specifies the compression algorithm used.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// BlobsChannel is notified with the key of every deleted blob so that
// in-memory caches on other nodes can drop it.
const BlobsChannel = "doc_blobs_changed"

// BlobStore implements asset.BlobStore on the sys_blobs table. Blobs above
// the threshold are stored zstd-compressed.
type BlobStore struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

// Ensure compile-time interface compliance.
var (
	_ asset.BlobStore = (*BlobStore)(nil)
	_ asset.Deleter   = (*BlobStore)(nil)
)

// NewBlobStore creates a new blob store.
func NewBlobStore(txManager *TxManager) (*BlobStore, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &BlobStore{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 16 * 1024,
	}, nil
}

// Get implements asset.BlobStore.
func (s *BlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	var (
		data []byte
		algo CompressionAlgo
	)
	err := s.txManager.GetQuerier(ctx).QueryRow(ctx,
		`SELECT data, compression_algo FROM sys_blobs WHERE key = $1`, key,
	).Scan(&data, &algo)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", key, asset.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get blob %s: %w", key, err)
	}
	return s.decode(data, algo)
}

// Put implements asset.BlobStore.
func (s *BlobStore) Put(ctx context.Context, data []byte, contentType string) (string, error) {
	key := asset.KeyFor(data)
	stored, algo := s.encode(data)

	_, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO sys_blobs (key, content_type, data, compression_algo, size)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (key) DO NOTHING
	`, key, contentType, stored, algo, len(data))
	if err != nil {
		return "", fmt.Errorf("put blob: %w", err)
	}
	return key, nil
}

// Delete implements asset.Deleter. The notification is delivered on commit.
func (s *BlobStore) Delete(ctx context.Context, key string) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		q := s.txManager.GetQuerier(ctx)
		tag, err := q.Exec(ctx, `DELETE FROM sys_blobs WHERE key = $1`, key)
		if err != nil {
			return fmt.Errorf("delete blob %s: %w", key, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%s: %w", key, asset.ErrNotFound)
		}
		if _, err := q.Exec(ctx, `SELECT pg_notify($1, $2)`, BlobsChannel, key); err != nil {
			return fmt.Errorf("notify blob deletion: %w", err)
		}
		return nil
	})
}

// encode compresses data above the threshold.
func (s *BlobStore) encode(data []byte) ([]byte, CompressionAlgo) {
	if len(data) <= s.compressThreshold {
		return data, CompressionNone
	}
	return s.encoder.EncodeAll(data, nil), CompressionZstd
}

func (s *BlobStore) decode(data []byte, algo CompressionAlgo) ([]byte, error) {
	switch algo {
	case CompressionZstd:
		out, err := s.decoder.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress blob: %w", err)
		}
		return out, nil
	case CompressionNone, "":
		return data, nil
	default:
		return nil, fmt.Errorf("unknown compression %q", algo)
	}
}
