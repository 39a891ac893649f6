// Package asset fetches the images drawn on official documents (emblem,
// seal, signature, QR) from the blob storage collaborator and normalises them
// into formats the PDF writer accepts.
package asset

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// ErrNotFound is returned by BlobStore.Get for unknown keys.
var ErrNotFound = errors.New("asset: blob not found")

// BlobStore is the storage collaborator for binary assets.
type BlobStore interface {
	// Get returns the bytes stored under key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put stores data and returns its key. Storing the same bytes twice
	// returns the same key.
	Put(ctx context.Context, data []byte, contentType string) (string, error)
}

// KeyFor returns the content-addressed key for data.
func KeyFor(data []byte) string {
	sum := sha256.Sum256(data)
	return "sha256-" + hex.EncodeToString(sum[:])
}

// Deleter is implemented by stores that can drop blobs. Deleting an unknown
// key returns ErrNotFound.
type Deleter interface {
	Delete(ctx context.Context, key string) error
}

// MediaType returns the MIME type of a normalized image type.
func MediaType(imageType string) string {
	switch imageType {
	case "JPG":
		return "image/jpeg"
	case "GIF":
		return "image/gif"
	default:
		return "image/png"
	}
}
