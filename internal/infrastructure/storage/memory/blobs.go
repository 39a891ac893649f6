package memory

import (
	"context"
	"fmt"
	"sync"

	"govdoc/internal/asset"
)

// BlobStore implements asset.BlobStore in memory.
type BlobStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// Ensure compile-time interface compliance.
var (
	_ asset.BlobStore = (*BlobStore)(nil)
	_ asset.Deleter   = (*BlobStore)(nil)
)

// NewBlobStore creates an empty blob store.
func NewBlobStore() *BlobStore {
	return &BlobStore{blobs: make(map[string][]byte)}
}

// Get implements asset.BlobStore.
func (s *BlobStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, asset.ErrNotFound)
	}
	return append([]byte(nil), data...), nil
}

// Put implements asset.BlobStore.
func (s *BlobStore) Put(_ context.Context, data []byte, _ string) (string, error) {
	key := asset.KeyFor(data)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[key]; !ok {
		s.blobs[key] = append([]byte(nil), data...)
	}
	return key, nil
}

// Delete implements asset.Deleter.
func (s *BlobStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[key]; !ok {
		return fmt.Errorf("%s: %w", key, asset.ErrNotFound)
	}
	delete(s.blobs, key)
	return nil
}
