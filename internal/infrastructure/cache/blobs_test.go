package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govdoc/internal/asset"
)

type countingStore struct {
	blobs map[string][]byte
	gets  int
	// onGet runs after the blob is read, before Get returns.
	onGet func(key string)
}

func (s *countingStore) Get(_ context.Context, key string) ([]byte, error) {
	s.gets++
	if s.onGet != nil {
		defer s.onGet(key)
	}
	if b, ok := s.blobs[key]; ok {
		return b, nil
	}
	return nil, asset.ErrNotFound
}

func (s *countingStore) Put(_ context.Context, data []byte, _ string) (string, error) {
	key := asset.KeyFor(data)
	s.blobs[key] = data
	return key, nil
}

func (s *countingStore) Delete(_ context.Context, key string) error {
	if _, ok := s.blobs[key]; !ok {
		return asset.ErrNotFound
	}
	delete(s.blobs, key)
	return nil
}

func newStore(blobs map[string][]byte) *countingStore {
	return &countingStore{blobs: blobs}
}

func TestBlobCache_HitSkipsStore(t *testing.T) {
	store := newStore(map[string][]byte{"a": []byte("aaaa")})
	c := NewBlobCache(store, 1024)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		data, err := c.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "aaaa", string(data))
	}
	assert.Equal(t, 1, store.gets)

	// Returned slices are copies.
	data, _ := c.Get(ctx, "a")
	data[0] = 'x'
	again, _ := c.Get(ctx, "a")
	assert.Equal(t, "aaaa", string(again))
}

func TestBlobCache_MissIsNotCached(t *testing.T) {
	store := newStore(map[string][]byte{})
	c := NewBlobCache(store, 1024)

	_, err := c.Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, asset.ErrNotFound))
	_, _ = c.Get(context.Background(), "missing")
	assert.Equal(t, 2, store.gets)
	assert.Zero(t, c.Len())
}

func TestBlobCache_InvalidationDuringFillIsNotCached(t *testing.T) {
	store := newStore(map[string][]byte{"a": []byte("aaaa")})
	c := NewBlobCache(store, 1024)
	ctx := context.Background()

	store.onGet = func(key string) {
		delete(store.blobs, key)
		c.Invalidate(key)
	}
	data, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "aaaa", string(data))
	assert.Zero(t, c.Len())

	store.onGet = nil
	_, err = c.Get(ctx, "a")
	assert.True(t, errors.Is(err, asset.ErrNotFound))
	assert.Equal(t, 2, store.gets)
}

func TestBlobCache_PurgeDuringFillIsNotCached(t *testing.T) {
	store := newStore(map[string][]byte{"a": []byte("aaaa")})
	c := NewBlobCache(store, 1024)

	store.onGet = func(string) { c.Purge() }
	_, err := c.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Zero(t, c.Len())

	store.onGet = nil
	_, err = c.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
}

func TestBlobCache_EvictsLeastRecentlyUsed(t *testing.T) {
	store := newStore(map[string][]byte{
		"a": []byte("1234"),
		"b": []byte("5678"),
		"c": []byte("9012"),
	})
	c := NewBlobCache(store, 8)
	ctx := context.Background()

	_, _ = c.Get(ctx, "a")
	_, _ = c.Get(ctx, "b")
	_, _ = c.Get(ctx, "a") // a is now most recent
	_, _ = c.Get(ctx, "c") // evicts b
	require.Equal(t, 2, c.Len())

	store.gets = 0
	_, _ = c.Get(ctx, "a")
	_, _ = c.Get(ctx, "c")
	assert.Equal(t, 0, store.gets)
	_, _ = c.Get(ctx, "b")
	assert.Equal(t, 1, store.gets)
}

func TestBlobCache_OversizedBlobBypassesCache(t *testing.T) {
	store := newStore(map[string][]byte{"big": make([]byte, 100)})
	c := NewBlobCache(store, 10)
	_, err := c.Get(context.Background(), "big")
	require.NoError(t, err)
	assert.Zero(t, c.Len())
}

func TestBlobCache_PutAndInvalidation(t *testing.T) {
	store := newStore(map[string][]byte{})
	c := NewBlobCache(store, 1024)
	ctx := context.Background()

	key, err := c.Put(ctx, []byte("seal"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())

	c.handleNotification("other")
	assert.Equal(t, 1, c.Len())
	c.handleNotification(key)
	assert.Zero(t, c.Len())

	_, _ = c.Get(ctx, key)
	assert.Equal(t, 1, c.Len())
	c.handleNotification("*")
	assert.Zero(t, c.Len())
}

func TestBlobCache_Delete(t *testing.T) {
	store := newStore(map[string][]byte{"a": []byte("aaaa")})
	c := NewBlobCache(store, 1024)
	ctx := context.Background()

	_, _ = c.Get(ctx, "a")
	require.Equal(t, 1, c.Len())

	require.NoError(t, c.Delete(ctx, "a"))
	assert.Zero(t, c.Len())
	_, err := c.Get(ctx, "a")
	assert.ErrorIs(t, err, asset.ErrNotFound)
	assert.ErrorIs(t, c.Delete(ctx, "a"), asset.ErrNotFound)
}

func TestBlobCache_DeleteUnsupported(t *testing.T) {
	c := NewBlobCache(struct{ asset.BlobStore }{newStore(map[string][]byte{})}, 1024)
	assert.ErrorIs(t, c.Delete(context.Background(), "a"), errNotDeletable)
}
