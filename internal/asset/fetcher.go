package asset

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"govdoc/internal/core/apperror"
	"govdoc/pkg/logger"
)

// DefaultTimeout bounds a single asset fetch.
const DefaultTimeout = 3 * time.Second

// Fetcher reads assets from a BlobStore with a per-asset timeout.
type Fetcher struct {
	store   BlobStore
	timeout time.Duration
}

// NewFetcher creates a fetcher. A zero timeout means DefaultTimeout.
func NewFetcher(store BlobStore, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{store: store, timeout: timeout}
}

type fetchResult struct {
	data []byte
	err  error
}

// Fetch returns the normalised image stored under key. Every failure,
// including the timeout, is reported as ASSET_UNAVAILABLE.
func (f *Fetcher) Fetch(ctx context.Context, key string) (*Image, error) {
	if f == nil || f.store == nil {
		return nil, apperror.NewAssetUnavailable(key, errors.New("no blob store configured"))
	}
	if key == "" {
		return nil, apperror.NewAssetUnavailable(key, errors.New("empty asset key"))
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	// The store may ignore ctx; the select keeps the bound regardless.
	done := make(chan fetchResult, 1)
	go func() {
		data, err := f.store.Get(ctx, key)
		done <- fetchResult{data: data, err: err}
	}()

	var res fetchResult
	select {
	case <-ctx.Done():
		return nil, apperror.NewAssetUnavailable(key, fmt.Errorf("fetch: %w", ctx.Err()))
	case res = <-done:
	}
	if res.err != nil {
		return nil, apperror.NewAssetUnavailable(key, res.err)
	}

	img, err := Normalize(key, res.data)
	if err != nil {
		return nil, apperror.NewAssetUnavailable(key, err)
	}
	return img, nil
}

type slotImage struct {
	slot string
	img  *Image
}

// FetchAll fetches the named assets concurrently. Slots whose key is empty
// or whose fetch failed are absent from the result; failures are logged.
func (f *Fetcher) FetchAll(ctx context.Context, keys map[string]string) map[string]*Image {
	out := make(map[string]*Image, len(keys))
	results := make(chan slotImage, len(keys))

	var g errgroup.Group
	for slot, key := range keys {
		if key == "" {
			continue
		}
		g.Go(func() error {
			img, err := f.Fetch(ctx, key)
			if err != nil {
				logger.Warn(ctx, "asset unavailable, drawing placeholder",
					"slot", slot,
					"key", key,
					"error", err,
				)
				return nil
			}
			results <- slotImage{slot: slot, img: img}
			return nil
		})
	}
	_ = g.Wait()
	close(results)

	for r := range results {
		out[r.slot] = r.img
	}
	return out
}
