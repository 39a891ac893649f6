// Package cache provides caching infrastructure with PostgreSQL LISTEN/NOTIFY support.
package cache

import (
	"container/list"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"govdoc/internal/asset"
	"govdoc/internal/infrastructure/storage/postgres"
	"govdoc/pkg/logger"
)

// InvalidationChannel is the NOTIFY channel carrying deleted blob keys.
// A payload of "*" drops the whole cache.
const InvalidationChannel = postgres.BlobsChannel

// BlobCache keeps recently used blobs in memory in front of another store.
// Keys are content hashes, so entries only leave on eviction, on Delete or
// when another node announces a deletion.
type BlobCache struct {
	next     asset.BlobStore
	maxBytes int

	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front = most recently used
	size    int
	// gen advances on every invalidation; fills that started before it are dropped.
	gen uint64

	// Lifecycle of the NOTIFY listener
	lifecycleMu sync.Mutex
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

type blobEntry struct {
	key  string
	data []byte
}

var (
	_ asset.BlobStore = (*BlobCache)(nil)
	_ asset.Deleter   = (*BlobCache)(nil)
)

// errNotDeletable is returned when the wrapped store cannot delete.
var errNotDeletable = errors.New("cache: underlying blob store does not support deletion")

// NewBlobCache wraps next with a cache holding at most maxBytes of blob data.
func NewBlobCache(next asset.BlobStore, maxBytes int) *BlobCache {
	return &BlobCache{
		next:     next,
		maxBytes: maxBytes,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Get implements asset.BlobStore.
func (c *BlobCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, gen, ok := c.lookup(key)
	if ok {
		return data, nil
	}
	data, err := c.next.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	c.store(key, data, gen)
	return clone(data), nil
}

// Put implements asset.BlobStore.
func (c *BlobCache) Put(ctx context.Context, data []byte, contentType string) (string, error) {
	gen := c.generation()
	key, err := c.next.Put(ctx, data, contentType)
	if err != nil {
		return "", err
	}
	c.store(key, data, gen)
	return key, nil
}

// Delete implements asset.Deleter. The entry is dropped even when the
// wrapped store reports the key as unknown.
func (c *BlobCache) Delete(ctx context.Context, key string) error {
	d, ok := c.next.(asset.Deleter)
	if !ok {
		return errNotDeletable
	}
	defer c.Invalidate(key)
	return d.Delete(ctx, key)
}

// Invalidate drops key from the cache.
func (c *BlobCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	if el, ok := c.entries[key]; ok {
		c.remove(el)
	}
}

// Purge drops every entry.
func (c *BlobCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.entries = make(map[string]*list.Element)
	c.order.Init()
	c.size = 0
}

// Len returns the number of cached blobs.
func (c *BlobCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// lookup returns a copy of the cached blob, or the generation a fill from
// the wrapped store must match.
func (c *BlobCache) lookup(key string) ([]byte, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[key]
	if !ok {
		return nil, c.gen, false
	}
	c.order.MoveToFront(el)
	return clone(el.Value.(*blobEntry).data), c.gen, true
}

func (c *BlobCache) generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// store caches data unless an invalidation happened since gen was read.
func (c *BlobCache) store(key string, data []byte, gen uint64) {
	if len(data) > c.maxBytes {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return
	}

	if el, ok := c.entries[key]; ok {
		c.order.MoveToFront(el)
		return
	}
	c.entries[key] = c.order.PushFront(&blobEntry{key: key, data: clone(data)})
	c.size += len(data)

	for c.size > c.maxBytes {
		c.remove(c.order.Back())
	}
}

// remove must be called with mu held.
func (c *BlobCache) remove(el *list.Element) {
	e := c.order.Remove(el).(*blobEntry)
	delete(c.entries, e.key)
	c.size -= len(e.data)
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}

// --- Cross-node invalidation ---

// Listen starts a goroutine that applies purges announced on
// InvalidationChannel. It returns immediately; Stop ends it.
func (c *BlobCache) Listen(ctx context.Context, pool *pgxpool.Pool) {
	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()
	if c.cancel != nil {
		return
	}

	ctx, c.cancel = context.WithCancel(ctx)
	c.wg.Add(1)
	go c.listenLoop(ctx, pool)
	logger.Info(ctx, "blob cache listening", "channel", InvalidationChannel)
}

// Stop ends the listener and waits for it.
func (c *BlobCache) Stop() {
	c.lifecycleMu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.lifecycleMu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
}

func (c *BlobCache) listenLoop(ctx context.Context, pool *pgxpool.Pool) {
	defer c.wg.Done()

	for ctx.Err() == nil {
		conn, err := pool.Acquire(ctx)
		if err != nil {
			logger.Warn(ctx, "failed to acquire connection for LISTEN", "error", err)
			sleep(ctx, time.Second)
			continue
		}

		if _, err := conn.Exec(ctx, "LISTEN "+InvalidationChannel); err != nil {
			logger.Warn(ctx, "failed to LISTEN", "error", err)
			conn.Release()
			sleep(ctx, time.Second)
			continue
		}

		// Entries may have been purged while we were not listening.
		c.Purge()
		c.wait(ctx, conn)
		conn.Release()
	}
}

func (c *BlobCache) wait(ctx context.Context, conn *pgxpool.Conn) {
	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() == nil {
				logger.Warn(ctx, "blob cache listener interrupted", "error", err)
			}
			return
		}
		c.handleNotification(n.Payload)
	}
}

func (c *BlobCache) handleNotification(payload string) {
	if payload == "" || payload == "*" {
		c.Purge()
		return
	}
	c.Invalidate(payload)
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
