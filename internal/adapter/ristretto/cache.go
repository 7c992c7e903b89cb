// Package ristretto implements the cache port with an in-process
// ristretto cache. It holds small JSON blobs, chiefly governance cost
// summaries, keyed by entity.
package ristretto

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// Values are small (a summary is well under a kilobyte), so admission
// counters are sized for many entries per unit of cost.
const countersPerCostUnit = 10

// Cache is a byte-value TTL cache backed by ristretto.
type Cache struct {
	inner *ristretto.Cache[string, []byte]
}

// New creates a cache bounded to maxCostBytes of stored value bytes.
func New(maxCostBytes int64) (*Cache, error) {
	inner, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: maxCostBytes / 100 * countersPerCostUnit,
		MaxCost:     maxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{inner: inner}, nil
}

// Get returns the cached value for key, reporting whether it was present.
func (c *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	if val, found := c.inner.Get(key); found {
		return val, true, nil
	}
	return nil, false, nil
}

// Set stores value under key for at most ttl. Admission is best effort;
// a rejected write is not an error, the next read simply misses.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.inner.SetWithTTL(key, value, int64(len(value)), ttl)
	return nil
}

// Delete evicts key if present.
func (c *Cache) Delete(_ context.Context, key string) error {
	c.inner.Del(key)
	return nil
}

// Wait blocks until pending writes are visible to Get. Intended for tests.
func (c *Cache) Wait() {
	c.inner.Wait()
}

// Close releases the cache's background resources.
func (c *Cache) Close() {
	c.inner.Close()
}
