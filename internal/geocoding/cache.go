package geocoding

import (
	"context"
	"sync"

	"github.com/medatlas/geoenrich/internal/metrics"
	"github.com/medatlas/geoenrich/internal/models"
	"golang.org/x/sync/singleflight"
)

// ResolveFunc is the underlying resolution a Cache guards.
type ResolveFunc func(ctx context.Context, address string) (models.Resolution, error)

// Cache memoizes resolution outcomes, successful and unresolved alike, for
// the lifetime of one run. Concurrent lookups of the same address share a
// single in-flight resolution, so a batch full of duplicates costs one
// provider call per distinct address.
type Cache struct {
	mu      sync.RWMutex
	results map[string]models.Resolution
	flight  singleflight.Group
	metrics *metrics.Metrics
}

// NewCache creates an empty cache. The metrics may be nil.
func NewCache(m *metrics.Metrics) *Cache {
	return &Cache{
		results: make(map[string]models.Resolution),
		metrics: m,
	}
}

// GetOrResolve returns the memoized outcome for address, or runs resolve
// exactly once however many callers ask concurrently. Context errors are
// not memoized, so a cancelled run does not poison the cache.
func (c *Cache) GetOrResolve(ctx context.Context, address string, resolve ResolveFunc) (models.Resolution, error) {
	c.mu.RLock()
	res, ok := c.results[address]
	c.mu.RUnlock()
	if ok {
		c.lookup("hit")
		return res, nil
	}
	c.lookup("miss")

	v, err, _ := c.flight.Do(address, func() (any, error) {
		// A finished flight forgets its key, so a caller that read a miss
		// before the store landed could start a second resolution. Check
		// the map again inside the flight.
		c.mu.RLock()
		res, ok := c.results[address]
		c.mu.RUnlock()
		if ok {
			return res, nil
		}

		res, err := resolve(ctx, address)
		if err != nil {
			return models.Resolution{}, err
		}

		c.mu.Lock()
		c.results[address] = res
		c.mu.Unlock()

		return res, nil
	})
	if err != nil {
		return models.Resolution{}, err
	}

	return v.(models.Resolution), nil
}

// Size reports how many distinct addresses have a memoized outcome.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.results)
}

func (c *Cache) lookup(result string) {
	if c.metrics == nil {
		return
	}
	c.metrics.CacheLookups.WithLabelValues(result).Inc()
}
