package rescache

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"pitchdna/internal/catalog"
	"pitchdna/internal/logging"
	"pitchdna/internal/services"
)

// Stats counts cache activity for one run.
type Stats struct {
	Hits     int64 `json:"hits"`
	Misses   int64 `json:"misses"`
	Shared   int64 `json:"shared"`
	Failures int64 `json:"failures"`
	Keys     int   `json:"keys"`
}

// Cache memoizes catalog fetches by key for the lifetime of a run. Entries
// are never evicted and failed fetches are not stored.
type Cache struct {
	client catalog.Client
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[string][]catalog.Candidate
	group   singleflight.Group

	hits     atomic.Int64
	misses   atomic.Int64
	shared   atomic.Int64
	failures atomic.Int64
}

var _ catalog.Client = (*Cache)(nil)

// New creates an empty cache in front of client.
func New(client catalog.Client, logger *slog.Logger) *Cache {
	return &Cache{
		client:  client,
		logger:  logging.NewComponentLogger(logger, "rescache"),
		entries: make(map[string][]catalog.Candidate),
	}
}

// GetOrFetch returns the cached candidates for key, fetching them on first
// use. Concurrent callers for the same uncached key share one fetch.
func (c *Cache) GetOrFetch(ctx context.Context, key string) ([]catalog.Candidate, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, services.Wrap(services.ErrMissingInput, "rescache", "lookup", "empty key", nil)
	}
	if list, ok := c.lookup(key); ok {
		c.hits.Add(1)
		return list, nil
	}

	// The shared fetch outlives any one caller; each caller still stops
	// waiting when its own context ends.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		if list, ok := c.lookup(key); ok {
			return list, nil
		}
		c.misses.Add(1)
		list, err := c.client.Fetch(fetchCtx, key)
		if err != nil {
			c.failures.Add(1)
			c.logger.Debug("catalog fetch failed", logging.String("key", key), logging.Error(err))
			return nil, err
		}
		c.mu.Lock()
		c.entries[key] = list
		c.mu.Unlock()
		c.logger.Debug("catalog fetch cached", logging.String("key", key), logging.Int("candidates", len(list)))
		return list, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			c.shared.Add(1)
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]catalog.Candidate), nil
	}
}

// Fetch lets the cache stand in for a catalog client.
func (c *Cache) Fetch(ctx context.Context, key string) ([]catalog.Candidate, error) {
	return c.GetOrFetch(ctx, key)
}

// Len returns the number of cached keys.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Shared:   c.shared.Load(),
		Failures: c.failures.Load(),
		Keys:     c.Len(),
	}
}

func (c *Cache) lookup(key string) ([]catalog.Candidate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	list, ok := c.entries[key]
	return list, ok
}
