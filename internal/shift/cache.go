package shift

import (
	"context"
	"sync"
	"time"

	"github.com/fleetline/rosterwatch/internal/fetch"
	"github.com/fleetline/rosterwatch/internal/logger"
)

// DefaultTTL is the freshness window for cached shift data. Shift
// assignments change far slower than the roster, so they are re-fetched
// on their own cadence.
const DefaultTTL = 60 * time.Second

// Store is an optional second-level cache tier shared between instances
// (redis). Writes are best effort.
type Store interface {
	SaveShiftMap(ctx context.Context, m Map, fetchedAt time.Time) error
	LoadShiftMap(ctx context.Context) (Map, time.Time, error)
}

// entry is one generation of shift data. It is replaced wholesale on a
// successful fetch and read unchanged on a failed one.
type entry struct {
	data      Map
	fetchedAt time.Time
}

// Cache is a time-boxed cache of shift assignments with a
// stale-fallback-on-error policy. ShiftMap never fails: it returns fresh
// data, stale data, or an empty map.
type Cache struct {
	mu      sync.Mutex
	fetcher *fetch.Client
	url     string
	ttl     time.Duration
	mapper  *Mapper
	store   Store // optional
	logger  logger.Logger
	entry   entry

	now func() time.Time // test seam, defaults to time.Now
}

func NewCache(fetcher *fetch.Client, url string, ttl time.Duration, mapper *Mapper, store Store, log logger.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		fetcher: fetcher,
		url:     url,
		ttl:     ttl,
		mapper:  mapper,
		store:   store,
		logger:  log,
		now:     time.Now,
	}
}

// ShiftMap returns the current shift assignments. A fresh cached entry is
// served without a network call; a miss or expiry triggers a fetch; a
// failed fetch serves the previous entry (stale-serve) or an empty map.
// Errors never propagate to the refresh pipeline.
func (c *Cache) ShiftMap(ctx context.Context) Map {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entry.data != nil && c.now().Sub(c.entry.fetchedAt) < c.ttl {
		return c.entry.data
	}

	sm, err := c.refresh(ctx)
	if err == nil {
		return sm
	}

	if c.entry.data != nil {
		c.logger.Warn("shift fetch failed, serving stale data",
			logger.String("url", c.url),
			logger.Time("fetched_at", c.entry.fetchedAt),
			logger.Error(err))
		return c.entry.data
	}

	c.logger.Warn("shift fetch failed with no cached data",
		logger.String("url", c.url),
		logger.Error(err))
	return Map{}
}

// Invalidate expires the current entry so the next ShiftMap call
// re-fetches regardless of age. Used by failure recovery.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry.fetchedAt = time.Time{}
}

// Warm seeds the cache with a previously persisted map (startup sync from
// the shared store). A newer entry is never overwritten.
func (c *Cache) Warm(sm Map, fetchedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entry.data == nil || c.entry.fetchedAt.Before(fetchedAt) {
		c.entry = entry{data: sm, fetchedAt: fetchedAt}
	}
}

// refresh fetches and parses the shift source, replacing the entry
// atomically on success. Caller holds the lock.
func (c *Cache) refresh(ctx context.Context) (Map, error) {
	body, err := c.fetcher.Get(ctx, c.url)
	if err != nil {
		return nil, err
	}

	sm, err := c.mapper.MapPayload(body)
	if err != nil {
		return nil, err
	}

	fetchedAt := c.now()
	c.entry = entry{data: sm, fetchedAt: fetchedAt}

	c.logger.Info("shift assignments refreshed",
		logger.Int("count", len(sm)))

	// Share with other instances (best effort).
	if c.store != nil {
		if err := c.store.SaveShiftMap(ctx, sm, fetchedAt); err != nil {
			c.logger.Warn("failed to save shift map to redis",
				logger.Error(err))
		}
	}

	return sm, nil
}
