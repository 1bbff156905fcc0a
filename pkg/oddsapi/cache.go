package oddsapi

import (
	"context"
	"sync"
	"time"

	"github.com/arbworks/odds-core/pkg/models"
)

// sportsLister is the slice of the client the cache needs.
type sportsLister interface {
	ListSports(ctx context.Context, all bool) ([]models.Sport, error)
}

type cacheEntry struct {
	sports    []models.Sport
	fetchedAt time.Time
}

// SportsCache is a read-through cache over the sports catalog. Entries are
// keyed by the all/in-season flag and carry the time they were fetched; a
// stale entry is refetched on the next read.
type SportsCache struct {
	client sportsLister
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	entries map[bool]*cacheEntry
}

// NewSportsCache creates a cache with the given staleness policy.
func NewSportsCache(client sportsLister, ttl time.Duration) *SportsCache {
	return &SportsCache{
		client:  client,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[bool]*cacheEntry),
	}
}

// Get returns the cached sports list, fetching from the upstream when the
// entry is missing or older than the TTL. A fetch failure never evicts a
// previously cached value; the error is returned to the caller instead.
func (c *SportsCache) Get(ctx context.Context, all bool) ([]models.Sport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[all]
	if ok && c.now().Sub(entry.fetchedAt) < c.ttl {
		return entry.sports, nil
	}

	sports, err := c.client.ListSports(ctx, all)
	if err != nil {
		return nil, err
	}

	c.entries[all] = &cacheEntry{
		sports:    sports,
		fetchedAt: c.now(),
	}
	return sports, nil
}
