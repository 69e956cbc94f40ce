package storage

import (
	"context"
	"sync"

	"campaign-console/internal/cache"
	"campaign-console/internal/campaign"
)

// Cache is an in-memory campaign store. Reads hit an immutable snapshot;
// writes copy the map under mu and swap it in.
type Cache struct {
	mu   sync.Mutex
	snap cache.Snapshot[map[string]campaign.Campaign]
}

func NewCache() *Cache {
	c := &Cache{}
	c.snap.Store(map[string]campaign.Campaign{})
	return c
}

func (c *Cache) GetCampaign(_ context.Context, id string) (campaign.Campaign, error) {
	m, _ := c.snap.Load()
	found, ok := m[id]
	if !ok {
		return nil, ErrNotFound
	}
	return found.Clone(), nil
}

func (c *Cache) UpsertCampaign(_ context.Context, cp campaign.Campaign) error {
	if cp.ID() == "" {
		return campaign.ErrMissingID
	}
	c.mutate(func(m map[string]campaign.Campaign) { m[cp.ID()] = cp.Clone() })
	return nil
}

func (c *Cache) UpdateCampaigns(cs []campaign.Campaign) {
	c.mutate(func(m map[string]campaign.Campaign) {
		for _, cp := range cs {
			m[cp.ID()] = cp.Clone()
		}
	})
}

func (c *Cache) Invalidate(id string) {
	c.mutate(func(m map[string]campaign.Campaign) { delete(m, id) })
}

func (c *Cache) Len() int {
	m, _ := c.snap.Load()
	return len(m)
}

func (c *Cache) mutate(fn func(map[string]campaign.Campaign)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	old, _ := c.snap.Load()
	next := make(map[string]campaign.Campaign, len(old)+1)
	for k, v := range old {
		next[k] = v
	}
	fn(next)
	c.snap.Store(next)
}
