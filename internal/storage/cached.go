package storage

import (
	"context"
	"errors"

	"campaign-console/internal/campaign"
)

// Backend is the durable side of a CachedStore.
type Backend interface {
	GetCampaign(ctx context.Context, id string) (campaign.Campaign, error)
	UpsertCampaign(ctx context.Context, c campaign.Campaign) error
}

// CachedStore reads through Cache and writes through to the backend.
type CachedStore struct {
	Backend Backend
	Cache   *Cache
}

func NewCachedStore(b Backend, c *Cache) *CachedStore {
	return &CachedStore{Backend: b, Cache: c}
}

func (s *CachedStore) GetCampaign(ctx context.Context, id string) (campaign.Campaign, error) {
	c, err := s.Cache.GetCampaign(ctx, id)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	c, err = s.Backend.GetCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	_ = s.Cache.UpsertCampaign(ctx, c)
	return c, nil
}

func (s *CachedStore) UpsertCampaign(ctx context.Context, c campaign.Campaign) error {
	if err := s.Backend.UpsertCampaign(ctx, c); err != nil {
		return err
	}
	return s.Cache.UpsertCampaign(ctx, c)
}
