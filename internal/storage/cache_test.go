package storage

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campaign-console/internal/campaign"
)

func TestCache_UpsertAndGet(t *testing.T) {
	ctx := context.Background()
	c := NewCache()

	_, err := c.GetCampaign(ctx, "1")
	assert.ErrorIs(t, err, ErrNotFound)

	cp := campaign.New("1", "Spring")
	require.NoError(t, c.UpsertCampaign(ctx, cp))
	cp["name"] = "mutated after store"

	got, err := c.GetCampaign(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Spring", got.Name(), "store keeps its own copy")

	assert.ErrorIs(t, c.UpsertCampaign(ctx, campaign.Campaign{"name": "x"}), campaign.ErrMissingID)

	c.Invalidate("1")
	assert.Zero(t, c.Len())
}

type fakeBackend struct {
	rows  map[string]campaign.Campaign
	reads int
	err   error
}

func (b *fakeBackend) GetCampaign(_ context.Context, id string) (campaign.Campaign, error) {
	b.reads++
	if b.err != nil {
		return nil, b.err
	}
	c, ok := b.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c.Clone(), nil
}

func (b *fakeBackend) UpsertCampaign(_ context.Context, c campaign.Campaign) error {
	if b.err != nil {
		return b.err
	}
	b.rows[c.ID()] = c.Clone()
	return nil
}

func TestCachedStore_ReadThrough(t *testing.T) {
	ctx := context.Background()
	b := &fakeBackend{rows: map[string]campaign.Campaign{"1": campaign.New("1", "A")}}
	s := NewCachedStore(b, NewCache())

	for i := 0; i < 3; i++ {
		got, err := s.GetCampaign(ctx, "1")
		require.NoError(t, err)
		assert.Equal(t, "A", got.Name())
	}
	assert.Equal(t, 1, b.reads)

	s.Cache.Invalidate("1")
	_, err := s.GetCampaign(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 2, b.reads)

	_, err = s.GetCampaign(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCachedStore_WriteThrough(t *testing.T) {
	ctx := context.Background()
	b := &fakeBackend{rows: map[string]campaign.Campaign{}}
	s := NewCachedStore(b, NewCache())

	require.NoError(t, s.UpsertCampaign(ctx, campaign.New("2", "B")))
	assert.Contains(t, b.rows, "2")
	assert.Equal(t, 1, s.Cache.Len())

	b.err = errors.New("db down")
	assert.Error(t, s.UpsertCampaign(ctx, campaign.New("3", "C")))
	assert.Equal(t, 1, s.Cache.Len(), "failed writes are not cached")
}

func BenchmarkCache_GetCampaign(b *testing.B) {
	ctx := context.Background()
	c := NewCache()
	cs := make([]campaign.Campaign, 0, 1000)
	for i := 0; i < 1000; i++ {
		cs = append(cs, campaign.New(strconv.Itoa(i), "bench"))
	}
	c.UpdateCampaigns(cs)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			_, _ = c.GetCampaign(ctx, strconv.Itoa(i%1000))
			i++
		}
	})
}
