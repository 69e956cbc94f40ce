package auth

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	st, err := NewRedisStore(context.Background(), RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st, mr
}

func TestTokenStores(t *testing.T) {
	redisStore, _ := setupRedisStore(t)
	stores := map[string]TokenStore{
		"memory": NewMemoryStore(),
		"redis":  redisStore,
	}

	for name, st := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			v, err := st.Get(ctx, "token")
			require.NoError(t, err)
			assert.Empty(t, v, "missing key reads as empty")

			require.NoError(t, st.Set(ctx, "token", "abc"))
			v, err = st.Get(ctx, "token")
			require.NoError(t, err)
			assert.Equal(t, "abc", v)

			require.NoError(t, st.Delete(ctx, "token"))
			v, err = st.Get(ctx, "token")
			require.NoError(t, err)
			assert.Empty(t, v)
		})
	}
}

func TestRedisStore_PersistsUnderKey(t *testing.T) {
	st, mr := setupRedisStore(t)
	require.NoError(t, st.Set(context.Background(), "console:token", "xyz"))

	got, err := mr.Get("console:token")
	require.NoError(t, err)
	assert.Equal(t, "xyz", got)
}

func TestNewRedisStore_Unreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	_, err = NewRedisStore(context.Background(), RedisConfig{Addr: addr})
	assert.Error(t, err)
}
