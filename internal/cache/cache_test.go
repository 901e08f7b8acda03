package cache

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/Additional-Code/autoservice/internal/config"
)

func TestNewStoreSelectsDriver(t *testing.T) {
	lc := fxtest.NewLifecycle(t)

	store, err := NewStore(lc, config.Config{Cache: config.Cache{Driver: "noop"}}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, Noop(), store)

	store, err = NewStore(lc, config.Config{Cache: config.Cache{
		Driver: "redis",
		Redis:  config.Redis{Addr: "127.0.0.1:0"},
	}}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, store)

	_, err = NewStore(lc, config.Config{Cache: config.Cache{Driver: "memcached"}}, nil)
	assert.ErrorContains(t, err, "unsupported cache driver")
}

func TestNoopStore(t *testing.T) {
	ctx := context.Background()
	store := Noop()

	require.NoError(t, store.Set(ctx, "orders:1", []byte("x"), time.Minute))
	_, err := store.Get(ctx, "orders:1")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.NoError(t, store.Delete(ctx, "orders:1"))
}

func TestRedisStoreKeyGuards(t *testing.T) {
	// Guards return before the client is touched.
	store := NewRedisStore(goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:0"}), "autoservice", time.Minute)
	ctx := context.Background()

	_, err := store.Get(ctx, "")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.EqualError(t, store.Set(ctx, "", []byte("x"), 0), "cache key is required")
	assert.NoError(t, store.Delete(ctx, ""))

	assert.Equal(t, "autoservice:orders:1", store.key("orders:1"))
	assert.Equal(t, "orders:1", NewRedisStore(nil, "", 0).key("orders:1"))
}
