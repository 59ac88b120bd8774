package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"cocktail-recommender/internal/infrastructure/config"
	"cocktail-recommender/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisService(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping redis cache test")
	}

	ctx := context.Background()
	svc, err := NewService(ctx, config.CacheConfig{
		Enabled:   true,
		Backend:   "redis",
		TTL:       time.Minute,
		RedisAddr: addr,
	})
	require.NoError(t, err)
	defer svc.Close()

	key := "test:" + common.GenerateUUID()
	_, err = svc.Get(ctx, key)
	assert.ErrorIs(t, err, common.ErrCacheMiss)

	require.NoError(t, svc.Set(ctx, key, []byte(`{"recipe":{"Vodka":50}}`)))
	value, err := svc.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, `{"recipe":{"Vodka":50}}`, string(value))
	assert.NoError(t, svc.Ping(ctx))
}

func TestRedisServiceUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := NewService(ctx, config.CacheConfig{RedisAddr: "127.0.0.1:1"})
	assert.Error(t, err)
}
