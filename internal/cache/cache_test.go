package cache

import (
	"context"
	"testing"
	"time"

	"github.com/betbot/hypiq/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SetGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0)

	_, ok, err := m.GetQuote(ctx, "BTC")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.SetQuote(ctx, Quote{Coin: "btc", Price: 97000.5, UpdatedAt: 1}))
	q, ok, err := m.GetQuote(ctx, " BTC ")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "BTC", q.Coin)
	assert.Equal(t, 97000.5, q.Price)
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	m := NewMemory(time.Minute)
	m.now = func() time.Time { return now }

	require.NoError(t, m.SetQuote(ctx, Quote{Coin: "ETH", Price: 3500}))
	now = now.Add(59 * time.Second)
	_, ok, _ := m.GetQuote(ctx, "ETH")
	assert.True(t, ok)

	now = now.Add(2 * time.Second)
	_, ok, _ = m.GetQuote(ctx, "ETH")
	assert.False(t, ok)
}

func TestNew_Drivers(t *testing.T) {
	c, err := New(context.Background(), config.CacheConfig{Driver: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, c)
	assert.NoError(t, c.Close())

	_, err = New(context.Background(), config.CacheConfig{Driver: "memcached"})
	assert.Error(t, err)
}

func TestNewRedis_UnreachableFails(t *testing.T) {
	_, err := NewRedis(context.Background(), RedisOptions{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond})
	assert.Error(t, err)
}

func TestRedisKey(t *testing.T) {
	assert.Equal(t, "hypiq:price:HYPE", redisKey("hype"))
}
