package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wedmac/lead-marketplace/internal/config"
	"github.com/wedmac/lead-marketplace/internal/models"
)

func setupTestCache(t *testing.T) *Cache {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	t.Cleanup(func() { mr.Close() })

	cfg := config.RedisConnection{
		AddressRedis: mr.Addr(),
		Password:     "",
		DB:           0,
		User:         "",
	}

	cache, err := InitServer(context.Background(), cfg)
	require.NoError(t, err)
	return cache
}

func TestSetAndGet(t *testing.T) {
	cache := setupTestCache(t)

	expected := models.CreditBalance{ArtistID: 7, AvailableLeads: 12}
	err := cache.Set(BalanceKey(7), expected, time.Minute)
	require.NoError(t, err)

	var actual models.CreditBalance
	found, err := cache.Get(BalanceKey(7), &actual)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, expected, actual)
}

func TestGetNotFound(t *testing.T) {
	cache := setupTestCache(t)

	var out models.CreditBalance
	found, err := cache.Get(BalanceKey(404), &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidate(t *testing.T) {
	cache := setupTestCache(t)

	err := cache.Set(BalanceKey(7), models.CreditBalance{ArtistID: 7, AvailableLeads: 3}, time.Minute)
	require.NoError(t, err)

	err = cache.Invalidate(BalanceKey(7))
	require.NoError(t, err)

	var out models.CreditBalance
	found, err := cache.Get(BalanceKey(7), &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetInvalidJSON(t *testing.T) {
	cache := setupTestCache(t)

	err := cache.Db.Set(context.Background(), "bad", []byte("not-json"), time.Minute).Err()
	require.NoError(t, err)

	var out models.CreditBalance
	found, err := cache.Get("bad", &out)
	assert.False(t, found)
	assert.Error(t, err)
}

func TestInitServerInvalidAddr(t *testing.T) {
	cfg := config.RedisConnection{
		AddressRedis: "127.0.0.1:9999",
	}

	cache, err := InitServer(context.Background(), cfg)
	assert.Nil(t, cache)
	assert.Error(t, err)
}

func TestBalanceKey(t *testing.T) {
	assert.Equal(t, "balance:42", BalanceKey(42))
}
