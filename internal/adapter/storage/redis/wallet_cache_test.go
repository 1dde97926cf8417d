package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalletCache_SetAndGet(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewWalletCache(client)
	ctx := context.Background()

	walletID := uuid.New()
	value := []byte(`{"id":"` + walletID.String() + `","status":"ACTIVE"}`)

	// Get before set => nil
	result, err := cache.Get(ctx, walletID)
	assert.NoError(t, err)
	assert.Nil(t, result)

	// Set
	err = cache.Set(ctx, walletID, value, 30*time.Second)
	require.NoError(t, err)

	// Get after set
	result, err = cache.Get(ctx, walletID)
	require.NoError(t, err)
	assert.Equal(t, value, result)
}

func TestWalletCache_TTLExpiry(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewWalletCache(client)
	ctx := context.Background()

	walletID := uuid.New()
	err := cache.Set(ctx, walletID, []byte(`{"data":"test"}`), time.Second)
	require.NoError(t, err)

	// Fast-forward time in miniredis
	s.FastForward(2 * time.Second)

	result, err := cache.Get(ctx, walletID)
	assert.NoError(t, err)
	assert.Nil(t, result, "expired key should return nil")
}

func TestWalletCache_DeleteMultiple(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewWalletCache(client)
	ctx := context.Background()

	a, b := uuid.New(), uuid.New()
	require.NoError(t, cache.Set(ctx, a, []byte("a"), time.Minute))
	require.NoError(t, cache.Set(ctx, b, []byte("b"), time.Minute))

	require.NoError(t, cache.Delete(ctx, a, b))

	result, err := cache.Get(ctx, a)
	assert.NoError(t, err)
	assert.Nil(t, result)
	result, err = cache.Get(ctx, b)
	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestWalletCache_DeleteNoIDsIsNoop(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewWalletCache(client)

	assert.NoError(t, cache.Delete(context.Background()))
}

func TestHealthCheck_Ping(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	hc := NewHealthCheck(client)

	assert.NoError(t, hc.Ping(context.Background()))
	assert.Equal(t, "redis", hc.Name())
}
