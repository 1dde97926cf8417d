package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// WalletCache implements ports.WalletCache using Redis. Cached snapshots are
// invalidated on every mutation; the database stays the source of truth.
type WalletCache struct {
	client *goredis.Client
	prefix string
}

// NewWalletCache creates a new Redis-backed wallet cache.
func NewWalletCache(client *goredis.Client) *WalletCache {
	return &WalletCache{
		client: client,
		prefix: "wallet:",
	}
}

// Get retrieves a cached wallet snapshot.
// Returns nil, nil if the key does not exist.
func (c *WalletCache) Get(ctx context.Context, walletID uuid.UUID) ([]byte, error) {
	val, err := c.client.Get(ctx, c.prefix+walletID.String()).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis wallet get: %w", err)
	}
	return val, nil
}

// Set stores a wallet snapshot with TTL.
func (c *WalletCache) Set(ctx context.Context, walletID uuid.UUID, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+walletID.String(), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis wallet set: %w", err)
	}
	return nil
}

// Delete drops the cached snapshots for the given wallets.
func (c *WalletCache) Delete(ctx context.Context, walletIDs ...uuid.UUID) error {
	if len(walletIDs) == 0 {
		return nil
	}
	keys := make([]string, len(walletIDs))
	for i, id := range walletIDs {
		keys[i] = c.prefix + id.String()
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis wallet delete: %w", err)
	}
	return nil
}
