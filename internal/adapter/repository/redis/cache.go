package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/iho/digipay/internal/domain"
)

// ErrCacheMiss is returned when no snapshot is cached for an owner.
var ErrCacheMiss = errors.New("wallet cache miss")

// WalletCache implements usecase.WalletCache using Redis. Entries are
// JSON snapshots keyed by owner and expire after ttl.
type WalletCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewWalletCache creates a new WalletCache.
func NewWalletCache(client *redis.Client, ttl time.Duration) *WalletCache {
	return &WalletCache{
		client: client,
		prefix: "wallet:owner:",
		ttl:    ttl,
	}
}

type walletSnapshot struct {
	ID        string          `json:"id"`
	OwnerID   string          `json:"owner_id"`
	Balance   decimal.Decimal `json:"balance"`
	IsBlocked bool            `json:"is_blocked"`
	Version   int64           `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Get returns the cached wallet of ownerID or ErrCacheMiss.
func (c *WalletCache) Get(ctx context.Context, ownerID string) (*domain.Wallet, error) {
	raw, err := c.client.Get(ctx, c.prefix+ownerID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}

	var s walletSnapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}

	return &domain.Wallet{
		ID:        s.ID,
		OwnerID:   s.OwnerID,
		Balance:   s.Balance,
		IsBlocked: s.IsBlocked,
		Version:   s.Version,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}, nil
}

// Set stores a snapshot of wallet.
func (c *WalletCache) Set(ctx context.Context, wallet *domain.Wallet) error {
	raw, err := json.Marshal(walletSnapshot{
		ID:        wallet.ID,
		OwnerID:   wallet.OwnerID,
		Balance:   wallet.Balance,
		IsBlocked: wallet.IsBlocked,
		Version:   wallet.Version,
		CreatedAt: wallet.CreatedAt,
		UpdatedAt: wallet.UpdatedAt,
	})
	if err != nil {
		return err
	}

	return c.client.Set(ctx, c.prefix+wallet.OwnerID, raw, c.ttl).Err()
}

// Invalidate drops the snapshots of ownerIDs.
func (c *WalletCache) Invalidate(ctx context.Context, ownerIDs ...string) error {
	if len(ownerIDs) == 0 {
		return nil
	}

	keys := make([]string, 0, len(ownerIDs))
	for _, id := range ownerIDs {
		keys = append(keys, c.prefix+id)
	}

	return c.client.Del(ctx, keys...).Err()
}
