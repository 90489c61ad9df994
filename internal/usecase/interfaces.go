package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/digipay/internal/domain"
)

// WalletRepository defines data access for wallets.
type WalletRepository interface {
	CreateTx(ctx context.Context, tx Transaction, wallet *domain.Wallet) error
	GetByID(ctx context.Context, id string) (*domain.Wallet, error)
	GetByOwner(ctx context.Context, ownerID string) (*domain.Wallet, error)
	// GetByOwnersForUpdate locks the wallets of ownerIDs in ascending wallet ID order.
	GetByOwnersForUpdate(ctx context.Context, tx Transaction, ownerIDs []string) ([]*domain.Wallet, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Wallet, error)
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
	UpdateBlocked(ctx context.Context, tx Transaction, id string, blocked bool, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.Wallet, error)
}

// TransactionRepository defines data access for ledger records.
type TransactionRepository interface {
	Create(ctx context.Context, tx Transaction, record *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	// ListByWallet returns records where walletID is source or destination, newest first.
	ListByWallet(ctx context.Context, walletID string, limit int) ([]*domain.Transaction, error)
	List(ctx context.Context, limit int) ([]*domain.Transaction, error)
}

// IdentityRepository defines data access for identities.
type IdentityRepository interface {
	CreateTx(ctx context.Context, tx Transaction, identity *domain.Identity) error
	GetByID(ctx context.Context, id string) (*domain.Identity, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Identity, error)
	UpdateTx(ctx context.Context, tx Transaction, identity *domain.Identity) error
	List(ctx context.Context, limit, offset int) ([]*domain.Identity, error)
}

// ProfileRepository defines data access for the account shadow.
type ProfileRepository interface {
	CreateTx(ctx context.Context, tx Transaction, profile *domain.Profile) error
	Get(ctx context.Context, identityID string) (*domain.Profile, error)
	SetBlockedTx(ctx context.Context, tx Transaction, identityID string, blocked bool, updatedAt time.Time) error
	SetWalletBlockedTx(ctx context.Context, tx Transaction, identityID string, blocked bool, updatedAt time.Time) error
	SetBalance(ctx context.Context, identityID string, balance decimal.Decimal, updatedAt time.Time) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	CreateTx(ctx context.Context, tx Transaction, log *domain.AuditLog) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
}

// Transaction represents a storage transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// WalletCache caches wallet snapshots by owner.
type WalletCache interface {
	Get(ctx context.Context, ownerID string) (*domain.Wallet, error)
	Set(ctx context.Context, wallet *domain.Wallet) error
	Invalidate(ctx context.Context, ownerIDs ...string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Delete releases a key whose request did not complete.
	Delete(ctx context.Context, key string) error
}
