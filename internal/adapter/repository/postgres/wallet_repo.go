package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/digipay/internal/domain"
	"github.com/iho/digipay/internal/infrastructure/postgres/generated"
	"github.com/iho/digipay/internal/usecase"
)

// WalletRepository implements usecase.WalletRepository.
type WalletRepository struct {
	queries *generated.Queries
}

// NewWalletRepository creates a new WalletRepository.
func NewWalletRepository(pool *pgxpool.Pool) *WalletRepository {
	return newWalletRepository(pool)
}

func newWalletRepository(db generated.DBTX) *WalletRepository {
	return &WalletRepository{queries: generated.New(db)}
}

func (r *WalletRepository) inTx(tx usecase.Transaction) (*generated.Queries, error) {
	t, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	return r.queries.WithTx(t.PgxTx()), nil
}

// CreateTx inserts a wallet inside tx.
func (r *WalletRepository) CreateTx(ctx context.Context, tx usecase.Transaction, wallet *domain.Wallet) error {
	queries, err := r.inTx(tx)
	if err != nil {
		return err
	}

	_, err = queries.CreateWallet(ctx, generated.CreateWalletParams{
		ID:        wallet.ID,
		OwnerID:   wallet.OwnerID,
		Balance:   decimalToNumeric(wallet.Balance),
		IsBlocked: wallet.IsBlocked,
		Version:   wallet.Version,
		CreatedAt: timeToPgTimestamptz(wallet.CreatedAt),
		UpdatedAt: timeToPgTimestamptz(wallet.UpdatedAt),
	})

	return mapError(err, domain.ErrDuplicateWallet)
}

// GetByID retrieves a wallet by ID.
func (r *WalletRepository) GetByID(ctx context.Context, id string) (*domain.Wallet, error) {
	row, err := r.queries.GetWalletByID(ctx, id)
	if err != nil {
		return nil, walletLookupError(err)
	}

	return rowToWallet(row), nil
}

// GetByOwner retrieves the wallet owned by ownerID.
func (r *WalletRepository) GetByOwner(ctx context.Context, ownerID string) (*domain.Wallet, error) {
	row, err := r.queries.GetWalletByOwner(ctx, ownerID)
	if err != nil {
		return nil, walletLookupError(err)
	}

	return rowToWallet(row), nil
}

// GetByOwnersForUpdate locks the wallets of ownerIDs, ordered by wallet ID.
func (r *WalletRepository) GetByOwnersForUpdate(ctx context.Context, tx usecase.Transaction, ownerIDs []string) ([]*domain.Wallet, error) {
	queries, err := r.inTx(tx)
	if err != nil {
		return nil, err
	}

	rows, err := queries.GetWalletsByOwnersForUpdate(ctx, ownerIDs)
	if err != nil {
		return nil, mapError(err, nil)
	}

	wallets := make([]*domain.Wallet, 0, len(rows))
	for _, row := range rows {
		wallets = append(wallets, rowToWallet(row))
	}

	return wallets, nil
}

// GetByIDForUpdate retrieves a wallet by ID with a FOR UPDATE lock.
func (r *WalletRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Wallet, error) {
	queries, err := r.inTx(tx)
	if err != nil {
		return nil, err
	}

	row, err := queries.GetWalletByIDForUpdate(ctx, id)
	if err != nil {
		return nil, walletLookupError(err)
	}

	return rowToWallet(row), nil
}

// UpdateBalance writes a new balance and bumps the version.
func (r *WalletRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	queries, err := r.inTx(tx)
	if err != nil {
		return err
	}

	err = queries.UpdateWalletBalance(ctx, generated.UpdateWalletBalanceParams{
		ID:        id,
		Balance:   decimalToNumeric(balance),
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})

	return mapError(err, nil)
}

// UpdateBlocked writes the block flag.
func (r *WalletRepository) UpdateBlocked(ctx context.Context, tx usecase.Transaction, id string, blocked bool, updatedAt time.Time) error {
	queries, err := r.inTx(tx)
	if err != nil {
		return err
	}

	err = queries.UpdateWalletBlocked(ctx, generated.UpdateWalletBlockedParams{
		ID:        id,
		IsBlocked: blocked,
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})

	return mapError(err, nil)
}

// List lists wallets ordered by ID.
func (r *WalletRepository) List(ctx context.Context, limit, offset int) ([]*domain.Wallet, error) {
	rows, err := r.queries.ListWallets(ctx, generated.ListWalletsParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, err
	}

	wallets := make([]*domain.Wallet, 0, len(rows))
	for _, row := range rows {
		wallets = append(wallets, rowToWallet(row))
	}

	return wallets, nil
}

func walletLookupError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrWalletNotFound
	}
	return mapError(err, nil)
}

func rowToWallet(row generated.Wallet) *domain.Wallet {
	return &domain.Wallet{
		ID:        row.ID,
		OwnerID:   row.OwnerID,
		Balance:   numericToDecimal(row.Balance),
		IsBlocked: row.IsBlocked,
		Version:   row.Version,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
}
