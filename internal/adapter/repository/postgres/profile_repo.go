package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/digipay/internal/domain"
	"github.com/iho/digipay/internal/infrastructure/postgres/generated"
	"github.com/iho/digipay/internal/usecase"
)

var errProfileNotFound = fmt.Errorf("profile %w", domain.ErrNotFound)

// ProfileRepository persists the account shadow
type ProfileRepository struct {
	db generated.DBTX
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: pool}
}

// CreateTx inserts a profile inside tx
func (r *ProfileRepository) CreateTx(ctx context.Context, tx usecase.Transaction, profile *domain.Profile) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO profiles (identity_id, is_blocked, wallet_blocked, balance, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err = t.PgxTx().Exec(ctx, query,
		profile.IdentityID,
		profile.IsBlocked,
		profile.WalletBlocked,
		decimalToNumeric(profile.Balance),
		profile.UpdatedAt,
	)

	return mapError(err, nil)
}

// Get retrieves a profile by identity ID
func (r *ProfileRepository) Get(ctx context.Context, identityID string) (*domain.Profile, error) {
	query := `
		SELECT identity_id, is_blocked, wallet_blocked, balance, updated_at
		FROM profiles
		WHERE identity_id = $1
	`

	var (
		profile domain.Profile
		balance pgtype.Numeric
	)
	err := r.db.QueryRow(ctx, query, identityID).Scan(
		&profile.IdentityID,
		&profile.IsBlocked,
		&profile.WalletBlocked,
		&balance,
		&profile.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errProfileNotFound
		}
		return nil, err
	}

	profile.Balance = numericToDecimal(balance)
	return &profile, nil
}

// SetBlockedTx mirrors the identity block flag inside tx
func (r *ProfileRepository) SetBlockedTx(ctx context.Context, tx usecase.Transaction, identityID string, blocked bool, updatedAt time.Time) error {
	return r.execTx(ctx, tx, `UPDATE profiles SET is_blocked = $2, updated_at = $3 WHERE identity_id = $1`, identityID, blocked, updatedAt)
}

// SetWalletBlockedTx mirrors the wallet block flag inside tx
func (r *ProfileRepository) SetWalletBlockedTx(ctx context.Context, tx usecase.Transaction, identityID string, blocked bool, updatedAt time.Time) error {
	return r.execTx(ctx, tx, `UPDATE profiles SET wallet_blocked = $2, updated_at = $3 WHERE identity_id = $1`, identityID, blocked, updatedAt)
}

// SetBalance writes the display balance outside any transaction
func (r *ProfileRepository) SetBalance(ctx context.Context, identityID string, balance decimal.Decimal, updatedAt time.Time) error {
	query := `UPDATE profiles SET balance = $2, updated_at = $3 WHERE identity_id = $1`

	tag, err := r.db.Exec(ctx, query, identityID, decimalToNumeric(balance), updatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errProfileNotFound
	}
	return nil
}

func (r *ProfileRepository) execTx(ctx context.Context, tx usecase.Transaction, query string, identityID string, blocked bool, updatedAt time.Time) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	tag, err := t.PgxTx().Exec(ctx, query, identityID, blocked, updatedAt)
	if err != nil {
		return mapError(err, nil)
	}
	if tag.RowsAffected() == 0 {
		return errProfileNotFound
	}
	return nil
}
