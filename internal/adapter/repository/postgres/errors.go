package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iho/digipay/internal/domain"
	"github.com/iho/digipay/internal/usecase"
)

// PostgreSQL error codes mapped to domain kinds.
const (
	pgErrDeadlock             = "40P01"
	pgErrSerializationFailure = "40001"
	pgErrLockNotAvailable     = "55P03"
	pgErrUniqueViolation      = "23505"
	pgErrCheckViolation       = "23514"
)

const walletBalanceConstraint = "wallets_balance_non_negative"

// errUnexpectedTx is returned when a repository gets a transaction from
// another store.
var errUnexpectedTx = errors.New("postgres: unexpected transaction type")

// mapError translates driver errors into domain kinds. dup is returned for
// unique violations.
func mapError(err error, dup error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgErrDeadlock, pgErrSerializationFailure, pgErrLockNotAvailable:
		return fmt.Errorf("%w: %s", domain.ErrStorageConflict, pgErr.Message)
	case pgErrUniqueViolation:
		if dup != nil {
			return dup
		}
		return fmt.Errorf("%w: %s", domain.ErrDuplicate, pgErr.ConstraintName)
	case pgErrCheckViolation:
		if pgErr.ConstraintName == walletBalanceConstraint {
			return domain.ErrInsufficientBalance
		}
	}

	return err
}

func asTx(tx usecase.Transaction) (*Tx, error) {
	t, ok := tx.(*Tx)
	if !ok || t == nil {
		return nil, fmt.Errorf("%w %T", errUnexpectedTx, tx)
	}
	return t, nil
}
