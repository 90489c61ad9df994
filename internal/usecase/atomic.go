package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iho/digipay/internal/domain"
)

// runInTx runs fn inside a single storage transaction bounded by timeout.
// Any error from fn rolls the whole unit back.
func runInTx(ctx context.Context, txManager TransactionManager, timeout time.Duration, fn func(ctx context.Context, tx Transaction) error) error {
	txCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tx, err := txManager.Begin(txCtx)
	if err != nil {
		return txError(txCtx, err)
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := fn(txCtx, tx); err != nil {
		return txError(txCtx, err)
	}

	if err := tx.Commit(txCtx); err != nil {
		return commitError(err)
	}

	return nil
}

// commitError keeps classified commit failures, such as a serialization
// failure, whose outcome is a clean abort. Anything else, a timeout
// included, may have committed, so it is internal and never retried.
func commitError(err error) error {
	if domain.KindOf(err) != domain.KindInternal {
		return err
	}
	return fmt.Errorf("commit outcome unknown: %w", err)
}

// txError surfaces a unit that expired before commit as a retryable
// storage conflict.
func txError(txCtx context.Context, err error) error {
	if domain.KindOf(err) != domain.KindInternal {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(txCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: transaction timed out: %v", domain.ErrStorageConflict, err)
	}
	return err
}

// authorizer re-reads the caller's identity so role, approval and block
// state are current rather than whatever the token carried.
type authorizer struct {
	identityRepo IdentityRepository
}

func (a authorizer) authorize(ctx context.Context, caller domain.Principal, op domain.Operation) (*domain.Identity, error) {
	if caller == nil || caller.Subject() == "" {
		return nil, domain.ErrUnauthorized
	}

	identity, err := a.identityRepo.GetByID(ctx, caller.Subject())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown identity", domain.ErrUnauthorized)
		}
		return nil, err
	}

	if identity.IsBlocked {
		return nil, domain.ErrIdentityBlocked
	}

	if err := domain.CanPerform(identity.Principal, op); err != nil {
		return nil, err
	}

	return identity, nil
}

// recheck re-reads the caller under lock inside tx, so a block or suspension
// committed after authorize still stops the unit. Callers lock wallets
// before identities.
func (a authorizer) recheck(ctx context.Context, tx Transaction, id string, op domain.Operation) error {
	identity, err := a.identityRepo.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: unknown identity", domain.ErrUnauthorized)
		}
		return err
	}

	if identity.IsBlocked {
		return domain.ErrIdentityBlocked
	}

	return domain.CanPerform(identity.Principal, op)
}

func auditActor(identity *domain.Identity) string {
	if identity == nil {
		return "system"
	}
	return identity.ID
}
