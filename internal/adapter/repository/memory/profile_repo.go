package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/digipay/internal/domain"
	"github.com/iho/digipay/internal/usecase"
)

var errProfileNotFound = fmt.Errorf("profile %w", domain.ErrNotFound)

// ProfileRepository implements usecase.ProfileRepository.
type ProfileRepository struct {
	s *Store
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(s *Store) *ProfileRepository {
	return &ProfileRepository{s: s}
}

// CreateTx stages a profile shadow.
func (r *ProfileRepository) CreateTx(_ context.Context, tx usecase.Transaction, profile *domain.Profile) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	if _, exists := t.profile(profile.IdentityID); exists {
		return fmt.Errorf("profile %w", domain.ErrDuplicate)
	}
	t.profiles[profile.IdentityID] = *profile
	return nil
}

// Get retrieves a committed profile.
func (r *ProfileRepository) Get(_ context.Context, identityID string) (*domain.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.profiles[identityID]
	if !ok {
		return nil, errProfileNotFound
	}
	return &p, nil
}

// SetBlockedTx mirrors the identity block flag.
func (r *ProfileRepository) SetBlockedTx(_ context.Context, tx usecase.Transaction, identityID string, blocked bool, updatedAt time.Time) error {
	return r.stage(tx, identityID, func(p *domain.Profile) {
		p.IsBlocked = blocked
		p.UpdatedAt = updatedAt
	})
}

// SetWalletBlockedTx mirrors the wallet block flag.
func (r *ProfileRepository) SetWalletBlockedTx(_ context.Context, tx usecase.Transaction, identityID string, blocked bool, updatedAt time.Time) error {
	return r.stage(tx, identityID, func(p *domain.Profile) {
		p.WalletBlocked = blocked
		p.UpdatedAt = updatedAt
	})
}

// SetBalance writes the display balance outside any transaction.
func (r *ProfileRepository) SetBalance(_ context.Context, identityID string, balance decimal.Decimal, updatedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.profiles[identityID]
	if !ok {
		return errProfileNotFound
	}
	p.Balance = balance
	p.UpdatedAt = updatedAt
	r.s.profiles[identityID] = p
	return nil
}

func (r *ProfileRepository) stage(tx usecase.Transaction, identityID string, apply func(*domain.Profile)) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	p, ok := t.profile(identityID)
	if !ok {
		return errProfileNotFound
	}
	apply(&p)
	t.profiles[identityID] = p
	return nil
}
