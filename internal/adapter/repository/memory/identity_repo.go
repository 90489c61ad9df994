package memory

import (
	"context"
	"sort"

	"github.com/iho/digipay/internal/domain"
	"github.com/iho/digipay/internal/usecase"
)

// IdentityRepository implements usecase.IdentityRepository.
type IdentityRepository struct {
	s *Store
}

// NewIdentityRepository creates a new IdentityRepository.
func NewIdentityRepository(s *Store) *IdentityRepository {
	return &IdentityRepository{s: s}
}

// CreateTx stages a new identity. Emails are unique.
func (r *IdentityRepository) CreateTx(_ context.Context, tx usecase.Transaction, identity *domain.Identity) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	if t.emailTaken(identity.Email) {
		return domain.ErrDuplicateIdentity
	}
	if _, exists := t.identity(identity.ID); exists {
		return domain.ErrDuplicateIdentity
	}

	t.identities[identity.ID] = *identity
	t.emails[identity.Email] = identity.ID
	return nil
}

// GetByID retrieves a committed identity.
func (r *IdentityRepository) GetByID(_ context.Context, id string) (*domain.Identity, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	i, ok := r.s.identities[id]
	if !ok {
		return nil, domain.ErrIdentityNotFound
	}
	return &i, nil
}

// GetByIDForUpdate retrieves an identity inside tx.
func (r *IdentityRepository) GetByIDForUpdate(_ context.Context, tx usecase.Transaction, id string) (*domain.Identity, error) {
	t, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	i, ok := t.identity(id)
	if !ok {
		return nil, domain.ErrIdentityNotFound
	}
	return &i, nil
}

// UpdateTx stages role, approval and block changes.
func (r *IdentityRepository) UpdateTx(_ context.Context, tx usecase.Transaction, identity *domain.Identity) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	current, ok := t.identity(identity.ID)
	if !ok {
		return domain.ErrIdentityNotFound
	}

	current.Principal = identity.Principal
	current.IsBlocked = identity.IsBlocked
	current.Name = identity.Name
	current.UpdatedAt = identity.UpdatedAt
	t.identities[identity.ID] = current
	return nil
}

// List lists committed identities, oldest first.
func (r *IdentityRepository) List(_ context.Context, limit, offset int) ([]*domain.Identity, error) {
	r.s.mu.RLock()
	all := make([]*domain.Identity, 0, len(r.s.identities))
	for _, i := range r.s.identities {
		all = append(all, &i)
	}
	r.s.mu.RUnlock()

	sort.Slice(all, func(a, b int) bool {
		if all[a].CreatedAt.Equal(all[b].CreatedAt) {
			return all[a].ID < all[b].ID
		}
		return all[a].CreatedAt.Before(all[b].CreatedAt)
	})

	return page(all, limit, offset), nil
}
