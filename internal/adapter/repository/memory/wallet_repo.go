package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/digipay/internal/domain"
	"github.com/iho/digipay/internal/usecase"
)

// WalletRepository implements usecase.WalletRepository.
type WalletRepository struct {
	s *Store
}

// NewWalletRepository creates a new WalletRepository.
func NewWalletRepository(s *Store) *WalletRepository {
	return &WalletRepository{s: s}
}

// CreateTx stages a new wallet. One wallet per owner.
func (r *WalletRepository) CreateTx(_ context.Context, tx usecase.Transaction, wallet *domain.Wallet) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	if _, exists := t.walletIDForOwner(wallet.OwnerID); exists {
		return domain.ErrDuplicateWallet
	}
	if _, exists := t.wallet(wallet.ID); exists {
		return domain.ErrDuplicateWallet
	}

	t.wallets[wallet.ID] = *wallet
	t.walletByOwner[wallet.OwnerID] = wallet.ID
	return nil
}

// GetByID retrieves a committed wallet by ID.
func (r *WalletRepository) GetByID(_ context.Context, id string) (*domain.Wallet, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	w, ok := r.s.wallets[id]
	if !ok {
		return nil, domain.ErrWalletNotFound
	}
	return &w, nil
}

// GetByOwner retrieves a committed wallet by owner.
func (r *WalletRepository) GetByOwner(_ context.Context, ownerID string) (*domain.Wallet, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.walletByOwner[ownerID]
	if !ok {
		return nil, domain.ErrWalletNotFound
	}
	w := r.s.wallets[id]
	return &w, nil
}

// GetByOwnersForUpdate returns the wallets of ownerIDs sorted by wallet ID.
// Owners without a wallet are skipped.
func (r *WalletRepository) GetByOwnersForUpdate(_ context.Context, tx usecase.Transaction, ownerIDs []string) ([]*domain.Wallet, error) {
	t, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(ownerIDs))
	wallets := make([]*domain.Wallet, 0, len(ownerIDs))
	for _, owner := range ownerIDs {
		id, ok := t.walletIDForOwner(owner)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true

		w, _ := t.wallet(id)
		wallets = append(wallets, &w)
	}

	sort.Slice(wallets, func(i, j int) bool { return wallets[i].ID < wallets[j].ID })
	return wallets, nil
}

// GetByIDForUpdate retrieves a wallet inside tx.
func (r *WalletRepository) GetByIDForUpdate(_ context.Context, tx usecase.Transaction, id string) (*domain.Wallet, error) {
	t, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	w, ok := t.wallet(id)
	if !ok {
		return nil, domain.ErrWalletNotFound
	}
	return &w, nil
}

// UpdateBalance stages a balance write and bumps the version.
func (r *WalletRepository) UpdateBalance(_ context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	w, ok := t.wallet(id)
	if !ok {
		return domain.ErrWalletNotFound
	}
	w.Balance = balance
	w.Version++
	w.UpdatedAt = updatedAt
	t.wallets[id] = w
	return nil
}

// UpdateBlocked stages a block flag write.
func (r *WalletRepository) UpdateBlocked(_ context.Context, tx usecase.Transaction, id string, blocked bool, updatedAt time.Time) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	w, ok := t.wallet(id)
	if !ok {
		return domain.ErrWalletNotFound
	}
	w.IsBlocked = blocked
	w.UpdatedAt = updatedAt
	t.wallets[id] = w
	return nil
}

// List lists committed wallets ordered by ID.
func (r *WalletRepository) List(_ context.Context, limit, offset int) ([]*domain.Wallet, error) {
	r.s.mu.RLock()
	ids := make([]string, 0, len(r.s.wallets))
	for id := range r.s.wallets {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	wallets := make([]*domain.Wallet, 0, limit)
	for _, id := range page(ids, limit, offset) {
		w := r.s.wallets[id]
		wallets = append(wallets, &w)
	}
	r.s.mu.RUnlock()

	return wallets, nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
