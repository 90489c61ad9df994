package memory

import (
	"context"
	"sort"

	"github.com/iho/digipay/internal/domain"
	"github.com/iho/digipay/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	s *Store
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(s *Store) *TransactionRepository {
	return &TransactionRepository{s: s}
}

// Create stages a ledger record.
func (r *TransactionRepository) Create(_ context.Context, tx usecase.Transaction, record *domain.Transaction) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	t.records = append(t.records, cloneRecord(record))
	return nil
}

// GetByID retrieves a committed record.
func (r *TransactionRepository) GetByID(_ context.Context, id string) (*domain.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for i := range r.s.records {
		if r.s.records[i].ID == id {
			rec := cloneRecord(&r.s.records[i])
			return &rec, nil
		}
	}
	return nil, domain.ErrTransactionNotFound
}

// ListByWallet lists records touching walletID, newest first.
func (r *TransactionRepository) ListByWallet(_ context.Context, walletID string, limit int) ([]*domain.Transaction, error) {
	return r.list(limit, func(rec *domain.Transaction) bool { return rec.Involves(walletID) }), nil
}

// List lists all records, newest first.
func (r *TransactionRepository) List(_ context.Context, limit int) ([]*domain.Transaction, error) {
	return r.list(limit, func(*domain.Transaction) bool { return true }), nil
}

func (r *TransactionRepository) list(limit int, match func(*domain.Transaction) bool) []*domain.Transaction {
	r.s.mu.RLock()
	matched := make([]*domain.Transaction, 0)
	// Walk newest commits first so equal timestamps keep commit order.
	for i := len(r.s.records) - 1; i >= 0; i-- {
		if match(&r.s.records[i]) {
			rec := cloneRecord(&r.s.records[i])
			matched = append(matched, &rec)
		}
	}
	r.s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	return page(matched, limit, 0)
}

func cloneRecord(rec *domain.Transaction) domain.Transaction {
	c := *rec
	if rec.FromWalletID != nil {
		c.FromWalletID = domain.StringPtr(*rec.FromWalletID)
	}
	if rec.ToWalletID != nil {
		c.ToWalletID = domain.StringPtr(*rec.ToWalletID)
	}
	return c
}
