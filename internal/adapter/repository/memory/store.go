// Package memory is a concurrency-safe in-memory ledger store. Transactions
// are serialised: Begin waits for the previous transaction to finish, writes
// are staged on the Tx and applied only on Commit.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/iho/digipay/internal/domain"
	"github.com/iho/digipay/internal/usecase"
)

// ErrTxClosed is returned when a finished transaction is used again.
var ErrTxClosed = errors.New("memory: transaction already closed")

// Store holds all committed state.
type Store struct {
	sem chan struct{}

	mu            sync.RWMutex
	wallets       map[string]domain.Wallet
	walletByOwner map[string]string
	records       []domain.Transaction
	identities    map[string]domain.Identity
	emails        map[string]string
	profiles      map[string]domain.Profile
	audits        []domain.AuditLog
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		sem:           make(chan struct{}, 1),
		wallets:       make(map[string]domain.Wallet),
		walletByOwner: make(map[string]string),
		identities:    make(map[string]domain.Identity),
		emails:        make(map[string]string),
		profiles:      make(map[string]domain.Profile),
	}
}

// Begin starts a transaction once no other transaction is open. A context
// that expires while waiting yields a storage conflict.
func (s *Store) Begin(ctx context.Context) (usecase.Transaction, error) {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageConflict, ctx.Err())
	}

	return &Tx{
		store:         s,
		wallets:       make(map[string]domain.Wallet),
		walletByOwner: make(map[string]string),
		identities:    make(map[string]domain.Identity),
		emails:        make(map[string]string),
		profiles:      make(map[string]domain.Profile),
	}, nil
}

// Tx stages writes until Commit.
type Tx struct {
	store *Store
	done  bool

	wallets       map[string]domain.Wallet
	walletByOwner map[string]string
	records       []domain.Transaction
	identities    map[string]domain.Identity
	emails        map[string]string
	profiles      map[string]domain.Profile
	audits        []domain.AuditLog
}

// Commit applies staged writes atomically.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return ErrTxClosed
	}

	if err := ctx.Err(); err != nil {
		t.release()
		return err
	}

	s := t.store
	s.mu.Lock()
	for id, w := range t.wallets {
		s.wallets[id] = w
	}
	for owner, id := range t.walletByOwner {
		s.walletByOwner[owner] = id
	}
	s.records = append(s.records, t.records...)
	for id, i := range t.identities {
		s.identities[id] = i
	}
	for email, id := range t.emails {
		s.emails[email] = id
	}
	for id, p := range t.profiles {
		s.profiles[id] = p
	}
	s.audits = append(s.audits, t.audits...)
	s.mu.Unlock()

	t.release()
	return nil
}

// Rollback discards staged writes. It is a no-op after Commit.
func (t *Tx) Rollback(_ context.Context) error {
	if t.done {
		return nil
	}
	t.release()
	return nil
}

func (t *Tx) release() {
	t.done = true
	<-t.store.sem
}

func asTx(tx usecase.Transaction) (*Tx, error) {
	mtx, ok := tx.(*Tx)
	if !ok || mtx == nil {
		return nil, fmt.Errorf("memory: unexpected transaction type %T", tx)
	}
	if mtx.done {
		return nil, ErrTxClosed
	}
	return mtx, nil
}

// wallet reads through staged writes to committed state.
func (t *Tx) wallet(id string) (domain.Wallet, bool) {
	if w, ok := t.wallets[id]; ok {
		return w, true
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	w, ok := t.store.wallets[id]
	return w, ok
}

func (t *Tx) walletIDForOwner(ownerID string) (string, bool) {
	if id, ok := t.walletByOwner[ownerID]; ok {
		return id, true
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	id, ok := t.store.walletByOwner[ownerID]
	return id, ok
}

func (t *Tx) identity(id string) (domain.Identity, bool) {
	if i, ok := t.identities[id]; ok {
		return i, true
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	i, ok := t.store.identities[id]
	return i, ok
}

func (t *Tx) emailTaken(email string) bool {
	if _, ok := t.emails[email]; ok {
		return true
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	_, ok := t.store.emails[email]
	return ok
}

func (t *Tx) profile(id string) (domain.Profile, bool) {
	if p, ok := t.profiles[id]; ok {
		return p, true
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	p, ok := t.store.profiles[id]
	return p, ok
}
