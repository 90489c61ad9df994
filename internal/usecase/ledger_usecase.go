package usecase

import (
	"context"
	"time"

	"github.com/iho/digipay/internal/domain"
)

// LedgerUseCase is the single write path for transaction records and the
// canonical history query.
type LedgerUseCase struct {
	authorizer

	txRepo     TransactionRepository
	walletRepo WalletRepository
	idGen      IDGenerator
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(txRepo TransactionRepository, walletRepo WalletRepository, identityRepo IdentityRepository, idGen IDGenerator) *LedgerUseCase {
	return &LedgerUseCase{
		authorizer: authorizer{identityRepo: identityRepo},
		txRepo:     txRepo,
		walletRepo: walletRepo,
		idGen:      idGen,
	}
}

// Append validates record and writes it inside the caller's transaction.
// Records are always written as completed; there is no update path.
func (uc *LedgerUseCase) Append(ctx context.Context, tx Transaction, record *domain.Transaction) error {
	record.ID = uc.idGen.Generate()
	record.Status = domain.TransactionCompleted
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	if err := record.Validate(); err != nil {
		return err
	}

	return uc.txRepo.Create(ctx, tx, record)
}

// HistoryQuery selects ledger records for a participant.
type HistoryQuery struct {
	// OwnerID is the identity whose wallet history is listed; empty means the caller.
	OwnerID string
	// All lists every record regardless of participant. Admin only.
	All   bool
	Limit int
}

// QueryForParticipant lists records where the owner's wallet is source or
// destination, newest first. Non-admins may only query themselves.
func (uc *LedgerUseCase) QueryForParticipant(ctx context.Context, caller domain.Principal, query HistoryQuery) ([]*domain.Transaction, error) {
	op := domain.OpViewOwn
	if query.All || (caller != nil && query.OwnerID != "" && query.OwnerID != caller.Subject()) {
		op = domain.OpViewAny
	}

	identity, err := uc.authorize(ctx, caller, op)
	if err != nil {
		return nil, err
	}

	limit := domain.ClampHistoryLimit(query.Limit)

	if query.All {
		return uc.txRepo.List(ctx, limit)
	}

	ownerID := query.OwnerID
	if ownerID == "" {
		ownerID = identity.ID
	}

	wallet, err := uc.walletRepo.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	return uc.txRepo.ListByWallet(ctx, wallet.ID, limit)
}

// GetTransaction returns one record. Non-admins only see records their
// wallet took part in.
func (uc *LedgerUseCase) GetTransaction(ctx context.Context, caller domain.Principal, id string) (*domain.Transaction, error) {
	identity, err := uc.authorize(ctx, caller, domain.OpViewOwn)
	if err != nil {
		return nil, err
	}

	record, err := uc.txRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if domain.IsAdmin(identity.Principal) {
		return record, nil
	}

	wallet, err := uc.walletRepo.GetByOwner(ctx, identity.ID)
	if err != nil {
		return nil, err
	}

	if !record.Involves(wallet.ID) {
		return nil, domain.ErrTransactionNotFound
	}

	return record, nil
}
