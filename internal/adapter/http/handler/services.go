package handler

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/iho/digipay/internal/domain"
	"github.com/iho/digipay/internal/usecase"
)

// TransferService moves money between wallets.
type TransferService interface {
	TopUp(ctx context.Context, caller domain.Principal, amount decimal.Decimal) (*usecase.OperationResult, error)
	Withdraw(ctx context.Context, caller domain.Principal, amount decimal.Decimal) (*usecase.OperationResult, error)
	Send(ctx context.Context, caller domain.Principal, toOwnerID string, amount decimal.Decimal) (*usecase.OperationResult, error)
	CashIn(ctx context.Context, caller domain.Principal, toOwnerID string, amount decimal.Decimal) (*usecase.OperationResult, error)
	CashOut(ctx context.Context, caller domain.Principal, fromOwnerID string, amount decimal.Decimal) (*usecase.OperationResult, error)
}

// WalletService reads and blocks wallets.
type WalletService interface {
	GetWallet(ctx context.Context, caller domain.Principal, ownerID string) (*domain.Wallet, error)
	SetBlocked(ctx context.Context, caller domain.Principal, walletID string, blocked *bool) (*domain.Wallet, error)
}

// LedgerService queries ledger records.
type LedgerService interface {
	QueryForParticipant(ctx context.Context, caller domain.Principal, query usecase.HistoryQuery) ([]*domain.Transaction, error)
	GetTransaction(ctx context.Context, caller domain.Principal, id string) (*domain.Transaction, error)
}

// IdentityService administers identities.
type IdentityService interface {
	CreateIdentity(ctx context.Context, caller domain.Principal, input usecase.CreateIdentityInput) (*usecase.Registration, error)
	GetIdentity(ctx context.Context, caller domain.Principal, id string) (*domain.Identity, error)
	ListIdentities(ctx context.Context, caller domain.Principal, limit, offset int) ([]*domain.Identity, error)
	SetIdentityBlocked(ctx context.Context, caller domain.Principal, id string, blocked *bool) (*domain.Identity, error)
	ToggleAgentApproval(ctx context.Context, caller domain.Principal, id string) (*domain.Identity, error)
	ToggleRole(ctx context.Context, caller domain.Principal, id string) (*domain.Identity, error)
}

// ReconciliationService reports wallet and shadow consistency.
type ReconciliationService interface {
	Report(ctx context.Context, caller domain.Principal) (*usecase.ReconciliationReport, error)
}

// Retrier re-runs an operation that failed with a retryable error.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}
