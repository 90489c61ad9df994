package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/digipay/internal/domain"
	"github.com/iho/digipay/internal/infrastructure/metrics"
)

// TransferUseCase runs the five money-moving operations. Each one is a
// single atomic unit: balances and the ledger record commit together or
// not at all.
type TransferUseCase struct {
	authorizer

	txManager   TransactionManager
	wallets     *WalletUseCase
	ledger      *LedgerUseCase
	walletRepo  WalletRepository
	profileRepo ProfileRepository
	metrics     *metrics.Metrics
	settings    Settings
}

// NewTransferUseCase creates a new TransferUseCase.
func NewTransferUseCase(
	txManager TransactionManager,
	wallets *WalletUseCase,
	ledger *LedgerUseCase,
	walletRepo WalletRepository,
	identityRepo IdentityRepository,
	profileRepo ProfileRepository,
	metrics *metrics.Metrics,
	settings Settings,
) *TransferUseCase {
	return &TransferUseCase{
		authorizer:  authorizer{identityRepo: identityRepo},
		txManager:   txManager,
		wallets:     wallets,
		ledger:      ledger,
		walletRepo:  walletRepo,
		profileRepo: profileRepo,
		metrics:     metrics,
		settings:    settings.withDefaults(),
	}
}

// OperationResult is the outcome of a committed operation.
type OperationResult struct {
	Transaction *domain.Transaction
	// Wallet is the caller's wallet after the operation.
	Wallet *domain.Wallet
}

type leg struct {
	ownerID string
	delta   decimal.Decimal
}

type movement struct {
	op           domain.Operation
	txType       domain.TransactionType
	amount       decimal.Decimal
	counterparty string
	counterField string
	// plan computes the balance legs and the record skeleton from the
	// locked wallets. other is nil for single-wallet operations.
	plan func(self, other *domain.Wallet) ([]leg, domain.Transaction)
}

// TopUp credits the caller's own wallet.
func (uc *TransferUseCase) TopUp(ctx context.Context, caller domain.Principal, amount decimal.Decimal) (*OperationResult, error) {
	return uc.execute(ctx, caller, movement{
		op:     domain.OpTopUp,
		txType: domain.TransactionTopUp,
		amount: amount,
		plan: func(self, _ *domain.Wallet) ([]leg, domain.Transaction) {
			return []leg{{self.OwnerID, amount}}, domain.Transaction{
				ToWalletID: domain.StringPtr(self.ID),
			}
		},
	})
}

// Withdraw debits the caller's own wallet.
func (uc *TransferUseCase) Withdraw(ctx context.Context, caller domain.Principal, amount decimal.Decimal) (*OperationResult, error) {
	return uc.execute(ctx, caller, movement{
		op:     domain.OpWithdraw,
		txType: domain.TransactionWithdraw,
		amount: amount,
		plan: func(self, _ *domain.Wallet) ([]leg, domain.Transaction) {
			return []leg{{self.OwnerID, amount.Neg()}}, domain.Transaction{
				FromWalletID: domain.StringPtr(self.ID),
			}
		},
	})
}

// Send moves amount from the caller to toOwnerID.
func (uc *TransferUseCase) Send(ctx context.Context, caller domain.Principal, toOwnerID string, amount decimal.Decimal) (*OperationResult, error) {
	return uc.execute(ctx, caller, movement{
		op:           domain.OpSend,
		txType:       domain.TransactionSend,
		amount:       amount,
		counterparty: toOwnerID,
		counterField: "to_owner_id",
		plan: func(self, other *domain.Wallet) ([]leg, domain.Transaction) {
			return []leg{{self.OwnerID, amount.Neg()}, {other.OwnerID, amount}}, domain.Transaction{
				FromWalletID: domain.StringPtr(self.ID),
				ToWalletID:   domain.StringPtr(other.ID),
			}
		},
	})
}

// CashIn credits toOwnerID with amount less commission and credits the
// commission to the agent. The agent's balance is not debited.
func (uc *TransferUseCase) CashIn(ctx context.Context, caller domain.Principal, toOwnerID string, amount decimal.Decimal) (*OperationResult, error) {
	commission := domain.CashInCommission(amount, uc.settings.CommissionRate)

	return uc.execute(ctx, caller, movement{
		op:           domain.OpCashIn,
		txType:       domain.TransactionCashIn,
		amount:       amount,
		counterparty: toOwnerID,
		counterField: "to_owner_id",
		plan: func(agent, receiver *domain.Wallet) ([]leg, domain.Transaction) {
			return []leg{{receiver.OwnerID, amount.Sub(commission)}, {agent.OwnerID, commission}}, domain.Transaction{
				FromWalletID: domain.StringPtr(agent.ID),
				ToWalletID:   domain.StringPtr(receiver.ID),
				Commission:   commission,
			}
		},
	})
}

// CashOut debits fromOwnerID and credits the agent with the full amount.
func (uc *TransferUseCase) CashOut(ctx context.Context, caller domain.Principal, fromOwnerID string, amount decimal.Decimal) (*OperationResult, error) {
	return uc.execute(ctx, caller, movement{
		op:           domain.OpCashOut,
		txType:       domain.TransactionCashOut,
		amount:       amount,
		counterparty: fromOwnerID,
		counterField: "from_owner_id",
		plan: func(agent, user *domain.Wallet) ([]leg, domain.Transaction) {
			return []leg{{user.OwnerID, amount.Neg()}, {agent.OwnerID, amount}}, domain.Transaction{
				FromWalletID: domain.StringPtr(user.ID),
				ToWalletID:   domain.StringPtr(agent.ID),
			}
		},
	})
}

func (uc *TransferUseCase) execute(ctx context.Context, caller domain.Principal, m movement) (*OperationResult, error) {
	start := time.Now()

	result, err := uc.run(ctx, caller, m)

	uc.observe(m, start, err)
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (uc *TransferUseCase) run(ctx context.Context, caller domain.Principal, m movement) (*OperationResult, error) {
	if caller == nil {
		return nil, domain.ErrUnauthorized
	}

	// 0. Validate inputs before starting transaction
	if err := domain.ValidateAmount(m.amount); err != nil {
		return nil, err
	}

	if m.counterField != "" {
		if m.counterparty == "" {
			return nil, domain.NewValidationError(m.counterField, "is required")
		}
		if m.counterparty == caller.Subject() {
			return nil, domain.NewValidationError(m.counterField, "cannot be the caller")
		}
	}

	// 1. Resolve the caller from storage and check role, approval and block state
	identity, err := uc.authorize(ctx, caller, m.op)
	if err != nil {
		return nil, err
	}

	ownerIDs := []string{identity.ID}
	if m.counterparty != "" {
		ownerIDs = append(ownerIDs, m.counterparty)
	}

	var (
		record  domain.Transaction
		touched []*domain.Wallet
		self    *domain.Wallet
	)

	err = runInTx(ctx, uc.txManager, uc.settings.TxTimeout, func(ctx context.Context, tx Transaction) error {
		// 2. Lock wallets in ascending ID order (deadlock prevention)
		locked, err := uc.walletRepo.GetByOwnersForUpdate(ctx, tx, ownerIDs)
		if err != nil {
			return err
		}

		byOwner := make(map[string]*domain.Wallet, len(locked))
		for _, w := range locked {
			byOwner[w.OwnerID] = w
		}

		self = byOwner[identity.ID]
		if self == nil {
			return domain.ErrWalletNotFound
		}

		// Block or suspension may have committed since authorize
		if err := uc.recheck(ctx, tx, identity.ID, m.op); err != nil {
			return err
		}

		var other *domain.Wallet
		if m.counterparty != "" {
			other = byOwner[m.counterparty]
			if other == nil {
				return domain.ErrWalletNotFound
			}
		}

		legs, skeleton := m.plan(self, other)

		// 3. Re-check block state and balances on the locked rows before any write
		for _, l := range legs {
			if err := byOwner[l.ownerID].ValidateDelta(l.delta); err != nil {
				return err
			}
		}

		// 4. Write balances
		now := time.Now().UTC()
		for _, l := range legs {
			w := byOwner[l.ownerID]
			if err := uc.wallets.adjust(ctx, tx, w, l.delta, now); err != nil {
				return err
			}
			touched = append(touched, w)
		}

		// 5. Append the ledger record
		record = skeleton
		record.Amount = m.amount
		record.Type = m.txType
		record.InitiatedBy = identity.ID
		record.CreatedAt = now

		return uc.ledger.Append(ctx, tx, &record)
	})
	if err != nil {
		return nil, err
	}

	uc.afterCommit(ctx, touched)

	return &OperationResult{Transaction: &record, Wallet: self}, nil
}

// afterCommit refreshes the profile shadows and the wallet cache. Failures
// here never fail the operation.
func (uc *TransferUseCase) afterCommit(ctx context.Context, touched []*domain.Wallet) {
	sort.Slice(touched, func(i, j int) bool { return touched[i].ID < touched[j].ID })

	owners := make([]string, 0, len(touched))
	for _, w := range touched {
		owners = append(owners, w.OwnerID)

		if uc.profileRepo == nil {
			continue
		}
		if err := uc.profileRepo.SetBalance(ctx, w.OwnerID, w.Balance, w.UpdatedAt); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).
				Str("owner_id", w.OwnerID).
				Str("balance", w.Balance.String()).
				Msg("profile balance sync failed")
			if uc.metrics != nil {
				uc.metrics.ProfileSyncFailures.Inc()
			}
		}
	}

	uc.wallets.invalidate(ctx, owners...)
}

func (uc *TransferUseCase) observe(m movement, start time.Time, err error) {
	if uc.metrics == nil {
		return
	}

	txType := string(m.txType)
	uc.metrics.OperationDuration.WithLabelValues(txType).Observe(time.Since(start).Seconds())

	if err != nil {
		uc.metrics.Operations.WithLabelValues(txType, "failure").Inc()
		uc.metrics.OperationErrors.WithLabelValues(txType, string(domain.KindOf(err))).Inc()
		return
	}

	uc.metrics.Operations.WithLabelValues(txType, "success").Inc()
	uc.metrics.OperationAmount.WithLabelValues(txType).Observe(m.amount.InexactFloat64())
	if m.txType == domain.TransactionCashIn {
		uc.metrics.CommissionTotal.Add(m.amount.Mul(uc.settings.CommissionRate).InexactFloat64())
	}
}
