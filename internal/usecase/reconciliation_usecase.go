package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/digipay/internal/domain"
	"github.com/iho/digipay/internal/infrastructure/metrics"
)

const reconcilePageSize = 500

// ReconciliationUseCase checks wallets against the non-negative invariant
// and their profile shadows, and repairs drifted shadows.
type ReconciliationUseCase struct {
	authorizer

	txManager   TransactionManager
	walletRepo  WalletRepository
	profileRepo ProfileRepository
	wallets     *WalletUseCase
	metrics     *metrics.Metrics
	settings    Settings
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(
	txManager TransactionManager,
	walletRepo WalletRepository,
	identityRepo IdentityRepository,
	profileRepo ProfileRepository,
	wallets *WalletUseCase,
	metrics *metrics.Metrics,
	settings Settings,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		authorizer:  authorizer{identityRepo: identityRepo},
		txManager:   txManager,
		walletRepo:  walletRepo,
		profileRepo: profileRepo,
		wallets:     wallets,
		metrics:     metrics,
		settings:    settings.withDefaults(),
	}
}

// ReconciliationResult represents the result of a reconciliation check
type ReconciliationResult struct {
	WalletID        string
	OwnerID         string
	Balance         decimal.Decimal
	ProfileBalance  decimal.Decimal
	NegativeBalance bool
	DriftFields     []string
	IsReconciled    bool
	LastChecked     time.Time
}

// ReconcileWallet compares one wallet with its owner and profile shadow.
func (uc *ReconciliationUseCase) ReconcileWallet(ctx context.Context, wallet *domain.Wallet) (*ReconciliationResult, error) {
	identity, err := uc.identityRepo.GetByID(ctx, wallet.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load owner of wallet %s: %w", wallet.ID, err)
	}

	result := &ReconciliationResult{
		WalletID:        wallet.ID,
		OwnerID:         wallet.OwnerID,
		Balance:         wallet.Balance,
		NegativeBalance: wallet.Balance.IsNegative(),
		LastChecked:     time.Now().UTC(),
	}

	profile, err := uc.profileRepo.Get(ctx, wallet.OwnerID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		result.DriftFields = []string{"missing"}
	case err != nil:
		return nil, err
	default:
		result.ProfileBalance = profile.Balance
		result.DriftFields = profile.Drift(identity, wallet)
	}

	result.IsReconciled = !result.NegativeBalance && len(result.DriftFields) == 0

	return result, nil
}

// ReconcileAllWallets reconciles every wallet, page by page.
func (uc *ReconciliationUseCase) ReconcileAllWallets(ctx context.Context) ([]*ReconciliationResult, error) {
	var results []*ReconciliationResult

	for offset := 0; ; offset += reconcilePageSize {
		page, err := uc.walletRepo.List(ctx, reconcilePageSize, offset)
		if err != nil {
			return nil, err
		}

		for _, wallet := range page {
			result, err := uc.ReconcileWallet(ctx, wallet)
			if err != nil {
				return nil, fmt.Errorf("failed to reconcile wallet %s: %w", wallet.ID, err)
			}
			results = append(results, result)
		}

		if len(page) < reconcilePageSize {
			return results, nil
		}
	}
}

// ReconciliationReport represents a full reconciliation report
type ReconciliationReport struct {
	TotalWallets      int
	ReconciledWallets int
	NegativeBalances  int
	Discrepancies     []*ReconciliationResult
	CheckedAt         time.Time
}

// GenerateReconciliationReport generates a reconciliation report
func (uc *ReconciliationUseCase) GenerateReconciliationReport(ctx context.Context) (*ReconciliationReport, error) {
	results, err := uc.ReconcileAllWallets(ctx)
	if err != nil {
		return nil, err
	}

	report := &ReconciliationReport{
		TotalWallets:  len(results),
		Discrepancies: make([]*ReconciliationResult, 0),
		CheckedAt:     time.Now().UTC(),
	}

	for _, result := range results {
		if result.NegativeBalance {
			report.NegativeBalances++
		}
		if result.IsReconciled {
			report.ReconciledWallets++
		} else {
			report.Discrepancies = append(report.Discrepancies, result)
		}
	}

	if uc.metrics != nil {
		uc.metrics.ProfileDrift.Set(float64(len(report.Discrepancies)))
	}

	return report, nil
}

// Report is GenerateReconciliationReport for an authorized caller.
func (uc *ReconciliationUseCase) Report(ctx context.Context, caller domain.Principal) (*ReconciliationReport, error) {
	if _, err := uc.authorize(ctx, caller, domain.OpReconcile); err != nil {
		return nil, err
	}
	return uc.GenerateReconciliationReport(ctx)
}

// RepairProfiles rewrites drifted profile shadows from their sources and
// returns how many were repaired. Missing profiles are left for an operator.
func (uc *ReconciliationUseCase) RepairProfiles(ctx context.Context) (int, error) {
	report, err := uc.GenerateReconciliationReport(ctx)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, d := range report.Discrepancies {
		if len(d.DriftFields) == 0 || d.DriftFields[0] == "missing" {
			continue
		}
		if err := uc.repair(ctx, d); err != nil {
			return repaired, fmt.Errorf("failed to repair profile %s: %w", d.OwnerID, err)
		}
		repaired++
	}

	return repaired, nil
}

func (uc *ReconciliationUseCase) repair(ctx context.Context, d *ReconciliationResult) error {
	var wallet *domain.Wallet

	err := runInTx(ctx, uc.txManager, uc.settings.TxTimeout, func(ctx context.Context, tx Transaction) error {
		var err error
		wallet, err = uc.walletRepo.GetByIDForUpdate(ctx, tx, d.WalletID)
		if err != nil {
			return err
		}

		identity, err := uc.identityRepo.GetByIDForUpdate(ctx, tx, d.OwnerID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if err := uc.profileRepo.SetBlockedTx(ctx, tx, d.OwnerID, identity.IsBlocked, now); err != nil {
			return err
		}
		if err := uc.profileRepo.SetWalletBlockedTx(ctx, tx, d.OwnerID, wallet.IsBlocked, now); err != nil {
			return err
		}

		return uc.wallets.audit(ctx, tx, nil, domain.AuditActionProfileRepair, domain.ResourceProfile, d.OwnerID,
			domain.JSON{"drift": d.DriftFields}, domain.JSON{"balance": wallet.Balance.String()})
	})
	if err != nil {
		return err
	}

	return uc.profileRepo.SetBalance(ctx, d.OwnerID, wallet.Balance, time.Now().UTC())
}
