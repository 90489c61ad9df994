package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/digipay/internal/domain"
	"github.com/iho/digipay/internal/infrastructure/metrics"
)

// WalletUseCase manages wallet lifecycle, balance adjustments and block state.
type WalletUseCase struct {
	authorizer

	txManager   TransactionManager
	walletRepo  WalletRepository
	profileRepo ProfileRepository
	auditRepo   AuditRepository
	cache       WalletCache
	idGen       IDGenerator
	metrics     *metrics.Metrics
	settings    Settings
}

// NewWalletUseCase creates a new WalletUseCase. cache, auditRepo and
// metrics may be nil.
func NewWalletUseCase(
	txManager TransactionManager,
	walletRepo WalletRepository,
	identityRepo IdentityRepository,
	profileRepo ProfileRepository,
	auditRepo AuditRepository,
	cache WalletCache,
	idGen IDGenerator,
	metrics *metrics.Metrics,
	settings Settings,
) *WalletUseCase {
	return &WalletUseCase{
		authorizer:  authorizer{identityRepo: identityRepo},
		txManager:   txManager,
		walletRepo:  walletRepo,
		profileRepo: profileRepo,
		auditRepo:   auditRepo,
		cache:       cache,
		idGen:       idGen,
		metrics:     metrics,
		settings:    settings.withDefaults(),
	}
}

// CreateWallet creates the wallet for ownerID in its own transaction.
// A nil initialBalance uses the configured opening balance.
func (uc *WalletUseCase) CreateWallet(ctx context.Context, ownerID string, initialBalance *decimal.Decimal) (*domain.Wallet, error) {
	var wallet *domain.Wallet

	err := runInTx(ctx, uc.txManager, uc.settings.TxTimeout, func(ctx context.Context, tx Transaction) error {
		var err error
		wallet, err = uc.CreateWalletTx(ctx, tx, ownerID, initialBalance)
		return err
	})
	if err != nil {
		return nil, err
	}

	return wallet, nil
}

// CreateWalletTx creates a wallet inside the caller's transaction.
func (uc *WalletUseCase) CreateWalletTx(ctx context.Context, tx Transaction, ownerID string, initialBalance *decimal.Decimal) (*domain.Wallet, error) {
	if ownerID == "" {
		return nil, domain.NewValidationError("owner_id", "is required")
	}

	balance := uc.settings.InitialBalance.Decimal
	if initialBalance != nil {
		balance = *initialBalance
	}
	if err := domain.ValidateOpeningBalance(balance); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	wallet := &domain.Wallet{
		ID:        uc.idGen.Generate(),
		OwnerID:   ownerID,
		Balance:   balance,
		IsBlocked: false,
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.walletRepo.CreateTx(ctx, tx, wallet); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.WalletsCreated.Inc()
	}

	return wallet, nil
}

// GetWallet returns the wallet owned by ownerID. An empty ownerID means the
// caller's own wallet; reading someone else's wallet needs admin rights.
// Blocked wallets remain readable.
func (uc *WalletUseCase) GetWallet(ctx context.Context, caller domain.Principal, ownerID string) (*domain.Wallet, error) {
	op := domain.OpViewOwn
	if caller != nil && ownerID != "" && ownerID != caller.Subject() {
		op = domain.OpViewAny
	}

	identity, err := uc.authorize(ctx, caller, op)
	if err != nil {
		return nil, err
	}

	if ownerID == "" {
		ownerID = identity.ID
	}

	return uc.getByOwner(ctx, ownerID)
}

func (uc *WalletUseCase) getByOwner(ctx context.Context, ownerID string) (*domain.Wallet, error) {
	if uc.cache != nil {
		if wallet, err := uc.cache.Get(ctx, ownerID); err == nil && wallet != nil {
			if uc.metrics != nil {
				uc.metrics.CacheHits.Inc()
			}
			return wallet, nil
		}
		if uc.metrics != nil {
			uc.metrics.CacheMisses.Inc()
		}
	}

	wallet, err := uc.walletRepo.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, wallet); err != nil {
			zerolog.Ctx(ctx).Debug().Err(err).Str("owner_id", ownerID).Msg("wallet cache set failed")
			if uc.metrics != nil {
				uc.metrics.RedisErrors.WithLabelValues("cache_set").Inc()
			}
		}
	}

	return wallet, nil
}

// AdjustBalance locks walletID and applies delta inside the caller's transaction.
func (uc *WalletUseCase) AdjustBalance(ctx context.Context, tx Transaction, walletID string, delta decimal.Decimal) (*domain.Wallet, error) {
	wallet, err := uc.walletRepo.GetByIDForUpdate(ctx, tx, walletID)
	if err != nil {
		return nil, err
	}

	if err := uc.adjust(ctx, tx, wallet, delta, time.Now().UTC()); err != nil {
		return nil, err
	}

	return wallet, nil
}

// adjust writes delta to an already locked wallet and updates it in place.
// The non-negative check happens before the write is issued.
func (uc *WalletUseCase) adjust(ctx context.Context, tx Transaction, wallet *domain.Wallet, delta decimal.Decimal, now time.Time) error {
	if err := wallet.ValidateDelta(delta); err != nil {
		return err
	}

	newBalance := wallet.ApplyDelta(delta)
	if err := uc.walletRepo.UpdateBalance(ctx, tx, wallet.ID, newBalance, now); err != nil {
		return err
	}

	wallet.Balance = newBalance
	wallet.Version++
	wallet.UpdatedAt = now

	return nil
}

// SetBlocked blocks or unblocks walletID. A nil blocked toggles the current
// state. The owner's profile shadow is updated in the same transaction.
func (uc *WalletUseCase) SetBlocked(ctx context.Context, caller domain.Principal, walletID string, blocked *bool) (*domain.Wallet, error) {
	actor, err := uc.authorize(ctx, caller, domain.OpBlockWallet)
	if err != nil {
		return nil, err
	}

	var wallet *domain.Wallet

	err = runInTx(ctx, uc.txManager, uc.settings.TxTimeout, func(ctx context.Context, tx Transaction) error {
		var err error
		wallet, err = uc.walletRepo.GetByIDForUpdate(ctx, tx, walletID)
		if err != nil {
			return err
		}

		owner, err := uc.identityRepo.GetByIDForUpdate(ctx, tx, wallet.OwnerID)
		if err != nil {
			return err
		}

		if err := domain.CanActOn(actor.Principal, owner.Principal); err != nil {
			return err
		}

		before := domain.MarshalState(walletState(wallet))

		next := !wallet.IsBlocked
		if blocked != nil {
			next = *blocked
		}

		now := time.Now().UTC()
		if err := uc.walletRepo.UpdateBlocked(ctx, tx, wallet.ID, next, now); err != nil {
			return err
		}
		wallet.IsBlocked = next
		wallet.UpdatedAt = now

		if err := uc.profileRepo.SetWalletBlockedTx(ctx, tx, wallet.OwnerID, next, now); err != nil {
			return err
		}

		action := domain.AuditActionWalletUnblock
		if next {
			action = domain.AuditActionWalletBlock
		}

		return uc.audit(ctx, tx, actor, action, domain.ResourceWallet, wallet.ID, before, domain.MarshalState(walletState(wallet)))
	})
	if err != nil {
		return nil, err
	}

	uc.invalidate(ctx, wallet.OwnerID)

	if uc.metrics != nil {
		uc.metrics.WalletBlocks.WithLabelValues(boolLabel(wallet.IsBlocked)).Inc()
	}

	return wallet, nil
}

// ListWallets lists wallets for maintenance jobs.
func (uc *WalletUseCase) ListWallets(ctx context.Context, limit, offset int) ([]*domain.Wallet, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.walletRepo.List(ctx, limit, offset)
}

func (uc *WalletUseCase) audit(ctx context.Context, tx Transaction, actor *domain.Identity, action domain.AuditAction, resourceType, resourceID string, before, after domain.JSON) error {
	if uc.auditRepo == nil {
		return nil
	}

	log := &domain.AuditLog{
		ActorID:      auditActor(actor),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		RequestID:    RequestIDFromContext(ctx),
		BeforeState:  before,
		AfterState:   after,
		Status:       domain.AuditStatusSuccess,
		CreatedAt:    time.Now().UTC(),
	}
	if err := uc.auditRepo.CreateTx(ctx, tx, log); err != nil {
		return err
	}

	if uc.metrics != nil {
		uc.metrics.AuditLogsCreated.WithLabelValues(string(action), string(log.Status)).Inc()
	}

	return nil
}

func (uc *WalletUseCase) invalidate(ctx context.Context, ownerIDs ...string) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Invalidate(ctx, ownerIDs...); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Strs("owner_ids", ownerIDs).Msg("wallet cache invalidation failed")
		if uc.metrics != nil {
			uc.metrics.RedisErrors.WithLabelValues("cache_invalidate").Inc()
		}
	}
}

func walletState(w *domain.Wallet) map[string]any {
	return map[string]any{
		"id":         w.ID,
		"owner_id":   w.OwnerID,
		"balance":    w.Balance.String(),
		"is_blocked": w.IsBlocked,
	}
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
