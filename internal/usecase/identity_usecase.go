package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/digipay/internal/domain"
	"github.com/iho/digipay/internal/infrastructure/metrics"
)

// IdentityUseCase handles identity administration. Credentials are not
// stored here; callers are resolved from bearer tokens.
type IdentityUseCase struct {
	authorizer

	txManager   TransactionManager
	wallets     *WalletUseCase
	profileRepo ProfileRepository
	idGen       IDGenerator
	metrics     *metrics.Metrics
	settings    Settings
}

// NewIdentityUseCase creates a new identity use case
func NewIdentityUseCase(
	txManager TransactionManager,
	identityRepo IdentityRepository,
	profileRepo ProfileRepository,
	wallets *WalletUseCase,
	idGen IDGenerator,
	metrics *metrics.Metrics,
	settings Settings,
) *IdentityUseCase {
	return &IdentityUseCase{
		authorizer:  authorizer{identityRepo: identityRepo},
		txManager:   txManager,
		wallets:     wallets,
		profileRepo: profileRepo,
		idGen:       idGen,
		metrics:     metrics,
		settings:    settings.withDefaults(),
	}
}

// CreateIdentityInput represents input for creating an identity
type CreateIdentityInput struct {
	Name           string
	Email          string
	Role           domain.Role
	InitialBalance *decimal.Decimal
}

// Registration is a newly created identity with its wallet.
type Registration struct {
	Identity *domain.Identity
	Wallet   *domain.Wallet
}

// CreateIdentity creates a user or agent with its profile and wallet.
// Admin identities can only be seeded with Bootstrap.
func (uc *IdentityUseCase) CreateIdentity(ctx context.Context, caller domain.Principal, input CreateIdentityInput) (*Registration, error) {
	actor, err := uc.authorize(ctx, caller, domain.OpCreateIdentity)
	if err != nil {
		return nil, err
	}

	if input.Role == domain.RoleAdmin {
		return nil, domain.ErrCannotActOnAdmin
	}

	return uc.register(ctx, actor, input)
}

// Bootstrap creates an identity of any role without a caller. It backs the
// operator CLI.
func (uc *IdentityUseCase) Bootstrap(ctx context.Context, input CreateIdentityInput) (*Registration, error) {
	return uc.register(ctx, nil, input)
}

func (uc *IdentityUseCase) register(ctx context.Context, actor *domain.Identity, input CreateIdentityInput) (*Registration, error) {
	verr := &domain.ValidationError{}
	verr.Merge(domain.ValidateName(input.Name)).Merge(domain.ValidateEmail(input.Email))
	if !input.Role.IsValid() {
		verr.Add("role", "must be one of user, agent, admin")
	}
	if input.InitialBalance != nil {
		verr.Merge(domain.ValidateOpeningBalance(*input.InitialBalance))
	}
	if err := verr.ErrOrNil(); err != nil {
		return nil, err
	}

	id := uc.idGen.Generate()
	principal, err := domain.NewPrincipal(id, input.Role, "")
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	identity := &domain.Identity{
		ID:        id,
		Name:      strings.TrimSpace(input.Name),
		Email:     strings.ToLower(strings.TrimSpace(input.Email)),
		Principal: principal,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var wallet *domain.Wallet

	err = runInTx(ctx, uc.txManager, uc.settings.TxTimeout, func(ctx context.Context, tx Transaction) error {
		if err := uc.identityRepo.CreateTx(ctx, tx, identity); err != nil {
			return err
		}

		var err error
		wallet, err = uc.wallets.CreateWalletTx(ctx, tx, identity.ID, input.InitialBalance)
		if err != nil {
			return err
		}

		profile := &domain.Profile{
			IdentityID: identity.ID,
			Balance:    wallet.Balance,
			UpdatedAt:  now,
		}
		if err := uc.profileRepo.CreateTx(ctx, tx, profile); err != nil {
			return err
		}

		return uc.wallets.audit(ctx, tx, actor, domain.AuditActionIdentityCreate, domain.ResourceIdentity, identity.ID,
			nil, domain.MarshalState(identityState(identity)))
	})
	if err != nil {
		return nil, err
	}

	uc.count(domain.AuditActionIdentityCreate)

	return &Registration{Identity: identity, Wallet: wallet}, nil
}

// GetIdentity retrieves an identity. Non-admins may only read themselves.
func (uc *IdentityUseCase) GetIdentity(ctx context.Context, caller domain.Principal, id string) (*domain.Identity, error) {
	op := domain.OpViewOwn
	if caller != nil && id != caller.Subject() {
		op = domain.OpViewAny
	}

	if _, err := uc.authorize(ctx, caller, op); err != nil {
		return nil, err
	}

	return uc.identityRepo.GetByID(ctx, id)
}

// ListIdentities lists identities with pagination
func (uc *IdentityUseCase) ListIdentities(ctx context.Context, caller domain.Principal, limit, offset int) ([]*domain.Identity, error) {
	if _, err := uc.authorize(ctx, caller, domain.OpListIdentities); err != nil {
		return nil, err
	}

	limit, offset = domain.ValidatePagination(limit, offset)

	return uc.identityRepo.List(ctx, limit, offset)
}

// SetIdentityBlocked blocks or unblocks an identity; nil toggles. Admins
// cannot be blocked. The profile shadow is written in the same transaction.
func (uc *IdentityUseCase) SetIdentityBlocked(ctx context.Context, caller domain.Principal, id string, blocked *bool) (*domain.Identity, error) {
	return uc.mutate(ctx, caller, domain.OpBlockIdentity, id, func(ctx context.Context, tx Transaction, actor, target *domain.Identity) (domain.AuditAction, error) {
		if err := domain.CanActOn(actor.Principal, target.Principal); err != nil {
			return "", err
		}

		next := !target.IsBlocked
		if blocked != nil {
			next = *blocked
		}
		target.IsBlocked = next

		if err := uc.profileRepo.SetBlockedTx(ctx, tx, target.ID, next, target.UpdatedAt); err != nil {
			return "", err
		}

		if next {
			return domain.AuditActionIdentityBlock, nil
		}
		return domain.AuditActionIdentityUnblock, nil
	})
}

// ToggleAgentApproval flips an agent between approved and suspended.
func (uc *IdentityUseCase) ToggleAgentApproval(ctx context.Context, caller domain.Principal, id string) (*domain.Identity, error) {
	return uc.mutate(ctx, caller, domain.OpToggleApproval, id, func(_ context.Context, _ Transaction, _, target *domain.Identity) (domain.AuditAction, error) {
		next, err := target.ToggledApproval()
		if err != nil {
			return "", err
		}
		target.Principal = next
		return domain.AuditActionIdentityApproval, nil
	})
}

// ToggleRole switches an identity between user and agent.
func (uc *IdentityUseCase) ToggleRole(ctx context.Context, caller domain.Principal, id string) (*domain.Identity, error) {
	return uc.mutate(ctx, caller, domain.OpToggleRole, id, func(_ context.Context, _ Transaction, actor, target *domain.Identity) (domain.AuditAction, error) {
		if err := domain.CanActOn(actor.Principal, target.Principal); err != nil {
			return "", err
		}

		next, err := target.ToggledRole()
		if err != nil {
			return "", err
		}
		target.Principal = next
		return domain.AuditActionIdentityRole, nil
	})
}

type identityChange func(ctx context.Context, tx Transaction, actor, target *domain.Identity) (domain.AuditAction, error)

func (uc *IdentityUseCase) mutate(ctx context.Context, caller domain.Principal, op domain.Operation, id string, change identityChange) (*domain.Identity, error) {
	actor, err := uc.authorize(ctx, caller, op)
	if err != nil {
		return nil, err
	}

	var (
		target *domain.Identity
		action domain.AuditAction
	)

	err = runInTx(ctx, uc.txManager, uc.settings.TxTimeout, func(ctx context.Context, tx Transaction) error {
		var err error
		target, err = uc.identityRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		before := domain.MarshalState(identityState(target))
		target.UpdatedAt = time.Now().UTC()

		action, err = change(ctx, tx, actor, target)
		if err != nil {
			return err
		}

		if err := uc.identityRepo.UpdateTx(ctx, tx, target); err != nil {
			return err
		}

		return uc.wallets.audit(ctx, tx, actor, action, domain.ResourceIdentity, target.ID, before, domain.MarshalState(identityState(target)))
	})
	if err != nil {
		return nil, err
	}

	uc.count(action)

	return target, nil
}

func (uc *IdentityUseCase) count(action domain.AuditAction) {
	if uc.metrics != nil {
		uc.metrics.IdentityChanges.WithLabelValues(string(action)).Inc()
	}
}

func identityState(i *domain.Identity) map[string]any {
	state := map[string]any{
		"id":         i.ID,
		"email":      i.Email,
		"role":       string(i.Role()),
		"is_blocked": i.IsBlocked,
	}
	if approval := i.Approval(); approval != "" {
		state["approval"] = string(approval)
	}
	return state
}
