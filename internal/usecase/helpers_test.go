package usecase_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/iho/digipay/internal/adapter/repository/memory"
	"github.com/iho/digipay/internal/domain"
	"github.com/iho/digipay/internal/infrastructure/metrics"
	"github.com/iho/digipay/internal/usecase"
)

// seqIDs yields zero-padded sequential IDs so lock order is predictable.
type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("id-%05d", g.n)
}

type deps struct {
	txManager    usecase.TransactionManager
	walletRepo   usecase.WalletRepository
	txRepo       usecase.TransactionRepository
	identityRepo usecase.IdentityRepository
	profileRepo  usecase.ProfileRepository
	auditRepo    usecase.AuditRepository
	cache        usecase.WalletCache
	settings     usecase.Settings
}

type harness struct {
	store   *memory.Store
	deps    deps
	metrics *metrics.Metrics

	wallets    *usecase.WalletUseCase
	ledger     *usecase.LedgerUseCase
	transfers  *usecase.TransferUseCase
	identities *usecase.IdentityUseCase
	recon      *usecase.ReconciliationUseCase

	admin domain.Principal
}

func newHarness(t *testing.T, overrides ...func(*deps)) *harness {
	t.Helper()

	store := memory.NewStore()
	d := deps{
		txManager:    store,
		walletRepo:   memory.NewWalletRepository(store),
		txRepo:       memory.NewTransactionRepository(store),
		identityRepo: memory.NewIdentityRepository(store),
		profileRepo:  memory.NewProfileRepository(store),
		auditRepo:    memory.NewAuditRepository(store),
	}
	for _, o := range overrides {
		o(&d)
	}

	m := metrics.New(prometheus.NewRegistry())
	idGen := &seqIDs{}

	h := &harness{store: store, deps: d, metrics: m}
	h.wallets = usecase.NewWalletUseCase(d.txManager, d.walletRepo, d.identityRepo, d.profileRepo, d.auditRepo, d.cache, idGen, m, d.settings)
	h.ledger = usecase.NewLedgerUseCase(d.txRepo, d.walletRepo, d.identityRepo, idGen)
	h.transfers = usecase.NewTransferUseCase(d.txManager, h.wallets, h.ledger, d.walletRepo, d.identityRepo, d.profileRepo, m, d.settings)
	h.identities = usecase.NewIdentityUseCase(d.txManager, d.identityRepo, d.profileRepo, h.wallets, idGen, m, d.settings)
	h.recon = usecase.NewReconciliationUseCase(d.txManager, d.walletRepo, d.identityRepo, d.profileRepo, h.wallets, m, d.settings)

	h.admin = h.seed(t, "root", domain.RoleAdmin, 0)
	return h
}

// seed creates an identity with a wallet holding balance.
func (h *harness) seed(t *testing.T, name string, role domain.Role, balance int64) domain.Principal {
	t.Helper()

	opening := decimal.NewFromInt(balance)
	reg, err := h.identities.Bootstrap(context.Background(), usecase.CreateIdentityInput{
		Name:           name,
		Email:          name + "@example.com",
		Role:           role,
		InitialBalance: &opening,
	})
	if err != nil {
		t.Fatalf("seed %s: %v", name, err)
	}
	return reg.Identity.Principal
}

// seedAgent creates an approved agent.
func (h *harness) seedAgent(t *testing.T, name string, balance int64) domain.Principal {
	t.Helper()

	agent := h.seed(t, name, domain.RoleAgent, balance)
	identity, err := h.identities.ToggleAgentApproval(context.Background(), h.admin, agent.Subject())
	if err != nil {
		t.Fatalf("approve %s: %v", name, err)
	}
	return identity.Principal
}

func (h *harness) balance(t *testing.T, owner domain.Principal) decimal.Decimal {
	t.Helper()

	w, err := h.deps.walletRepo.GetByOwner(context.Background(), owner.Subject())
	if err != nil {
		t.Fatalf("wallet of %s: %v", owner.Subject(), err)
	}
	return w.Balance
}

func (h *harness) walletOf(t *testing.T, owner domain.Principal) *domain.Wallet {
	t.Helper()

	w, err := h.deps.walletRepo.GetByOwner(context.Background(), owner.Subject())
	if err != nil {
		t.Fatalf("wallet of %s: %v", owner.Subject(), err)
	}
	return w
}

func (h *harness) records(t *testing.T) []*domain.Transaction {
	t.Helper()

	list, err := h.deps.txRepo.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("list records: %v", err)
	}
	return list
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertBalance(t *testing.T, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Fatalf("balance = %s, want %s", got, want)
	}
}

func assertKind(t *testing.T, err error, want domain.ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := domain.KindOf(err); got != want {
		t.Fatalf("error kind = %s, want %s (err: %v)", got, want, err)
	}
}
