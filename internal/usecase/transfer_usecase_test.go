package usecase_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"

	"github.com/iho/digipay/internal/domain"
	"github.com/iho/digipay/internal/usecase"
)

func TestTransferUseCase_Withdraw(t *testing.T) {
	h := newHarness(t)
	user := h.seed(t, "alice", domain.RoleUser, 50)
	ctx := context.Background()

	res, err := h.transfers.Withdraw(ctx, user, dec("30"))
	if err != nil {
		t.Fatalf("first withdraw: %v", err)
	}
	assertBalance(t, res.Wallet.Balance, "20")
	if res.Transaction.Type != domain.TransactionWithdraw || res.Transaction.ToWalletID != nil {
		t.Fatalf("unexpected record %+v", res.Transaction)
	}

	_, err = h.transfers.Withdraw(ctx, user, dec("30"))
	assertKind(t, err, domain.KindInsufficientBalance)

	assertBalance(t, h.balance(t, user), "20")
	if got := len(h.records(t)); got != 1 {
		t.Fatalf("records = %d, want 1", got)
	}
}

func TestTransferUseCase_TopUp(t *testing.T) {
	h := newHarness(t)
	user := h.seed(t, "alice", domain.RoleUser, 50)

	res, err := h.transfers.TopUp(context.Background(), user, dec("12.5"))
	if err != nil {
		t.Fatalf("top up: %v", err)
	}
	assertBalance(t, res.Wallet.Balance, "62.5")

	rec := res.Transaction
	if rec.FromWalletID != nil || rec.ToWalletID == nil || *rec.ToWalletID != res.Wallet.ID {
		t.Fatalf("unexpected wallets on record %+v", rec)
	}
	if rec.Status != domain.TransactionCompleted || rec.InitiatedBy != user.Subject() {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestTransferUseCase_Send(t *testing.T) {
	h := newHarness(t)
	a := h.seed(t, "alice", domain.RoleUser, 100)
	b := h.seed(t, "bob", domain.RoleUser, 10)

	res, err := h.transfers.Send(context.Background(), a, b.Subject(), dec("40"))
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	assertBalance(t, h.balance(t, a), "60")
	assertBalance(t, h.balance(t, b), "50")

	rec := res.Transaction
	if *rec.FromWalletID != h.walletOf(t, a).ID || *rec.ToWalletID != h.walletOf(t, b).ID {
		t.Fatalf("record wallets = %s -> %s", *rec.FromWalletID, *rec.ToWalletID)
	}
	if !rec.Amount.Equal(dec("40")) || rec.Type != domain.TransactionSend {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestTransferUseCase_CashIn(t *testing.T) {
	h := newHarness(t)
	agent := h.seedAgent(t, "agent", 0)
	user := h.seed(t, "bob", domain.RoleUser, 0)

	res, err := h.transfers.CashIn(context.Background(), agent, user.Subject(), dec("100"))
	if err != nil {
		t.Fatalf("cash in: %v", err)
	}

	assertBalance(t, h.balance(t, user), "98")
	assertBalance(t, h.balance(t, agent), "2")

	rec := res.Transaction
	if !rec.Commission.Equal(dec("2")) || !rec.Amount.Equal(dec("100")) {
		t.Fatalf("amount %s commission %s", rec.Amount, rec.Commission)
	}
	if *rec.FromWalletID != h.walletOf(t, agent).ID || *rec.ToWalletID != h.walletOf(t, user).ID {
		t.Fatal("cash-in record must go from agent to receiver")
	}
	if got := testutil.ToFloat64(h.metrics.CommissionTotal); got != 2 {
		t.Fatalf("commission metric = %v, want 2", got)
	}
}

func TestTransferUseCase_CashInCommissionIsExact(t *testing.T) {
	h := newHarness(t)
	agent := h.seedAgent(t, "agent", 0)
	user := h.seed(t, "bob", domain.RoleUser, 0)

	if _, err := h.transfers.CashIn(context.Background(), agent, user.Subject(), dec("0.33")); err != nil {
		t.Fatalf("cash in: %v", err)
	}

	assertBalance(t, h.balance(t, user), "0.3234")
	assertBalance(t, h.balance(t, agent), "0.0066")
}

func TestTransferUseCase_CashInStaysWithinLedgerScale(t *testing.T) {
	tests := []struct {
		amount     string
		receiver   string
		commission string
	}{
		{"0.01000025", "0.00980025", "0.0002"},
		{"0.01000075", "0.00980073", "0.00020002"},
		{"0.1234567", "0.12098757", "0.00246913"},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			h := newHarness(t)
			agent := h.seedAgent(t, "agent", 0)
			user := h.seed(t, "bob", domain.RoleUser, 0)

			res, err := h.transfers.CashIn(context.Background(), agent, user.Subject(), dec(tt.amount))
			if err != nil {
				t.Fatalf("cash in: %v", err)
			}

			receiver, gained := h.balance(t, user), h.balance(t, agent)
			assertBalance(t, receiver, tt.receiver)
			assertBalance(t, gained, tt.commission)
			assertBalance(t, res.Transaction.Commission, tt.commission)
			assertBalance(t, res.Wallet.Balance, tt.commission)

			for _, v := range []decimal.Decimal{receiver, gained, res.Transaction.Commission} {
				if -v.Exponent() > domain.MaxAmountScale {
					t.Fatalf("%s has more than %d decimal places", v, domain.MaxAmountScale)
				}
			}
			if !receiver.Add(gained).Equal(dec(tt.amount)) {
				t.Fatalf("receiver %s + agent %s != amount %s", receiver, gained, tt.amount)
			}
		})
	}
}

func TestTransferUseCase_CashOut(t *testing.T) {
	h := newHarness(t)
	agent := h.seedAgent(t, "agent", 5)
	user := h.seed(t, "bob", domain.RoleUser, 50)

	res, err := h.transfers.CashOut(context.Background(), agent, user.Subject(), dec("20"))
	if err != nil {
		t.Fatalf("cash out: %v", err)
	}

	assertBalance(t, h.balance(t, user), "30")
	assertBalance(t, h.balance(t, agent), "25")
	assertBalance(t, res.Wallet.Balance, "25")

	rec := res.Transaction
	if *rec.FromWalletID != h.walletOf(t, user).ID || *rec.ToWalletID != h.walletOf(t, agent).ID {
		t.Fatal("cash-out record must go from user to agent")
	}
}

func TestTransferUseCase_Rejections(t *testing.T) {
	tests := []struct {
		name string
		run  func(h *harness, user, other, agent domain.Principal) error
		want domain.ErrorKind
	}{
		{
			name: "zero amount",
			run: func(h *harness, user, _, _ domain.Principal) error {
				_, err := h.transfers.TopUp(context.Background(), user, decimal.Zero)
				return err
			},
			want: domain.KindValidation,
		},
		{
			name: "negative amount",
			run: func(h *harness, user, other, _ domain.Principal) error {
				_, err := h.transfers.Send(context.Background(), user, other.Subject(), dec("-5"))
				return err
			},
			want: domain.KindValidation,
		},
		{
			name: "send to self",
			run: func(h *harness, user, _, _ domain.Principal) error {
				_, err := h.transfers.Send(context.Background(), user, user.Subject(), dec("1"))
				return err
			},
			want: domain.KindValidation,
		},
		{
			name: "send without recipient",
			run: func(h *harness, user, _, _ domain.Principal) error {
				_, err := h.transfers.Send(context.Background(), user, "", dec("1"))
				return err
			},
			want: domain.KindValidation,
		},
		{
			name: "send to unknown recipient",
			run: func(h *harness, user, _, _ domain.Principal) error {
				_, err := h.transfers.Send(context.Background(), user, "nobody", dec("1"))
				return err
			},
			want: domain.KindNotFound,
		},
		{
			name: "send more than balance",
			run: func(h *harness, user, other, _ domain.Principal) error {
				_, err := h.transfers.Send(context.Background(), user, other.Subject(), dec("50.01"))
				return err
			},
			want: domain.KindInsufficientBalance,
		},
		{
			name: "user cannot cash in",
			run: func(h *harness, user, other, _ domain.Principal) error {
				_, err := h.transfers.CashIn(context.Background(), user, other.Subject(), dec("1"))
				return err
			},
			want: domain.KindForbidden,
		},
		{
			name: "agent cannot top up",
			run: func(h *harness, _, _, agent domain.Principal) error {
				_, err := h.transfers.TopUp(context.Background(), agent, dec("1"))
				return err
			},
			want: domain.KindForbidden,
		},
		{
			name: "admin cannot send",
			run: func(h *harness, _, other, _ domain.Principal) error {
				_, err := h.transfers.Send(context.Background(), h.admin, other.Subject(), dec("1"))
				return err
			},
			want: domain.KindForbidden,
		},
		{
			name: "cash out beyond user balance",
			run: func(h *harness, user, _, agent domain.Principal) error {
				_, err := h.transfers.CashOut(context.Background(), agent, user.Subject(), dec("51"))
				return err
			},
			want: domain.KindInsufficientBalance,
		},
		{
			name: "nil caller",
			run: func(h *harness, _, _, _ domain.Principal) error {
				_, err := h.transfers.Withdraw(context.Background(), nil, dec("1"))
				return err
			},
			want: domain.KindUnauthorized,
		},
		{
			name: "unknown caller",
			run: func(h *harness, _, _, _ domain.Principal) error {
				_, err := h.transfers.Withdraw(context.Background(), domain.UserPrincipal{ID: "ghost"}, dec("1"))
				return err
			},
			want: domain.KindUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			user := h.seed(t, "alice", domain.RoleUser, 50)
			other := h.seed(t, "bob", domain.RoleUser, 50)
			agent := h.seedAgent(t, "agent", 50)

			assertKind(t, tt.run(h, user, other, agent), tt.want)

			assertBalance(t, h.balance(t, user), "50")
			assertBalance(t, h.balance(t, other), "50")
			assertBalance(t, h.balance(t, agent), "50")
			if got := len(h.records(t)); got != 0 {
				t.Fatalf("records = %d, want 0", got)
			}
		})
	}
}

func TestTransferUseCase_SuspendedAgent(t *testing.T) {
	h := newHarness(t)
	agent := h.seed(t, "agent", domain.RoleAgent, 0)
	user := h.seed(t, "bob", domain.RoleUser, 50)

	_, err := h.transfers.CashIn(context.Background(), agent, user.Subject(), dec("10"))
	if !errors.Is(err, domain.ErrAgentNotApproved) {
		t.Fatalf("expected ErrAgentNotApproved, got %v", err)
	}

	// Approval is read from storage, not from the principal the caller holds.
	if _, err := h.identities.ToggleAgentApproval(context.Background(), h.admin, agent.Subject()); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := h.transfers.CashIn(context.Background(), agent, user.Subject(), dec("10")); err != nil {
		t.Fatalf("cash in after approval: %v", err)
	}
}

func TestTransferUseCase_BlockedWallets(t *testing.T) {
	tests := []struct {
		name    string
		blocked func(user, other, agent domain.Principal) domain.Principal
		run     func(h *harness, user, other, agent domain.Principal) error
	}{
		{
			name:    "top up into blocked wallet",
			blocked: func(user, _, _ domain.Principal) domain.Principal { return user },
			run: func(h *harness, user, _, _ domain.Principal) error {
				_, err := h.transfers.TopUp(context.Background(), user, dec("1"))
				return err
			},
		},
		{
			name:    "withdraw from blocked wallet",
			blocked: func(user, _, _ domain.Principal) domain.Principal { return user },
			run: func(h *harness, user, _, _ domain.Principal) error {
				_, err := h.transfers.Withdraw(context.Background(), user, dec("1"))
				return err
			},
		},
		{
			name:    "send to blocked recipient",
			blocked: func(_, other, _ domain.Principal) domain.Principal { return other },
			run: func(h *harness, user, other, _ domain.Principal) error {
				_, err := h.transfers.Send(context.Background(), user, other.Subject(), dec("1"))
				return err
			},
		},
		{
			name:    "cash in to blocked receiver",
			blocked: func(user, _, _ domain.Principal) domain.Principal { return user },
			run: func(h *harness, user, _, agent domain.Principal) error {
				_, err := h.transfers.CashIn(context.Background(), agent, user.Subject(), dec("10"))
				return err
			},
		},
		{
			name:    "cash out from blocked user",
			blocked: func(user, _, _ domain.Principal) domain.Principal { return user },
			run: func(h *harness, user, _, agent domain.Principal) error {
				_, err := h.transfers.CashOut(context.Background(), agent, user.Subject(), dec("10"))
				return err
			},
		},
		{
			name:    "cash out into blocked agent",
			blocked: func(_, _, agent domain.Principal) domain.Principal { return agent },
			run: func(h *harness, user, _, agent domain.Principal) error {
				_, err := h.transfers.CashOut(context.Background(), agent, user.Subject(), dec("10"))
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			user := h.seed(t, "alice", domain.RoleUser, 50)
			other := h.seed(t, "bob", domain.RoleUser, 50)
			agent := h.seedAgent(t, "agent", 50)

			target := h.walletOf(t, tt.blocked(user, other, agent))
			block := true
			if _, err := h.wallets.SetBlocked(context.Background(), h.admin, target.ID, &block); err != nil {
				t.Fatalf("block: %v", err)
			}

			assertKind(t, tt.run(h, user, other, agent), domain.KindWalletBlocked)
			if got := len(h.records(t)); got != 0 {
				t.Fatalf("records = %d, want 0", got)
			}
		})
	}
}

func TestTransferUseCase_BlockedIdentityIsForbidden(t *testing.T) {
	h := newHarness(t)
	user := h.seed(t, "alice", domain.RoleUser, 50)
	block := true

	if _, err := h.identities.SetIdentityBlocked(context.Background(), h.admin, user.Subject(), &block); err != nil {
		t.Fatalf("block identity: %v", err)
	}

	_, err := h.transfers.Withdraw(context.Background(), user, dec("1"))
	if !errors.Is(err, domain.ErrIdentityBlocked) {
		t.Fatalf("expected ErrIdentityBlocked, got %v", err)
	}
}

func TestTransferUseCase_ConcurrentWithdrawalsNeverOverdraw(t *testing.T) {
	h := newHarness(t)
	user := h.seed(t, "alice", domain.RoleUser, 50)

	const workers = 20
	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.transfers.Withdraw(context.Background(), user, dec("10"))
			switch {
			case err == nil:
				succeeded.Add(1)
			case domain.KindOf(err) != domain.KindInsufficientBalance:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := succeeded.Load(); got != 5 {
		t.Fatalf("successful withdrawals = %d, want 5", got)
	}
	assertBalance(t, h.balance(t, user), "0")
	if got := len(h.records(t)); got != 5 {
		t.Fatalf("records = %d, want 5", got)
	}
}

func TestTransferUseCase_ConcurrentOpposingSends(t *testing.T) {
	h := newHarness(t)
	a := h.seed(t, "alice", domain.RoleUser, 100)
	b := h.seed(t, "bob", domain.RoleUser, 100)

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := h.transfers.Send(context.Background(), a, b.Subject(), dec("3")); err != nil {
				t.Errorf("a->b: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := h.transfers.Send(context.Background(), b, a.Subject(), dec("1")); err != nil {
				t.Errorf("b->a: %v", err)
			}
		}()
	}
	wg.Wait()

	assertBalance(t, h.balance(t, a), "50")
	assertBalance(t, h.balance(t, b), "150")
}

type failingRecords struct {
	usecase.TransactionRepository
}

func (failingRecords) Create(context.Context, usecase.Transaction, *domain.Transaction) error {
	return errors.New("disk full")
}

func TestTransferUseCase_RollsBackWhenRecordWriteFails(t *testing.T) {
	h := newHarness(t, func(d *deps) {
		d.txRepo = failingRecords{d.txRepo}
	})
	a := h.seed(t, "alice", domain.RoleUser, 100)
	b := h.seed(t, "bob", domain.RoleUser, 10)

	_, err := h.transfers.Send(context.Background(), a, b.Subject(), dec("40"))
	assertKind(t, err, domain.KindInternal)

	assertBalance(t, h.balance(t, a), "100")
	assertBalance(t, h.balance(t, b), "10")
	if got := len(h.records(t)); got != 0 {
		t.Fatalf("records = %d, want 0", got)
	}
}

type failingBalanceSync struct {
	usecase.ProfileRepository
}

func (failingBalanceSync) SetBalance(context.Context, string, decimal.Decimal, time.Time) error {
	return errors.New("profile store unavailable")
}

func TestTransferUseCase_ProfileSyncFailureDoesNotFailOperation(t *testing.T) {
	h := newHarness(t, func(d *deps) {
		d.profileRepo = failingBalanceSync{d.profileRepo}
	})
	user := h.seed(t, "alice", domain.RoleUser, 50)

	if _, err := h.transfers.TopUp(context.Background(), user, dec("5")); err != nil {
		t.Fatalf("top up: %v", err)
	}

	assertBalance(t, h.balance(t, user), "55")
	if got := testutil.ToFloat64(h.metrics.ProfileSyncFailures); got != 1 {
		t.Fatalf("sync failures = %v, want 1", got)
	}

	profile, err := h.deps.profileRepo.Get(context.Background(), user.Subject())
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	assertBalance(t, profile.Balance, "50")
}

func TestTransferUseCase_ProfileBalanceFollowsWallet(t *testing.T) {
	h := newHarness(t)
	a := h.seed(t, "alice", domain.RoleUser, 100)
	b := h.seed(t, "bob", domain.RoleUser, 0)

	if _, err := h.transfers.Send(context.Background(), a, b.Subject(), dec("25")); err != nil {
		t.Fatalf("send: %v", err)
	}

	for owner, want := range map[domain.Principal]string{a: "75", b: "25"} {
		profile, err := h.deps.profileRepo.Get(context.Background(), owner.Subject())
		if err != nil {
			t.Fatalf("profile: %v", err)
		}
		assertBalance(t, profile.Balance, want)
	}
}

// frozenIdentityRepo serves a fixed snapshot from GetByID for chosen IDs,
// as if the pre-unit read happened before an admin change committed.
type frozenIdentityRepo struct {
	usecase.IdentityRepository
	frozen map[string]*domain.Identity
}

func (r *frozenIdentityRepo) GetByID(ctx context.Context, id string) (*domain.Identity, error) {
	if snapshot, ok := r.frozen[id]; ok {
		c := *snapshot
		return &c, nil
	}
	return r.IdentityRepository.GetByID(ctx, id)
}

func (r *frozenIdentityRepo) freeze(t *testing.T, id string) {
	t.Helper()
	snapshot, err := r.IdentityRepository.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("snapshot %s: %v", id, err)
	}
	r.frozen[id] = snapshot
}

func TestTransferUseCase_RechecksCallerInsideUnit(t *testing.T) {
	ctx := context.Background()
	blocked := true

	tests := []struct {
		name   string
		change func(h *harness, caller domain.Principal) error
		run    func(h *harness, caller, other domain.Principal) error
		role   domain.Role
	}{
		{
			name: "user blocked after authorization",
			role: domain.RoleUser,
			change: func(h *harness, caller domain.Principal) error {
				_, err := h.identities.SetIdentityBlocked(ctx, h.admin, caller.Subject(), &blocked)
				return err
			},
			run: func(h *harness, caller, other domain.Principal) error {
				_, err := h.transfers.Send(ctx, caller, other.Subject(), dec("10"))
				return err
			},
		},
		{
			name: "agent suspended after authorization",
			role: domain.RoleAgent,
			change: func(h *harness, caller domain.Principal) error {
				_, err := h.identities.ToggleAgentApproval(ctx, h.admin, caller.Subject())
				return err
			},
			run: func(h *harness, caller, other domain.Principal) error {
				_, err := h.transfers.CashIn(ctx, caller, other.Subject(), dec("10"))
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &frozenIdentityRepo{frozen: map[string]*domain.Identity{}}
			h := newHarness(t, func(d *deps) {
				repo.IdentityRepository = d.identityRepo
				d.identityRepo = repo
			})

			var caller domain.Principal
			if tt.role == domain.RoleAgent {
				caller = h.seedAgent(t, "caller", 50)
			} else {
				caller = h.seed(t, "caller", tt.role, 50)
			}
			other := h.seed(t, "other", domain.RoleUser, 50)
			before := len(h.records(t))

			repo.freeze(t, caller.Subject())
			if err := tt.change(h, caller); err != nil {
				t.Fatalf("admin change: %v", err)
			}

			assertKind(t, tt.run(h, caller, other), domain.KindForbidden)
			assertBalance(t, h.balance(t, caller), "50")
			assertBalance(t, h.balance(t, other), "50")
			if got := len(h.records(t)); got != before {
				t.Fatalf("records = %d, want %d", got, before)
			}
		})
	}
}
