package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/iho/digipay/internal/domain"
	"github.com/iho/digipay/internal/usecase"
)

func TestIdentityUseCase_CreateIdentity(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	reg, err := h.identities.CreateIdentity(ctx, h.admin, usecase.CreateIdentityInput{
		Name:  "  Dana ",
		Email: "Dana@Example.com",
		Role:  domain.RoleAgent,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if reg.Identity.Name != "Dana" || reg.Identity.Email != "dana@example.com" {
		t.Fatalf("identity not normalised: %+v", reg.Identity)
	}
	if reg.Identity.Approval() != domain.ApprovalSuspended {
		t.Fatalf("new agent approval = %s, want suspended", reg.Identity.Approval())
	}
	assertBalance(t, reg.Wallet.Balance, "50")
	if reg.Wallet.OwnerID != reg.Identity.ID {
		t.Fatal("wallet not owned by new identity")
	}

	profile, err := h.deps.profileRepo.Get(ctx, reg.Identity.ID)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	assertBalance(t, profile.Balance, "50")

	logs, err := h.deps.auditRepo.List(ctx, domain.AuditFilter{Action: domain.AuditActionIdentityCreate, ActorID: h.admin.Subject()})
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if len(logs) != 1 || logs[0].ResourceID != reg.Identity.ID {
		t.Fatalf("unexpected audit trail %+v", logs)
	}
}

func TestIdentityUseCase_CreateIdentityRejections(t *testing.T) {
	h := newHarness(t)
	user := h.seed(t, "alice", domain.RoleUser, 0)
	ctx := context.Background()

	tests := []struct {
		name   string
		caller domain.Principal
		input  usecase.CreateIdentityInput
		want   domain.ErrorKind
	}{
		{
			name:   "non-admin caller",
			caller: user,
			input:  usecase.CreateIdentityInput{Name: "x", Email: "x@example.com", Role: domain.RoleUser},
			want:   domain.KindForbidden,
		},
		{
			name:   "admin role",
			caller: h.admin,
			input:  usecase.CreateIdentityInput{Name: "x", Email: "x@example.com", Role: domain.RoleAdmin},
			want:   domain.KindForbidden,
		},
		{
			name:   "invalid fields",
			caller: h.admin,
			input:  usecase.CreateIdentityInput{Name: "", Email: "not-an-email", Role: "owner"},
			want:   domain.KindValidation,
		},
		{
			name:   "duplicate email",
			caller: h.admin,
			input:  usecase.CreateIdentityInput{Name: "alice", Email: "alice@example.com", Role: domain.RoleUser},
			want:   domain.KindDuplicate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.identities.CreateIdentity(ctx, tt.caller, tt.input)
			assertKind(t, err, tt.want)
		})
	}
}

func TestIdentityUseCase_ValidationCollectsAllFields(t *testing.T) {
	h := newHarness(t)

	_, err := h.identities.CreateIdentity(context.Background(), h.admin, usecase.CreateIdentityInput{Email: "bad", Role: "owner"})

	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	fields := map[string]bool{}
	for _, f := range verr.Fields {
		fields[f.Field] = true
	}
	for _, want := range []string{"name", "email", "role"} {
		if !fields[want] {
			t.Fatalf("missing violation for %s in %v", want, verr.Fields)
		}
	}
}

func TestIdentityUseCase_SetIdentityBlocked(t *testing.T) {
	h := newHarness(t)
	alice := h.seed(t, "alice", domain.RoleUser, 50)
	ctx := context.Background()

	identity, err := h.identities.SetIdentityBlocked(ctx, h.admin, alice.Subject(), nil)
	if err != nil {
		t.Fatalf("block: %v", err)
	}
	if !identity.IsBlocked {
		t.Fatal("expected identity to be blocked")
	}

	profile, err := h.deps.profileRepo.Get(ctx, alice.Subject())
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if !profile.IsBlocked {
		t.Fatal("profile shadow not updated")
	}

	// A blocked identity cannot read either.
	_, err = h.wallets.GetWallet(ctx, alice, "")
	if !errors.Is(err, domain.ErrIdentityBlocked) {
		t.Fatalf("expected ErrIdentityBlocked, got %v", err)
	}

	unblock := false
	if _, err := h.identities.SetIdentityBlocked(ctx, h.admin, alice.Subject(), &unblock); err != nil {
		t.Fatalf("unblock: %v", err)
	}
	if _, err := h.wallets.GetWallet(ctx, alice, ""); err != nil {
		t.Fatalf("read after unblock: %v", err)
	}
}

func TestIdentityUseCase_AdminsAreProtected(t *testing.T) {
	h := newHarness(t)
	other := h.seed(t, "ops", domain.RoleAdmin, 0)
	ctx := context.Background()

	if _, err := h.identities.SetIdentityBlocked(ctx, h.admin, other.Subject(), nil); !errors.Is(err, domain.ErrCannotActOnAdmin) {
		t.Fatalf("block admin: expected ErrCannotActOnAdmin, got %v", err)
	}
	if _, err := h.identities.ToggleRole(ctx, h.admin, other.Subject()); !errors.Is(err, domain.ErrCannotActOnAdmin) {
		t.Fatalf("toggle admin role: expected ErrCannotActOnAdmin, got %v", err)
	}
	if _, err := h.identities.SetIdentityBlocked(ctx, h.admin, h.admin.Subject(), nil); !errors.Is(err, domain.ErrCannotActOnAdmin) {
		t.Fatalf("block self: expected ErrCannotActOnAdmin, got %v", err)
	}
}

func TestIdentityUseCase_ToggleRole(t *testing.T) {
	h := newHarness(t)
	alice := h.seed(t, "alice", domain.RoleUser, 50)
	bob := h.seed(t, "bob", domain.RoleUser, 50)
	ctx := context.Background()

	identity, err := h.identities.ToggleRole(ctx, h.admin, alice.Subject())
	if err != nil {
		t.Fatalf("promote: %v", err)
	}
	if identity.Role() != domain.RoleAgent || identity.Approval() != domain.ApprovalSuspended {
		t.Fatalf("promoted identity = %s/%s", identity.Role(), identity.Approval())
	}

	// The caller still holds a user principal; the stored role wins.
	_, err = h.transfers.TopUp(ctx, alice, dec("1"))
	assertKind(t, err, domain.KindForbidden)

	if _, err := h.identities.ToggleAgentApproval(ctx, h.admin, alice.Subject()); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := h.transfers.CashIn(ctx, alice, bob.Subject(), dec("10")); err != nil {
		t.Fatalf("cash in as promoted agent: %v", err)
	}

	identity, err = h.identities.ToggleRole(ctx, h.admin, alice.Subject())
	if err != nil {
		t.Fatalf("demote: %v", err)
	}
	if identity.Role() != domain.RoleUser || identity.Approval() != "" {
		t.Fatalf("demoted identity = %s/%s", identity.Role(), identity.Approval())
	}
}

func TestIdentityUseCase_ToggleAgentApproval(t *testing.T) {
	h := newHarness(t)
	agent := h.seed(t, "agent", domain.RoleAgent, 0)
	user := h.seed(t, "alice", domain.RoleUser, 0)
	ctx := context.Background()

	identity, err := h.identities.ToggleAgentApproval(ctx, h.admin, agent.Subject())
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if identity.Approval() != domain.ApprovalApproved {
		t.Fatalf("approval = %s", identity.Approval())
	}

	identity, err = h.identities.ToggleAgentApproval(ctx, h.admin, agent.Subject())
	if err != nil {
		t.Fatalf("suspend: %v", err)
	}
	if identity.Approval() != domain.ApprovalSuspended {
		t.Fatalf("approval = %s", identity.Approval())
	}

	_, err = h.identities.ToggleAgentApproval(ctx, h.admin, user.Subject())
	if !errors.Is(err, domain.ErrAgentNotFound) {
		t.Fatalf("expected ErrAgentNotFound, got %v", err)
	}

	_, err = h.identities.ToggleAgentApproval(ctx, user, agent.Subject())
	assertKind(t, err, domain.KindForbidden)
}

func TestIdentityUseCase_GetAndList(t *testing.T) {
	h := newHarness(t)
	alice := h.seed(t, "alice", domain.RoleUser, 0)
	bob := h.seed(t, "bob", domain.RoleUser, 0)
	ctx := context.Background()

	self, err := h.identities.GetIdentity(ctx, alice, alice.Subject())
	if err != nil {
		t.Fatalf("self: %v", err)
	}
	if self.Email != "alice@example.com" {
		t.Fatalf("email = %s", self.Email)
	}

	_, err = h.identities.GetIdentity(ctx, alice, bob.Subject())
	assertKind(t, err, domain.KindForbidden)

	list, err := h.identities.ListIdentities(ctx, h.admin, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("identities = %d, want 3", len(list))
	}

	_, err = h.identities.ListIdentities(ctx, alice, 10, 0)
	assertKind(t, err, domain.KindForbidden)
}
