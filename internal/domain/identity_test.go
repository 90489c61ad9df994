package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestNewPrincipal(t *testing.T) {
	p, err := NewPrincipal("a1", RoleAgent, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	agent, ok := p.(AgentPrincipal)
	if !ok {
		t.Fatalf("expected AgentPrincipal, got %T", p)
	}
	if agent.Approval != ApprovalSuspended {
		t.Fatalf("expected agent to default to suspended, got %s", agent.Approval)
	}

	p, err = NewPrincipal("u1", RoleUser, ApprovalApproved)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := ApprovalOf(p); ok {
		t.Fatal("user principal must not carry an approval")
	}

	if _, err := NewPrincipal("x", "root", ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := NewPrincipal("", RoleUser, ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for empty id, got %v", err)
	}
	if _, err := NewPrincipal("a1", RoleAgent, "pending"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for bad approval, got %v", err)
	}
}

func TestIdentity_ToggledRole(t *testing.T) {
	user := &Identity{ID: "u1", Principal: UserPrincipal{ID: "u1"}}
	next, err := user.ToggledRole()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a, ok := next.(AgentPrincipal); !ok || a.Approval != ApprovalSuspended {
		t.Fatalf("expected suspended agent, got %#v", next)
	}

	agent := &Identity{ID: "a1", Principal: AgentPrincipal{ID: "a1", Approval: ApprovalApproved}}
	next, err = agent.ToggledRole()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := next.(UserPrincipal); !ok {
		t.Fatalf("expected user, got %#v", next)
	}

	admin := &Identity{ID: "ad", Principal: AdminPrincipal{ID: "ad"}}
	if _, err := admin.ToggledRole(); !errors.Is(err, ErrCannotActOnAdmin) {
		t.Fatalf("expected ErrCannotActOnAdmin, got %v", err)
	}
}

func TestIdentity_ToggledApproval(t *testing.T) {
	agent := &Identity{ID: "a1", Principal: AgentPrincipal{ID: "a1", Approval: ApprovalSuspended}}

	next, err := agent.ToggledApproval()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.(AgentPrincipal).Approval != ApprovalApproved {
		t.Fatalf("expected approved, got %#v", next)
	}

	user := &Identity{ID: "u1", Principal: UserPrincipal{ID: "u1"}}
	if _, err := user.ToggledApproval(); !errors.Is(err, ErrAgentNotFound) {
		t.Fatalf("expected ErrAgentNotFound, got %v", err)
	}
}

func TestProfile_Drift(t *testing.T) {
	identity := &Identity{ID: "u1", IsBlocked: true}
	wallet := &Wallet{OwnerID: "u1", Balance: decimal.NewFromInt(40)}
	profile := &Profile{IdentityID: "u1", IsBlocked: true, Balance: decimal.NewFromInt(50)}

	drift := profile.Drift(identity, wallet)
	if len(drift) != 1 || drift[0] != "balance" {
		t.Fatalf("expected balance drift only, got %v", drift)
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		kind ErrorKind
	}{
		{ErrWalletNotFound, KindNotFound},
		{ErrAgentNotApproved, KindForbidden},
		{ErrCannotActOnAdmin, KindForbidden},
		{NewValidationError("amount", "must be positive"), KindValidation},
		{ErrInsufficientBalance, KindInsufficientBalance},
		{ErrWalletBlocked, KindWalletBlocked},
		{ErrDuplicateIdentity, KindDuplicate},
		{ErrExpiredToken, KindUnauthorized},
		{ErrStorageConflict, KindStorageConflict},
		{errors.New("boom"), KindInternal},
	}

	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.kind {
			t.Errorf("KindOf(%v) = %s, want %s", tt.err, got, tt.kind)
		}
	}

	if !IsRetryable(ErrStorageConflict) || IsRetryable(ErrInsufficientBalance) {
		t.Fatal("only storage conflicts are retryable")
	}
}
