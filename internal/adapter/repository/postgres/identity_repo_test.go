package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"

	"github.com/iho/digipay/internal/domain"
)

func TestIdentityRepositoryCreateDuplicateEmail(t *testing.T) {
	mockPool := newMockPool(t)
	repo := &IdentityRepository{db: mockPool}
	tx := beginMockTx(t, mockPool)

	mockPool.ExpectExec(`INSERT INTO identities`).
		WithArgs("u1", "Alice", "alice@example.com", "agent", pgxmock.AnyArg(), false, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: "identities_email_key"})

	now := time.Now()
	err := repo.CreateTx(context.Background(), tx, &domain.Identity{
		ID:        "u1",
		Name:      "Alice",
		Email:     "alice@example.com",
		Principal: domain.AgentPrincipal{ID: "u1", Approval: domain.ApprovalSuspended},
		CreatedAt: now,
		UpdatedAt: now,
	})
	if !errors.Is(err, domain.ErrDuplicateIdentity) {
		t.Fatalf("expected ErrDuplicateIdentity, got %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestIdentityRepositoryUpdateMissing(t *testing.T) {
	mockPool := newMockPool(t)
	repo := &IdentityRepository{db: mockPool}
	tx := beginMockTx(t, mockPool)

	mockPool.ExpectExec(`UPDATE identities`).
		WithArgs("ghost", "Ghost", "user", pgxmock.AnyArg(), true, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdateTx(context.Background(), tx, &domain.Identity{
		ID:        "ghost",
		Name:      "Ghost",
		Principal: domain.UserPrincipal{ID: "ghost"},
		IsBlocked: true,
	})
	if !errors.Is(err, domain.ErrIdentityNotFound) {
		t.Fatalf("expected ErrIdentityNotFound, got %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestApprovalToText(t *testing.T) {
	if v := approvalToText(domain.UserPrincipal{ID: "u"}); v.Valid {
		t.Fatalf("users carry no approval, got %+v", v)
	}
	v := approvalToText(domain.AgentPrincipal{ID: "a", Approval: domain.ApprovalApproved})
	if !v.Valid || v.String != "approved" {
		t.Fatalf("unexpected approval %+v", v)
	}
}
