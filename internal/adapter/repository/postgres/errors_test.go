package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iho/digipay/internal/domain"
)

func TestMapError(t *testing.T) {
	plain := errors.New("boom")

	tests := []struct {
		name string
		err  error
		dup  error
		want error
	}{
		{name: "nil", err: nil, want: nil},
		{name: "non pg error passes through", err: plain, want: plain},
		{name: "deadlock", err: &pgconn.PgError{Code: pgErrDeadlock}, want: domain.ErrStorageConflict},
		{name: "serialization", err: &pgconn.PgError{Code: pgErrSerializationFailure}, want: domain.ErrStorageConflict},
		{name: "unique with specific error", err: &pgconn.PgError{Code: pgErrUniqueViolation}, dup: domain.ErrDuplicateWallet, want: domain.ErrDuplicateWallet},
		{name: "unique generic", err: &pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: "x"}, want: domain.ErrDuplicate},
		{name: "balance check", err: &pgconn.PgError{Code: pgErrCheckViolation, ConstraintName: walletBalanceConstraint}, want: domain.ErrInsufficientBalance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.err, tt.dup)
			if tt.want == nil {
				if got != nil {
					t.Fatalf("expected nil, got %v", got)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Fatalf("mapError() = %v, want %v", got, tt.want)
			}
		})
	}

	other := &pgconn.PgError{Code: pgErrCheckViolation, ConstraintName: "transactions_has_wallet"}
	if got := mapError(other, nil); domain.KindOf(got) != domain.KindInternal {
		t.Fatalf("unrelated check violation mapped to %s", domain.KindOf(got))
	}
}
