package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestWallet_ValidateDelta(t *testing.T) {
	tests := []struct {
		name      string
		balance   decimal.Decimal
		blocked   bool
		delta     decimal.Decimal
		expectErr error
	}{
		{
			name:    "credit open wallet",
			balance: decimal.NewFromInt(50),
			delta:   decimal.NewFromInt(100),
		},
		{
			name:    "debit exact balance",
			balance: decimal.NewFromInt(100),
			delta:   decimal.NewFromInt(-100),
		},
		{
			name:      "debit more than balance",
			balance:   decimal.NewFromInt(100),
			delta:     decimal.NewFromInt(-150),
			expectErr: ErrInsufficientBalance,
		},
		{
			name:      "credit blocked wallet",
			balance:   decimal.NewFromInt(100),
			blocked:   true,
			delta:     decimal.NewFromInt(10),
			expectErr: ErrWalletBlocked,
		},
		{
			name:      "blocked takes precedence over balance",
			balance:   decimal.NewFromInt(5),
			blocked:   true,
			delta:     decimal.NewFromInt(-10),
			expectErr: ErrWalletBlocked,
		},
		{
			name:    "fractional debit",
			balance: decimal.RequireFromString("0.30"),
			delta:   decimal.RequireFromString("-0.1").Add(decimal.RequireFromString("-0.2")),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &Wallet{Balance: tt.balance, IsBlocked: tt.blocked}

			err := w.ValidateDelta(tt.delta)

			if tt.expectErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.expectErr != nil && !errors.Is(err, tt.expectErr) {
				t.Fatalf("expected %v, got %v", tt.expectErr, err)
			}
		})
	}
}

func TestWallet_ApplyDelta(t *testing.T) {
	w := &Wallet{Balance: decimal.NewFromInt(100)}

	if got := w.ApplyDelta(decimal.NewFromInt(-30)); !got.Equal(decimal.NewFromInt(70)) {
		t.Errorf("expected 70, got %s", got)
	}
	if got := w.ApplyDelta(decimal.NewFromInt(30)); !got.Equal(decimal.NewFromInt(130)) {
		t.Errorf("expected 130, got %s", got)
	}
}
