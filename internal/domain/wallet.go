package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet holds the balance of a single identity.
type Wallet struct {
	ID        string
	OwnerID   string
	Balance   decimal.Decimal
	IsBlocked bool
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidateDebit checks if the wallet can be debited by amount.
func (w *Wallet) ValidateDebit(amount decimal.Decimal) error {
	if w.IsBlocked {
		return ErrWalletBlocked
	}
	if w.Balance.Sub(amount).IsNegative() {
		return ErrInsufficientBalance
	}
	return nil
}

// ValidateCredit checks if the wallet can be credited.
func (w *Wallet) ValidateCredit() error {
	if w.IsBlocked {
		return ErrWalletBlocked
	}
	return nil
}

// ValidateDelta checks a signed balance change.
func (w *Wallet) ValidateDelta(delta decimal.Decimal) error {
	if delta.IsNegative() {
		return w.ValidateDebit(delta.Neg())
	}
	return w.ValidateCredit()
}

// ApplyDelta returns the balance after delta.
func (w *Wallet) ApplyDelta(delta decimal.Decimal) decimal.Decimal {
	return w.Balance.Add(delta)
}
