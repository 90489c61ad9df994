package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType identifies the operation that produced a ledger record.
type TransactionType string

const (
	TransactionTopUp    TransactionType = "top_up"
	TransactionWithdraw TransactionType = "withdraw"
	TransactionSend     TransactionType = "send"
	TransactionCashIn   TransactionType = "cash_in"
	TransactionCashOut  TransactionType = "cash_out"
)

// IsValid reports whether t is a known transaction type.
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTopUp, TransactionWithdraw, TransactionSend, TransactionCashIn, TransactionCashOut:
		return true
	}
	return false
}

// TransactionStatus is the lifecycle state of a ledger record.
type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
)

// Transaction is an immutable ledger record of a completed money movement.
type Transaction struct {
	ID           string
	FromWalletID *string
	ToWalletID   *string
	Amount       decimal.Decimal
	Type         TransactionType
	Status       TransactionStatus
	InitiatedBy  string
	Fee          decimal.Decimal
	Commission   decimal.Decimal
	CreatedAt    time.Time
}

// Validate checks the record shape before it is appended.
func (t *Transaction) Validate() error {
	verr := &ValidationError{}

	if !t.Amount.IsPositive() {
		verr.Add("amount", "must be positive")
	}
	if !t.Type.IsValid() {
		verr.Add("type", "unknown transaction type")
	}
	if t.Fee.IsNegative() {
		verr.Add("fee", "must not be negative")
	}
	if t.Commission.IsNegative() {
		verr.Add("commission", "must not be negative")
	}
	if t.InitiatedBy == "" {
		verr.Add("initiated_by", "is required")
	}

	hasFrom := t.FromWalletID != nil && *t.FromWalletID != ""
	hasTo := t.ToWalletID != nil && *t.ToWalletID != ""

	switch t.Type {
	case TransactionTopUp:
		if hasFrom || !hasTo {
			verr.Add("wallets", "top-up credits exactly one destination wallet")
		}
	case TransactionWithdraw:
		if !hasFrom || hasTo {
			verr.Add("wallets", "withdraw debits exactly one source wallet")
		}
	case TransactionSend, TransactionCashIn, TransactionCashOut:
		if !hasFrom || !hasTo {
			verr.Add("wallets", "source and destination are required")
		} else if *t.FromWalletID == *t.ToWalletID {
			verr.Add("wallets", "source and destination must differ")
		}
	}

	return verr.ErrOrNil()
}

// CashInCommission is the agent's share of a cash-in, rounded half-even to
// the ledger scale so the receiver's amount-commission and the commission
// add back to amount exactly once stored.
func CashInCommission(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).RoundBank(MaxAmountScale)
}

// Involves reports whether walletID is the source or destination.
func (t *Transaction) Involves(walletID string) bool {
	return (t.FromWalletID != nil && *t.FromWalletID == walletID) ||
		(t.ToWalletID != nil && *t.ToWalletID == walletID)
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
