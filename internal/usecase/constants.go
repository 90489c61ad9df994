package usecase

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DefaultTransactionTimeout is the maximum duration for a storage transaction
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// IdempotencyInFlight is stored under a key while its first request runs
	IdempotencyInFlight = "processing"
)

var (
	// DefaultInitialBalance is credited to every new wallet
	DefaultInitialBalance = decimal.NewFromInt(50)

	// DefaultCommissionRate is the agent's share of a cash-in
	DefaultCommissionRate = decimal.RequireFromString("0.02")
)

// Settings tunes the engine. Zero values fall back to the defaults above.
type Settings struct {
	InitialBalance decimal.NullDecimal
	CommissionRate decimal.Decimal
	TxTimeout      time.Duration
}

func (s Settings) withDefaults() Settings {
	if !s.InitialBalance.Valid {
		s.InitialBalance = decimal.NewNullDecimal(DefaultInitialBalance)
	}
	if s.CommissionRate.IsZero() {
		s.CommissionRate = DefaultCommissionRate
	}
	if s.TxTimeout <= 0 {
		s.TxTimeout = DefaultTransactionTimeout
	}
	return s
}
