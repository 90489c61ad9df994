package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation constants
const (
	MaxNameLength     = 255
	MaxTransferAmount = "1000000000000" // 1 trillion
	MinTransferAmount = "0.01"
	MaxAmountScale    = 8 // matches NUMERIC(38, 8) in the schema
	DefaultPageSize   = 50
	MaxPageSize       = 1000
	MaxHistoryLimit   = 200
)

var (
	minAmount = decimal.RequireFromString(MinTransferAmount)
	maxAmount = decimal.RequireFromString(MaxTransferAmount)
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateAmount validates an operation amount.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return NewValidationError("amount", "must be positive")
	}

	if amount.LessThan(minAmount) {
		return NewValidationError("amount", fmt.Sprintf("minimum amount is %s", MinTransferAmount))
	}

	if amount.GreaterThan(maxAmount) {
		return NewValidationError("amount", fmt.Sprintf("maximum amount is %s", MaxTransferAmount))
	}

	if -amount.Exponent() > MaxAmountScale {
		return NewValidationError("amount", fmt.Sprintf("at most %d decimal places", MaxAmountScale))
	}

	return nil
}

// ParseAmount parses a decimal string and validates it.
func ParseAmount(field, s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, NewValidationError(field, "must be a decimal number")
	}
	if err := ValidateAmount(amount); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			for i := range verr.Fields {
				verr.Fields[i].Field = field
			}
		}
		return decimal.Zero, err
	}
	return amount, nil
}

// ValidateOpeningBalance allows zero but never a negative balance.
func ValidateOpeningBalance(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return NewValidationError("initial_balance", "must not be negative")
	}
	if -amount.Exponent() > MaxAmountScale {
		return NewValidationError("initial_balance", fmt.Sprintf("at most %d decimal places", MaxAmountScale))
	}
	return nil
}

// ValidateName validates a display name
func ValidateName(name string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return NewValidationError("name", "cannot be empty")
	}

	if len(name) > MaxNameLength {
		return NewValidationError("name", fmt.Sprintf("exceeds %d characters", MaxNameLength))
	}

	return nil
}

// ValidateEmail validates email format
func ValidateEmail(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	if !emailRegex.MatchString(email) {
		return NewValidationError("email", "invalid email format")
	}

	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}

// ClampHistoryLimit bounds a history page to MaxHistoryLimit.
func ClampHistoryLimit(limit int) int {
	if limit <= 0 || limit > MaxHistoryLimit {
		return MaxHistoryLimit
	}
	return limit
}
