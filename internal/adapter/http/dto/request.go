package dto

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iho/digipay/internal/domain"
	"github.com/iho/digipay/internal/usecase"
)

// AmountRequest is the body of top-up and withdraw.
type AmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// SendRequest is the body of send and cash-in.
type SendRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	ToOwnerID string          `json:"to_owner_id"`
}

// CashOutRequest is the body of cash-out.
type CashOutRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	FromOwnerID string          `json:"from_owner_id"`
}

// BlockRequest sets a block flag. A nil Blocked toggles it.
type BlockRequest struct {
	Blocked *bool `json:"blocked,omitempty"`
}

// CreateIdentityRequest represents a request to create an identity.
type CreateIdentityRequest struct {
	Name           string           `json:"name"`
	Email          string           `json:"email"`
	Role           string           `json:"role"`
	InitialBalance *decimal.Decimal `json:"initial_balance,omitempty"`
}

// ToUseCaseInput converts to use case input. An empty role means user.
func (r *CreateIdentityRequest) ToUseCaseInput() usecase.CreateIdentityInput {
	role := domain.Role(strings.ToLower(strings.TrimSpace(r.Role)))
	if role == "" {
		role = domain.RoleUser
	}

	return usecase.CreateIdentityInput{
		Name:           r.Name,
		Email:          r.Email,
		Role:           role,
		InitialBalance: r.InitialBalance,
	}
}
