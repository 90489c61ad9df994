package dto

import (
	"time"

	"github.com/iho/digipay/internal/domain"
	"github.com/iho/digipay/internal/usecase"
)

// WalletResponse represents a wallet in API responses.
type WalletResponse struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Balance   string    `json:"balance"`
	IsBlocked bool      `json:"is_blocked"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WalletFromDomain converts domain wallet to response.
func WalletFromDomain(w *domain.Wallet) *WalletResponse {
	return &WalletResponse{
		ID:        w.ID,
		OwnerID:   w.OwnerID,
		Balance:   w.Balance.String(),
		IsBlocked: w.IsBlocked,
		Version:   w.Version,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

// TransactionResponse represents a ledger record in API responses.
type TransactionResponse struct {
	ID           string    `json:"id"`
	FromWalletID *string   `json:"from_wallet_id"`
	ToWalletID   *string   `json:"to_wallet_id"`
	Amount       string    `json:"amount"`
	Type         string    `json:"type"`
	Status       string    `json:"status"`
	InitiatedBy  string    `json:"initiated_by"`
	Fee          string    `json:"fee"`
	Commission   string    `json:"commission"`
	CreatedAt    time.Time `json:"created_at"`
}

// TransactionFromDomain converts a ledger record to response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:           t.ID,
		FromWalletID: t.FromWalletID,
		ToWalletID:   t.ToWalletID,
		Amount:       t.Amount.String(),
		Type:         string(t.Type),
		Status:       string(t.Status),
		InitiatedBy:  t.InitiatedBy,
		Fee:          t.Fee.String(),
		Commission:   t.Commission.String(),
		CreatedAt:    t.CreatedAt,
	}
}

// TransactionsFromDomain converts ledger records to responses.
func TransactionsFromDomain(records []*domain.Transaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(records))
	for i, t := range records {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

// OperationResponse is returned by every money movement.
type OperationResponse struct {
	Transaction *TransactionResponse `json:"transaction"`
	Wallet      *WalletResponse      `json:"wallet"`
}

// OperationFromResult converts an operation result to response.
func OperationFromResult(r *usecase.OperationResult) *OperationResponse {
	return &OperationResponse{
		Transaction: TransactionFromDomain(r.Transaction),
		Wallet:      WalletFromDomain(r.Wallet),
	}
}

// IdentityResponse represents an identity in API responses.
type IdentityResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Approval  string    `json:"approval,omitempty"`
	IsBlocked bool      `json:"is_blocked"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IdentityFromDomain converts domain identity to response.
func IdentityFromDomain(i *domain.Identity) *IdentityResponse {
	return &IdentityResponse{
		ID:        i.ID,
		Name:      i.Name,
		Email:     i.Email,
		Role:      string(i.Role()),
		Approval:  string(i.Approval()),
		IsBlocked: i.IsBlocked,
		CreatedAt: i.CreatedAt,
		UpdatedAt: i.UpdatedAt,
	}
}

// IdentitiesFromDomain converts domain identities to responses.
func IdentitiesFromDomain(identities []*domain.Identity) []*IdentityResponse {
	result := make([]*IdentityResponse, len(identities))
	for i, identity := range identities {
		result[i] = IdentityFromDomain(identity)
	}
	return result
}

// RegistrationResponse is returned when an identity is created.
type RegistrationResponse struct {
	Identity *IdentityResponse `json:"identity"`
	Wallet   *WalletResponse   `json:"wallet"`
}

// RegistrationFromDomain converts a registration to response.
func RegistrationFromDomain(r *usecase.Registration) *RegistrationResponse {
	return &RegistrationResponse{
		Identity: IdentityFromDomain(r.Identity),
		Wallet:   WalletFromDomain(r.Wallet),
	}
}

// DiscrepancyResponse describes a wallet whose shadow or balance is off.
type DiscrepancyResponse struct {
	WalletID        string   `json:"wallet_id"`
	OwnerID         string   `json:"owner_id"`
	Balance         string   `json:"balance"`
	ProfileBalance  string   `json:"profile_balance"`
	NegativeBalance bool     `json:"negative_balance"`
	DriftFields     []string `json:"drift_fields"`
}

// ReconciliationReportResponse represents a reconciliation report.
type ReconciliationReportResponse struct {
	TotalWallets      int                    `json:"total_wallets"`
	ReconciledWallets int                    `json:"reconciled_wallets"`
	NegativeBalances  int                    `json:"negative_balances"`
	Discrepancies     []*DiscrepancyResponse `json:"discrepancies"`
	CheckedAt         time.Time              `json:"checked_at"`
}

// ReportFromDomain converts a reconciliation report to response.
func ReportFromDomain(r *usecase.ReconciliationReport) *ReconciliationReportResponse {
	discrepancies := make([]*DiscrepancyResponse, len(r.Discrepancies))
	for i, d := range r.Discrepancies {
		discrepancies[i] = &DiscrepancyResponse{
			WalletID:        d.WalletID,
			OwnerID:         d.OwnerID,
			Balance:         d.Balance.String(),
			ProfileBalance:  d.ProfileBalance.String(),
			NegativeBalance: d.NegativeBalance,
			DriftFields:     d.DriftFields,
		}
	}

	return &ReconciliationReportResponse{
		TotalWallets:      r.TotalWallets,
		ReconciledWallets: r.ReconciledWallets,
		NegativeBalances:  r.NegativeBalances,
		Discrepancies:     discrepancies,
		CheckedAt:         r.CheckedAt,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string                  `json:"error"`
	Message string                  `json:"message,omitempty"`
	Fields  []domain.FieldViolation `json:"fields,omitempty"`
}
