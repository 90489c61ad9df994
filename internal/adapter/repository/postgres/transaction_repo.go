package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/digipay/internal/domain"
	"github.com/iho/digipay/internal/infrastructure/postgres/generated"
	"github.com/iho/digipay/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	queries *generated.Queries
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return newTransactionRepository(pool)
}

func newTransactionRepository(db generated.DBTX) *TransactionRepository {
	return &TransactionRepository{queries: generated.New(db)}
}

// Create inserts a ledger record inside tx.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, record *domain.Transaction) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	err = r.queries.WithTx(t.PgxTx()).CreateTransaction(ctx, generated.CreateTransactionParams{
		ID:           record.ID,
		FromWalletID: stringPtrToText(record.FromWalletID),
		ToWalletID:   stringPtrToText(record.ToWalletID),
		Amount:       decimalToNumeric(record.Amount),
		Type:         string(record.Type),
		Status:       string(record.Status),
		InitiatedBy:  record.InitiatedBy,
		Fee:          decimalToNumeric(record.Fee),
		Commission:   decimalToNumeric(record.Commission),
		CreatedAt:    timeToPgTimestamptz(record.CreatedAt),
	})

	return mapError(err, nil)
}

// GetByID retrieves a ledger record by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	row, err := r.queries.GetTransactionByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}

	return rowToTransaction(row), nil
}

// ListByWallet lists records where walletID is source or destination, newest first.
func (r *TransactionRepository) ListByWallet(ctx context.Context, walletID string, limit int) ([]*domain.Transaction, error) {
	rows, err := r.queries.ListTransactionsByWallet(ctx, generated.ListTransactionsByWalletParams{
		FromWalletID: stringPtrToText(&walletID),
		Limit:        int32(limit),
	})
	if err != nil {
		return nil, err
	}

	return rowsToTransactions(rows), nil
}

// List lists all records, newest first.
func (r *TransactionRepository) List(ctx context.Context, limit int) ([]*domain.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx, int32(limit))
	if err != nil {
		return nil, err
	}

	return rowsToTransactions(rows), nil
}

func rowsToTransactions(rows []generated.Transaction) []*domain.Transaction {
	records := make([]*domain.Transaction, 0, len(rows))
	for _, row := range rows {
		records = append(records, rowToTransaction(row))
	}
	return records
}

func rowToTransaction(row generated.Transaction) *domain.Transaction {
	return &domain.Transaction{
		ID:           row.ID,
		FromWalletID: textToStringPtr(row.FromWalletID),
		ToWalletID:   textToStringPtr(row.ToWalletID),
		Amount:       numericToDecimal(row.Amount),
		Type:         domain.TransactionType(row.Type),
		Status:       domain.TransactionStatus(row.Status),
		InitiatedBy:  row.InitiatedBy,
		Fee:          numericToDecimal(row.Fee),
		Commission:   numericToDecimal(row.Commission),
		CreatedAt:    row.CreatedAt.Time,
	}
}
