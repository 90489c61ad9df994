package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/digipay/internal/domain"
	"github.com/iho/digipay/internal/infrastructure/postgres/generated"
	"github.com/iho/digipay/internal/usecase"
)

const identityColumns = `id, name, email, role, approval, is_blocked, created_at, updated_at`

// IdentityRepository implements identity persistence
type IdentityRepository struct {
	db generated.DBTX
}

// NewIdentityRepository creates a new identity repository
func NewIdentityRepository(pool *pgxpool.Pool) *IdentityRepository {
	return &IdentityRepository{db: pool}
}

// CreateTx inserts a new identity inside tx
func (r *IdentityRepository) CreateTx(ctx context.Context, tx usecase.Transaction, identity *domain.Identity) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO identities (` + identityColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = t.PgxTx().Exec(ctx, query,
		identity.ID,
		identity.Name,
		identity.Email,
		string(identity.Role()),
		approvalToText(identity.Principal),
		identity.IsBlocked,
		identity.CreatedAt,
		identity.UpdatedAt,
	)

	return mapError(err, domain.ErrDuplicateIdentity)
}

// GetByID retrieves an identity by ID
func (r *IdentityRepository) GetByID(ctx context.Context, id string) (*domain.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE id = $1`

	return scanIdentity(r.db.QueryRow(ctx, query, id))
}

// GetByIDForUpdate retrieves an identity with a FOR UPDATE lock
func (r *IdentityRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Identity, error) {
	t, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + identityColumns + ` FROM identities WHERE id = $1 FOR UPDATE`

	identity, err := scanIdentity(t.PgxTx().QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err, nil)
	}

	return identity, nil
}

// UpdateTx writes name, role, approval and block state
func (r *IdentityRepository) UpdateTx(ctx context.Context, tx usecase.Transaction, identity *domain.Identity) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	query := `
		UPDATE identities
		SET name = $2, role = $3, approval = $4, is_blocked = $5, updated_at = $6
		WHERE id = $1
	`

	tag, err := t.PgxTx().Exec(ctx, query,
		identity.ID,
		identity.Name,
		string(identity.Role()),
		approvalToText(identity.Principal),
		identity.IsBlocked,
		identity.UpdatedAt,
	)
	if err != nil {
		return mapError(err, nil)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrIdentityNotFound
	}

	return nil
}

// List lists identities, oldest first
func (r *IdentityRepository) List(ctx context.Context, limit, offset int) ([]*domain.Identity, error) {
	query := `
		SELECT ` + identityColumns + `
		FROM identities
		ORDER BY created_at, id
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var identities []*domain.Identity
	for rows.Next() {
		identity, err := scanIdentity(rows)
		if err != nil {
			return nil, err
		}
		identities = append(identities, identity)
	}

	return identities, rows.Err()
}

func scanIdentity(row pgx.Row) (*domain.Identity, error) {
	var (
		identity  domain.Identity
		role      string
		approval  pgtype.Text
		createdAt time.Time
		updatedAt time.Time
	)

	err := row.Scan(
		&identity.ID,
		&identity.Name,
		&identity.Email,
		&role,
		&approval,
		&identity.IsBlocked,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, err
	}

	principal, err := domain.NewPrincipal(identity.ID, domain.Role(role), domain.Approval(approval.String))
	if err != nil {
		return nil, err
	}

	identity.Principal = principal
	identity.CreatedAt = createdAt
	identity.UpdatedAt = updatedAt

	return &identity, nil
}

func approvalToText(p domain.Principal) pgtype.Text {
	approval, ok := domain.ApprovalOf(p)
	if !ok {
		return pgtype.Text{}
	}
	return pgtype.Text{String: string(approval), Valid: true}
}
