package postgres

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/digipay/internal/domain"
	"github.com/iho/digipay/internal/infrastructure/postgres/generated"
	"github.com/iho/digipay/internal/usecase"
)

// AuditRepository implements audit log persistence
type AuditRepository struct {
	db generated.DBTX
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{db: pool}
}

// CreateTx inserts a new audit log entry inside tx
func (r *AuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	if log.ID == "" {
		log.ID = uuid.New().String()
	}

	var beforeStateJSON, afterStateJSON []byte

	if log.BeforeState != nil {
		beforeStateJSON, err = json.Marshal(log.BeforeState)
		if err != nil {
			return err
		}
	}

	if log.AfterState != nil {
		afterStateJSON, err = json.Marshal(log.AfterState)
		if err != nil {
			return err
		}
	}

	query := `
		INSERT INTO audit_logs (
			id, actor_id, action, resource_type, resource_id,
			request_id, before_state, after_state, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = t.PgxTx().Exec(ctx, query,
		log.ID,
		log.ActorID,
		string(log.Action),
		log.ResourceType,
		log.ResourceID,
		log.RequestID,
		beforeStateJSON,
		afterStateJSON,
		string(log.Status),
		log.CreatedAt,
	)

	return mapError(err, nil)
}

// List retrieves audit logs with filtering, newest first
func (r *AuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	query, args := buildAuditQuery(filter)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*domain.AuditLog
	for rows.Next() {
		var (
			log                             domain.AuditLog
			action, status                  string
			beforeStateJSON, afterStateJSON []byte
		)

		err := rows.Scan(
			&log.ID,
			&log.ActorID,
			&action,
			&log.ResourceType,
			&log.ResourceID,
			&log.RequestID,
			&beforeStateJSON,
			&afterStateJSON,
			&status,
			&log.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		log.Action = domain.AuditAction(action)
		log.Status = domain.AuditStatus(status)

		if beforeStateJSON != nil {
			_ = json.Unmarshal(beforeStateJSON, &log.BeforeState)
		}

		if afterStateJSON != nil {
			_ = json.Unmarshal(afterStateJSON, &log.AfterState)
		}

		logs = append(logs, &log)
	}

	return logs, rows.Err()
}

func buildAuditQuery(filter domain.AuditFilter) (string, []any) {
	query := `
		SELECT id, actor_id, action, resource_type, resource_id,
		       COALESCE(request_id, ''), before_state, after_state, status, created_at
		FROM audit_logs
		WHERE 1=1`
	args := []any{}

	add := func(clause string, v any) {
		args = append(args, v)
		query += clause + strconv.Itoa(len(args))
	}

	if filter.ActorID != "" {
		add(` AND actor_id = $`, filter.ActorID)
	}
	if filter.Action != "" {
		add(` AND action = $`, string(filter.Action))
	}
	if filter.ResourceType != "" {
		add(` AND resource_type = $`, filter.ResourceType)
	}
	if filter.ResourceID != "" {
		add(` AND resource_id = $`, filter.ResourceID)
	}

	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		add(` LIMIT $`, filter.Limit)
	}
	if filter.Offset > 0 {
		add(` OFFSET $`, filter.Offset)
	}

	return query, args
}
