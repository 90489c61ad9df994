package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/iho/digipay/internal/domain"
	"github.com/iho/digipay/internal/usecase"
)

// AuditRepository implements usecase.AuditRepository.
type AuditRepository struct {
	s *Store
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(s *Store) *AuditRepository {
	return &AuditRepository{s: s}
}

// CreateTx stages an audit entry.
func (r *AuditRepository) CreateTx(_ context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	t.audits = append(t.audits, *log)
	return nil
}

// List returns committed audit entries matching filter, newest first.
func (r *AuditRepository) List(_ context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	logs := make([]*domain.AuditLog, 0)
	for i := len(r.s.audits) - 1; i >= 0; i-- {
		l := r.s.audits[i]
		if filter.ActorID != "" && l.ActorID != filter.ActorID {
			continue
		}
		if filter.Action != "" && l.Action != filter.Action {
			continue
		}
		if filter.ResourceType != "" && l.ResourceType != filter.ResourceType {
			continue
		}
		if filter.ResourceID != "" && l.ResourceID != filter.ResourceID {
			continue
		}
		logs = append(logs, &l)
	}

	return page(logs, filter.Limit, filter.Offset), nil
}
