package repository

import (
	"context"

	"nexogym/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditRepository is append-only: there is no update or delete.
type AuditRepository interface {
	CreateTx(ctx context.Context, tx *gorm.DB, a *model.AuditLog) error
	ListByEntity(ctx context.Context, gymID, entityID uuid.UUID) ([]model.AuditLog, error)
}

type auditRepo struct{ db *gorm.DB }

func NewAuditRepository(db *gorm.DB) AuditRepository { return &auditRepo{db: db} }

func (r *auditRepo) CreateTx(ctx context.Context, tx *gorm.DB, a *model.AuditLog) error {
	return conn(r.db, tx).WithContext(ctx).Create(a).Error
}

func (r *auditRepo) ListByEntity(ctx context.Context, gymID, entityID uuid.UUID) ([]model.AuditLog, error) {
	var logs []model.AuditLog
	err := r.db.WithContext(ctx).Scopes(GymScope(gymID)).
		Where("entity_id = ?", entityID).
		Order("created_at ASC").
		Find(&logs).Error
	return logs, err
}
