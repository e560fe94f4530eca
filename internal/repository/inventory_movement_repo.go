package repository

import (
	"context"

	"nexogym/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InventoryMovementRepository interface {
	CreateTx(ctx context.Context, tx *gorm.DB, m *model.InventoryMovement) error
	ListByShift(ctx context.Context, gymID, shiftID uuid.UUID) ([]model.InventoryMovement, error)
}

type inventoryMovementRepo struct{ db *gorm.DB }

func NewInventoryMovementRepository(db *gorm.DB) InventoryMovementRepository {
	return &inventoryMovementRepo{db: db}
}

func (r *inventoryMovementRepo) CreateTx(ctx context.Context, tx *gorm.DB, m *model.InventoryMovement) error {
	return conn(r.db, tx).WithContext(ctx).Create(m).Error
}

func (r *inventoryMovementRepo) ListByShift(ctx context.Context, gymID, shiftID uuid.UUID) ([]model.InventoryMovement, error) {
	var movs []model.InventoryMovement
	err := r.db.WithContext(ctx).Scopes(GymScope(gymID)).
		Where("shift_id = ?", shiftID).
		Order("created_at ASC").
		Find(&movs).Error
	return movs, err
}
