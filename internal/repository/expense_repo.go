package repository

import (
	"context"

	"nexogym/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ExpenseRepository interface {
	Create(ctx context.Context, tx *gorm.DB, e *model.Expense) error
	ListByShift(ctx context.Context, gymID, shiftID uuid.UUID) ([]model.Expense, error)
}

type expenseRepo struct{ db *gorm.DB }

func NewExpenseRepository(db *gorm.DB) ExpenseRepository { return &expenseRepo{db: db} }

func (r *expenseRepo) Create(ctx context.Context, tx *gorm.DB, e *model.Expense) error {
	return conn(r.db, tx).WithContext(ctx).Create(e).Error
}

func (r *expenseRepo) ListByShift(ctx context.Context, gymID, shiftID uuid.UUID) ([]model.Expense, error) {
	var expenses []model.Expense
	err := r.db.WithContext(ctx).Scopes(GymScope(gymID)).
		Where("shift_id = ?", shiftID).
		Order("created_at ASC").
		Find(&expenses).Error
	return expenses, err
}
