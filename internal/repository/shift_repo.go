package repository

import (
	"context"

	"nexogym/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ShiftTotals is the ledger aggregate of one shift.
type ShiftTotals struct {
	TotalSales    decimal.Decimal
	SaleCount     int64
	TotalExpenses decimal.Decimal
	ExpenseCount  int64
}

// ShiftRepository persists shifts. Methods taking tx run inside the
// caller's transaction; a nil tx falls back to the repository's DB.
type ShiftRepository interface {
	Create(ctx context.Context, tx *gorm.DB, s *model.Shift) error
	FindByID(ctx context.Context, gymID, id uuid.UUID) (*model.Shift, error)
	FindOpenByUser(ctx context.Context, gymID, userID uuid.UUID) (*model.Shift, error)

	// LockShared takes FOR SHARE on the shift row: ledger writers run in
	// parallel but block a concurrent close.
	LockShared(ctx context.Context, tx *gorm.DB, gymID, id uuid.UUID) (*model.Shift, error)
	// LockExclusive takes FOR UPDATE on the shift row.
	LockExclusive(ctx context.Context, tx *gorm.DB, gymID, id uuid.UUID) (*model.Shift, error)

	// Close persists the closing fields only if the shift is still OPEN.
	Close(ctx context.Context, tx *gorm.DB, s *model.Shift) error
	Totals(ctx context.Context, tx *gorm.DB, shiftID uuid.UUID) (ShiftTotals, error)

	DB() *gorm.DB
}

type shiftRepo struct{ db *gorm.DB }

func NewShiftRepository(db *gorm.DB) ShiftRepository { return &shiftRepo{db: db} }

func (r *shiftRepo) DB() *gorm.DB { return r.db }

func (r *shiftRepo) Create(ctx context.Context, tx *gorm.DB, s *model.Shift) error {
	return translate(conn(r.db, tx).WithContext(ctx).Create(s).Error)
}

func (r *shiftRepo) FindByID(ctx context.Context, gymID, id uuid.UUID) (*model.Shift, error) {
	var s model.Shift
	err := r.db.WithContext(ctx).Scopes(GymScope(gymID)).Preload("User").
		Where("id = ?", id).First(&s).Error
	if err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *shiftRepo) FindOpenByUser(ctx context.Context, gymID, userID uuid.UUID) (*model.Shift, error) {
	var s model.Shift
	err := r.db.WithContext(ctx).Scopes(GymScope(gymID)).
		Where("user_id = ? AND status = ?", userID, model.ShiftOpen).
		First(&s).Error
	if err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *shiftRepo) LockShared(ctx context.Context, tx *gorm.DB, gymID, id uuid.UUID) (*model.Shift, error) {
	return r.lock(ctx, tx, gymID, id, "SHARE")
}

func (r *shiftRepo) LockExclusive(ctx context.Context, tx *gorm.DB, gymID, id uuid.UUID) (*model.Shift, error) {
	return r.lock(ctx, tx, gymID, id, "UPDATE")
}

func (r *shiftRepo) lock(ctx context.Context, tx *gorm.DB, gymID, id uuid.UUID, strength string) (*model.Shift, error) {
	var s model.Shift
	err := conn(r.db, tx).WithContext(ctx).
		Clauses(clause.Locking{Strength: strength}).
		Scopes(GymScope(gymID)).
		Where("id = ?", id).
		First(&s).Error
	if err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *shiftRepo) Close(ctx context.Context, tx *gorm.DB, s *model.Shift) error {
	res := conn(r.db, tx).WithContext(ctx).Model(&model.Shift{}).
		Where("id = ? AND gym_id = ? AND status = ?", s.ID, s.GymID, model.ShiftOpen).
		Updates(map[string]any{
			"status":                s.Status,
			"closed_at":             s.ClosedAt,
			"actual_balance":        s.ActualBalance,
			"expected_balance":      s.ExpectedBalance,
			"difference":            s.Difference,
			"reconciliation_status": s.ReconciliationStatus,
			"closed_by":             s.ClosedBy,
			"forced_by":             s.ForcedBy,
			"force_reason":          s.ForceReason,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStale
	}
	return nil
}

type sumRow struct {
	Total decimal.Decimal
	Count int64
}

func (r *shiftRepo) Totals(ctx context.Context, tx *gorm.DB, shiftID uuid.UUID) (ShiftTotals, error) {
	db := conn(r.db, tx).WithContext(ctx)

	var sales sumRow
	if err := db.Model(&model.Sale{}).
		Select("COALESCE(SUM(total), 0) AS total, COUNT(*) AS count").
		Where("shift_id = ?", shiftID).
		Scan(&sales).Error; err != nil {
		return ShiftTotals{}, err
	}

	var expenses sumRow
	if err := db.Model(&model.Expense{}).
		Select("COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count").
		Where("shift_id = ?", shiftID).
		Scan(&expenses).Error; err != nil {
		return ShiftTotals{}, err
	}

	return ShiftTotals{
		TotalSales:    sales.Total.Round(2),
		SaleCount:     sales.Count,
		TotalExpenses: expenses.Total.Round(2),
		ExpenseCount:  expenses.Count,
	}, nil
}

