package repository

import (
	"context"
	"time"

	"nexogym/internal/dto"
	"nexogym/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StaleShiftCount is the number of shifts a gym has left open past a cutoff.
type StaleShiftCount struct {
	GymID uuid.UUID
	Count int64
}

// ReportRepository holds the read-only projections used by administrators.
type ReportRepository interface {
	ListShifts(ctx context.Context, gymID uuid.UUID, filter dto.ShiftFilter) ([]model.Shift, int64, error)
	ListOpenShifts(ctx context.Context, gymID uuid.UUID) ([]model.Shift, error)
	// CountStaleOpenShifts spans every tenant; it backs the open-shift monitor.
	CountStaleOpenShifts(ctx context.Context, openedBefore time.Time) ([]StaleShiftCount, error)
}

type reportRepo struct{ db *gorm.DB }

func NewReportRepository(db *gorm.DB) ReportRepository { return &reportRepo{db: db} }

func (r *reportRepo) ListShifts(ctx context.Context, gymID uuid.UUID, filter dto.ShiftFilter) ([]model.Shift, int64, error) {
	var shifts []model.Shift
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.Shift{}).Scopes(GymScope(gymID))

	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if from, err := time.Parse("2006-01-02", filter.From); err == nil {
		q = q.Where("opened_at >= ?", from.UTC())
	}
	if to, err := time.Parse("2006-01-02", filter.To); err == nil {
		// inclusive day
		q = q.Where("opened_at < ?", to.UTC().AddDate(0, 0, 1))
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("User").
		Order("opened_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&shifts).Error

	return shifts, total, err
}

func (r *reportRepo) ListOpenShifts(ctx context.Context, gymID uuid.UUID) ([]model.Shift, error) {
	var shifts []model.Shift
	err := r.db.WithContext(ctx).Scopes(GymScope(gymID)).
		Preload("User").
		Where("status = ?", model.ShiftOpen).
		Order("opened_at ASC").
		Find(&shifts).Error
	return shifts, err
}

func (r *reportRepo) CountStaleOpenShifts(ctx context.Context, openedBefore time.Time) ([]StaleShiftCount, error) {
	var rows []StaleShiftCount
	err := r.db.WithContext(ctx).Model(&model.Shift{}).
		Select("gym_id, COUNT(*) AS count").
		Where("status = ? AND opened_at < ?", model.ShiftOpen, openedBefore).
		Group("gym_id").
		Scan(&rows).Error
	return rows, err
}
