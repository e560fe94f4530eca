package repository

import (
	"context"
	"fmt"

	"nexogym/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SaleRepository interface {
	// Create inserts the sale together with its items.
	Create(ctx context.Context, tx *gorm.DB, s *model.Sale) error
	// NextFolio reserves the next receipt folio of the gym. It must run in
	// the sale's transaction so a rollback also releases the counter.
	NextFolio(ctx context.Context, tx *gorm.DB, gymID uuid.UUID) (string, error)
	FindByID(ctx context.Context, gymID, id uuid.UUID) (*model.Sale, error)
	ListByShift(ctx context.Context, gymID, shiftID uuid.UUID) ([]model.Sale, error)
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) DB() *gorm.DB { return r.db }

func (r *saleRepo) Create(ctx context.Context, tx *gorm.DB, s *model.Sale) error {
	return translate(conn(r.db, tx).WithContext(ctx).Create(s).Error)
}

func (r *saleRepo) NextFolio(ctx context.Context, tx *gorm.DB, gymID uuid.UUID) (string, error) {
	// Per-gym counter row; the upsert serializes concurrent sales of the
	// same gym on that row until commit.
	var next int64
	err := conn(r.db, tx).WithContext(ctx).Raw(`
		INSERT INTO receipt_counters (gym_id, last_value) VALUES (?, 1)
		ON CONFLICT (gym_id) DO UPDATE SET last_value = receipt_counters.last_value + 1
		RETURNING last_value`, gymID).Scan(&next).Error
	if err != nil {
		return "", fmt.Errorf("next folio: %w", err)
	}
	return FormatFolio(next), nil
}

// FormatFolio renders a counter value as a receipt folio.
func FormatFolio(n int64) string {
	return fmt.Sprintf("R-%08d", n)
}

func (r *saleRepo) FindByID(ctx context.Context, gymID, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).Scopes(GymScope(gymID)).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("id = ?", id).First(&s).Error
	if err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *saleRepo) ListByShift(ctx context.Context, gymID, shiftID uuid.UUID) ([]model.Sale, error) {
	var sales []model.Sale
	err := r.db.WithContext(ctx).Scopes(GymScope(gymID)).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("shift_id = ?", shiftID).
		Order("created_at ASC").
		Find(&sales).Error
	return sales, err
}
