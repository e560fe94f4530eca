package repository

import (
	"context"

	"nexogym/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductRepository is the storage side of the inventory gateway.
// Catalogue management is not part of this service; Create exists for
// seeding and tests.
type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, gymID, id uuid.UUID) (*model.Product, error)

	// Used inside transactions; callers must pass the tx instance
	FindByIDTx(ctx context.Context, tx *gorm.DB, gymID, id uuid.UUID) (*model.Product, error)
	// DecrementStockTx subtracts qty only when enough stock remains.
	// It reports false, with no error, when the guard rejected the update.
	DecrementStockTx(ctx context.Context, tx *gorm.DB, gymID, id uuid.UUID, qty int) (bool, error)

	DB() *gorm.DB
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) DB() *gorm.DB { return r.db }

func (r *productRepo) Create(ctx context.Context, p *model.Product) error {
	return translate(r.db.WithContext(ctx).Create(p).Error)
}

func (r *productRepo) FindByID(ctx context.Context, gymID, id uuid.UUID) (*model.Product, error) {
	return r.FindByIDTx(ctx, nil, gymID, id)
}

func (r *productRepo) FindByIDTx(ctx context.Context, tx *gorm.DB, gymID, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := conn(r.db, tx).WithContext(ctx).Scopes(GymScope(gymID)).
		Where("id = ?", id).First(&p).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *productRepo) DecrementStockTx(ctx context.Context, tx *gorm.DB, gymID, id uuid.UUID, qty int) (bool, error) {
	res := conn(r.db, tx).WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND gym_id = ? AND stock >= ?", id, gymID, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
