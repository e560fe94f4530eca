package repository

import (
	"context"

	"nexogym/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GymRepository interface {
	Create(ctx context.Context, g *model.Gym) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Gym, error)
}

type gymRepo struct{ db *gorm.DB }

func NewGymRepository(db *gorm.DB) GymRepository { return &gymRepo{db: db} }

func (r *gymRepo) Create(ctx context.Context, g *model.Gym) error {
	return translate(r.db.WithContext(ctx).Create(g).Error)
}

func (r *gymRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Gym, error) {
	var g model.Gym
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&g).Error; err != nil {
		return nil, translate(err)
	}
	return &g, nil
}
