package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GymStatus string

const (
	GymActive    GymStatus = "ACTIVE"
	GymSuspended GymStatus = "SUSPENDED"
)

// Gym is the tenant. Every ledger row carries its id.
type Gym struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"not null"`
	Tier      Tier      `gorm:"type:varchar(10);not null;default:'BASIC'"`
	Status    GymStatus `gorm:"type:varchar(10);not null;default:'ACTIVE'"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (g *Gym) BeforeCreate(_ *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

func (g *Gym) IsActive() bool { return g.Status == GymActive }
