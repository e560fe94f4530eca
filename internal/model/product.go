package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is the slice of the inventory catalogue the POS needs: current
// price and stock. Catalogue management lives outside this service.
type Product struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	GymID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name      string          `gorm:"not null"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Stock     int             `gorm:"not null;default:0"`
	Active    bool            `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p *Product) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
