package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const MovementSale = "SALE"

// InventoryMovement records every stock change made by the POS.
// Quantity is signed: negative leaves the shelf.
type InventoryMovement struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	GymID       uuid.UUID  `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	ShiftID     *uuid.UUID `gorm:"type:uuid;index"`
	Type        string     `gorm:"type:varchar(20);not null"`
	Quantity    int        `gorm:"not null"`
	StockBefore int        `gorm:"not null"`
	StockAfter  int        `gorm:"not null"`
	ReferenceID *uuid.UUID `gorm:"type:uuid"` // sale id
	Reason      string
	CreatedAt   time.Time
}

func (m *InventoryMovement) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
