package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Sale is an immutable cash sale recorded against an OPEN shift.
// Corrections go through inventory adjustments, never through edits here.
type Sale struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	GymID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	ShiftID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	SellerID      uuid.UUID       `gorm:"type:uuid;not null"`
	ReceiptFolio  string          `gorm:"type:varchar(20);not null"`
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CustomerEmail *string
	CreatedAt     time.Time

	Items []SaleItem `gorm:"foreignKey:SaleID"`
}

func (s *Sale) BeforeCreate(_ *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// SaleItem keeps the price and name as they were at the time of sale.
type SaleItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SaleID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position    int             `gorm:"not null"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null"`
	ProductName string          `gorm:"not null"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

func (i *SaleItem) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// ReceiptCounter holds the last folio number issued per gym.
type ReceiptCounter struct {
	GymID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	LastValue int64     `gorm:"not null;default:0"`
}
