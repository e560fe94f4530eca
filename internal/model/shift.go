package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ShiftStatus string

const (
	ShiftOpen   ShiftStatus = "OPEN"
	ShiftClosed ShiftStatus = "CLOSED"
)

type ReconciliationStatus string

const (
	ReconciliationBalanced ReconciliationStatus = "BALANCED"
	ReconciliationSurplus  ReconciliationStatus = "SURPLUS"
	ReconciliationShortage ReconciliationStatus = "SHORTAGE"
)

// Shift is the lifecycle of one operator's cash drawer inside a gym.
// Only one OPEN shift per (gym_id, user_id) may exist; the partial unique
// index uniq_shifts_open_per_user guards it at the data layer.
type Shift struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	GymID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	UserID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	OpeningBalance decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status         ShiftStatus     `gorm:"type:varchar(10);not null;default:'OPEN'"`
	OpenedAt       time.Time       `gorm:"not null"`
	ClosedAt       *time.Time

	// Filled on close; nil while OPEN.
	ActualBalance        *decimal.Decimal      `gorm:"type:decimal(12,2)"`
	ExpectedBalance      *decimal.Decimal      `gorm:"type:decimal(12,2)"`
	Difference           *decimal.Decimal      `gorm:"type:decimal(12,2)"`
	ReconciliationStatus *ReconciliationStatus `gorm:"type:varchar(10)"`
	ClosedBy             *uuid.UUID            `gorm:"type:uuid"`
	// ForcedBy is set only by an administrative force-close.
	ForcedBy    *uuid.UUID `gorm:"type:uuid"`
	ForceReason *string

	User *User `gorm:"foreignKey:UserID"`
}

func (s *Shift) BeforeCreate(_ *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (s *Shift) IsOpen() bool { return s.Status == ShiftOpen }

func (s *Shift) WasForced() bool { return s.ForcedBy != nil }
