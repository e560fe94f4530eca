package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AuditShiftOpened      = "SHIFT_OPENED"
	AuditShiftClosed      = "SHIFT_CLOSED"
	AuditShiftForceClosed = "SHIFT_FORCE_CLOSED"
)

// AuditLog is append-only. Detail holds a JSON document.
type AuditLog struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	GymID      uuid.UUID `gorm:"type:uuid;not null;index"`
	ActorID    uuid.UUID `gorm:"type:uuid;not null"`
	Action     string    `gorm:"type:varchar(40);not null"`
	EntityType string    `gorm:"type:varchar(40);not null"`
	EntityID   uuid.UUID `gorm:"type:uuid;not null"`
	Detail     string    `gorm:"type:text"`
	CreatedAt  time.Time
}

func (a *AuditLog) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
