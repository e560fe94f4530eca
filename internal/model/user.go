package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleSuperAdmin Role = "SUPERADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleReception  Role = "RECEPTION"
	RoleMember     Role = "MEMBER"
)

// CanOverrideShifts is the administrative capability: closing another
// operator's shift and force-closing abandoned ones.
func (r Role) CanOverrideShifts() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

type UserStatus string

const (
	UserActive   UserStatus = "ACTIVE"
	UserInactive UserStatus = "INACTIVE"
)

// User is provisioned by the identity side of the platform; this service
// reads it for login and for operator names in reports.
// GymID is nil only for SUPERADMIN.
type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	GymID        *uuid.UUID `gorm:"type:uuid;index"`
	Username     string     `gorm:"uniqueIndex;not null"`
	Name         string     `gorm:"not null"`
	Email        *string
	PasswordHash string     `gorm:"not null"`
	Role         Role       `gorm:"type:varchar(20);not null"`
	Status       UserStatus `gorm:"type:varchar(10);not null;default:'ACTIVE'"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (u *User) IsActive() bool { return u.Status == UserActive }
