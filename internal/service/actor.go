package service

import (
	"nexogym/internal/model"

	"github.com/google/uuid"
)

// Actor is the authenticated caller. GymID is the tenant every query is
// pinned to; handlers derive it from the token, never from the body.
type Actor struct {
	UserID uuid.UUID
	GymID  uuid.UUID
	Role   model.Role
}

func (a Actor) IsAdmin() bool { return a.Role.CanOverrideShifts() }
