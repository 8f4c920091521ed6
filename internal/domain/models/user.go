package models

import (
	"github.com/Temirlan0k/ride-dispatch/internal/domain/types"
	"github.com/Temirlan0k/ride-dispatch/pkg/uuid"
)

// Identity is the authenticated user a connection belongs to.
type Identity struct {
	ID   uuid.UUID
	Role types.UserRole
}

func (i Identity) IsDriver() bool {
	return i.Role == types.DriverRole
}
