package models

import (
	"time"

	"github.com/google/uuid"
)

// Role determines an identity's capabilities. Roles are mutually exclusive;
// the role tag on the single users table is a deliberate denormalization
// rather than polymorphic subtypes.
type Role string

const (
	RoleUser  Role = "user"
	RoleDonor Role = "donor"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleDonor, RoleAdmin:
		return true
	}
	return false
}

// User is an account record. PasswordHash is a bcrypt digest; credentials are
// only ever compared opaquely.
type User struct {
	ID           uuid.UUID
	UserName     string
	Email        string
	Phone        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
