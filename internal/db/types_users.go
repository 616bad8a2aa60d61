package db

import (
	"time"

	"github.com/google/uuid"
)

// Roles recognized by the access layer. Superadmins bypass domain
// scoping on resume chunks and the eligibility gate on jobs.
const (
	RoleUser       = "USER"
	RoleSuperAdmin = "SUPER_ADMIN"
)

// User represents an account. Domain is nil for unscoped users, who
// may only retrieve their own resume chunks.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	Domain       *string   `json:"domain,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// IsSuperAdmin reports whether the user holds the superadmin role.
func (u *User) IsSuperAdmin() bool {
	return u != nil && u.Role == RoleSuperAdmin
}

// UserCreateInput carries the fields needed to register a user.
type UserCreateInput struct {
	Email        string
	PasswordHash string
	Name         string
	Role         string
	Domain       *string
}
