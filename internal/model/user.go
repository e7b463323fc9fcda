package model

import "time"

// Role is the account role stored in users.role. Exactly one
// role-specific profile row exists per account; the role only
// changes through an explicit admin migration that swaps profiles.
type Role string

const (
	RoleStudent       Role = "STUDENT"
	RoleCoordinator   Role = "COORDINATOR"
	RoleOrganization  Role = "ORGANIZATION"
	RoleAdministrator Role = "ADMINISTRATOR"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleCoordinator, RoleOrganization, RoleAdministrator:
		return true
	}
	return false
}

// User mirrors the `users` table.
//
// PasswordHash is empty when no password has been set yet.
// EmailVerifiedAt is nil until the verification flow completes.
type User struct {
	ID              string
	Email           string
	PasswordHash    string
	Role            Role
	Name            string
	EmailVerifiedAt *time.Time
	IsActive        bool
	IsSuspended     bool
	LastLoginAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// EmailVerified reports whether the account completed email verification.
func (u User) EmailVerified() bool { return u.EmailVerifiedAt != nil }
