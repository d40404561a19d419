package users

import "time"

// Role labels a capability granted to a user account.
type Role string

const (
	RoleUser       Role = "USER"
	RoleQuantifier Role = "QUANTIFIER"
	RoleAdmin      Role = "ADMIN"
)

// User represents a contributor account. Roles are stored denormalized on
// the user row; the quantifier pool is the set of users carrying
// RoleQuantifier.
type User struct {
	ID        int64
	Username  string
	Roles     []Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasRole reports whether the user carries the given role.
func (u User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
