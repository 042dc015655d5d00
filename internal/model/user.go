// Package model defines the data structures used throughout the application.
package model

import "time"

// Roles a user account can hold. Stored as plain strings in the DB;
// ValidRole guards against anything outside this set reaching persistence.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a registered user account.
//
// Identity is email + password. The GitHub username is NOT an OAuth
// identity — it is the account the repository-proxy endpoints browse on the
// user's behalf. Both email and github_username carry UNIQUE constraints in
// the DB: the service layer does friendly existence checks first, but the
// constraints are what actually guarantee uniqueness under concurrency.
//
// WHY PasswordHash IS NEVER SERIALIZED:
// The json:"-" tag means encoding/json skips the field entirely. Every
// handler that returns a user returns this struct, so there is exactly one
// place to get this right.
//
// IsActive implements soft deletion. "Deleting" a user flips the flag;
// the row (and its audit trail) stays. Deactivated users cannot log in and
// are hidden from listings unless explicitly requested.
type User struct {
	ID             string     `json:"id"              db:"id"`
	Name           string     `json:"name"            db:"name"`
	Email          string     `json:"email"           db:"email"`           // stored lowercase
	GitHubUsername string     `json:"github_username" db:"github_username"` // unique, format-checked
	PasswordHash   string     `json:"-"               db:"password_hash"`
	Role           string     `json:"role"            db:"role"`
	IsActive       bool       `json:"is_active"       db:"is_active"`
	LastLogin      *time.Time `json:"last_login,omitempty" db:"last_login"`
	CreatedAt      time.Time  `json:"created_at"      db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"      db:"updated_at"`
}

// IsAdmin reports whether the account holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// ValidRole reports whether role is one of the allowed role values.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}
