package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin      UserRole = "ADMIN"
	RoleResearcher UserRole = "RESEARCHER"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleResearcher
}

// AccountStatus gates access to protected operations.
type AccountStatus string

const (
	AccountActive   AccountStatus = "ACTIVE"
	AccountFrozen   AccountStatus = "FROZEN"
	AccountInactive AccountStatus = "INACTIVE"
)

// Valid reports whether s is a known account status.
func (s AccountStatus) Valid() bool {
	switch s {
	case AccountActive, AccountFrozen, AccountInactive:
		return true
	}
	return false
}

// User represents an application user stored in the users table.
type User struct {
	ID           string        `db:"id" json:"id"`
	Username     string        `db:"username" json:"username"`
	Email        string        `db:"email" json:"email"`
	PasswordHash string        `db:"password_hash" json:"-"`
	FullName     string        `db:"full_name" json:"full_name"`
	Role         UserRole      `db:"role" json:"role"`
	Status       AccountStatus `db:"status" json:"status"`
	LastLogin    *time.Time    `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role          *UserRole
	Status        *AccountStatus
	ExcludeAdmins bool
	Search        string
	Page          int
	PageSize      int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
