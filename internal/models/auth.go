package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID       string        `json:"id"`
	Username string        `json:"username"`
	Email    string        `json:"email"`
	FullName string        `json:"full_name"`
	Role     UserRole      `json:"role"`
	Status   AccountStatus `json:"status"`
}

// JWTClaims represents the JWT payload for access tokens. Role and Status are
// refreshed from the database on every authenticated request.
type JWTClaims struct {
	UserID   string        `json:"user_id"`
	Username string        `json:"username"`
	Role     UserRole      `json:"role"`
	Status   AccountStatus `json:"status"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the caller holds the reviewer capability.
func (c *JWTClaims) IsAdmin() bool {
	return c != nil && c.Role == RoleAdmin
}

// Info projects the user into its public description.
func (u *User) Info() UserInfo {
	return UserInfo{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		FullName: u.FullName,
		Role:     u.Role,
		Status:   u.Status,
	}
}
