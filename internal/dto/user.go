package dto

import "github.com/Noel-Teens/pms-server/internal/models"

// CreateUserRequest is the payload for POST /admin/users.
type CreateUserRequest struct {
	Username string          `json:"username" validate:"required,min=3,max=150"`
	Email    string          `json:"email" validate:"omitempty,email"`
	FullName string          `json:"full_name" validate:"max=255"`
	Password string          `json:"password" validate:"required,min=8"`
	Role     models.UserRole `json:"role" validate:"required,oneof=ADMIN RESEARCHER"`
}

// UpdateUserStatusRequest is the payload for PATCH /admin/users/:username/status.
type UpdateUserStatusRequest struct {
	Status models.AccountStatus `json:"status" validate:"required,oneof=ACTIVE FROZEN INACTIVE"`
}

// UserListQuery captures GET /admin/users query parameters.
type UserListQuery struct {
	Status   string `form:"status"`
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}
