package dto

import (
	"time"

	"github.com/facilityworks/helpdesk/internal/domain"
)

// LoginRequest payload.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the issued token.
type LoginResponse struct {
	Token                 string       `json:"token"`
	ExpiresAt             time.Time    `json:"expires_at"`
	User                  UserResponse `json:"user"`
	PasswordResetRequired bool         `json:"password_reset_required"`
}

// ChangePasswordRequest payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// CreateUserRequest payload.
type CreateUserRequest struct {
	Username string      `json:"username"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
}

// SetActiveRequest payload.
type SetActiveRequest struct {
	Active bool `json:"active"`
}

// SetRoleRequest payload.
type SetRoleRequest struct {
	Role domain.Role `json:"role"`
}

// UserResponse representation.
type UserResponse struct {
	ID                 string      `json:"id"`
	Username           string      `json:"username"`
	Role               domain.Role `json:"role"`
	Active             bool        `json:"active"`
	ForcePasswordReset bool        `json:"force_password_reset"`
	CreatedAt          time.Time   `json:"created_at"`
}
