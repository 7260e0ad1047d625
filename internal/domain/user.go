package domain

import "time"

// Role enumerates the closed set of user roles.
type Role string

const (
	RoleEndUser     Role = "END_USER"
	RoleTechnician  Role = "TECHNICIAN"
	RoleTechManager Role = "TECH_MANAGER"
)

// ValidRole reports whether r is a member of the role enum.
func ValidRole(r Role) bool {
	return r == RoleEndUser || r == RoleTechnician || r == RoleTechManager
}

// User is the domain model for anyone who authenticates against the
// system: requesters, technicians, and managers alike. The password
// hash is opaque to the core; it is verified, never inspected.
type User struct {
	ID                 string    `json:"id"`
	Username           string    `json:"username"`
	Role               Role      `json:"role"`
	PasswordHash       string    `json:"password_hash"`
	Active             bool      `json:"active"`
	ForcePasswordReset bool      `json:"force_password_reset"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// UnknownUserLabel is rendered wherever a dangling user reference
// cannot be resolved.
const UnknownUserLabel = "unknown user"
