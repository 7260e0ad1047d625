package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/facilityworks/helpdesk/internal/domain"
	apperrors "github.com/facilityworks/helpdesk/pkg/util"
)

// RequireRole allows only callers holding one of the given roles.
func RequireRole(roles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		for _, role := range roles {
			if principal.User.Role == role {
				return c.Next()
			}
		}
		return apperrors.NewForbidden("insufficient role")
	}
}
