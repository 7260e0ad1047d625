package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/facilityworks/helpdesk/internal/domain"
	"github.com/facilityworks/helpdesk/internal/repository"
	apperrors "github.com/facilityworks/helpdesk/pkg/util"
)

const principalKey = "auth_principal"

// Principal is the authenticated caller attached to the request context.
type Principal struct {
	User *domain.User
}

// Middleware authenticates requests via bearer tokens and loads the caller.
func Middleware(tokens *TokenManager, users repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return apperrors.NewUnauthorized("missing authorization header")
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return apperrors.NewUnauthorized("invalid authorization header")
		}

		claims, err := tokens.ParseToken(parts[1])
		if err != nil {
			return apperrors.NewUnauthorized("invalid or expired token")
		}

		user, err := users.GetByID(c.UserContext(), claims.UserID)
		if err != nil {
			return apperrors.NewUnauthorized("unknown subject")
		}
		if !user.Active {
			return apperrors.NewUnauthorized("account disabled")
		}

		c.Locals(principalKey, &Principal{User: user})
		return c.Next()
	}
}

// PrincipalFromContext returns the authenticated principal, if any.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	p, ok := c.Locals(principalKey).(*Principal)
	return p, ok && p != nil && p.User != nil
}
