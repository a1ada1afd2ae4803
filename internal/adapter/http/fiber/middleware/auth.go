package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/seu-repo/sigec-route/internal/domain"
	"github.com/seu-repo/sigec-route/internal/ports"
)

// AuthRequired validates the bearer token and stores the caller in locals
// under user_id, user_role and principal.
func AuthRequired(service ports.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing authorization header"})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid authorization header format"})
		}

		principal, err := service.ValidateToken(c.UserContext(), parts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
		}

		c.Locals("user_id", principal.UserID)
		c.Locals("user_role", principal.Role)
		c.Locals("principal", principal)

		return c.Next()
	}
}

// RequireRole rejects callers whose role is not in roles. It must run after AuthRequired.
func RequireRole(roles ...domain.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("user_role").(domain.UserRole)
		for _, r := range roles {
			if r == role {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Insufficient permissions"})
	}
}

// PrincipalFrom returns the caller stored by AuthRequired
func PrincipalFrom(c *fiber.Ctx) (*domain.Principal, bool) {
	p, ok := c.Locals("principal").(*domain.Principal)
	return p, ok
}
