package middleware

import (
	"errors"
	"strings"

	"go-pos-inventory/internal/model"
	"go-pos-inventory/internal/service"

	"github.com/gofiber/fiber/v2"
)

const (
	localActor      = "actor"
	localPrivileges = "user_privileges"
)

// RequireAuth is middleware that validates JWT token and sets the actor in context
func RequireAuth(auth service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Get Authorization header
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing authorization token"})
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid authorization format. Use: Bearer <token>"})
		}

		actor, privileges, err := auth.Authenticate(c.UserContext(), parts[1])
		if err != nil {
			switch {
			case errors.Is(err, service.ErrTransientStore):
				c.Set(fiber.HeaderRetryAfter, "1")
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Service temporarily unavailable"})
			case errors.Is(err, service.ErrSessionReplaced):
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Session expired (logged in on another device)"})
			case errors.Is(err, service.ErrUserInactive):
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User account is inactive"})
			default:
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
			}
		}

		// Set actor for downstream handlers
		c.Locals(localActor, *actor)
		c.Locals(localPrivileges, privileges)

		return c.Next()
	}
}

// Actor returns the authenticated identity, or the zero Actor on public routes.
func Actor(c *fiber.Ctx) model.Actor {
	if actor, ok := c.Locals(localActor).(model.Actor); ok {
		return actor
	}
	return model.Actor{}
}

// HasPrivilege reports whether the authenticated user holds code.
func HasPrivilege(c *fiber.Ctx, code string) bool {
	privileges, _ := c.Locals(localPrivileges).([]string)
	for _, p := range privileges {
		if p == code {
			return true
		}
	}
	return false
}

// RequirePrivilege checks if the authenticated user has the required privilege
func RequirePrivilege(requiredPrivilege string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := c.Locals(localPrivileges).([]string); !ok {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "No privileges found"})
		}
		if HasPrivilege(c, requiredPrivilege) {
			return c.Next()
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Forbidden: requires '" + requiredPrivilege + "' privilege",
		})
	}
}

// RequireAnyPrivilege checks if the user has at least one of the specified privileges
func RequireAnyPrivilege(requiredPrivileges ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := c.Locals(localPrivileges).([]string); !ok {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "No privileges found"})
		}
		for _, reqPriv := range requiredPrivileges {
			if HasPrivilege(c, reqPriv) {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Forbidden: requires one of " + strings.Join(requiredPrivileges, ", ") + " privileges",
		})
	}
}
