package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"loomline/internal/domain"
	"loomline/internal/identity"
	applog "loomline/internal/log"
)

func bearerToken(c *fiber.Ctx) string {
	h := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(h[len("Bearer "):])
	}
	return ""
}

// RequireAuth resolves the bearer token into a handle and stores it in
// locals. Degraded handles pass through; sensitive routes decide for
// themselves whether degraded is acceptable.
func RequireAuth(id *identity.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		h, err := id.Resolve(bearerToken(c))
		if err != nil {
			applog.Security(c, "auth.reject", map[string]any{"reason": err.Error()})
			return writeErr(c, err)
		}
		c.Locals("handle", h)
		c.Locals("email", h.Email)
		return c.Next()
	}
}

func RequireAdmin(id *identity.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		h, err := id.Resolve(bearerToken(c))
		if err != nil {
			return writeErr(c, err)
		}
		if err := id.Authorize(h, domain.RoleAdmin); err != nil {
			applog.Security(c, "access.denied.admin", map[string]any{"email": h.Email, "degraded": h.Degraded})
			return writeErr(c, err)
		}
		c.Locals("handle", h)
		c.Locals("email", h.Email)
		return c.Next()
	}
}

func currentHandle(c *fiber.Ctx) domain.Handle {
	h, _ := c.Locals("handle").(domain.Handle)
	return h
}
