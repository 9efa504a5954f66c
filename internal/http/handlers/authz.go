package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "eclub/internal/log"
	"eclub/internal/services"
)

// LoadUser attaches the signed-in user, if any, for pages and log lines.
func LoadUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if sid := c.Cookies("sid"); sid != "" {
			if u, err := auth.CurrentUser(sid); err == nil && u != nil {
				c.Locals("user", u)
			}
		}
		return c.Next()
	}
}

// RequireUser enforces that a user is logged in; otherwise redirect to login.
func RequireUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies("sid")
		if sid == "" {
			return redirect(c, "/login")
		}
		u, err := auth.CurrentUser(sid)
		if err != nil || u == nil {
			applog.Security(c, "access.denied.user", map[string]any{"path": c.Path()})
			return redirect(c, "/login")
		}
		c.Locals("user", u)
		return c.Next()
	}
}
