package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"eclub/internal/config"
)

// page is the object the client-side router boots from.
type page struct {
	Component string    `json:"component"`
	Props     fiber.Map `json:"props"`
	URL       string    `json:"url"`
	Version   string    `json:"version"`
}

func isInertia(c *fiber.Ctx) bool { return c.Get("X-Inertia") == "true" }

// Shared stores the resolved site settings for render and forces a full
// reload when the client runs an outdated asset bundle.
func Shared(s config.Settings) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("settings", s)
		if isInertia(c) && c.Method() == fiber.MethodGet {
			if v := c.Get("X-Inertia-Version"); v != "" && v != s.AssetVersion {
				c.Set("X-Inertia-Location", c.OriginalURL())
				return c.SendStatus(fiber.StatusConflict)
			}
		}
		return c.Next()
	}
}

func render(c *fiber.Ctx, component string, props fiber.Map) error {
	if props == nil {
		props = fiber.Map{}
	}
	// Inject user if present
	if u := c.Locals("user"); u != nil {
		props["user"] = u
	}
	// Pick up the token the CSRF middleware put into Locals
	tok, _ := c.Locals("CSRFToken").(string)
	if tok == "" {
		tok = c.Cookies("csrf_")
	}
	if tok != "" {
		props["csrfToken"] = tok
	}
	version := ""
	if s, ok := c.Locals("settings").(config.Settings); ok {
		version = s.AssetVersion
		props["site"] = fiber.Map{"name": s.SiteName, "currency": s.Currency.String()}
	}
	p := page{Component: component, Props: props, URL: c.OriginalURL(), Version: version}

	c.Vary("X-Inertia")
	if isInertia(c) {
		c.Set("X-Inertia", "true")
		return c.JSON(p)
	}
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.Render("app", fiber.Map{"Page": string(b), "Component": component})
}

// renderError shows a friendly message without internal details.
func renderError(c *fiber.Ctx, status int, msg string) error {
	return render(c.Status(status), "Error", fiber.Map{"status": status, "message": msg})
}

// redirect uses 303 so the follow-up request is always a GET.
func redirect(c *fiber.Ctx, to string) error {
	return c.Redirect(to, fiber.StatusSeeOther)
}
