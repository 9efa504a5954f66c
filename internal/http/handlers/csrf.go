package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"

	applog "eclub/internal/log"
)

const csrfHeader = "X-CSRF-Token"

var errMissingCSRF = errors.New("missing csrf token")

// CSRFExtractor reads the token from the X-CSRF-Token header, used by XHR
// and upload requests, or from the csrf form field.
func CSRFExtractor(c *fiber.Ctx) (string, error) {
	if tok := c.Get(csrfHeader); tok != "" {
		return tok, nil
	}
	if tok := c.FormValue("csrf"); tok != "" {
		return tok, nil
	}
	return "", errMissingCSRF
}

// CSRF is the csrf middleware configured for the storefront forms.
func CSRF(secure bool) fiber.Handler {
	return csrf.New(csrf.Config{
		Extractor:      CSRFExtractor,
		ContextKey:     "csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   secure,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"header": c.Get(csrfHeader) != ""})
			return renderError(c, fiber.StatusForbidden, "Security check failed. Please refresh and try again.")
		},
	})
}

// ExposeCSRF copies the token the middleware generated to where render looks.
func ExposeCSRF(c *fiber.Ctx) error {
	if tok, ok := c.Locals("csrf").(string); ok && tok != "" {
		c.Locals("CSRFToken", tok)
	}
	return c.Next()
}
