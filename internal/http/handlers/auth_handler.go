package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"eclub/internal/log"
	"eclub/internal/services"
	"eclub/internal/validate"
)

type AuthHandler struct {
	Auth *services.AuthService
}

const badLogin = "Invalid email or password"

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	return render(c, "Auth/Login", fiber.Map{"error": ""})
}

func (h *AuthHandler) loginFailed(c *fiber.Ctx, email, reason string) error {
	log.Security(c, "auth.login.fail", map[string]any{"email": email, "reason": reason})
	return render(c.Status(fiber.StatusUnauthorized), "Auth/Login", fiber.Map{"error": badLogin})
}

// Login issues a fresh session id on success so a pre-login id can never
// be replayed as the signed-in session.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	oldSID := c.Cookies("sid")
	email := c.FormValue("email")
	pass := c.FormValue("password")
	if _, ok := validate.Email(email); !ok {
		return h.loginFailed(c, email, "bad_format")
	}
	if !validate.Password(pass) {
		return h.loginFailed(c, email, "bad_password_format")
	}
	sid := uuid.NewString()
	if _, err := h.Auth.Login(sid, email, pass); err != nil {
		return h.loginFailed(c, email, "bad_credentials")
	}
	if err := h.Auth.CarrySession(c.UserContext(), oldSID, sid); err != nil {
		log.Error(c, "auth.login.carry.fail", err, nil)
	}
	setSID(c, sid)

	log.Audit(c, "auth.login.success", map[string]any{"email": email})
	return redirect(c, "/")
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := ensureSID(c)
	_ = h.Auth.Logout(sid)
	expireSID(c)
	log.Audit(c, "auth.logout", map[string]any{"sid": sid})
	return redirect(c, "/")
}

// DeleteAccount removes the signed-in user, their address book and sessions.
func (h *AuthHandler) DeleteAccount(c *fiber.Ctx) error {
	sid := c.Cookies("sid")
	if err := h.Auth.DeleteAccount(sid); err != nil {
		return fail(c, "account.delete", err, nil)
	}
	expireSID(c)
	log.Audit(c, "account.delete", nil)
	return redirect(c, "/")
}
