package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "eclub/internal/log"
	"eclub/internal/services"
	"eclub/internal/validate"
)

type WishlistHandler struct {
	Wish *services.WishlistService
}

func (h *WishlistHandler) List(c *fiber.Ctx) error {
	sid := ensureSID(c)
	items, err := h.Wish.List(c.UserContext(), sid)
	if err != nil {
		return fail(c, "wishlist.list", err, nil)
	}
	return render(c, "Wishlist/Index", fiber.Map{"items": items})
}

func (h *WishlistHandler) Save(c *fiber.Ctx) error {
	sid := ensureSID(c)
	pid, ok := validate.ProductID(c.FormValue("productId"))
	if !ok {
		return invalid(c, "wishlist.save", map[string]string{"productId": "Choose a product to save"})
	}
	if _, err := h.Wish.Save(c.UserContext(), sid, pid); err != nil {
		return fail(c, "wishlist.save", err, map[string]any{"product": pid})
	}
	applog.Audit(c, "wishlist.save", map[string]any{"product": pid})
	return redirect(c, "/wishlist")
}

func (h *WishlistHandler) Unsave(c *fiber.Ctx) error {
	sid := ensureSID(c)
	pid, ok := validate.ProductID(c.FormValue("productId"))
	if !ok {
		return invalid(c, "wishlist.unsave", map[string]string{"productId": "Choose a product to remove"})
	}
	if _, err := h.Wish.Unsave(c.UserContext(), sid, pid); err != nil {
		return fail(c, "wishlist.unsave", err, map[string]any{"product": pid})
	}
	applog.Audit(c, "wishlist.unsave", map[string]any{"product": pid})
	return redirect(c, "/wishlist")
}

// Toggle backs the heart button; it answers JSON so the page need not reload.
func (h *WishlistHandler) Toggle(c *fiber.Ctx) error {
	sid := ensureSID(c)
	pid, ok := validate.ProductID(c.FormValue("productId"))
	if !ok {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Choose a product"})
	}
	saved, err := h.Wish.Toggle(c.UserContext(), sid, pid)
	if errors.Is(err, services.ErrProductNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "This item is no longer available"})
	}
	if err != nil {
		applog.Error(c, "wishlist.toggle.fail", err, map[string]any{"product": pid})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not update your wishlist"})
	}
	applog.Audit(c, "wishlist.toggle", map[string]any{"product": pid, "saved": saved})
	return c.JSON(fiber.Map{"productId": pid, "saved": saved})
}

func (h *WishlistHandler) Clear(c *fiber.Ctx) error {
	sid := ensureSID(c)
	if _, err := h.Wish.Clear(c.UserContext(), sid); err != nil {
		return fail(c, "wishlist.clear", err, nil)
	}
	applog.Audit(c, "wishlist.clear", nil)
	return redirect(c, "/wishlist")
}
