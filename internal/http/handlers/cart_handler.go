package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "eclub/internal/log"
	"eclub/internal/services"
	"eclub/internal/validate"
)

type CartHandler struct {
	Cart   *services.CartService
	MaxQty int
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	sid := ensureSID(c)
	cv, err := h.Cart.View(c.UserContext(), sid)
	if err != nil {
		return fail(c, "cart.view", err, nil)
	}
	return render(c, "Cart/Index", fiber.Map{"cart": cv})
}

func (h *CartHandler) Add(c *fiber.Ctx) error {
	sid := ensureSID(c)
	pid, ok := validate.ProductID(c.FormValue("productId"))
	if !ok {
		return invalid(c, "cart.add", map[string]string{"productId": "Choose a product to add"})
	}
	qty := validate.Qty(c.FormValue("qty"), h.MaxQty)

	cv, err := h.Cart.Add(c.UserContext(), sid, pid, qty)
	if err != nil {
		return fail(c, "cart.add", err, map[string]any{"product": pid})
	}
	applog.Info(c, "cart.add", map[string]any{"product": pid, "qty": qty, "total_items": cv.TotalItems})
	return redirect(c, "/cart")
}

func (h *CartHandler) UpdateQuantity(c *fiber.Ctx) error {
	sid := ensureSID(c)
	pid, ok := validate.ProductID(c.Params("id"))
	if !ok {
		return renderError(c, fiber.StatusNotFound, "We could not find that entry")
	}
	// Values below one are floored to one by the cart; removal has its own route.
	qty := validate.Qty(c.FormValue("quantity"), h.MaxQty)
	if _, err := h.Cart.UpdateQuantity(c.UserContext(), sid, pid, qty); err != nil {
		return fail(c, "cart.quantity", err, map[string]any{"product": pid})
	}
	applog.Info(c, "cart.quantity", map[string]any{"product": pid, "qty": qty})
	return redirect(c, "/cart")
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	sid := ensureSID(c)
	pid, ok := validate.ProductID(c.Params("id"))
	if !ok {
		return renderError(c, fiber.StatusNotFound, "We could not find that entry")
	}
	if _, err := h.Cart.Remove(c.UserContext(), sid, pid); err != nil {
		return fail(c, "cart.remove", err, map[string]any{"product": pid})
	}
	applog.Info(c, "cart.remove", map[string]any{"product": pid})
	return redirect(c, "/cart")
}

func (h *CartHandler) Clear(c *fiber.Ctx) error {
	sid := ensureSID(c)
	if _, err := h.Cart.Clear(c.UserContext(), sid); err != nil {
		return fail(c, "cart.clear", err, nil)
	}
	applog.Info(c, "cart.clear", nil)
	return redirect(c, "/cart")
}
