package handlers

import (
	"github.com/gofiber/fiber/v2"

	"eclub/internal/domain"
	applog "eclub/internal/log"
	"eclub/internal/repos"
	"eclub/internal/services"
	"eclub/internal/validate"
)

type OrderHandler struct {
	Checkout *services.CheckoutService
	Repo     *repos.OrderRepo
}

func cardForm(c *fiber.Ctx) domain.CardDetails {
	return domain.CardDetails{
		CardNumber:     c.FormValue("cardNumber"),
		CardHolderName: c.FormValue("cardHolderName"),
		ExpiryMonth:    c.FormValue("expiryMonth"),
		ExpiryYear:     c.FormValue("expiryYear"),
		CVV:            c.FormValue("cvv"),
	}
}

// Card answers the card form while the customer types: formatted number,
// detected brand and per-field messages.
func (h *OrderHandler) Card(c *fiber.Ctx) error {
	sid := ensureSID(c)
	p, err := h.Checkout.PreviewCard(c.UserContext(), sid, cardForm(c))
	if err != nil {
		applog.Error(c, "checkout.card.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not check your card right now"})
	}
	if len(p.Errors) > 0 {
		applog.Info(c, "checkout.card.invalid", map[string]any{"fields": p.Errors.Fields(), "brand": p.Brand})
	}
	return c.JSON(p)
}

func (h *OrderHandler) Show(c *fiber.Ctx) error {
	sid := ensureSID(c)
	v, err := h.Checkout.View(c.UserContext(), sid, currentUserID(c))
	if err != nil {
		return fail(c, "checkout.load", err, nil)
	}
	return render(c, "Checkout/Index", fiber.Map{
		"cart":      v.Cart,
		"addresses": v.Addresses,
		"address":   v.Address,
		"draft":     v.Draft,
	})
}

func (h *OrderHandler) Place(c *fiber.Ctx) error {
	sid := ensureSID(c)
	in := services.PlaceInput{SessionID: sid, Card: cardForm(c)}

	if u := currentUser(c); u != nil {
		in.UserID, in.Email = u.ID, u.Email
	} else {
		email, ok := validate.Email(c.FormValue("email"))
		if !ok {
			return invalid(c, "order.place", map[string]string{"email": "Enter a valid email address"})
		}
		in.Email = email
	}

	if id := c.FormValue("addressId"); id != "" {
		aid, ok := validate.ID(id)
		if !ok {
			return invalid(c, "order.place", map[string]string{"addressId": "Choose a saved address"})
		}
		in.AddressID = aid
	} else if _, typed := formField(c, "address"); typed || in.UserID == "" {
		patch, errs := parseAddress(c, false)
		if len(errs) > 0 {
			return invalid(c, "order.place", errs)
		}
		a := patch.Apply(domain.Address{})
		in.Address = &a
	}

	o, lines, err := h.Checkout.Place(c.UserContext(), in)
	if err != nil {
		return fail(c, "order.place", err, nil)
	}
	applog.Audit(c, "order.place", map[string]any{
		"order_id": o.ID,
		"total":    o.Total.StringFixed(2),
		"currency": o.Currency,
		"lines":    len(lines),
		"brand":    o.CardBrand,
	})
	return redirect(c, "/order/"+o.ID)
}

func (h *OrderHandler) View(c *fiber.Ctx) error {
	oid, ok := validate.ID(c.Params("id"))
	if !ok {
		return renderError(c, fiber.StatusNotFound, "Order not found")
	}
	o, lines, err := h.Repo.Get(c.UserContext(), oid)
	if err != nil {
		return renderError(c, fiber.StatusNotFound, "Order not found")
	}

	// Ownership check: placing session, the linked user, or an admin.
	sid := c.Cookies("sid")
	u := currentUser(c)
	owner := (sid != "" && sid == o.SessionID) || (u != nil && o.UserID != "" && u.ID == o.UserID)
	if !owner && (u == nil || u.Role != "ADMIN") {
		applog.Security(c, "access.denied.order", map[string]any{"order_id": oid})
		return renderError(c, fiber.StatusNotFound, "Order not found")
	}
	return render(c, "Orders/Show", fiber.Map{"order": o, "lines": lines})
}

// History lists orders for the current logged-in user.
func (h *OrderHandler) History(c *fiber.Ctx) error {
	u := currentUser(c)
	if u == nil {
		return renderError(c, fiber.StatusNotFound, "Orders not available")
	}
	orders, err := h.Repo.ListByUser(c.UserContext(), u.ID)
	if err != nil {
		return fail(c, "orders.history", err, nil)
	}
	// Fallback: show session orders if none linked to user (e.g., pre-login)
	if len(orders) == 0 {
		if sid := c.Cookies("sid"); sid != "" {
			if sessOrders, err := h.Repo.ListBySession(c.UserContext(), sid); err == nil && len(sessOrders) > 0 {
				orders = sessOrders
			}
		}
	}
	return render(c, "Orders/Index", fiber.Map{"orders": orders})
}
