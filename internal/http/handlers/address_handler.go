package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"eclub/internal/domain"
	applog "eclub/internal/log"
	"eclub/internal/services"
	"eclub/internal/validate"
)

// AddressHandler serves the signed-in user's address book. Routes are
// mounted behind RequireUser.
type AddressHandler struct {
	Addr *services.AddressService
}

func formBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// formField reports whether key was submitted at all, even empty.
func formField(c *fiber.Ctx, key string) (string, bool) {
	v := c.FormValue(key)
	return v, v != "" || c.Request().PostArgs().Has(key)
}

type addressField struct {
	key   string
	check func(string) (string, bool)
	msg   string
}

var addressFields = []addressField{
	{"name", validate.Name, "Enter the recipient's name"},
	{"phone", validate.Phone, "Enter a valid phone number"},
	{"address", validate.Line, "Enter a street address"},
	{"city", validate.Line, "Enter a city"},
	{"postalCode", validate.PostalCode, "Enter a valid postal code"},
}

// parseAddress reads the address form. With partial set, missing fields are
// left nil in the patch instead of being reported.
func parseAddress(c *fiber.Ctx, partial bool) (domain.AddressPatch, map[string]string) {
	var p domain.AddressPatch
	errs := map[string]string{}
	for _, f := range addressFields {
		raw, present := formField(c, f.key)
		if !present && partial {
			continue
		}
		v, ok := f.check(raw)
		if !ok {
			errs[f.key] = f.msg
			continue
		}
		switch f.key {
		case "name":
			p.Name = &v
		case "phone":
			p.Phone = &v
		case "address":
			p.Address = &v
		case "city":
			p.City = &v
		case "postalCode":
			p.PostalCode = &v
		}
	}
	if raw, present := formField(c, "label"); present || !partial {
		l := domain.ParseAddressLabel(strings.ToLower(strings.TrimSpace(raw)))
		p.Label = &l
	}
	if raw, present := formField(c, "isDefault"); present || !partial {
		d := formBool(raw)
		p.IsDefault = &d
	}
	return p, errs
}

func (h *AddressHandler) List(c *fiber.Ctx) error {
	v, err := h.Addr.List(c.UserContext(), currentUserID(c))
	if err != nil {
		return fail(c, "address.list", err, nil)
	}
	return render(c, "Account/Addresses", fiber.Map{"addresses": v.Addresses, "defaultId": v.DefaultID})
}

func (h *AddressHandler) Create(c *fiber.Ctx) error {
	patch, errs := parseAddress(c, false)
	if len(errs) > 0 {
		return invalid(c, "address.add", errs)
	}
	a, _, err := h.Addr.Add(c.UserContext(), currentUserID(c), patch.Apply(domain.Address{}))
	if err != nil {
		return fail(c, "address.add", err, nil)
	}
	applog.Audit(c, "address.add", map[string]any{"address_id": a.ID, "default": a.IsDefault})
	return redirect(c, "/account/addresses")
}

func (h *AddressHandler) Update(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return renderError(c, fiber.StatusNotFound, "We could not find that entry")
	}
	patch, errs := parseAddress(c, true)
	if len(errs) > 0 {
		return invalid(c, "address.update", errs)
	}
	if _, err := h.Addr.Update(c.UserContext(), currentUserID(c), id, patch); err != nil {
		return fail(c, "address.update", err, map[string]any{"address_id": id})
	}
	applog.Audit(c, "address.update", map[string]any{"address_id": id})
	return redirect(c, "/account/addresses")
}

func (h *AddressHandler) Delete(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return renderError(c, fiber.StatusNotFound, "We could not find that entry")
	}
	if _, err := h.Addr.Remove(c.UserContext(), currentUserID(c), id); err != nil {
		return fail(c, "address.delete", err, map[string]any{"address_id": id})
	}
	applog.Audit(c, "address.delete", map[string]any{"address_id": id})
	return redirect(c, "/account/addresses")
}

func (h *AddressHandler) SetDefault(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return renderError(c, fiber.StatusNotFound, "We could not find that entry")
	}
	if _, err := h.Addr.SetDefault(c.UserContext(), currentUserID(c), id); err != nil {
		return fail(c, "address.default", err, map[string]any{"address_id": id})
	}
	applog.Audit(c, "address.default", map[string]any{"address_id": id})
	return redirect(c, "/account/addresses")
}
