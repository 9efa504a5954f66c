package handlers

import (
	"errors"
	"sort"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	applog "eclub/internal/log"
	"eclub/internal/payment"
	"eclub/internal/services"
	"eclub/internal/store"
	"eclub/internal/upload"
)

// fail maps service errors onto statuses and friendly messages. Only
// unexpected errors are logged at error level; their text never reaches the client.
func fail(c *fiber.Ctx, action string, err error, fields map[string]any) error {
	var fe payment.FieldErrors
	switch {
	case errors.As(err, &fe):
		return invalid(c, action, fe)
	case errors.Is(err, services.ErrProductNotFound):
		return renderError(c, fiber.StatusNotFound, "This item is no longer available")
	case errors.Is(err, store.ErrNotFound):
		return renderError(c, fiber.StatusNotFound, "We could not find that entry")
	case errors.Is(err, services.ErrEmptyCart):
		return renderError(c, fiber.StatusBadRequest, "Your cart is empty")
	case errors.Is(err, services.ErrNoAddress):
		return renderError(c, fiber.StatusBadRequest, "Please choose a shipping address")
	case errors.Is(err, upload.ErrTooLarge), errors.Is(err, upload.ErrUnsupportedType), errors.Is(err, upload.ErrEmpty):
		applog.Security(c, action+".rejected", map[string]any{"reason": err.Error()})
		return c.Status(uploadStatus(err)).JSON(fiber.Map{"error": uploadMessage(err)})
	}
	applog.Error(c, action+".fail", err, fields)
	return renderError(c, fiber.StatusInternalServerError, "Something went wrong. Please try again.")
}

// invalid answers a form submission with its field errors.
func invalid(c *fiber.Ctx, action string, errs map[string]string) error {
	fields := make([]string, 0, len(errs))
	for k := range errs {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	applog.Security(c, action+".invalid", map[string]any{"fields": fields})
	return render(c.Status(fiber.StatusUnprocessableEntity), "Error", fiber.Map{
		"status":  fiber.StatusUnprocessableEntity,
		"message": "Please check the highlighted fields.",
		"errors":  errs,
	})
}

// ErrorHandler is the app-wide fallback: log the cause, show a friendly page.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Something went wrong. Please try again."
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		code = fe.Code
		msg = utils.StatusMessage(code)
	}
	applog.Error(c, "server.error", err, map[string]any{"status": code})
	if rerr := renderError(c, code, msg); rerr != nil {
		return c.Status(code).SendString(msg)
	}
	return nil
}

func NotFound(c *fiber.Ctx) error {
	return renderError(c, fiber.StatusNotFound, "Page not found")
}
