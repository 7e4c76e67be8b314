// Package respond maps service-layer errors onto the JSON envelope the
// API speaks everywhere: {"success": true, "data": ...} on the happy
// path, {"success": false, "error": ...} otherwise.
package respond

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"greenschool/app/services"
)

func OK(c *fiber.Ctx, data interface{}) error {
	return c.JSON(fiber.Map{"success": true, "data": data})
}

func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": data})
}

func BadRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": msg})
}

// Err translates a service error into the right status code. Unknown
// errors are logged and surfaced as a bare 500 so internals never leak
// to the client.
func Err(c *fiber.Ctx, err error) error {
	var capErr *services.CapacityError
	var invErr *services.InvariantError

	switch {
	case services.IsNotFound(err):
		return status(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrOverpayment),
		errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrInvalidFrequency),
		errors.Is(err, services.ErrValidation):
		return status(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &capErr):
		return status(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, services.ErrConflict):
		return status(c, fiber.StatusConflict, err.Error())
	case errors.As(err, &invErr):
		// An invariant violation is a bug or corrupt data, not a client
		// mistake; it is logged loudly and never blamed on the request.
		log.Printf("INVARIANT VIOLATION on %s %s: %v", c.Method(), c.Path(), err)
		return status(c, fiber.StatusInternalServerError, "Internal server error")
	default:
		log.Printf("internal error on %s %s: %v", c.Method(), c.Path(), err)
		return status(c, fiber.StatusInternalServerError, "Internal server error")
	}
}

func status(c *fiber.Ctx, code int, msg string) error {
	return c.Status(code).JSON(fiber.Map{"success": false, "error": msg})
}
