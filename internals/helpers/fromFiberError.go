package helper

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// FromFiberError mengubah error dari service (biasanya *fiber.Error)
// menjadi response JSON konsisten. Selain itu fallback ke 500.
func FromFiberError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return JsonError(c, fe.Code, fe.Message)
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return JsonValidationError(c, ValidationMessages(ve))
	}
	return JsonError(c, fiber.StatusInternalServerError, err.Error())
}
