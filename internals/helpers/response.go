package helper

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Validate dipakai bersama semua controller.
var Validate = validator.New()

// ValidationMessages: field (json name jika ada) → daftar tag yang gagal.
func ValidationMessages(ve validator.ValidationErrors) map[string][]string {
	out := make(map[string][]string, len(ve))
	for _, fe := range ve {
		key := fe.Field()
		if ns := fe.Namespace(); ns != "" {
			if i := strings.Index(ns, "."); i >= 0 {
				key = ns[i+1:]
			}
		}
		msg := fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		out[key] = append(out[key], msg)
	}
	return out
}

// BindAndValidate: BodyParser + validator dalam satu langkah.
func BindAndValidate(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json: "+err.Error())
	}
	if err := Validate.Struct(dst); err != nil {
		return err
	}
	return nil
}
