package helper

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// FromFiberError mengubah *fiber.Error (mis. dari helper token) menjadi JsonError.
// Jika bukan *fiber.Error, fallback ke 500 tanpa membocorkan pesan asli.
func FromFiberError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return JsonError(c, fe.Code, fe.Message)
	}
	return JsonError(c, fiber.StatusInternalServerError, "")
}

// ErrorHandler dipasang di fiber.Config agar semua error keluar dengan shape yang sama.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return FromFiberError(c, err)
}
