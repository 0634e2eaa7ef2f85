package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/brokendeveloper/banking-app/internal/core/domain"
)

// respondError maps domain errors to HTTP status codes. Anything the
// taxonomy does not cover is a 500 with the detail kept out of the response.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": domain.ErrAccountNotFound.Error()})
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidBarcode),
		errors.Is(err, domain.ErrUnsupportedKeyType):
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": unwrapMessage(err)})
	case errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrSelfTransfer):
		return c.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{"error": unwrapMessage(err)})
	case errors.Is(err, domain.ErrConcurrentConflict):
		return c.Status(http.StatusConflict).JSON(fiber.Map{"error": "operation conflicted, please retry"})
	default:
		slog.Error("unhandled error", "error", err, "path", c.Path())
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}

func unwrapMessage(err error) string {
	for _, sentinel := range []error{
		domain.ErrInvalidAmount,
		domain.ErrInvalidBarcode,
		domain.ErrUnsupportedKeyType,
		domain.ErrInsufficientBalance,
		domain.ErrSelfTransfer,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}
