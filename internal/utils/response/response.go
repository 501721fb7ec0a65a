package response

import (
	apperrors "bankcore/internal/errors"

	"github.com/gofiber/fiber/v2"
)

func Success(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(fiber.Map{
		"message": message,
		"data":    data,
	})
}

func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}

// BadRequest writes an INVALID_REQUEST failure.
func BadRequest(c *fiber.Ctx, message string) error {
	return DomainError(c, apperrors.New(apperrors.KindInvalidRequest, message))
}

func Unauthorized(c *fiber.Ctx) error {
	return Error(c, fiber.StatusUnauthorized, "Unauthorized")
}

func Forbidden(c *fiber.Ctx) error {
	return Error(c, fiber.StatusForbidden, "Insufficient permissions")
}

// DomainError writes a classified failure as {"error", "error_kind"}.
func DomainError(c *fiber.Ctx, err error) error {
	kind := apperrors.KindOf(err)
	return c.Status(StatusFor(kind)).JSON(fiber.Map{
		"error":      apperrors.Message(err),
		"error_kind": kind,
	})
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindInvalidRequest:
		return fiber.StatusBadRequest
	case apperrors.KindAccountNotFound:
		return fiber.StatusNotFound
	case apperrors.KindInsufficientFunds:
		return fiber.StatusUnprocessableEntity
	case apperrors.KindConflict:
		return fiber.StatusConflict
	case apperrors.KindTimeout:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}
