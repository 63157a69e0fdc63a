package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"thesisguard/internal/services"
)

// respondError maps the pipeline's error taxonomy to HTTP statuses. The
// triggering message is surfaced verbatim; nothing is swallowed.
func respondError(c *fiber.Ctx, err error) error {
	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": validationErr.Error(),
			"field": validationErr.Field,
		})
	}

	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrUnsupportedMedia):
		status = fiber.StatusUnsupportedMediaType
	case errors.Is(err, services.ErrPayloadTooLarge):
		status = fiber.StatusRequestEntityTooLarge
	case errors.Is(err, services.ErrForbidden):
		status = fiber.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrAlreadyFinalized), errors.Is(err, services.ErrEmailTaken):
		status = fiber.StatusConflict
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrInvalidToken):
		status = fiber.StatusUnauthorized
	}

	if status == fiber.StatusInternalServerError {
		return c.Status(status).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}

	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}
