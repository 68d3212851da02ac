package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"story-competition/models"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, models.ErrQuotaExceeded):
		return fiber.StatusTooManyRequests
	case errors.Is(err, models.ErrPhaseViolation),
		errors.Is(err, models.ErrDuplicateSubmission),
		errors.Is(err, models.ErrIncompleteScoring):
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

func respondError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	body := fiber.Map{"error": err.Error()}
	if status == fiber.StatusInternalServerError {
		body = fiber.Map{"error": "internal error", "cause": err.Error()}
	}
	return c.Status(status).JSON(body)
}
