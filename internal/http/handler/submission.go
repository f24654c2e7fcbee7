package handler

import (
	"github.com/gofiber/fiber/v2"

	"whistlebox/internal/service"
)

// FinalizeSubmission turns a completed submission into tips. The receipt is
// in the response body and nowhere else.
func FinalizeSubmission(l service.LifecycleService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var sub service.Submission
		if err := c.BodyParser(&sub); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		res, err := l.Finalize(c.UserContext(), sub)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}
