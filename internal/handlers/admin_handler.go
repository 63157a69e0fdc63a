package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"thesisguard/internal/models"
	"thesisguard/internal/services"
)

type AdminHandler struct {
	pipeline services.ReviewPipeline
}

func NewAdminHandler(pipeline services.ReviewPipeline) *AdminHandler {
	return &AdminHandler{pipeline: pipeline}
}

// HandleDecision handles POST /theses/:id/decision
func (h *AdminHandler) HandleDecision(c *fiber.Ctx) error {
	account := CurrentAccount(c)

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid submission ID format",
		})
	}

	var req models.DecisionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}

	sub, err := h.pipeline.AdminOverride(c.UserContext(), id, account, services.Decision(req.Decision))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(toSubmissionResponse(sub))
}
