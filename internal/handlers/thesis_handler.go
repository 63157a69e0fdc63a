package handlers

import (
	"fmt"
	"io"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"thesisguard/internal/models"
	"thesisguard/internal/services"
)

type ThesisHandler struct {
	pipeline services.ReviewPipeline
}

func NewThesisHandler(pipeline services.ReviewPipeline) *ThesisHandler {
	return &ThesisHandler{pipeline: pipeline}
}

// HandleUpload handles POST /theses
func (h *ThesisHandler) HandleUpload(c *fiber.Ctx) error {
	account := CurrentAccount(c)

	fileHeader, err := c.FormFile("thesis")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "thesis file is required",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to open uploaded file: %v", err),
		})
	}
	defer file.Close()

	document, err := io.ReadAll(file)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to read uploaded file",
		})
	}

	// AI check defaults to on, matching the upload form.
	checkAI := true
	if v := c.FormValue("check_ai"); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			checkAI = parsed
		}
	}

	sub, err := h.pipeline.Intake(c.UserContext(), account, services.IntakeParams{
		Title:    c.FormValue("title"),
		Abstract: c.FormValue("abstract"),
		Faculty:  c.FormValue("faculty"),
		Filename: fileHeader.Filename,
		Document: document,
		CheckAI:  checkAI,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(models.IntakeResponse{
		ID:     sub.ID.String(),
		Status: string(sub.Status),
	})
}

// HandleList handles GET /theses
func (h *ThesisHandler) HandleList(c *fiber.Ctx) error {
	account := CurrentAccount(c)

	subs, err := h.pipeline.List(c.UserContext(), account)
	if err != nil {
		return respondError(c, err)
	}

	responses := make([]models.SubmissionResponse, 0, len(subs))
	for _, sub := range subs {
		responses = append(responses, toSubmissionResponse(&sub))
	}

	return c.JSON(fiber.Map{
		"theses": responses,
	})
}

// HandleDownload handles GET /theses/:id/download
func (h *ThesisHandler) HandleDownload(c *fiber.Ctx) error {
	account := CurrentAccount(c)

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid submission ID format",
		})
	}

	data, mimeType, err := h.pipeline.Download(c.UserContext(), id, account)
	if err != nil {
		return respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, mimeType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", id.String()))
	return c.Send(data)
}

// HandleDelete handles DELETE /theses/:id
func (h *ThesisHandler) HandleDelete(c *fiber.Ctx) error {
	account := CurrentAccount(c)

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid submission ID format",
		})
	}

	if err := h.pipeline.Delete(c.UserContext(), id, account); err != nil {
		return respondError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func toSubmissionResponse(sub *models.Submission) models.SubmissionResponse {
	return models.SubmissionResponse{
		ID:                sub.ID.String(),
		Title:             sub.Title,
		Faculty:           sub.Faculty,
		Status:            string(sub.Status),
		PlagiarismScore:   sub.PlagiarismScore,
		AIPlagiarismScore: sub.AIPlagiarismScore,
		UploadedAt:        sub.CreatedAt,
	}
}
