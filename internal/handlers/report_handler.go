package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"thesisguard/internal/models"
	"thesisguard/internal/services"
)

type ReportHandler struct {
	pipeline services.ReviewPipeline
}

func NewReportHandler(pipeline services.ReviewPipeline) *ReportHandler {
	return &ReportHandler{pipeline: pipeline}
}

// HandleGetReport handles GET /theses/:id/report
func (h *ReportHandler) HandleGetReport(c *fiber.Ctx) error {
	account := CurrentAccount(c)

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid submission ID format",
		})
	}

	report, err := h.pipeline.GetReport(c.UserContext(), id, account)
	if err != nil {
		return respondError(c, err)
	}

	sub := report.Submission
	findings := make([]models.FindingResponse, 0, len(report.Findings))
	for _, f := range report.Findings {
		findings = append(findings, models.FindingResponse{
			Passage:    f.Passage,
			Source:     f.Source,
			Similarity: f.Similarity,
			Kind:       string(f.Kind),
		})
	}

	verdicts := report.Verdicts
	if verdicts == nil {
		verdicts = []string{}
	}

	return c.JSON(models.ReportResponse{
		ID:                sub.ID.String(),
		Title:             sub.Title,
		Abstract:          sub.Abstract,
		Faculty:           sub.Faculty,
		Status:            string(sub.Status),
		UploadedAt:        sub.CreatedAt,
		PlagiarismScore:   sub.PlagiarismScore,
		AIPlagiarismScore: sub.AIPlagiarismScore,
		Verdicts:          verdicts,
		Findings:          findings,
	})
}
