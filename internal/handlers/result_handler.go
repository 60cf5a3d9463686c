package handlers

import (
	"encoding/json"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/essay-marker/internal/marking"
	"alfredoptarigan/essay-marker/internal/models"
	"alfredoptarigan/essay-marker/internal/services"
)

type ResultHandler struct {
	essayService services.EssayService
}

func NewResultHandler(essayService services.EssayService) *ResultHandler {
	return &ResultHandler{
		essayService: essayService,
	}
}

// HandleGetEssay handles GET /essays/:id
func (h *ResultHandler) HandleGetEssay(c *fiber.Ctx) error {
	essayID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid essay ID format")
	}

	essay, feedback, err := h.essayService.Get(currentUser(c), essayID)
	if err != nil {
		return respondError(c, err, "Failed to load essay")
	}

	response := models.EssayResultResponse{
		ID:        essay.ID.String(),
		Status:    string(essay.Status),
		Question:  essay.Question,
		Marks:     essay.Marks,
		CreatedAt: essay.CreatedAt,
	}

	if essay.Status == models.StatusCompleted && feedback != nil {
		var result marking.MarkingResult
		if err := json.Unmarshal(feedback.Result, &result); err != nil {
			log.Printf("❌ Stored result for essay %s is unreadable: %v", essay.ID, err)
			return respondError(c, err, "Failed to load essay")
		}
		response.FeedbackID = feedback.ID.String()
		response.Result = &result
	}

	if essay.Status == models.StatusFailed {
		response.ErrorMessage = essay.ErrorMessage
	}

	return c.JSON(response)
}

// HandleListEssays handles GET /essays
func (h *ResultHandler) HandleListEssays(c *fiber.Ctx) error {
	essays, err := h.essayService.List(currentUser(c), c.QueryInt("limit", 20))
	if err != nil {
		return respondError(c, err, "Failed to load essays")
	}

	summaries := make([]models.EssaySummary, 0, len(essays))
	for _, e := range essays {
		summary := models.EssaySummary{
			ID:        e.ID.String(),
			Question:  e.Question,
			Marks:     e.Marks,
			Status:    string(e.Status),
			CreatedAt: e.CreatedAt,
		}
		if e.Feedback != nil {
			overall, pct := e.Feedback.TotalScore, e.Feedback.Percentage
			summary.OverallMark = &overall
			summary.Percentage = &pct
			summary.Level = e.Feedback.Level
		}
		summaries = append(summaries, summary)
	}

	return c.JSON(models.EssayListResponse{Essays: summaries})
}
