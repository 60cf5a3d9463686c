package handlers

import (
	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/essay-marker/internal/marking"
	"alfredoptarigan/essay-marker/internal/models"
	"alfredoptarigan/essay-marker/internal/services"
)

type EssayHandler struct {
	essayService services.EssayService
	worker       services.Worker
}

func NewEssayHandler(essayService services.EssayService, worker services.Worker) *EssayHandler {
	return &EssayHandler{
		essayService: essayService,
		worker:       worker,
	}
}

// HandleMark handles POST /essays/mark
func (h *EssayHandler) HandleMark(c *fiber.Ctx) error {
	var req marking.MarkingRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request payload")
	}

	out, err := h.essayService.MarkNow(c.UserContext(), currentUser(c), req)
	if err != nil {
		return respondError(c, err, services.GenericFailureMessage)
	}

	return c.JSON(models.MarkEssayResponse{
		Success:    true,
		Result:     out.Result,
		FeedbackID: out.FeedbackID.String(),
		EssayID:    out.EssayID.String(),
	})
}

// HandleSubmit handles POST /essays
func (h *EssayHandler) HandleSubmit(c *fiber.Ctx) error {
	var req marking.MarkingRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request payload")
	}

	essay, err := h.essayService.Submit(c.UserContext(), currentUser(c), req)
	if err != nil {
		return respondError(c, err, "Failed to queue essay")
	}

	h.worker.EnqueueJob(essay.ID)

	return c.Status(fiber.StatusAccepted).JSON(models.SubmitEssayResponse{
		ID:     essay.ID.String(),
		Status: string(essay.Status),
	})
}
