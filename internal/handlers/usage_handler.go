package handlers

import (
	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/essay-marker/internal/models"
	"alfredoptarigan/essay-marker/internal/services"
)

type UsageHandler struct {
	essayService services.EssayService
}

func NewUsageHandler(essayService services.EssayService) *UsageHandler {
	return &UsageHandler{essayService: essayService}
}

// HandleUsage handles GET /usage
func (h *UsageHandler) HandleUsage(c *fiber.Ctx) error {
	usage, err := h.essayService.Usage(currentUser(c))
	if err != nil {
		return respondError(c, err, "Failed to load usage")
	}

	response := models.UsageResponse{
		Tier:       string(usage.Tier),
		EssaysUsed: usage.EssaysUsed,
	}
	if !usage.Unlimited {
		limit, remaining := usage.Limit, usage.Remaining()
		response.Limit = &limit
		response.Remaining = &remaining
	}

	return c.JSON(response)
}
