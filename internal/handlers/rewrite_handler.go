package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/essay-marker/internal/marking"
	"alfredoptarigan/essay-marker/internal/models"
)

// SentenceRewriter is satisfied by *marking.Marker.
type SentenceRewriter interface {
	RewriteSentence(ctx context.Context, req marking.RewriteRequest) (*marking.SentenceRewrite, error)
}

type RewriteHandler struct {
	rewriter SentenceRewriter
}

func NewRewriteHandler(rewriter SentenceRewriter) *RewriteHandler {
	return &RewriteHandler{rewriter: rewriter}
}

// HandleRewrite handles POST /sentences/rewrite
func (h *RewriteHandler) HandleRewrite(c *fiber.Ctx) error {
	var req marking.RewriteRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request payload")
	}

	rewrite, err := h.rewriter.RewriteSentence(c.UserContext(), req)
	if err != nil {
		return respondError(c, err, "Failed to rewrite sentence. Please try again.")
	}

	return c.JSON(models.RewriteResponse{
		Success: true,
		Result:  rewrite,
	})
}
