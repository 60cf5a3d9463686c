package handlers

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/essay-marker/internal/marking"
	"alfredoptarigan/essay-marker/internal/models"
	"alfredoptarigan/essay-marker/internal/repositories"
	"alfredoptarigan/essay-marker/internal/services"
)

// respondError maps a service error to a status and a client-safe body. The
// full error is only logged.
func respondError(c *fiber.Ctx, err error, fallback string) error {
	var verr *marking.ValidationError
	if errors.As(err, &verr) {
		messages := make([]string, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			messages = append(messages, f.Error)
		}
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   strings.Join(messages, "; "),
			Details: verr.Fields,
		})
	}

	switch {
	case errors.Is(err, services.ErrQuotaExceeded):
		return c.Status(fiber.StatusPaymentRequired).JSON(models.ErrorResponse{
			Error: services.PublicMessage(err),
		})
	case errors.Is(err, repositories.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
			Error: "Essay not found",
		})
	}

	var (
		cerr *marking.ConfigurationError
		gerr *marking.GatewayError
		perr *marking.ParseError
	)
	switch {
	case errors.As(err, &cerr):
		log.Printf("❌ Configuration error: %v", cerr)
	case errors.As(err, &gerr):
		log.Printf("❌ Completion gateway error (%s): %v", gerr.Kind, gerr)
	case errors.As(err, &perr):
		log.Printf("❌ Parse error: %v", perr)
	default:
		log.Printf("❌ %s: %v", fallback, err)
	}

	return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
		Error: fallback,
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: msg})
}
