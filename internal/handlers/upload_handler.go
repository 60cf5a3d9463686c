package handlers

import (
	"errors"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/essay-marker/internal/models"
	"alfredoptarigan/essay-marker/internal/services"
)

type UploadHandler struct {
	storageService services.StorageService
	pdfParser      services.PDFParserService
	maxFileSize    int64
}

func NewUploadHandler(
	storageService services.StorageService,
	pdfParser services.PDFParserService,
	maxFileSize int64,
) *UploadHandler {
	return &UploadHandler{
		storageService: storageService,
		pdfParser:      pdfParser,
		maxFileSize:    maxFileSize,
	}
}

// HandleUpload handles POST /essays/upload. The PDF is only kept long enough
// to extract its text.
func (h *UploadHandler) HandleUpload(c *fiber.Ctx) error {
	file, err := c.FormFile("essay")
	if err != nil {
		return badRequest(c, "No file uploaded. Please upload your essay as 'essay' (PDF).")
	}

	if file.Size > h.maxFileSize {
		return badRequest(c, fmt.Sprintf("Essay file too large. Max size: %d bytes", h.maxFileSize))
	}

	filename, filePath, err := h.storageService.SaveFile(file, "essay")
	if err != nil {
		if errors.Is(err, services.ErrUnsupportedFile) {
			return badRequest(c, "Only PDF files are supported")
		}
		return respondError(c, err, "Failed to save essay file")
	}
	defer func() {
		if err := h.storageService.DeleteFile(filename); err != nil {
			log.Printf("⚠️  Failed to remove upload %s: %v", filename, err)
		}
	}()

	content, err := h.pdfParser.ExtractText(filePath)
	if err != nil {
		log.Printf("❌ Failed to parse essay PDF: %v", err)
		return c.Status(fiber.StatusUnprocessableEntity).JSON(models.ErrorResponse{
			Error: "Could not read any text from the PDF",
		})
	}

	return c.JSON(models.UploadResponse{
		Filename:  file.Filename,
		Text:      content.Text,
		PageCount: content.PageCount,
	})
}
