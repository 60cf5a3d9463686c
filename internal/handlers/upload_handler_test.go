package handlers

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/essay-marker/internal/models"
	"alfredoptarigan/essay-marker/internal/services"
)

type fakePDFParser struct {
	content *services.PDFContent
	err     error
	seen    string
}

func (p *fakePDFParser) ExtractText(filePath string) (*services.PDFContent, error) {
	p.seen = filePath
	return p.content, p.err
}

func uploadRequest(t *testing.T, field, filename string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/upload", &buf)
	req.Header.Set(fiber.HeaderContentType, mw.FormDataContentType())
	return req
}

func uploadApp(t *testing.T, parser services.PDFParserService, maxSize int64) (*fiber.App, string) {
	dir := t.TempDir()
	storage := services.NewStorageService(dir)
	app := newTestApp()
	app.Post("/upload", NewUploadHandler(storage, parser, maxSize).HandleUpload)
	return app, dir
}

func TestHandleUpload_ExtractsAndCleansUp(t *testing.T) {
	parser := &fakePDFParser{content: &services.PDFContent{Text: "First paragraph.\n\nSecond.", PageCount: 2}}
	app, dir := uploadApp(t, parser, 1<<20)

	resp, err := app.Test(uploadRequest(t, "essay", "my essay.pdf", []byte("%PDF-1.4")))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body models.UploadResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, "my essay.pdf", body.Filename)
	assert.Equal(t, 2, body.PageCount)
	assert.Equal(t, "First paragraph.\n\nSecond.", body.Text)

	assert.NotEmpty(t, parser.seen)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHandleUpload_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		filename string
		data     []byte
		parseErr error
		status   int
	}{
		{name: "wrong field", field: "file", filename: "a.pdf", data: []byte("x"), status: fiber.StatusBadRequest},
		{name: "not a pdf", field: "essay", filename: "a.docx", data: []byte("x"), status: fiber.StatusBadRequest},
		{name: "too large", field: "essay", filename: "a.pdf", data: bytes.Repeat([]byte("x"), 64), status: fiber.StatusBadRequest},
		{name: "unreadable pdf", field: "essay", filename: "a.pdf", data: []byte("x"), parseErr: errors.New("no text content found in PDF"), status: fiber.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := &fakePDFParser{err: tt.parseErr, content: &services.PDFContent{Text: "ok"}}
			app, dir := uploadApp(t, parser, 32)

			resp, err := app.Test(uploadRequest(t, tt.field, tt.filename, tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}
