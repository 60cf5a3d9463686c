package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/essay-marker/internal/marking"
	"alfredoptarigan/essay-marker/internal/models"
	"alfredoptarigan/essay-marker/internal/services"
)

type fakeEssayService struct {
	markOutcome *services.MarkOutcome
	markErr     error
	submitted   *models.Essay
	submitErr   error
	essay       *models.Essay
	feedback    *models.EssayFeedback
	getErr      error
	list        []models.Essay
	listLimit   int
	usage       *services.Usage

	lastUser uuid.UUID
	lastReq  marking.MarkingRequest
}

func (f *fakeEssayService) MarkNow(_ context.Context, userID uuid.UUID, req marking.MarkingRequest) (*services.MarkOutcome, error) {
	f.lastUser, f.lastReq = userID, req
	return f.markOutcome, f.markErr
}

func (f *fakeEssayService) Submit(_ context.Context, userID uuid.UUID, req marking.MarkingRequest) (*models.Essay, error) {
	f.lastUser, f.lastReq = userID, req
	return f.submitted, f.submitErr
}

func (f *fakeEssayService) Process(context.Context, uuid.UUID) error { return nil }

func (f *fakeEssayService) Get(userID, _ uuid.UUID) (*models.Essay, *models.EssayFeedback, error) {
	f.lastUser = userID
	return f.essay, f.feedback, f.getErr
}

func (f *fakeEssayService) List(userID uuid.UUID, limit int) ([]models.Essay, error) {
	f.lastUser, f.listLimit = userID, limit
	return f.list, nil
}

func (f *fakeEssayService) Usage(userID uuid.UUID) (*services.Usage, error) {
	f.lastUser = userID
	return f.usage, nil
}

type fakeWorker struct {
	enqueued []uuid.UUID
}

func (w *fakeWorker) Start(context.Context)        {}
func (w *fakeWorker) Stop()                        {}
func (w *fakeWorker) EnqueueJob(essayID uuid.UUID) { w.enqueued = append(w.enqueued, essayID) }

type fakeRewriter struct {
	result *marking.SentenceRewrite
	err    error
}

func (r *fakeRewriter) RewriteSentence(context.Context, marking.RewriteRequest) (*marking.SentenceRewrite, error) {
	return r.result, r.err
}

func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{DisableStartupMessage: true})
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, v), string(body))
}
