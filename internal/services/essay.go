package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"alfredoptarigan/essay-marker/internal/marking"
	"alfredoptarigan/essay-marker/internal/models"
	"alfredoptarigan/essay-marker/internal/repositories"
)

// ErrQuotaExceeded is returned when a free user has used all their essays.
var ErrQuotaExceeded = errors.New("free essay limit reached")

// GenericFailureMessage is what clients see for gateway, parse and
// configuration failures. Details stay in the logs.
const GenericFailureMessage = "Failed to mark essay. Please try again."

// EssayMarker is the marking core. *marking.Marker satisfies it.
type EssayMarker interface {
	MarkEssay(ctx context.Context, req marking.MarkingRequest) (*marking.MarkingResult, error)
}

type EssayService interface {
	// MarkNow marks an essay synchronously and stores it with its feedback.
	MarkNow(ctx context.Context, userID uuid.UUID, req marking.MarkingRequest) (*MarkOutcome, error)
	// Submit stores a queued essay for the worker.
	Submit(ctx context.Context, userID uuid.UUID, req marking.MarkingRequest) (*models.Essay, error)
	// Process marks one queued essay. It is the worker's job function.
	Process(ctx context.Context, essayID uuid.UUID) error
	Get(userID, essayID uuid.UUID) (*models.Essay, *models.EssayFeedback, error)
	List(userID uuid.UUID, limit int) ([]models.Essay, error)
	Usage(userID uuid.UUID) (*Usage, error)
}

type MarkOutcome struct {
	EssayID    uuid.UUID
	FeedbackID uuid.UUID
	Result     *marking.MarkingResult
}

type Usage struct {
	Tier       models.SubscriptionTier
	EssaysUsed int
	Limit      int
	Unlimited  bool
}

func (u Usage) Remaining() int {
	if u.Unlimited || u.EssaysUsed >= u.Limit {
		return 0
	}
	return u.Limit - u.EssaysUsed
}

func (u Usage) Exhausted() bool {
	return !u.Unlimited && u.EssaysUsed >= u.Limit
}

type EssayServiceConfig struct {
	FreeEssayLimit    int
	RetryMaxAttempts  int
	RetryInitialDelay time.Duration
}

type essayService struct {
	essayRepo    repositories.EssayRepository
	feedbackRepo repositories.FeedbackRepository
	profileRepo  repositories.ProfileRepository
	marker       EssayMarker
	guidance     GuidanceRetriever
	cfg          EssayServiceConfig
}

// NewEssayService wires the marking core to storage. guidance may be nil.
func NewEssayService(
	essayRepo repositories.EssayRepository,
	feedbackRepo repositories.FeedbackRepository,
	profileRepo repositories.ProfileRepository,
	marker EssayMarker,
	guidance GuidanceRetriever,
	cfg EssayServiceConfig,
) EssayService {
	if cfg.RetryMaxAttempts < 1 {
		cfg.RetryMaxAttempts = 1
	}
	return &essayService{
		essayRepo:    essayRepo,
		feedbackRepo: feedbackRepo,
		profileRepo:  profileRepo,
		marker:       marker,
		guidance:     guidance,
		cfg:          cfg,
	}
}

func (s *essayService) MarkNow(ctx context.Context, userID uuid.UUID, req marking.MarkingRequest) (*MarkOutcome, error) {
	if err := marking.ValidateMarkingRequest(req); err != nil {
		return nil, err
	}
	if err := s.checkQuota(userID, true); err != nil {
		return nil, err
	}

	log.Printf("🤖 Marking %d-mark essay (%d characters) for user %s", req.Marks, len(req.Essay), userID)
	s.attachGuidance(ctx, &req)

	result, err := s.marker.MarkEssay(ctx, req)
	if err != nil {
		return nil, err
	}
	log.Printf("✅ Marking complete. Score: %g/%d", result.OverallMark, result.TotalMarks)

	essay := newEssay(userID, req, models.StatusCompleted)
	essay.Attempts = 1
	feedback, err := newFeedback(essay, result)
	if err != nil {
		return nil, err
	}
	if err := s.feedbackRepo.CreateWithEssay(essay, feedback); err != nil {
		return nil, fmt.Errorf("failed to save essay: %w", err)
	}
	s.recordUsage(userID)

	return &MarkOutcome{EssayID: essay.ID, FeedbackID: feedback.ID, Result: result}, nil
}

func (s *essayService) Submit(ctx context.Context, userID uuid.UUID, req marking.MarkingRequest) (*models.Essay, error) {
	if err := marking.ValidateMarkingRequest(req); err != nil {
		return nil, err
	}
	if err := s.checkQuota(userID, true); err != nil {
		return nil, err
	}

	essay := newEssay(userID, req, models.StatusQueued)
	if err := s.essayRepo.Create(essay); err != nil {
		return nil, fmt.Errorf("failed to save essay: %w", err)
	}
	return essay, nil
}

func (s *essayService) Process(ctx context.Context, essayID uuid.UUID) error {
	claimed, err := s.essayRepo.Claim(essayID)
	if err != nil {
		return err
	}
	if !claimed {
		log.Printf("⏭️  Essay %s already taken, skipping", essayID)
		return nil
	}

	log.Printf("🔄 Starting marking for essay ID: %s\n", essayID)

	essay, err := s.essayRepo.FindByID(essayID)
	if err != nil {
		s.fail(essayID, GenericFailureMessage)
		return fmt.Errorf("failed to get essay: %w", err)
	}

	// the essay itself is in flight now, so only completed ones count
	if err := s.checkQuota(essay.UserID, false); err != nil {
		log.Printf("❌ Essay %s rejected: %v", essayID, err)
		s.fail(essayID, PublicMessage(err))
		return err
	}

	req := marking.MarkingRequest{
		Question:    essay.Question,
		Marks:       essay.Marks,
		Essay:       essay.Content,
		ExtractText: essay.ExtractText,
	}
	s.attachGuidance(ctx, &req)

	result, err := s.markWithRetry(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			// shutting down: leave it for the poller after restart
			if rerr := s.essayRepo.Requeue(essayID, "interrupted"); rerr != nil {
				log.Printf("⚠️  Failed to requeue essay %s: %v", essayID, rerr)
			}
			return fmt.Errorf("marking interrupted: %w", err)
		}
		s.fail(essayID, PublicMessage(err))
		return fmt.Errorf("failed to mark essay: %w", err)
	}

	log.Println("💾 Saving marking results...")
	if err := s.saveFeedback(essay, result); err != nil {
		log.Printf("❌ %v", err)
		s.fail(essayID, "Failed to save feedback")
		return err
	}
	s.recordUsage(essay.UserID)

	log.Printf("✅ Marking completed successfully for essay ID: %s\n", essayID)
	return nil
}

// markWithRetry repeats the whole marking call on retryable gateway failures
// with exponential backoff. The core itself never retries.
func (s *essayService) markWithRetry(ctx context.Context, req marking.MarkingRequest) (*marking.MarkingResult, error) {
	delay := s.cfg.RetryInitialDelay
	for attempt := 1; ; attempt++ {
		result, err := s.marker.MarkEssay(ctx, req)
		if err == nil {
			return result, nil
		}

		var gerr *marking.GatewayError
		if !errors.As(err, &gerr) || !gerr.Retryable() || attempt >= s.cfg.RetryMaxAttempts {
			return nil, err
		}

		log.Printf("⚠️ Attempt %d failed: %v. Retrying in %s...\n", attempt, err, delay)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}

func (s *essayService) Get(userID, essayID uuid.UUID) (*models.Essay, *models.EssayFeedback, error) {
	essay, err := s.essayRepo.FindByID(essayID)
	if err != nil {
		return nil, nil, err
	}
	if essay.UserID != userID {
		return nil, nil, fmt.Errorf("essay %s: %w", essayID, repositories.ErrNotFound)
	}

	if essay.Status != models.StatusCompleted {
		return essay, nil, nil
	}

	feedback, err := s.feedbackRepo.FindByEssayID(essayID)
	if err != nil {
		return nil, nil, err
	}
	return essay, feedback, nil
}

func (s *essayService) List(userID uuid.UUID, limit int) ([]models.Essay, error) {
	switch {
	case limit <= 0:
		limit = 20
	case limit > 100:
		limit = 100
	}
	return s.essayRepo.ListByUser(userID, limit)
}

func (s *essayService) Usage(userID uuid.UUID) (*Usage, error) {
	profile, err := s.profileRepo.FindOrCreate(userID)
	if err != nil {
		return nil, err
	}
	return &Usage{
		Tier:       profile.SubscriptionTier,
		EssaysUsed: profile.EssaysUsed,
		Limit:      s.cfg.FreeEssayLimit,
		Unlimited:  profile.SubscriptionTier == models.TierPro,
	}, nil
}

// checkQuota fails once a free user's completed essays, plus their queued and
// processing ones when countInFlight is set, reach the limit.
func (s *essayService) checkQuota(userID uuid.UUID, countInFlight bool) error {
	usage, err := s.Usage(userID)
	if err != nil {
		return fmt.Errorf("failed to check usage: %w", err)
	}
	if usage.Unlimited {
		return nil
	}

	used := usage.EssaysUsed
	if countInFlight {
		pending, err := s.essayRepo.CountInFlight(userID)
		if err != nil {
			return fmt.Errorf("failed to check usage: %w", err)
		}
		used += pending
	}
	if used >= usage.Limit {
		return ErrQuotaExceeded
	}
	return nil
}

func (s *essayService) fail(essayID uuid.UUID, msg string) {
	if err := s.essayRepo.UpdateError(essayID, msg); err != nil {
		log.Printf("⚠️  Failed to record error for essay %s: %v", essayID, err)
	}
}

func (s *essayService) recordUsage(userID uuid.UUID) {
	if err := s.profileRepo.IncrementUsage(userID); err != nil {
		log.Printf("⚠️  Failed to record usage for user %s: %v", userID, err)
	}
}

// attachGuidance adds examiner guidance to req. Lookup failures only cost the
// guidance section.
func (s *essayService) attachGuidance(ctx context.Context, req *marking.MarkingRequest) {
	if s.guidance == nil {
		return
	}

	log.Println("🔍 Retrieving examiner guidance...")
	guidance, err := s.guidance.Retrieve(ctx, req.Question)
	if err != nil {
		log.Printf("⚠️  Warning: Failed to retrieve guidance: %v\n", err)
		return
	}
	req.Guidance = guidance
}

func (s *essayService) saveFeedback(essay *models.Essay, result *marking.MarkingResult) error {
	feedback, err := newFeedback(essay, result)
	if err != nil {
		return err
	}
	if err := s.feedbackRepo.SaveResult(feedback); err != nil {
		return fmt.Errorf("failed to save feedback: %w", err)
	}
	return nil
}

func newFeedback(essay *models.Essay, result *marking.MarkingResult) (*models.EssayFeedback, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}

	feedback := &models.EssayFeedback{
		ID:              uuid.New(),
		EssayID:         essay.ID,
		UserID:          essay.UserID,
		AO1Score:        result.AOBreakdown.Knowledge.Score,
		AO2Score:        result.AOBreakdown.Application.Score,
		AO3Score:        result.AOBreakdown.Analysis.Score,
		AO4Score:        result.AOBreakdown.Evaluation.Score,
		TotalScore:      result.OverallMark,
		Percentage:      result.Percentage,
		Level:           result.Level,
		GradePrediction: result.GradeEstimate,
		Result:          payload,
		CreatedAt:       time.Now(),
	}
	return feedback, nil
}

func newEssay(userID uuid.UUID, req marking.MarkingRequest, status models.EssayStatus) *models.Essay {
	now := time.Now()
	return &models.Essay{
		ID:          uuid.New(),
		UserID:      userID,
		Question:    req.Question,
		Marks:       req.Marks,
		Content:     req.Essay,
		ExtractText: req.ExtractText,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// PublicMessage is the client-facing text for a marking failure.
func PublicMessage(err error) string {
	var verr *marking.ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	if errors.Is(err, ErrQuotaExceeded) {
		return "You have used all your free essays. Upgrade to keep marking."
	}
	return GenericFailureMessage
}
