package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"alfredoptarigan/essay-marker/internal/marking"
	"alfredoptarigan/essay-marker/internal/models"
	"alfredoptarigan/essay-marker/internal/repositories"
)

type fakeEssayRepo struct {
	mu        sync.Mutex
	essays    map[uuid.UUID]*models.Essay
	updateErr error
}

func newFakeEssayRepo() *fakeEssayRepo {
	return &fakeEssayRepo{essays: map[uuid.UUID]*models.Essay{}}
}

func (r *fakeEssayRepo) Create(essay *models.Essay) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *essay
	r.essays[essay.ID] = &cp
	return nil
}

func (r *fakeEssayRepo) FindByID(id uuid.UUID) (*models.Essay, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.essays[id]
	if !ok {
		return nil, fmt.Errorf("essay %s: %w", id, repositories.ErrNotFound)
	}
	cp := *e
	return &cp, nil
}

func (r *fakeEssayRepo) ListByUser(userID uuid.UUID, limit int) ([]models.Essay, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Essay
	for _, e := range r.essays {
		if e.UserID == userID && len(out) < limit {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeEssayRepo) Claim(id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.essays[id]
	if !ok || e.Status != models.StatusQueued {
		return false, nil
	}
	e.Status = models.StatusProcessing
	e.Attempts++
	return true, nil
}

func (r *fakeEssayRepo) Requeue(id uuid.UUID, msg string) error {
	return r.set(id, models.StatusQueued, msg)
}

func (r *fakeEssayRepo) UpdateError(id uuid.UUID, msg string) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	return r.set(id, models.StatusFailed, msg)
}

func (r *fakeEssayRepo) set(id uuid.UUID, status models.EssayStatus, msg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.essays[id]
	if !ok {
		return repositories.ErrNotFound
	}
	e.Status = status
	e.ErrorMessage = &msg
	return nil
}

func (r *fakeEssayRepo) FindPendingJobs(limit int) ([]models.Essay, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Essay
	for _, e := range r.essays {
		if e.Status == models.StatusQueued && len(out) < limit {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeEssayRepo) CountInFlight(userID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.essays {
		if e.UserID == userID && (e.Status == models.StatusQueued || e.Status == models.StatusProcessing) {
			n++
		}
	}
	return n, nil
}

func (r *fakeEssayRepo) status(id uuid.UUID) models.EssayStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.essays[id].Status
}

type fakeFeedbackRepo struct {
	essays    *fakeEssayRepo
	mu        sync.Mutex
	feedbacks map[uuid.UUID]*models.EssayFeedback
	err       error
}

func newFakeFeedbackRepo(essays *fakeEssayRepo) *fakeFeedbackRepo {
	return &fakeFeedbackRepo{essays: essays, feedbacks: map[uuid.UUID]*models.EssayFeedback{}}
}

func (r *fakeFeedbackRepo) SaveResult(f *models.EssayFeedback) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	r.feedbacks[f.EssayID] = f
	r.mu.Unlock()
	return r.essays.set(f.EssayID, models.StatusCompleted, "")
}

func (r *fakeFeedbackRepo) CreateWithEssay(e *models.Essay, f *models.EssayFeedback) error {
	if r.err != nil {
		return r.err
	}
	if err := r.essays.Create(e); err != nil {
		return err
	}
	r.mu.Lock()
	r.feedbacks[f.EssayID] = f
	r.mu.Unlock()
	return nil
}

func (r *fakeFeedbackRepo) FindByEssayID(id uuid.UUID) (*models.EssayFeedback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.feedbacks[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return f, nil
}

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*models.Profile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: map[uuid.UUID]*models.Profile{}}
}

func (r *fakeProfileRepo) FindOrCreate(id uuid.UUID) (*models.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		p = &models.Profile{ID: id, SubscriptionTier: models.TierFree}
		r.profiles[id] = p
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProfileRepo) IncrementUsage(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return repositories.ErrNotFound
	}
	p.EssaysUsed++
	return nil
}

func (r *fakeProfileRepo) used(id uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.profiles[id]; ok {
		return p.EssaysUsed
	}
	return 0
}

// scriptedMarker returns the queued errors in order, then succeeds.
type scriptedMarker struct {
	mu       sync.Mutex
	errs     []error
	calls    int
	requests []marking.MarkingRequest
}

func (m *scriptedMarker) MarkEssay(ctx context.Context, req marking.MarkingRequest) (*marking.MarkingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.requests = append(m.requests, req)
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		return nil, err
	}
	return &marking.MarkingResult{
		OverallMark:   18,
		TotalMarks:    req.Marks,
		Percentage:    marking.Percentage(18, req.Marks),
		Level:         "Level 3",
		GradeEstimate: "Grade B",
		AOBreakdown: marking.AOBreakdown{
			Knowledge:   marking.AOScore{Score: 4, Total: 5},
			Application: marking.AOScore{Score: 3, Total: 4},
			Analysis:    marking.AOScore{Score: 5, Total: 6},
			Evaluation:  marking.AOScore{Score: 6, Total: 10},
		},
	}, nil
}

type fakeRetriever struct {
	text string
	err  error
}

func (f fakeRetriever) Retrieve(ctx context.Context, question string) (string, error) {
	return f.text, f.err
}
