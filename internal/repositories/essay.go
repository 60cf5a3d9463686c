package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/essay-marker/internal/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

type EssayRepository interface {
	Create(essay *models.Essay) error
	FindByID(id uuid.UUID) (*models.Essay, error)
	ListByUser(userID uuid.UUID, limit int) ([]models.Essay, error)
	Claim(id uuid.UUID) (bool, error)
	Requeue(id uuid.UUID, errorMsg string) error
	UpdateError(id uuid.UUID, errorMsg string) error
	FindPendingJobs(limit int) ([]models.Essay, error)
	// CountInFlight counts the user's queued and processing essays.
	CountInFlight(userID uuid.UUID) (int, error)
}

type essayRepository struct {
	db *gorm.DB
}

func NewEssayRepository(db *gorm.DB) EssayRepository {
	return &essayRepository{db: db}
}

func (r *essayRepository) Create(essay *models.Essay) error {
	if err := r.db.Create(essay).Error; err != nil {
		return fmt.Errorf("failed to create essay: %w", err)
	}
	return nil
}

func (r *essayRepository) FindByID(id uuid.UUID) (*models.Essay, error) {
	var essay models.Essay
	if err := r.db.Where("id = ?", id).First(&essay).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("essay %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find essay: %w", err)
	}
	return &essay, nil
}

// ListByUser returns the user's essays, newest first, with feedback preloaded.
func (r *essayRepository) ListByUser(userID uuid.UUID, limit int) ([]models.Essay, error) {
	var essays []models.Essay
	err := r.db.
		Preload("Feedback").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&essays).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list essays: %w", err)
	}
	return essays, nil
}

// Claim moves a queued essay to processing and counts the attempt. It reports
// false when another worker got there first.
func (r *essayRepository) Claim(id uuid.UUID) (bool, error) {
	result := r.db.Model(&models.Essay{}).
		Where("id = ? AND status = ?", id, models.StatusQueued).
		Updates(map[string]interface{}{
			"status":     models.StatusProcessing,
			"attempts":   gorm.Expr("attempts + 1"),
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return false, fmt.Errorf("failed to claim essay: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// Requeue puts a processing essay back in the queue after a retryable failure.
func (r *essayRepository) Requeue(id uuid.UUID, errorMsg string) error {
	return r.setStatus(id, models.StatusQueued, &errorMsg)
}

func (r *essayRepository) UpdateError(id uuid.UUID, errorMsg string) error {
	return r.setStatus(id, models.StatusFailed, &errorMsg)
}

func (r *essayRepository) setStatus(id uuid.UUID, status models.EssayStatus, errorMsg *string) error {
	result := r.db.Model(&models.Essay{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        status,
			"error_message": errorMsg,
			"updated_at":    time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update essay status: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("essay %s: %w", id, ErrNotFound)
	}

	return nil
}

func (r *essayRepository) FindPendingJobs(limit int) ([]models.Essay, error) {
	var essays []models.Essay
	err := r.db.
		Where("status = ?", models.StatusQueued).
		Order("created_at ASC").
		Limit(limit).
		Find(&essays).Error

	if err != nil {
		return nil, fmt.Errorf("failed to find pending jobs: %w", err)
	}

	return essays, nil
}

func (r *essayRepository) CountInFlight(userID uuid.UUID) (int, error) {
	var count int64
	err := r.db.Model(&models.Essay{}).
		Where("user_id = ? AND status IN ?", userID,
			[]models.EssayStatus{models.StatusQueued, models.StatusProcessing}).
		Count(&count).Error

	if err != nil {
		return 0, fmt.Errorf("failed to count essays in flight: %w", err)
	}
	return int(count), nil
}
