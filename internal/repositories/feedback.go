package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/essay-marker/internal/models"
)

type FeedbackRepository interface {
	// SaveResult stores the feedback and marks its essay completed in one
	// transaction.
	SaveResult(feedback *models.EssayFeedback) error
	// CreateWithEssay stores a completed essay and its feedback together.
	CreateWithEssay(essay *models.Essay, feedback *models.EssayFeedback) error
	FindByEssayID(essayID uuid.UUID) (*models.EssayFeedback, error)
}

type feedbackRepository struct {
	db *gorm.DB
}

func NewFeedbackRepository(db *gorm.DB) FeedbackRepository {
	return &feedbackRepository{db: db}
}

func (r *feedbackRepository) SaveResult(feedback *models.EssayFeedback) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(feedback).Error; err != nil {
			return fmt.Errorf("failed to create feedback: %w", err)
		}

		result := tx.Model(&models.Essay{}).
			Where("id = ?", feedback.EssayID).
			Updates(map[string]interface{}{
				"status":        models.StatusCompleted,
				"error_message": nil,
				"updated_at":    time.Now(),
			})
		if result.Error != nil {
			return fmt.Errorf("failed to complete essay: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("essay %s: %w", feedback.EssayID, ErrNotFound)
		}
		return nil
	})
}

func (r *feedbackRepository) CreateWithEssay(essay *models.Essay, feedback *models.EssayFeedback) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(essay).Error; err != nil {
			return fmt.Errorf("failed to create essay: %w", err)
		}
		if err := tx.Create(feedback).Error; err != nil {
			return fmt.Errorf("failed to create feedback: %w", err)
		}
		return nil
	})
}

func (r *feedbackRepository) FindByEssayID(essayID uuid.UUID) (*models.EssayFeedback, error) {
	var feedback models.EssayFeedback
	if err := r.db.Where("essay_id = ?", essayID).First(&feedback).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("feedback for essay %s: %w", essayID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find feedback: %w", err)
	}
	return &feedback, nil
}
