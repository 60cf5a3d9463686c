package repositories

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"alfredoptarigan/essay-marker/internal/models"
)

type ProfileRepository interface {
	// FindOrCreate returns the user's profile, creating a free one on first
	// sight.
	FindOrCreate(userID uuid.UUID) (*models.Profile, error)
	IncrementUsage(userID uuid.UUID) error
}

type profileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) FindOrCreate(userID uuid.UUID) (*models.Profile, error) {
	profile := models.Profile{
		ID:               userID,
		SubscriptionTier: models.TierFree,
	}

	err := r.db.
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&profile).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	if err := r.db.Where("id = ?", userID).First(&profile).Error; err != nil {
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}
	return &profile, nil
}

func (r *profileRepository) IncrementUsage(userID uuid.UUID) error {
	result := r.db.Model(&models.Profile{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"essays_used": gorm.Expr("essays_used + 1"),
			"updated_at":  time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to increment usage: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("profile %s: %w", userID, ErrNotFound)
	}
	return nil
}
