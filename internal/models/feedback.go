package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EssayFeedback is the stored outcome of one marking. Result holds the whole
// marking result as returned to the client.
type EssayFeedback struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	EssayID         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"essay_id"`
	UserID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	AO1Score        float64         `gorm:"column:ao1_score;type:decimal(5,1)" json:"ao1_score"`
	AO2Score        float64         `gorm:"column:ao2_score;type:decimal(5,1)" json:"ao2_score"`
	AO3Score        float64         `gorm:"column:ao3_score;type:decimal(5,1)" json:"ao3_score"`
	AO4Score        float64         `gorm:"column:ao4_score;type:decimal(5,1)" json:"ao4_score"`
	TotalScore      float64         `gorm:"type:decimal(5,1)" json:"total_score"`
	Percentage      float64         `gorm:"type:decimal(4,1)" json:"percentage"`
	Level           string          `gorm:"type:text" json:"level"`
	GradePrediction string          `gorm:"type:text" json:"grade_prediction"`
	Result          json.RawMessage `gorm:"column:overall_feedback;type:jsonb;not null" json:"result"`
	CreatedAt       time.Time       `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (EssayFeedback) TableName() string {
	return "essay_feedback"
}
