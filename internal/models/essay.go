package models

import (
	"time"

	"github.com/google/uuid"
)

type EssayStatus string

const (
	StatusQueued     EssayStatus = "queued"
	StatusProcessing EssayStatus = "processing"
	StatusCompleted  EssayStatus = "completed"
	StatusFailed     EssayStatus = "failed"
)

type Essay struct {
	ID           uuid.UUID   `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID       uuid.UUID   `gorm:"type:uuid;not null;index" json:"user_id"`
	Question     string      `gorm:"type:text;not null" json:"question"`
	Marks        int         `gorm:"not null" json:"marks"`
	Content      string      `gorm:"type:text;not null" json:"content"`
	ExtractText  string      `gorm:"type:text" json:"extract_text,omitempty"`
	Status       EssayStatus `gorm:"not null;default:'queued';index" json:"status"`
	Attempts     int         `gorm:"not null;default:0" json:"attempts"`
	ErrorMessage *string     `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time   `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time   `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`

	Feedback *EssayFeedback `gorm:"foreignKey:EssayID" json:"-"`
}

func (Essay) TableName() string {
	return "essays"
}
