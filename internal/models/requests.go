package models

import (
	"time"

	"alfredoptarigan/essay-marker/internal/marking"
)

type ErrorResponse struct {
	Success bool                 `json:"success"`
	Error   string               `json:"error"`
	Details []marking.FieldError `json:"details,omitempty"`
}

type MarkEssayResponse struct {
	Success    bool                   `json:"success"`
	Result     *marking.MarkingResult `json:"result"`
	FeedbackID string                 `json:"feedbackId"`
	EssayID    string                 `json:"essayId"`
}

type RewriteResponse struct {
	Success bool                     `json:"success"`
	Result  *marking.SentenceRewrite `json:"result"`
}

type SubmitEssayResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type EssayResultResponse struct {
	ID           string                 `json:"id"`
	Status       string                 `json:"status"`
	Question     string                 `json:"question"`
	Marks        int                    `json:"marks"`
	CreatedAt    time.Time              `json:"createdAt"`
	FeedbackID   string                 `json:"feedbackId,omitempty"`
	Result       *marking.MarkingResult `json:"result,omitempty"`
	ErrorMessage *string                `json:"errorMessage,omitempty"`
}

type EssaySummary struct {
	ID          string    `json:"id"`
	Question    string    `json:"question"`
	Marks       int       `json:"marks"`
	Status      string    `json:"status"`
	OverallMark *float64  `json:"overallMark,omitempty"`
	Percentage  *float64  `json:"percentage,omitempty"`
	Level       string    `json:"level,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type EssayListResponse struct {
	Essays []EssaySummary `json:"essays"`
}

// UsageResponse reports the caller's quota. Limit and Remaining are omitted
// for unlimited tiers.
type UsageResponse struct {
	Tier       string `json:"tier"`
	EssaysUsed int    `json:"essaysUsed"`
	Limit      *int   `json:"limit,omitempty"`
	Remaining  *int   `json:"remaining,omitempty"`
}

type UploadResponse struct {
	Filename  string `json:"filename"`
	Text      string `json:"text"`
	PageCount int    `json:"pageCount"`
}
