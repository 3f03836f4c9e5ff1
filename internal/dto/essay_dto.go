package dto

import (
	"time"

	"github.com/compass-advising/compass-api/internal/models"
)

// EssayDraftRequest saves a draft of the caller's essay. The record is
// replaced whole in the document store; absent display fields keep their
// previous values through the service's read-merge-write.
type EssayDraftRequest struct {
	Title          string `json:"title" validate:"required,min=1,max=255"`
	Content        string `json:"content" validate:"max=100000"`
	EssayType      string `json:"essay_type" validate:"omitempty,oneof=personal_statement supplement activity_list"`
	UniversityName string `json:"university_name" validate:"omitempty,max=255"`
	FontFamily     string `json:"font_family" validate:"omitempty,max=64"`
	FontSize       int    `json:"font_size" validate:"omitempty,gte=8,lte=72"`
}

// EssayResponse is returned to API clients when viewing essays.
type EssayResponse struct {
	Owner          string                  `json:"owner"`
	Title          string                  `json:"title"`
	EssayType      string                  `json:"essay_type"`
	Content        string                  `json:"content"`
	UniversityName string                  `json:"university_name,omitempty"`
	Status         string                  `json:"status"`
	FontFamily     string                  `json:"font_family"`
	FontSize       int                     `json:"font_size"`
	WordCount      int                     `json:"word_count"`
	SubmittedAt    *time.Time              `json:"submitted_at,omitempty"`
	LastModified   time.Time               `json:"last_modified"`
	Feedback       *models.ReviewSummary   `json:"feedback,omitempty"`
	InlineComments []models.InlineComment  `json:"inline_comments,omitempty"`
	GeneralNotes   []models.GeneralComment `json:"general_comments,omitempty"`
}

// NewEssayResponse converts an essay record into a DTO.
func NewEssayResponse(record models.EssayRecord) EssayResponse {
	return EssayResponse{
		Owner:          record.Owner,
		Title:          record.Title,
		EssayType:      record.EssayType,
		Content:        record.Content,
		UniversityName: record.UniversityName,
		Status:         record.Status,
		FontFamily:     record.FontFamily,
		FontSize:       record.FontSize,
		WordCount:      record.WordCount,
		SubmittedAt:    record.SubmittedAt,
		LastModified:   record.LastModified,
		Feedback:       record.Feedback,
		InlineComments: record.InlineComments,
		GeneralNotes:   record.GeneralComments,
	}
}
