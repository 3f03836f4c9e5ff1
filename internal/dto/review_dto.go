package dto

import (
	"time"

	"github.com/compass-advising/compass-api/internal/models"
)

// ReviewCreateRequest starts a review of one submitted essay against a rubric.
type ReviewCreateRequest struct {
	StudentName string `json:"student_name" validate:"required,min=1,max=255"`
	EssayTitle  string `json:"essay_title" validate:"required,min=1,max=255"`
	RubricID    uint   `json:"rubric_id" validate:"required,gt=0"`
}

// CriterionFeedbackRequest carries one criterion's score and guidance. The
// caller cannot set status; it is derived from the fields on the server.
type CriterionFeedbackRequest struct {
	Score               *int   `json:"score"`
	ScoreExplanation    string `json:"score_explanation" validate:"omitempty,max=10000"`
	ImprovementGuidance string `json:"improvement_guidance" validate:"omitempty,max=10000"`
	ReferenceSection    string `json:"reference_section" validate:"omitempty,max=64"`
}

// OverallAssessmentRequest saves the review-level assessment. Saving never
// completes the review; completion is an explicit separate call.
type OverallAssessmentRequest struct {
	OverallAssessment  string   `json:"overall_assessment" validate:"omitempty,max=20000"`
	RevisionPriorities []string `json:"revision_priorities" validate:"omitempty,dive,max=500"`
}

// CriterionFeedbackResponse serializes one feedback row.
type CriterionFeedbackResponse struct {
	ID                  uint      `json:"id"`
	ReviewID            uint      `json:"review_id"`
	CriterionID         uint      `json:"criterion_id"`
	Score               *int      `json:"score"`
	ScoreExplanation    string    `json:"score_explanation"`
	ImprovementGuidance string    `json:"improvement_guidance"`
	ReferenceSection    string    `json:"reference_section"`
	Status              string    `json:"status"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// ReviewResponse is returned to API clients when viewing a review.
type ReviewResponse struct {
	ID                 uint                        `json:"id"`
	StudentName        string                      `json:"student_name"`
	EssayTitle         string                      `json:"essay_title"`
	RubricID           uint                        `json:"rubric_id"`
	CounselorID        uint                        `json:"counselor_id"`
	OverallAssessment  string                      `json:"overall_assessment"`
	RevisionPriorities []string                    `json:"revision_priorities"`
	Status             string                      `json:"status"`
	CompletedAt        *time.Time                  `json:"completed_at"`
	CreatedAt          time.Time                   `json:"created_at"`
	UpdatedAt          time.Time                   `json:"updated_at"`
	Feedback           []CriterionFeedbackResponse `json:"feedback,omitempty"`
}

// ReviewDetailResponse bundles a review with its rubric, ordered criteria and
// feedback rows, the shape the review screen renders from.
type ReviewDetailResponse struct {
	Review   ReviewResponse              `json:"review"`
	Rubric   RubricResponse              `json:"rubric"`
	Criteria []CriterionResponse         `json:"criteria"`
	Feedback []CriterionFeedbackResponse `json:"feedback"`
}

// NewCriterionFeedbackResponse converts a CriterionFeedback model into a DTO.
func NewCriterionFeedbackResponse(model models.CriterionFeedback) CriterionFeedbackResponse {
	return CriterionFeedbackResponse{
		ID:                  model.ID,
		ReviewID:            model.ReviewID,
		CriterionID:         model.CriterionID,
		Score:               model.Score,
		ScoreExplanation:    model.ScoreExplanation,
		ImprovementGuidance: model.ImprovementGuidance,
		ReferenceSection:    model.ReferenceSection,
		Status:              model.Status,
		CreatedAt:           model.CreatedAt,
		UpdatedAt:           model.UpdatedAt,
	}
}

// NewReviewResponse converts a Review model into a DTO.
func NewReviewResponse(model models.Review) ReviewResponse {
	response := ReviewResponse{
		ID:                 model.ID,
		StudentName:        model.StudentName,
		EssayTitle:         model.EssayTitle,
		RubricID:           model.RubricID,
		CounselorID:        model.CounselorID,
		OverallAssessment:  model.OverallAssessment,
		RevisionPriorities: model.RevisionPriorities,
		Status:             model.Status,
		CompletedAt:        model.CompletedAt,
		CreatedAt:          model.CreatedAt,
		UpdatedAt:          model.UpdatedAt,
	}

	for _, feedback := range model.Feedback {
		response.Feedback = append(response.Feedback, NewCriterionFeedbackResponse(feedback))
	}

	if response.RevisionPriorities == nil {
		response.RevisionPriorities = []string{}
	}

	return response
}
