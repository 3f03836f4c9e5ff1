package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Review is a counselor's rubric-based evaluation of one submitted essay.
// An essay is identified by its owner and title, unique per owner.
type Review struct {
	ID                 uint                         `gorm:"primaryKey" json:"id"`
	StudentName        string                       `gorm:"size:255;not null;uniqueIndex:idx_reviews_essay" json:"student_name"`
	EssayTitle         string                       `gorm:"size:255;not null;uniqueIndex:idx_reviews_essay" json:"essay_title"`
	RubricID           uint                         `gorm:"not null;index" json:"rubric_id"`
	CounselorID        uint                         `gorm:"not null;index" json:"counselor_id"`
	OverallAssessment  string                       `gorm:"type:text" json:"overall_assessment"`
	RevisionPriorities datatypes.JSONSlice[string]  `gorm:"type:json" json:"revision_priorities"`
	Status             string                       `gorm:"size:32;not null" json:"status"`
	CompletedAt        *time.Time                   `json:"completed_at"`
	CreatedAt          time.Time                    `json:"created_at"`
	UpdatedAt          time.Time                    `json:"updated_at"`
	Rubric             Rubric                       `gorm:"constraint:OnUpdate:CASCADE" json:"rubric,omitempty"`
	Feedback           []CriterionFeedback          `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"feedback,omitempty"`
}

const (
	// ReviewStatusInProgress marks a review that has been started but not completed.
	ReviewStatusInProgress = "in_progress"
	// ReviewStatusCompleted marks a review whose completion gate has passed.
	ReviewStatusCompleted = "completed"
)

// IsCompleted reports whether the review has passed its completion gate.
func (r Review) IsCompleted() bool {
	return r.Status == ReviewStatusCompleted
}

// CriterionFeedback holds a counselor's score and guidance for one criterion
// of a review's rubric. Exactly one row exists per criterion, created when
// the review is created.
type CriterionFeedback struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	ReviewID            uint      `gorm:"not null;index;uniqueIndex:idx_feedback_review_criterion" json:"review_id"`
	CriterionID         uint      `gorm:"not null;uniqueIndex:idx_feedback_review_criterion" json:"criterion_id"`
	Score               *int      `json:"score"`
	ScoreExplanation    string    `gorm:"type:text" json:"score_explanation"`
	ImprovementGuidance string    `gorm:"type:text" json:"improvement_guidance"`
	ReferenceSection    string    `gorm:"size:64" json:"reference_section"`
	Status              string    `gorm:"size:32;not null" json:"status"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

const (
	// FeedbackStatusNotReviewed marks feedback with no fields filled in.
	FeedbackStatusNotReviewed = "not_reviewed"
	// FeedbackStatusInProgress marks feedback with some but not all required fields.
	FeedbackStatusInProgress = "in_progress"
	// FeedbackStatusCompleted marks feedback with score, explanation and guidance all present.
	FeedbackStatusCompleted = "completed"
)

// Reference section values accepted on criterion feedback.
const (
	ReferenceEntireEssay  = "entire_essay"
	ReferenceIntroduction = "introduction"
	ReferenceConclusion   = "conclusion"
)

var paragraphReference = regexp.MustCompile(`^paragraph_[1-9][0-9]*$`)

// ValidReferenceSection reports whether value is an accepted reference tag.
// An empty value is allowed and treated as "entire essay" by the UI.
func ValidReferenceSection(value string) bool {
	switch value {
	case "", ReferenceEntireEssay, ReferenceIntroduction, ReferenceConclusion:
		return true
	}
	return paragraphReference.MatchString(value)
}

// DeriveFeedbackStatus computes the feedback status from its fields. The
// stored status is always derived, never taken from the caller.
func DeriveFeedbackStatus(score *int, explanation, guidance string) string {
	hasScore := score != nil
	hasExplanation := strings.TrimSpace(explanation) != ""
	hasGuidance := strings.TrimSpace(guidance) != ""

	switch {
	case hasScore && hasExplanation && hasGuidance:
		return FeedbackStatusCompleted
	case hasScore || hasExplanation || hasGuidance:
		return FeedbackStatusInProgress
	default:
		return FeedbackStatusNotReviewed
	}
}

// IsComplete reports whether the feedback satisfies the completion invariant.
func (f CriterionFeedback) IsComplete() bool {
	return DeriveFeedbackStatus(f.Score, f.ScoreExplanation, f.ImprovementGuidance) == FeedbackStatusCompleted
}

// EssayKey returns the composite identifier of the reviewed essay.
func (r Review) EssayKey() string {
	return fmt.Sprintf("%s/%s", r.StudentName, r.EssayTitle)
}
