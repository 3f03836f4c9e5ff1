package dto

import (
	"time"

	"github.com/compass-advising/compass-api/internal/models"
)

// RubricCreateRequest describes the payload for creating a rubric.
type RubricCreateRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=255"`
	Description string `json:"description" validate:"omitempty,max=2000"`
}

// RubricUpdateRequest carries partial rubric edits.
type RubricUpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=255"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

// CriterionCreateRequest describes the payload for adding a criterion.
type CriterionCreateRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=255"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	Position    int    `json:"position" validate:"gte=0"`
}

// CriterionUpdateRequest carries partial criterion edits.
type CriterionUpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=255"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Position    *int    `json:"position" validate:"omitempty,gte=0"`
}

// CriterionOrderItem is one entry of a reorder request.
type CriterionOrderItem struct {
	ID       uint `json:"id" validate:"required,gt=0"`
	Position int  `json:"position" validate:"gte=0"`
}

// ReorderCriteriaRequest reassigns display positions in bulk.
type ReorderCriteriaRequest struct {
	Items []CriterionOrderItem `json:"items" validate:"required,min=1,dive"`
}

// RubricResponse is returned to API clients when viewing rubrics.
type RubricResponse struct {
	ID          uint                `json:"id"`
	CounselorID uint                `json:"counselor_id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	Criteria    []CriterionResponse `json:"criteria,omitempty"`
}

// CriterionResponse serializes a single rubric criterion.
type CriterionResponse struct {
	ID          uint      `json:"id"`
	RubricID    uint      `json:"rubric_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Position    int       `json:"position"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewRubricResponse converts a Rubric model into a DTO.
func NewRubricResponse(model models.Rubric) RubricResponse {
	response := RubricResponse{
		ID:          model.ID,
		CounselorID: model.CounselorID,
		Name:        model.Name,
		Description: model.Description,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}

	for _, criterion := range model.Criteria {
		response.Criteria = append(response.Criteria, NewCriterionResponse(criterion))
	}

	return response
}

// NewCriterionResponse converts a Criterion model into a DTO.
func NewCriterionResponse(model models.Criterion) CriterionResponse {
	return CriterionResponse{
		ID:          model.ID,
		RubricID:    model.RubricID,
		Name:        model.Name,
		Description: model.Description,
		Position:    model.Position,
		CreatedAt:   model.CreatedAt,
	}
}
