package models

import "time"

// Rubric is a named set of scoring criteria owned by a counselor.
type Rubric struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	CounselorID uint        `gorm:"not null;index" json:"counselor_id"`
	Name        string      `gorm:"size:255;not null" json:"name"`
	Description string      `gorm:"type:text" json:"description"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	Criteria    []Criterion `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"criteria,omitempty"`
}

// Criterion is a single scored dimension of a rubric. Position defines the
// display and iteration order; ties fall back to creation order.
type Criterion struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RubricID    uint      `gorm:"not null;index" json:"rubric_id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Position    int       `gorm:"not null;default:0" json:"position"`
	CreatedAt   time.Time `json:"created_at"`
}
