package dto

import "github.com/compass-advising/compass-api/internal/models"

// InlineCommentRequest anchors a comment to a text selection. SelectionStart
// is the DOM-relative hint; -1 means no hint was available and the first
// occurrence of the selected text is used.
type InlineCommentRequest struct {
	SelectedText   string `json:"selected_text" validate:"required"`
	SelectionStart int    `json:"selection_start" validate:"gte=-1"`
	Text           string `json:"text" validate:"required,max=10000"`
}

// GeneralCommentRequest adds a comment on the essay as a whole.
type GeneralCommentRequest struct {
	Text string `json:"text" validate:"required,max=10000"`
}

// SegmentResponse is one rendered piece of essay content. Comment is set for
// highlighted segments and nil for plain text.
type SegmentResponse struct {
	Text    string                `json:"text"`
	Comment *models.InlineComment `json:"comment,omitempty"`
}

// RenderedEssayResponse is the merged view of content and annotations.
type RenderedEssayResponse struct {
	Owner           string                  `json:"owner"`
	Title           string                  `json:"title"`
	Content         string                  `json:"content"`
	Segments        []SegmentResponse       `json:"segments"`
	GeneralComments []models.GeneralComment `json:"general_comments"`
}
