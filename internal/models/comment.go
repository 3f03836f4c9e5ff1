package models

import "time"

// InlineComment anchors a reviewer's note to a substring of the essay's
// plain-text content. Start and End are 0-based offsets, End exclusive.
// Quote is the highlighted text copied at comment time; it serves as a
// display fallback and staleness check when the content is edited later.
type InlineComment struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Quote     string    `json:"quote"`
	Start     int       `json:"start"`
	End       int       `json:"end"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// GeneralComment is a note on the essay as a whole, independent of offsets.
type GeneralComment struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
