package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Essay lifecycle statuses.
const (
	EssayStatusDraft     = "draft"
	EssayStatusSubmitted = "submitted"
	EssayStatusReviewed  = "reviewed"
)

// Essay type values.
const (
	EssayTypePersonalStatement = "personal_statement"
	EssayTypeSupplement        = "supplement"
	EssayTypeActivityList      = "activity_list"
)

// Defaults applied to absent fields when decoding a stored essay record.
const (
	DefaultFontFamily = "Arial"
	DefaultFontSize   = 14
)

// ReviewSummary is the feedback payload embedded into a reviewed essay
// record so the student-facing view can render it without a second lookup.
type ReviewSummary struct {
	ReviewID     uint      `json:"review_id"`
	CounselorID  uint      `json:"counselor_id"`
	AverageScore float64   `json:"average_score"`
	CompletedAt  time.Time `json:"completed_at"`
}

// EssayRecord is the document-store representation of one essay. Records are
// stored as a single JSON document per owner+title key and replaced whole on
// every write; the store has no partial-field patch.
type EssayRecord struct {
	Owner           string           `json:"owner"`
	Title           string           `json:"title"`
	EssayType       string           `json:"essay_type"`
	Content         string           `json:"content"`
	UniversityName  string           `json:"university_name,omitempty"`
	Status          string           `json:"status"`
	FontFamily      string           `json:"font_family"`
	FontSize        int              `json:"font_size"`
	WordCount       int              `json:"word_count"`
	SubmittedAt     *time.Time       `json:"submitted_at,omitempty"`
	LastModified    time.Time        `json:"last_modified"`
	InlineComments  []InlineComment  `json:"inline_comments,omitempty"`
	GeneralComments []GeneralComment `json:"general_comments,omitempty"`
	Feedback        *ReviewSummary   `json:"feedback,omitempty"`
}

// IsEditable reports whether the owner may still change the content.
func (e EssayRecord) IsEditable() bool {
	return e.Status == EssayStatusDraft
}

// IsSubmitted reports whether the essay has left the draft state.
func (e EssayRecord) IsSubmitted() bool {
	return e.Status == EssayStatusSubmitted || e.Status == EssayStatusReviewed
}

// essayRecordSchema rejects records whose fields carry the wrong type. It
// deliberately marks nothing required: absent fields get defaults instead.
var essayRecordSchema = jsonschema.MustCompileString("essay_record.json", `{
	"type": "object",
	"properties": {
		"owner": {"type": "string"},
		"title": {"type": "string"},
		"essay_type": {"type": "string", "enum": ["personal_statement", "supplement", "activity_list"]},
		"content": {"type": "string"},
		"university_name": {"type": "string"},
		"status": {"type": "string", "enum": ["draft", "submitted", "reviewed"]},
		"font_family": {"type": "string"},
		"font_size": {"type": "integer", "minimum": 1},
		"word_count": {"type": "integer", "minimum": 0},
		"inline_comments": {"type": "array"},
		"general_comments": {"type": "array"}
	}
}`)

// DecodeEssayRecord parses a stored essay document, validates its shape and
// fills defaults for absent optional fields. Defaulting happens here, at the
// deserialization boundary, so business logic never null-coalesces.
func DecodeEssayRecord(data []byte) (EssayRecord, error) {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return EssayRecord{}, fmt.Errorf("invalid essay record: %w", err)
	}

	if err := essayRecordSchema.Validate(raw); err != nil {
		return EssayRecord{}, fmt.Errorf("essay record failed schema validation: %w", err)
	}

	var record EssayRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return EssayRecord{}, fmt.Errorf("invalid essay record: %w", err)
	}

	record.ApplyDefaults()
	return record, nil
}

// ApplyDefaults fills absent optional fields with their documented defaults.
func (e *EssayRecord) ApplyDefaults() {
	if e.EssayType == "" {
		e.EssayType = EssayTypePersonalStatement
	}
	if e.Status == "" {
		e.Status = EssayStatusDraft
	}
	if e.FontFamily == "" {
		e.FontFamily = DefaultFontFamily
	}
	if e.FontSize <= 0 {
		e.FontSize = DefaultFontSize
	}
	if e.LastModified.IsZero() {
		e.LastModified = time.Now().UTC()
	}
}
