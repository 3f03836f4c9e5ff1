package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/compass-advising/compass-api/internal/annotation"
	"github.com/compass-advising/compass-api/internal/dto"
	"github.com/compass-advising/compass-api/internal/models"
	"github.com/compass-advising/compass-api/internal/observability"
	"github.com/compass-advising/compass-api/internal/repository"
)

// CommentService anchors inline comments to essay text and renders the
// merged view of content and annotations.
type CommentService interface {
	AddInlineComment(ctx context.Context, owner, title, author string, payload dto.InlineCommentRequest) (models.InlineComment, error)
	AddGeneralComment(ctx context.Context, owner, title, author string, payload dto.GeneralCommentRequest) (models.GeneralComment, error)
	Render(ctx context.Context, owner, title string) (dto.RenderedEssayResponse, error)
}

type commentService struct {
	essays    repository.EssayStore
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	now       func() time.Time
}

// NewCommentService constructs the comment service.
func NewCommentService(essays repository.EssayStore, validate *validator.Validate, logger zerolog.Logger) CommentService {
	return &commentService{
		essays:    essays,
		validator: validate,
		sanitizer: bluemonday.UGCPolicy(),
		logger:    logger.With().Str("component", "comment_service").Logger(),
		now:       time.Now,
	}
}

func (s *commentService) AddInlineComment(ctx context.Context, owner, title, author string, payload dto.InlineCommentRequest) (models.InlineComment, error) {
	if err := s.validator.Struct(payload); err != nil {
		return models.InlineComment{}, err
	}

	record, err := s.essays.Get(ctx, owner, title)
	if err != nil {
		return models.InlineComment{}, err
	}
	if !record.IsSubmitted() {
		return models.InlineComment{}, ErrEssayNotSubmitted
	}

	content := PlainText(record.Content)
	start, end, err := annotation.ResolveSelection(content, payload.SelectedText, payload.SelectionStart)
	if err != nil {
		return models.InlineComment{}, err
	}

	comment := models.InlineComment{
		ID:        uuid.NewString(),
		Author:    author,
		Quote:     content[start:end],
		Start:     start,
		End:       end,
		Text:      strings.TrimSpace(s.sanitizer.Sanitize(payload.Text)),
		CreatedAt: s.now().UTC(),
	}
	if comment.Text == "" {
		return models.InlineComment{}, fmt.Errorf("comment text must not be empty")
	}

	record.InlineComments = append(record.InlineComments, comment)
	record.LastModified = comment.CreatedAt
	if err := s.essays.Put(ctx, record); err != nil {
		return models.InlineComment{}, err
	}

	observability.CommentsCreated().WithLabelValues("inline").Inc()
	s.logger.Debug().
		Str("essay", owner+"/"+title).
		Int("start", start).
		Int("end", end).
		Msg("inline comment created")

	return comment, nil
}

func (s *commentService) AddGeneralComment(ctx context.Context, owner, title, author string, payload dto.GeneralCommentRequest) (models.GeneralComment, error) {
	if err := s.validator.Struct(payload); err != nil {
		return models.GeneralComment{}, err
	}

	record, err := s.essays.Get(ctx, owner, title)
	if err != nil {
		return models.GeneralComment{}, err
	}
	if !record.IsSubmitted() {
		return models.GeneralComment{}, ErrEssayNotSubmitted
	}

	comment := models.GeneralComment{
		ID:        uuid.NewString(),
		Author:    author,
		Text:      strings.TrimSpace(s.sanitizer.Sanitize(payload.Text)),
		CreatedAt: s.now().UTC(),
	}
	if comment.Text == "" {
		return models.GeneralComment{}, fmt.Errorf("comment text must not be empty")
	}

	record.GeneralComments = append(record.GeneralComments, comment)
	record.LastModified = comment.CreatedAt
	if err := s.essays.Put(ctx, record); err != nil {
		return models.GeneralComment{}, err
	}

	observability.CommentsCreated().WithLabelValues("general").Inc()
	return comment, nil
}

// Render merges the essay's plain text with its inline comments. Offsets
// stored before a content edit may be stale; Merge clamps them instead of
// failing, so a shrunk essay still renders.
func (s *commentService) Render(ctx context.Context, owner, title string) (dto.RenderedEssayResponse, error) {
	record, err := s.essays.Get(ctx, owner, title)
	if err != nil {
		return dto.RenderedEssayResponse{}, err
	}

	content := PlainText(record.Content)
	spans := make([]annotation.Span, 0, len(record.InlineComments))
	for i := range record.InlineComments {
		comment := record.InlineComments[i]
		spans = append(spans, annotation.Span{
			Start:   comment.Start,
			End:     comment.End,
			Payload: comment,
		})
	}

	segments := annotation.Merge(content, spans)

	response := dto.RenderedEssayResponse{
		Owner:           record.Owner,
		Title:           record.Title,
		Content:         content,
		Segments:        make([]dto.SegmentResponse, 0, len(segments)),
		GeneralComments: record.GeneralComments,
	}
	if response.GeneralComments == nil {
		response.GeneralComments = []models.GeneralComment{}
	}

	for _, segment := range segments {
		rendered := dto.SegmentResponse{Text: segment.Text}
		if comment, ok := segment.Payload.(models.InlineComment); ok {
			rendered.Comment = &comment
		}
		response.Segments = append(response.Segments, rendered)
	}

	return response, nil
}
