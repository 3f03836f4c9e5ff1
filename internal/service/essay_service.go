package service

import (
	"context"
	"errors"
	"html"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/compass-advising/compass-api/internal/dto"
	"github.com/compass-advising/compass-api/internal/models"
	"github.com/compass-advising/compass-api/internal/repository"
)

// ErrEssayReadOnly indicates an edit against a submitted or reviewed essay.
var ErrEssayReadOnly = errors.New("essay is no longer editable")

// stripMarkup reduces stored content to the canonical plain text that
// annotation offsets are defined over.
var stripMarkup = bluemonday.StrictPolicy()

// PlainText returns the canonical plain-text form of essay content. Block
// boundaries collapse to the markup-free text; entities are unescaped.
func PlainText(content string) string {
	return html.UnescapeString(stripMarkup.Sanitize(content))
}

func countWords(content string) int {
	return len(strings.Fields(PlainText(content)))
}

// EssayService manages the draft/submit lifecycle of essays in the document
// store. Every write is a full-record replace over a fresh read, since the
// store has no partial patch.
type EssayService interface {
	SaveDraft(ctx context.Context, owner string, payload dto.EssayDraftRequest) (dto.EssayResponse, error)
	Submit(ctx context.Context, owner, title string) (dto.EssayResponse, error)
	Get(ctx context.Context, owner, title string) (dto.EssayResponse, error)
	ListOwned(ctx context.Context, owner string) ([]dto.EssayResponse, error)
	ListForReview(ctx context.Context) ([]dto.EssayResponse, error)
}

type essayService struct {
	essays    repository.EssayStore
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewEssayService constructs the essay service.
func NewEssayService(essays repository.EssayStore, validate *validator.Validate, logger zerolog.Logger) EssayService {
	return &essayService{
		essays:    essays,
		validator: validate,
		logger:    logger.With().Str("component", "essay_service").Logger(),
		now:       time.Now,
	}
}

func (s *essayService) SaveDraft(ctx context.Context, owner string, payload dto.EssayDraftRequest) (dto.EssayResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EssayResponse{}, err
	}

	record, err := s.essays.Get(ctx, owner, payload.Title)
	if errors.Is(err, repository.ErrEssayNotFound) {
		record = models.EssayRecord{Owner: owner, Title: payload.Title}
		record.ApplyDefaults()
	} else if err != nil {
		return dto.EssayResponse{}, err
	}

	if !record.IsEditable() {
		return dto.EssayResponse{}, ErrEssayReadOnly
	}

	record.Content = payload.Content
	record.WordCount = countWords(payload.Content)
	if payload.EssayType != "" {
		record.EssayType = payload.EssayType
	}
	if payload.UniversityName != "" {
		record.UniversityName = payload.UniversityName
	}
	if payload.FontFamily != "" {
		record.FontFamily = payload.FontFamily
	}
	if payload.FontSize > 0 {
		record.FontSize = payload.FontSize
	}
	record.LastModified = s.now().UTC()

	if err := s.essays.Put(ctx, record); err != nil {
		return dto.EssayResponse{}, err
	}

	return dto.NewEssayResponse(record), nil
}

func (s *essayService) Submit(ctx context.Context, owner, title string) (dto.EssayResponse, error) {
	record, err := s.essays.Get(ctx, owner, title)
	if err != nil {
		return dto.EssayResponse{}, err
	}

	// Submitting twice is a no-op, not an error.
	if record.IsSubmitted() {
		return dto.NewEssayResponse(record), nil
	}

	submittedAt := s.now().UTC()
	record.Status = models.EssayStatusSubmitted
	record.SubmittedAt = &submittedAt
	record.LastModified = submittedAt

	if err := s.essays.Put(ctx, record); err != nil {
		return dto.EssayResponse{}, err
	}

	s.logger.Info().Str("owner", owner).Str("title", title).Msg("essay submitted")
	return dto.NewEssayResponse(record), nil
}

func (s *essayService) Get(ctx context.Context, owner, title string) (dto.EssayResponse, error) {
	record, err := s.essays.Get(ctx, owner, title)
	if err != nil {
		return dto.EssayResponse{}, err
	}

	return dto.NewEssayResponse(record), nil
}

func (s *essayService) ListOwned(ctx context.Context, owner string) ([]dto.EssayResponse, error) {
	records, err := s.essays.List(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.EssayResponse, 0, len(records))
	for _, record := range records {
		if record.Owner == owner {
			responses = append(responses, dto.NewEssayResponse(record))
		}
	}
	sortEssaysNewestFirst(responses)

	return responses, nil
}

// ListForReview returns the counselor queue: submitted and reviewed essays,
// newest first.
func (s *essayService) ListForReview(ctx context.Context) ([]dto.EssayResponse, error) {
	records, err := s.essays.List(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.EssayResponse, 0, len(records))
	for _, record := range records {
		if record.IsSubmitted() {
			responses = append(responses, dto.NewEssayResponse(record))
		}
	}
	sortEssaysNewestFirst(responses)

	return responses, nil
}

func sortEssaysNewestFirst(essays []dto.EssayResponse) {
	sort.SliceStable(essays, func(i, j int) bool {
		return essays[i].LastModified.After(essays[j].LastModified)
	})
}
