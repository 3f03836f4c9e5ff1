package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/compass-advising/compass-api/internal/dto"
	"github.com/compass-advising/compass-api/internal/models"
	"github.com/compass-advising/compass-api/internal/observability"
	"github.com/compass-advising/compass-api/internal/repository"
)

// ErrReviewNotFound indicates the review was not located.
var ErrReviewNotFound = errors.New("review not found")

// ErrDuplicateReview indicates a review already exists for the essay.
var ErrDuplicateReview = errors.New("review already exists for this essay")

// ErrEssayNotSubmitted indicates the essay is not in a reviewable state.
var ErrEssayNotSubmitted = errors.New("essay has not been submitted")

// ErrRubricHasNoCriteria indicates the selected rubric has nothing to score.
var ErrRubricHasNoCriteria = errors.New("rubric has no criteria")

// ErrInvalidScore indicates a score outside the configured scale.
var ErrInvalidScore = errors.New("score outside configured scale")

// ErrInvalidReference indicates a malformed reference-section tag.
var ErrInvalidReference = errors.New("invalid reference section")

// ErrReviewCompleted indicates a write against an already completed review.
var ErrReviewCompleted = errors.New("review is already completed")

// ErrNotReviewOwner indicates the caller did not create the review.
var ErrNotReviewOwner = errors.New("review belongs to another counselor")

// IncompleteReviewError reports why a completion attempt was rejected. It is
// a user-correctable validation failure, not a system fault.
type IncompleteReviewError struct {
	MissingCriteria   []string
	MissingAssessment bool
}

func (e *IncompleteReviewError) Error() string {
	parts := make([]string, 0, 2)
	if len(e.MissingCriteria) > 0 {
		parts = append(parts, fmt.Sprintf("incomplete criteria: %s", strings.Join(e.MissingCriteria, ", ")))
	}
	if e.MissingAssessment {
		parts = append(parts, "overall assessment is empty")
	}
	if len(parts) == 0 {
		return "review is incomplete"
	}
	return "review cannot be completed: " + strings.Join(parts, "; ")
}

// ScoreScale bounds the discrete criterion score range. The bounds come from
// configuration, not from data.
type ScoreScale struct {
	Min int
	Max int
}

// Contains reports whether value falls inside the scale.
func (s ScoreScale) Contains(value int) bool {
	return value >= s.Min && value <= s.Max
}

// ReviewService drives an essay review from creation through completion.
type ReviewService interface {
	Create(ctx context.Context, counselorID uint, payload dto.ReviewCreateRequest) (dto.ReviewResponse, error)
	GetDetail(ctx context.Context, reviewID uint) (dto.ReviewDetailResponse, error)
	GetByEssay(ctx context.Context, studentName, essayTitle string) (dto.ReviewResponse, error)
	GetCompletedByEssay(ctx context.Context, studentName, essayTitle string) (dto.ReviewResponse, error)
	SubmitCriterionFeedback(ctx context.Context, reviewID, criterionID, counselorID uint, payload dto.CriterionFeedbackRequest) (dto.CriterionFeedbackResponse, error)
	SubmitOverallAssessment(ctx context.Context, reviewID, counselorID uint, payload dto.OverallAssessmentRequest) (dto.ReviewResponse, error)
	Complete(ctx context.Context, reviewID, counselorID uint) (dto.ReviewResponse, error)
}

type reviewService struct {
	reviews   repository.ReviewRepository
	rubrics   repository.RubricRepository
	essays    repository.EssayStore
	validator *validator.Validate
	scale     ScoreScale
	logger    zerolog.Logger
	now       func() time.Time
}

// NewReviewService constructs the review service.
func NewReviewService(reviews repository.ReviewRepository, rubrics repository.RubricRepository, essays repository.EssayStore, validate *validator.Validate, scale ScoreScale, logger zerolog.Logger) ReviewService {
	return &reviewService{
		reviews:   reviews,
		rubrics:   rubrics,
		essays:    essays,
		validator: validate,
		scale:     scale,
		logger:    logger.With().Str("component", "review_service").Logger(),
		now:       time.Now,
	}
}

func (s *reviewService) Create(ctx context.Context, counselorID uint, payload dto.ReviewCreateRequest) (dto.ReviewResponse, error) {
	tracer := otel.Tracer("github.com/compass-advising/compass-api/internal/service/review")
	ctx, span := tracer.Start(ctx, "review.create")
	span.SetAttributes(
		attribute.Int64("review.counselor_id", int64(counselorID)),
		attribute.Int64("review.rubric_id", int64(payload.RubricID)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.ReviewResponse{}, err
	}

	essay, err := s.essays.Get(ctx, payload.StudentName, payload.EssayTitle)
	if err != nil {
		span.RecordError(err)
		return dto.ReviewResponse{}, err
	}
	if !essay.IsSubmitted() {
		span.SetStatus(codes.Error, "essay_not_submitted")
		return dto.ReviewResponse{}, ErrEssayNotSubmitted
	}

	// One review per essay per lifecycle: an existing review is rejected,
	// never silently replaced.
	if _, err := s.reviews.GetByEssay(ctx, payload.StudentName, payload.EssayTitle); err == nil {
		span.SetStatus(codes.Error, "duplicate_review")
		return dto.ReviewResponse{}, ErrDuplicateReview
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		span.RecordError(err)
		return dto.ReviewResponse{}, err
	}

	if _, err := s.rubrics.GetByID(ctx, payload.RubricID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ReviewResponse{}, ErrRubricNotFound
		}
		span.RecordError(err)
		return dto.ReviewResponse{}, err
	}

	criteria, err := s.rubrics.ListCriteria(ctx, payload.RubricID)
	if err != nil {
		span.RecordError(err)
		return dto.ReviewResponse{}, err
	}
	if len(criteria) == 0 {
		return dto.ReviewResponse{}, ErrRubricHasNoCriteria
	}

	review := models.Review{
		StudentName: payload.StudentName,
		EssayTitle:  payload.EssayTitle,
		RubricID:    payload.RubricID,
		CounselorID: counselorID,
		Status:      models.ReviewStatusInProgress,
	}
	if err := s.reviews.CreateWithFeedback(ctx, &review, criteria); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "review_create_failed")
		return dto.ReviewResponse{}, err
	}

	s.logger.Info().
		Uint("review_id", review.ID).
		Str("essay", review.EssayKey()).
		Int("criteria", len(criteria)).
		Msg("review created")

	return dto.NewReviewResponse(review), nil
}

func (s *reviewService) GetDetail(ctx context.Context, reviewID uint) (dto.ReviewDetailResponse, error) {
	review, err := s.loadReview(ctx, reviewID)
	if err != nil {
		return dto.ReviewDetailResponse{}, err
	}

	rubric, err := s.rubrics.GetByID(ctx, review.RubricID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.ReviewDetailResponse{}, err
	}

	criteria, err := s.rubrics.ListCriteria(ctx, review.RubricID)
	if err != nil {
		return dto.ReviewDetailResponse{}, err
	}

	feedback, err := s.reviews.ListFeedback(ctx, review.ID)
	if err != nil {
		return dto.ReviewDetailResponse{}, err
	}

	detail := dto.ReviewDetailResponse{
		Review: dto.NewReviewResponse(review),
		Rubric: dto.NewRubricResponse(rubric),
	}
	for _, criterion := range criteria {
		detail.Criteria = append(detail.Criteria, dto.NewCriterionResponse(criterion))
	}
	for _, row := range feedback {
		detail.Feedback = append(detail.Feedback, dto.NewCriterionFeedbackResponse(row))
	}

	return detail, nil
}

func (s *reviewService) GetByEssay(ctx context.Context, studentName, essayTitle string) (dto.ReviewResponse, error) {
	review, err := s.reviews.GetByEssay(ctx, studentName, essayTitle)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ReviewResponse{}, ErrReviewNotFound
		}
		return dto.ReviewResponse{}, err
	}

	return dto.NewReviewResponse(review), nil
}

// GetCompletedByEssay is the student-facing lookup. A review in progress is
// indistinguishable from no review at all; feedback becomes readable only
// once the counselor completes it.
func (s *reviewService) GetCompletedByEssay(ctx context.Context, studentName, essayTitle string) (dto.ReviewResponse, error) {
	review, err := s.reviews.GetByEssay(ctx, studentName, essayTitle)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ReviewResponse{}, ErrReviewNotFound
		}
		return dto.ReviewResponse{}, err
	}

	if !review.IsCompleted() {
		return dto.ReviewResponse{}, ErrReviewNotFound
	}

	return dto.NewReviewResponse(review), nil
}

func (s *reviewService) SubmitCriterionFeedback(ctx context.Context, reviewID, criterionID, counselorID uint, payload dto.CriterionFeedbackRequest) (dto.CriterionFeedbackResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CriterionFeedbackResponse{}, err
	}

	if payload.Score != nil && !s.scale.Contains(*payload.Score) {
		return dto.CriterionFeedbackResponse{}, fmt.Errorf("%w: %d not in [%d,%d]", ErrInvalidScore, *payload.Score, s.scale.Min, s.scale.Max)
	}

	if !models.ValidReferenceSection(payload.ReferenceSection) {
		return dto.CriterionFeedbackResponse{}, fmt.Errorf("%w: %q", ErrInvalidReference, payload.ReferenceSection)
	}

	review, err := s.loadOwnedReview(ctx, reviewID, counselorID)
	if err != nil {
		return dto.CriterionFeedbackResponse{}, err
	}
	if review.IsCompleted() {
		return dto.CriterionFeedbackResponse{}, ErrReviewCompleted
	}

	feedback, err := s.reviews.GetFeedback(ctx, review.ID, criterionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CriterionFeedbackResponse{}, ErrCriterionNotFound
		}
		return dto.CriterionFeedbackResponse{}, err
	}

	feedback.Score = payload.Score
	feedback.ScoreExplanation = strings.TrimSpace(payload.ScoreExplanation)
	feedback.ImprovementGuidance = strings.TrimSpace(payload.ImprovementGuidance)
	feedback.ReferenceSection = payload.ReferenceSection
	// Status is derived from the fields on every write; the caller never
	// supplies it.
	feedback.Status = models.DeriveFeedbackStatus(feedback.Score, feedback.ScoreExplanation, feedback.ImprovementGuidance)

	if err := s.reviews.UpdateFeedback(ctx, &feedback); err != nil {
		return dto.CriterionFeedbackResponse{}, err
	}

	return dto.NewCriterionFeedbackResponse(feedback), nil
}

func (s *reviewService) SubmitOverallAssessment(ctx context.Context, reviewID, counselorID uint, payload dto.OverallAssessmentRequest) (dto.ReviewResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ReviewResponse{}, err
	}

	review, err := s.loadOwnedReview(ctx, reviewID, counselorID)
	if err != nil {
		return dto.ReviewResponse{}, err
	}
	if review.IsCompleted() {
		return dto.ReviewResponse{}, ErrReviewCompleted
	}

	priorities := make([]string, 0, len(payload.RevisionPriorities))
	for _, priority := range payload.RevisionPriorities {
		if trimmed := strings.TrimSpace(priority); trimmed != "" {
			priorities = append(priorities, trimmed)
		}
	}

	review.OverallAssessment = payload.OverallAssessment
	review.RevisionPriorities = datatypes.NewJSONSlice(priorities)
	// Saving the assessment is a draft save. The review stays in_progress
	// even when every criterion is complete; only Complete flips status.

	if err := s.reviews.Update(ctx, &review); err != nil {
		return dto.ReviewResponse{}, err
	}

	return dto.NewReviewResponse(review), nil
}

func (s *reviewService) Complete(ctx context.Context, reviewID, counselorID uint) (dto.ReviewResponse, error) {
	tracer := otel.Tracer("github.com/compass-advising/compass-api/internal/service/review")
	ctx, span := tracer.Start(ctx, "review.complete")
	span.SetAttributes(attribute.Int64("review.id", int64(reviewID)))
	defer span.End()

	review, err := s.loadOwnedReview(ctx, reviewID, counselorID)
	if err != nil {
		span.RecordError(err)
		return dto.ReviewResponse{}, err
	}

	// Re-running a completed review's completion is harmless; both writes
	// below are idempotent, so a retry after a partial failure converges.
	if review.IsCompleted() {
		span.SetAttributes(attribute.Bool("review.idempotent", true))
		return dto.NewReviewResponse(review), nil
	}

	feedback, err := s.reviews.ListFeedback(ctx, review.ID)
	if err != nil {
		span.RecordError(err)
		return dto.ReviewResponse{}, err
	}

	if gateErr := s.completionGate(ctx, review, feedback); gateErr != nil {
		span.SetStatus(codes.Error, "completion_gate_failed")
		return dto.ReviewResponse{}, gateErr
	}

	completedAt := s.now().UTC()

	// Essay first, then review. If the review write fails after the essay
	// write, re-running Complete rewrites both with the same values.
	if err := s.markEssayReviewed(ctx, review, feedback, completedAt); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "essay_update_failed")
		return dto.ReviewResponse{}, err
	}

	review.Status = models.ReviewStatusCompleted
	review.CompletedAt = &completedAt
	if err := s.reviews.Update(ctx, &review); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "review_update_failed")
		return dto.ReviewResponse{}, err
	}

	observability.ReviewsCompleted().Inc()
	s.logger.Info().
		Uint("review_id", review.ID).
		Str("essay", review.EssayKey()).
		Msg("review completed")

	review.Feedback = feedback
	return dto.NewReviewResponse(review), nil
}

// completionGate enforces the precondition for completing a review: every
// feedback row complete and a non-empty overall assessment. Violations are
// reported, never silently ignored.
func (s *reviewService) completionGate(ctx context.Context, review models.Review, feedback []models.CriterionFeedback) error {
	gateErr := &IncompleteReviewError{}

	names := s.criterionNames(ctx, review.RubricID)
	for _, row := range feedback {
		if row.IsComplete() {
			continue
		}
		name, ok := names[row.CriterionID]
		if !ok {
			name = fmt.Sprintf("criterion %d", row.CriterionID)
		}
		gateErr.MissingCriteria = append(gateErr.MissingCriteria, name)
	}
	sort.Strings(gateErr.MissingCriteria)

	if strings.TrimSpace(review.OverallAssessment) == "" {
		gateErr.MissingAssessment = true
	}

	if len(gateErr.MissingCriteria) > 0 || gateErr.MissingAssessment {
		return gateErr
	}

	return nil
}

func (s *reviewService) criterionNames(ctx context.Context, rubricID uint) map[uint]string {
	names := make(map[uint]string)
	criteria, err := s.rubrics.ListCriteria(ctx, rubricID)
	if err != nil {
		s.logger.Warn().Err(err).Uint("rubric_id", rubricID).Msg("failed to resolve criterion names")
		return names
	}
	for _, criterion := range criteria {
		names[criterion.ID] = criterion.Name
	}
	return names
}

// markEssayReviewed flips the essay record to reviewed and embeds the
// feedback summary, using read-merge-write since the store replaces records
// whole.
func (s *reviewService) markEssayReviewed(ctx context.Context, review models.Review, feedback []models.CriterionFeedback, completedAt time.Time) error {
	essay, err := s.essays.Get(ctx, review.StudentName, review.EssayTitle)
	if err != nil {
		return err
	}

	var total int
	var scored int
	for _, row := range feedback {
		if row.Score != nil {
			total += *row.Score
			scored++
		}
	}
	average := 0.0
	if scored > 0 {
		average = float64(total) / float64(scored)
	}

	essay.Status = models.EssayStatusReviewed
	essay.LastModified = completedAt
	essay.Feedback = &models.ReviewSummary{
		ReviewID:     review.ID,
		CounselorID:  review.CounselorID,
		AverageScore: average,
		CompletedAt:  completedAt,
	}

	return s.essays.Put(ctx, essay)
}

func (s *reviewService) loadReview(ctx context.Context, id uint) (models.Review, error) {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Review{}, ErrReviewNotFound
		}
		return models.Review{}, err
	}

	return review, nil
}

func (s *reviewService) loadOwnedReview(ctx context.Context, id, counselorID uint) (models.Review, error) {
	review, err := s.loadReview(ctx, id)
	if err != nil {
		return models.Review{}, err
	}

	if review.CounselorID != counselorID {
		return models.Review{}, ErrNotReviewOwner
	}

	return review, nil
}
