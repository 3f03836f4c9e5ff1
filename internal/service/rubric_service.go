package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/compass-advising/compass-api/internal/dto"
	"github.com/compass-advising/compass-api/internal/models"
	"github.com/compass-advising/compass-api/internal/repository"
)

// ErrRubricNotFound indicates the rubric was not located.
var ErrRubricNotFound = errors.New("rubric not found")

// ErrCriterionNotFound indicates the criterion was not located.
var ErrCriterionNotFound = errors.New("criterion not found")

// ErrNotRubricOwner indicates the caller does not own the rubric.
var ErrNotRubricOwner = errors.New("rubric belongs to another counselor")

// ErrRubricInUse indicates the rubric is referenced by at least one review.
// Such a rubric may not be deleted and its criterion set is frozen, since
// every review carries exactly one feedback row per criterion.
var ErrRubricInUse = errors.New("rubric is referenced by existing reviews")

// RubricService manages rubrics and their ordered criteria.
type RubricService interface {
	List(ctx context.Context) ([]dto.RubricResponse, error)
	Get(ctx context.Context, id uint) (dto.RubricResponse, error)
	Create(ctx context.Context, counselorID uint, payload dto.RubricCreateRequest) (dto.RubricResponse, error)
	Update(ctx context.Context, id, counselorID uint, payload dto.RubricUpdateRequest) (dto.RubricResponse, error)
	Delete(ctx context.Context, id, counselorID uint) error

	AddCriterion(ctx context.Context, rubricID, counselorID uint, payload dto.CriterionCreateRequest) (dto.CriterionResponse, error)
	UpdateCriterion(ctx context.Context, criterionID, counselorID uint, payload dto.CriterionUpdateRequest) (dto.CriterionResponse, error)
	DeleteCriterion(ctx context.Context, criterionID, counselorID uint) error
	ReorderCriteria(ctx context.Context, rubricID, counselorID uint, payload dto.ReorderCriteriaRequest) ([]dto.CriterionResponse, error)
}

type rubricService struct {
	rubrics   repository.RubricRepository
	reviews   repository.ReviewRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewRubricService constructs the rubric service.
func NewRubricService(rubrics repository.RubricRepository, reviews repository.ReviewRepository, validate *validator.Validate, logger zerolog.Logger) RubricService {
	return &rubricService{
		rubrics:   rubrics,
		reviews:   reviews,
		validator: validate,
		logger:    logger.With().Str("component", "rubric_service").Logger(),
	}
}

func (s *rubricService) List(ctx context.Context) ([]dto.RubricResponse, error) {
	rubrics, err := s.rubrics.List(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.RubricResponse, 0, len(rubrics))
	for _, rubric := range rubrics {
		responses = append(responses, dto.NewRubricResponse(rubric))
	}

	return responses, nil
}

func (s *rubricService) Get(ctx context.Context, id uint) (dto.RubricResponse, error) {
	rubric, err := s.loadRubric(ctx, id)
	if err != nil {
		return dto.RubricResponse{}, err
	}

	criteria, err := s.rubrics.ListCriteria(ctx, rubric.ID)
	if err != nil {
		return dto.RubricResponse{}, err
	}
	rubric.Criteria = criteria

	return dto.NewRubricResponse(rubric), nil
}

func (s *rubricService) Create(ctx context.Context, counselorID uint, payload dto.RubricCreateRequest) (dto.RubricResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.RubricResponse{}, err
	}

	rubric := models.Rubric{
		CounselorID: counselorID,
		Name:        payload.Name,
		Description: payload.Description,
	}
	if err := s.rubrics.Create(ctx, &rubric); err != nil {
		return dto.RubricResponse{}, err
	}

	s.logger.Info().Uint("rubric_id", rubric.ID).Uint("counselor_id", counselorID).Msg("rubric created")
	return dto.NewRubricResponse(rubric), nil
}

func (s *rubricService) Update(ctx context.Context, id, counselorID uint, payload dto.RubricUpdateRequest) (dto.RubricResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.RubricResponse{}, err
	}

	rubric, err := s.loadOwnedRubric(ctx, id, counselorID)
	if err != nil {
		return dto.RubricResponse{}, err
	}

	if payload.Name != nil {
		rubric.Name = *payload.Name
	}
	if payload.Description != nil {
		rubric.Description = *payload.Description
	}

	if err := s.rubrics.Update(ctx, &rubric); err != nil {
		return dto.RubricResponse{}, err
	}

	return dto.NewRubricResponse(rubric), nil
}

func (s *rubricService) Delete(ctx context.Context, id, counselorID uint) error {
	rubric, err := s.loadOwnedRubric(ctx, id, counselorID)
	if err != nil {
		return err
	}

	if err := s.ensureUnreferenced(ctx, rubric.ID); err != nil {
		return err
	}

	if err := s.rubrics.Delete(ctx, rubric.ID); err != nil {
		return err
	}

	s.logger.Info().Uint("rubric_id", rubric.ID).Msg("rubric deleted")
	return nil
}

func (s *rubricService) AddCriterion(ctx context.Context, rubricID, counselorID uint, payload dto.CriterionCreateRequest) (dto.CriterionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CriterionResponse{}, err
	}

	rubric, err := s.loadOwnedRubric(ctx, rubricID, counselorID)
	if err != nil {
		return dto.CriterionResponse{}, err
	}

	if err := s.ensureUnreferenced(ctx, rubric.ID); err != nil {
		return dto.CriterionResponse{}, err
	}

	criterion := models.Criterion{
		RubricID:    rubric.ID,
		Name:        payload.Name,
		Description: payload.Description,
		Position:    payload.Position,
	}
	if err := s.rubrics.CreateCriterion(ctx, &criterion); err != nil {
		return dto.CriterionResponse{}, err
	}

	return dto.NewCriterionResponse(criterion), nil
}

func (s *rubricService) UpdateCriterion(ctx context.Context, criterionID, counselorID uint, payload dto.CriterionUpdateRequest) (dto.CriterionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CriterionResponse{}, err
	}

	criterion, err := s.loadOwnedCriterion(ctx, criterionID, counselorID)
	if err != nil {
		return dto.CriterionResponse{}, err
	}

	if payload.Name != nil {
		criterion.Name = *payload.Name
	}
	if payload.Description != nil {
		criterion.Description = *payload.Description
	}
	if payload.Position != nil {
		criterion.Position = *payload.Position
	}

	if err := s.rubrics.UpdateCriterion(ctx, &criterion); err != nil {
		return dto.CriterionResponse{}, err
	}

	return dto.NewCriterionResponse(criterion), nil
}

func (s *rubricService) DeleteCriterion(ctx context.Context, criterionID, counselorID uint) error {
	criterion, err := s.loadOwnedCriterion(ctx, criterionID, counselorID)
	if err != nil {
		return err
	}

	if err := s.ensureUnreferenced(ctx, criterion.RubricID); err != nil {
		return err
	}

	return s.rubrics.DeleteCriterion(ctx, criterion.ID)
}

// ensureUnreferenced rejects criterion-set changes on a rubric that reviews
// already reference. Reviews seed one feedback row per criterion at creation,
// so adding or removing criteria afterwards would desync the two sets and let
// an unscored criterion slip past the completion gate.
func (s *rubricService) ensureUnreferenced(ctx context.Context, rubricID uint) error {
	referencing, err := s.reviews.CountByRubric(ctx, rubricID)
	if err != nil {
		return err
	}
	if referencing > 0 {
		return ErrRubricInUse
	}
	return nil
}

func (s *rubricService) ReorderCriteria(ctx context.Context, rubricID, counselorID uint, payload dto.ReorderCriteriaRequest) ([]dto.CriterionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, err
	}

	if _, err := s.loadOwnedRubric(ctx, rubricID, counselorID); err != nil {
		return nil, err
	}

	updates := make([]repository.CriterionPosition, 0, len(payload.Items))
	for _, item := range payload.Items {
		updates = append(updates, repository.CriterionPosition{ID: item.ID, Position: item.Position})
	}

	if err := s.rubrics.ReorderCriteria(ctx, updates); err != nil {
		return nil, err
	}

	criteria, err := s.rubrics.ListCriteria(ctx, rubricID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.CriterionResponse, 0, len(criteria))
	for _, criterion := range criteria {
		responses = append(responses, dto.NewCriterionResponse(criterion))
	}

	return responses, nil
}

func (s *rubricService) loadRubric(ctx context.Context, id uint) (models.Rubric, error) {
	rubric, err := s.rubrics.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Rubric{}, ErrRubricNotFound
		}
		return models.Rubric{}, err
	}

	return rubric, nil
}

func (s *rubricService) loadOwnedRubric(ctx context.Context, id, counselorID uint) (models.Rubric, error) {
	rubric, err := s.loadRubric(ctx, id)
	if err != nil {
		return models.Rubric{}, err
	}

	if rubric.CounselorID != counselorID {
		return models.Rubric{}, ErrNotRubricOwner
	}

	return rubric, nil
}

func (s *rubricService) loadOwnedCriterion(ctx context.Context, id, counselorID uint) (models.Criterion, error) {
	criterion, err := s.rubrics.GetCriterion(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Criterion{}, ErrCriterionNotFound
		}
		return models.Criterion{}, err
	}

	if _, err := s.loadOwnedRubric(ctx, criterion.RubricID, counselorID); err != nil {
		return models.Criterion{}, err
	}

	return criterion, nil
}
