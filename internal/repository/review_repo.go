package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/compass-advising/compass-api/internal/models"
)

// ReviewRepository defines data operations for reviews and criterion feedback.
type ReviewRepository interface {
	GetByID(ctx context.Context, id uint) (models.Review, error)
	GetByEssay(ctx context.Context, studentName, essayTitle string) (models.Review, error)
	CreateWithFeedback(ctx context.Context, review *models.Review, criteria []models.Criterion) error
	Update(ctx context.Context, review *models.Review) error
	CountByRubric(ctx context.Context, rubricID uint) (int64, error)

	ListFeedback(ctx context.Context, reviewID uint) ([]models.CriterionFeedback, error)
	GetFeedback(ctx context.Context, reviewID, criterionID uint) (models.CriterionFeedback, error)
	UpdateFeedback(ctx context.Context, feedback *models.CriterionFeedback) error
}

type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository instantiates the repository.
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Review{}).
		Preload("Rubric").
		Preload("Feedback")
}

func (r *reviewRepository) GetByID(ctx context.Context, id uint) (models.Review, error) {
	var review models.Review
	if err := r.baseQuery(ctx).First(&review, id).Error; err != nil {
		return models.Review{}, err
	}

	return review, nil
}

func (r *reviewRepository) GetByEssay(ctx context.Context, studentName, essayTitle string) (models.Review, error) {
	var review models.Review
	if err := r.baseQuery(ctx).
		Where("student_name = ?", studentName).
		Where("essay_title = ?", essayTitle).
		First(&review).Error; err != nil {
		return models.Review{}, err
	}

	return review, nil
}

// CreateWithFeedback inserts the review and eagerly creates one not_reviewed
// feedback row per rubric criterion in the same transaction, so the
// one-row-per-criterion invariant holds from the moment the review exists.
func (r *reviewRepository) CreateWithFeedback(ctx context.Context, review *models.Review, criteria []models.Criterion) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(review).Error; err != nil {
			return err
		}

		for _, criterion := range criteria {
			feedback := models.CriterionFeedback{
				ReviewID:    review.ID,
				CriterionID: criterion.ID,
				Status:      models.FeedbackStatusNotReviewed,
			}
			if err := tx.Create(&feedback).Error; err != nil {
				return err
			}
			review.Feedback = append(review.Feedback, feedback)
		}

		return nil
	})
}

func (r *reviewRepository) Update(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Omit("Rubric", "Feedback").Save(review).Error
}

func (r *reviewRepository) CountByRubric(ctx context.Context, rubricID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Review{}).
		Where("rubric_id = ?", rubricID).
		Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

func (r *reviewRepository) ListFeedback(ctx context.Context, reviewID uint) ([]models.CriterionFeedback, error) {
	var feedback []models.CriterionFeedback
	if err := r.db.WithContext(ctx).
		Where("review_id = ?", reviewID).
		Order("created_at ASC").
		Find(&feedback).Error; err != nil {
		return nil, err
	}

	return feedback, nil
}

func (r *reviewRepository) GetFeedback(ctx context.Context, reviewID, criterionID uint) (models.CriterionFeedback, error) {
	var feedback models.CriterionFeedback
	if err := r.db.WithContext(ctx).
		Where("review_id = ?", reviewID).
		Where("criterion_id = ?", criterionID).
		First(&feedback).Error; err != nil {
		return models.CriterionFeedback{}, err
	}

	return feedback, nil
}

func (r *reviewRepository) UpdateFeedback(ctx context.Context, feedback *models.CriterionFeedback) error {
	return r.db.WithContext(ctx).Save(feedback).Error
}
