package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/compass-advising/compass-api/internal/models"
)

// CriterionPosition is one entry of a criterion reorder request.
type CriterionPosition struct {
	ID       uint
	Position int
}

// RubricRepository defines data operations for rubrics and their criteria.
type RubricRepository interface {
	List(ctx context.Context) ([]models.Rubric, error)
	GetByID(ctx context.Context, id uint) (models.Rubric, error)
	Create(ctx context.Context, rubric *models.Rubric) error
	Update(ctx context.Context, rubric *models.Rubric) error
	Delete(ctx context.Context, id uint) error

	ListCriteria(ctx context.Context, rubricID uint) ([]models.Criterion, error)
	GetCriterion(ctx context.Context, id uint) (models.Criterion, error)
	CreateCriterion(ctx context.Context, criterion *models.Criterion) error
	UpdateCriterion(ctx context.Context, criterion *models.Criterion) error
	DeleteCriterion(ctx context.Context, id uint) error
	ReorderCriteria(ctx context.Context, updates []CriterionPosition) error
}

type rubricRepository struct {
	db *gorm.DB
}

// NewRubricRepository instantiates the repository.
func NewRubricRepository(db *gorm.DB) RubricRepository {
	return &rubricRepository{db: db}
}

func (r *rubricRepository) List(ctx context.Context) ([]models.Rubric, error) {
	var rubrics []models.Rubric
	if err := r.db.WithContext(ctx).
		Order("updated_at DESC").
		Find(&rubrics).Error; err != nil {
		return nil, err
	}

	return rubrics, nil
}

func (r *rubricRepository) GetByID(ctx context.Context, id uint) (models.Rubric, error) {
	var rubric models.Rubric
	if err := r.db.WithContext(ctx).First(&rubric, id).Error; err != nil {
		return models.Rubric{}, err
	}

	return rubric, nil
}

func (r *rubricRepository) Create(ctx context.Context, rubric *models.Rubric) error {
	return r.db.WithContext(ctx).Create(rubric).Error
}

func (r *rubricRepository) Update(ctx context.Context, rubric *models.Rubric) error {
	return r.db.WithContext(ctx).Save(rubric).Error
}

func (r *rubricRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Select("Criteria").Delete(&models.Rubric{ID: id}).Error
}

func (r *rubricRepository) ListCriteria(ctx context.Context, rubricID uint) ([]models.Criterion, error) {
	var criteria []models.Criterion
	if err := r.db.WithContext(ctx).
		Where("rubric_id = ?", rubricID).
		Order("position ASC").
		Order("created_at ASC").
		Find(&criteria).Error; err != nil {
		return nil, err
	}

	return criteria, nil
}

func (r *rubricRepository) GetCriterion(ctx context.Context, id uint) (models.Criterion, error) {
	var criterion models.Criterion
	if err := r.db.WithContext(ctx).First(&criterion, id).Error; err != nil {
		return models.Criterion{}, err
	}

	return criterion, nil
}

func (r *rubricRepository) CreateCriterion(ctx context.Context, criterion *models.Criterion) error {
	return r.db.WithContext(ctx).Create(criterion).Error
}

func (r *rubricRepository) UpdateCriterion(ctx context.Context, criterion *models.Criterion) error {
	return r.db.WithContext(ctx).Save(criterion).Error
}

func (r *rubricRepository) DeleteCriterion(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Criterion{}, id).Error
}

func (r *rubricRepository) ReorderCriteria(ctx context.Context, updates []CriterionPosition) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, update := range updates {
			if err := tx.Model(&models.Criterion{}).
				Where("id = ?", update.ID).
				Update("position", update.Position).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
