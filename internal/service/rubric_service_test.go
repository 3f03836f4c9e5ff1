package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/compass-advising/compass-api/internal/dto"
	"github.com/compass-advising/compass-api/internal/models"
	"github.com/compass-advising/compass-api/internal/repository"
)

func stringPointer(v string) *string {
	return &v
}

func setupRubricService(t *testing.T) (RubricService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Rubric{}, &models.Criterion{}, &models.Review{}, &models.CriterionFeedback{}))

	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewRubricService(repository.NewRubricRepository(db), repository.NewReviewRepository(db), validate, zerolog.Nop())
	return svc, db
}

func TestRubricServiceCreateAndGet(t *testing.T) {
	svc, _ := setupRubricService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, dto.RubricCreateRequest{Name: "Supplement Rubric", Description: "For short supplements"})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	_, err = svc.AddCriterion(ctx, created.ID, 1, dto.CriterionCreateRequest{Name: "Specificity", Position: 1})
	require.NoError(t, err)

	fetched, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Supplement Rubric", fetched.Name)
	require.Len(t, fetched.Criteria, 1)
}

func TestRubricServiceUpdateOwnership(t *testing.T) {
	svc, _ := setupRubricService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, dto.RubricCreateRequest{Name: "Original"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, created.ID, 2, dto.RubricUpdateRequest{Name: stringPointer("Hijacked")})
	require.ErrorIs(t, err, ErrNotRubricOwner)

	updated, err := svc.Update(ctx, created.ID, 1, dto.RubricUpdateRequest{Name: stringPointer("Renamed")})
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Name)
}

func TestRubricServiceDeleteBlockedWhileReferenced(t *testing.T) {
	svc, db := setupRubricService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, dto.RubricCreateRequest{Name: "In Use"})
	require.NoError(t, err)

	review := models.Review{
		StudentName: "Jordan Li",
		EssayTitle:  "Why Stanford",
		RubricID:    created.ID,
		CounselorID: 1,
		Status:      models.ReviewStatusInProgress,
	}
	require.NoError(t, db.Create(&review).Error)

	err = svc.Delete(ctx, created.ID, 1)
	require.ErrorIs(t, err, ErrRubricInUse)

	require.NoError(t, db.Delete(&review).Error)
	require.NoError(t, svc.Delete(ctx, created.ID, 1))

	_, err = svc.Get(ctx, created.ID)
	require.ErrorIs(t, err, ErrRubricNotFound)
}

func TestRubricServiceCriteriaFrozenWhileReferenced(t *testing.T) {
	svc, db := setupRubricService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, dto.RubricCreateRequest{Name: "Frozen"})
	require.NoError(t, err)
	criterion, err := svc.AddCriterion(ctx, created.ID, 1, dto.CriterionCreateRequest{Name: "Voice", Position: 1})
	require.NoError(t, err)

	review := models.Review{
		StudentName: "Jordan Li",
		EssayTitle:  "Why Stanford",
		RubricID:    created.ID,
		CounselorID: 1,
		Status:      models.ReviewStatusInProgress,
	}
	require.NoError(t, db.Create(&review).Error)

	// Reviews carry one feedback row per criterion, so the criterion set
	// cannot change underneath them.
	_, err = svc.AddCriterion(ctx, created.ID, 1, dto.CriterionCreateRequest{Name: "Structure", Position: 2})
	require.ErrorIs(t, err, ErrRubricInUse)

	err = svc.DeleteCriterion(ctx, criterion.ID, 1)
	require.ErrorIs(t, err, ErrRubricInUse)

	// Renaming and reordering leave the set intact and stay allowed.
	renamed, err := svc.UpdateCriterion(ctx, criterion.ID, 1, dto.CriterionUpdateRequest{Name: stringPointer("Narrative Voice")})
	require.NoError(t, err)
	require.Equal(t, "Narrative Voice", renamed.Name)

	require.NoError(t, db.Delete(&review).Error)
	_, err = svc.AddCriterion(ctx, created.ID, 1, dto.CriterionCreateRequest{Name: "Structure", Position: 2})
	require.NoError(t, err)
}

func TestRubricServiceDeleteCascadesCriteria(t *testing.T) {
	svc, db := setupRubricService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, dto.RubricCreateRequest{Name: "Cascade"})
	require.NoError(t, err)
	_, err = svc.AddCriterion(ctx, created.ID, 1, dto.CriterionCreateRequest{Name: "Voice", Position: 1})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID, 1))

	var count int64
	require.NoError(t, db.Model(&models.Criterion{}).Where("rubric_id = ?", created.ID).Count(&count).Error)
	require.Zero(t, count)
}

func TestRubricServiceReorderCriteria(t *testing.T) {
	svc, _ := setupRubricService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, dto.RubricCreateRequest{Name: "Ordered"})
	require.NoError(t, err)

	first, err := svc.AddCriterion(ctx, created.ID, 1, dto.CriterionCreateRequest{Name: "Voice", Position: 1})
	require.NoError(t, err)
	second, err := svc.AddCriterion(ctx, created.ID, 1, dto.CriterionCreateRequest{Name: "Structure", Position: 2})
	require.NoError(t, err)

	reordered, err := svc.ReorderCriteria(ctx, created.ID, 1, dto.ReorderCriteriaRequest{
		Items: []dto.CriterionOrderItem{
			{ID: second.ID, Position: 1},
			{ID: first.ID, Position: 2},
		},
	})
	require.NoError(t, err)
	require.Len(t, reordered, 2)
	require.Equal(t, "Structure", reordered[0].Name)
	require.Equal(t, "Voice", reordered[1].Name)
}

func TestRubricServiceCriterionOwnership(t *testing.T) {
	svc, _ := setupRubricService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, dto.RubricCreateRequest{Name: "Guarded"})
	require.NoError(t, err)
	criterion, err := svc.AddCriterion(ctx, created.ID, 1, dto.CriterionCreateRequest{Name: "Voice", Position: 1})
	require.NoError(t, err)

	_, err = svc.UpdateCriterion(ctx, criterion.ID, 2, dto.CriterionUpdateRequest{Name: stringPointer("Stolen")})
	require.ErrorIs(t, err, ErrNotRubricOwner)

	err = svc.DeleteCriterion(ctx, criterion.ID, 2)
	require.ErrorIs(t, err, ErrNotRubricOwner)

	require.NoError(t, svc.DeleteCriterion(ctx, criterion.ID, 1))
	_, err = svc.UpdateCriterion(ctx, criterion.ID, 1, dto.CriterionUpdateRequest{Name: stringPointer("Gone")})
	require.ErrorIs(t, err, ErrCriterionNotFound)
}
