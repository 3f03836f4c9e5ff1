package service

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/compass-advising/compass-api/internal/dto"
	"github.com/compass-advising/compass-api/internal/models"
	"github.com/compass-advising/compass-api/internal/repository"
)

func setupEssayService(t *testing.T) (EssayService, repository.EssayStore) {
	t.Helper()

	mini, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mini.Close)

	redisClient := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	essays := repository.NewEssayStore(redisClient, "compass-test")
	validate := validator.New(validator.WithRequiredStructEnabled())
	return NewEssayService(essays, validate, zerolog.Nop()), essays
}

func TestEssayServiceSaveDraftCreatesRecordWithDefaults(t *testing.T) {
	svc, _ := setupEssayService(t)

	essay, err := svc.SaveDraft(context.Background(), "Jordan Li", dto.EssayDraftRequest{
		Title:   "Why Stanford",
		Content: "I fell in love with computer science in a library basement.",
	})
	require.NoError(t, err)

	require.Equal(t, models.EssayStatusDraft, essay.Status)
	require.Equal(t, models.EssayTypePersonalStatement, essay.EssayType)
	require.Equal(t, models.DefaultFontFamily, essay.FontFamily)
	require.Equal(t, models.DefaultFontSize, essay.FontSize)
	require.Equal(t, 11, essay.WordCount)
	require.Nil(t, essay.SubmittedAt)
}

func TestEssayServiceSaveDraftKeepsDisplayFields(t *testing.T) {
	svc, _ := setupEssayService(t)
	ctx := context.Background()

	_, err := svc.SaveDraft(ctx, "Jordan Li", dto.EssayDraftRequest{
		Title:      "Why Stanford",
		Content:    "first version",
		FontFamily: "Georgia",
		FontSize:   12,
	})
	require.NoError(t, err)

	// A later save without display fields keeps the earlier choices.
	updated, err := svc.SaveDraft(ctx, "Jordan Li", dto.EssayDraftRequest{
		Title:   "Why Stanford",
		Content: "second version",
	})
	require.NoError(t, err)
	require.Equal(t, "Georgia", updated.FontFamily)
	require.Equal(t, 12, updated.FontSize)
	require.Equal(t, "second version", updated.Content)
}

func TestEssayServiceWordCountIgnoresMarkup(t *testing.T) {
	svc, _ := setupEssayService(t)

	essay, err := svc.SaveDraft(context.Background(), "Jordan Li", dto.EssayDraftRequest{
		Title:   "Why Stanford",
		Content: "<p>Hello <strong>brave</strong> world</p>",
	})
	require.NoError(t, err)
	require.Equal(t, 3, essay.WordCount)
}

func TestEssayServiceSubmitLocksEditing(t *testing.T) {
	svc, _ := setupEssayService(t)
	ctx := context.Background()

	_, err := svc.SaveDraft(ctx, "Jordan Li", dto.EssayDraftRequest{Title: "Why Stanford", Content: "final draft"})
	require.NoError(t, err)

	submitted, err := svc.Submit(ctx, "Jordan Li", "Why Stanford")
	require.NoError(t, err)
	require.Equal(t, models.EssayStatusSubmitted, submitted.Status)
	require.NotNil(t, submitted.SubmittedAt)

	_, err = svc.SaveDraft(ctx, "Jordan Li", dto.EssayDraftRequest{Title: "Why Stanford", Content: "sneaky edit"})
	require.ErrorIs(t, err, ErrEssayReadOnly)
}

func TestEssayServiceSubmitIsIdempotent(t *testing.T) {
	svc, _ := setupEssayService(t)
	ctx := context.Background()

	_, err := svc.SaveDraft(ctx, "Jordan Li", dto.EssayDraftRequest{Title: "Why Stanford", Content: "draft"})
	require.NoError(t, err)

	first, err := svc.Submit(ctx, "Jordan Li", "Why Stanford")
	require.NoError(t, err)

	second, err := svc.Submit(ctx, "Jordan Li", "Why Stanford")
	require.NoError(t, err)
	require.Equal(t, first.SubmittedAt.Unix(), second.SubmittedAt.Unix())
}

func TestEssayServiceSubmitUnknownEssay(t *testing.T) {
	svc, _ := setupEssayService(t)

	_, err := svc.Submit(context.Background(), "Jordan Li", "Nothing Here")
	require.ErrorIs(t, err, repository.ErrEssayNotFound)
}

func TestEssayServiceListOwnedAndQueue(t *testing.T) {
	svc, _ := setupEssayService(t)
	ctx := context.Background()

	_, err := svc.SaveDraft(ctx, "Jordan Li", dto.EssayDraftRequest{Title: "Why Stanford", Content: "a"})
	require.NoError(t, err)
	_, err = svc.SaveDraft(ctx, "Jordan Li", dto.EssayDraftRequest{Title: "Community Essay", Content: "b"})
	require.NoError(t, err)
	_, err = svc.SaveDraft(ctx, "Sam Ortiz", dto.EssayDraftRequest{Title: "Why MIT", Content: "c"})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, "Sam Ortiz", "Why MIT")
	require.NoError(t, err)

	owned, err := svc.ListOwned(ctx, "Jordan Li")
	require.NoError(t, err)
	require.Len(t, owned, 2)
	for _, essay := range owned {
		require.Equal(t, "Jordan Li", essay.Owner)
	}

	// The review queue only shows essays that left the draft state.
	queue, err := svc.ListForReview(ctx)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	require.Equal(t, "Why MIT", queue[0].Title)
}

func TestPlainText(t *testing.T) {
	require.Equal(t, "bold and plain", PlainText("<b>bold</b> and plain"))
	require.Equal(t, "a < b", PlainText("a &lt; b"))
	require.Equal(t, "untouched text", PlainText("untouched text"))
}
