package service

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/compass-advising/compass-api/internal/annotation"
	"github.com/compass-advising/compass-api/internal/dto"
	"github.com/compass-advising/compass-api/internal/models"
	"github.com/compass-advising/compass-api/internal/repository"
)

func setupCommentService(t *testing.T) (CommentService, repository.EssayStore) {
	t.Helper()

	mini, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mini.Close)

	redisClient := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	essays := repository.NewEssayStore(redisClient, "compass-test")
	validate := validator.New(validator.WithRequiredStructEnabled())
	return NewCommentService(essays, validate, zerolog.Nop()), essays
}

func seedSubmittedEssay(t *testing.T, essays repository.EssayStore, content string) {
	t.Helper()

	record := models.EssayRecord{
		Owner:   "Jordan Li",
		Title:   "Why Stanford",
		Content: content,
		Status:  models.EssayStatusSubmitted,
	}
	record.ApplyDefaults()
	record.Status = models.EssayStatusSubmitted
	require.NoError(t, essays.Put(context.Background(), record))
}

func TestCommentServiceInlineCommentAnchorsSelection(t *testing.T) {
	svc, essays := setupCommentService(t)
	seedSubmittedEssay(t, essays, "The quick brown fox jumps over the lazy dog")
	ctx := context.Background()

	comment, err := svc.AddInlineComment(ctx, "Jordan Li", "Why Stanford", "Counselor Kim", dto.InlineCommentRequest{
		SelectedText:   "quick brown",
		SelectionStart: -1,
		Text:           "Nice concrete image.",
	})
	require.NoError(t, err)

	require.Equal(t, 4, comment.Start)
	require.Equal(t, 15, comment.End)
	require.Equal(t, "quick brown", comment.Quote)
	require.Equal(t, "Counselor Kim", comment.Author)
	require.NotEmpty(t, comment.ID)

	// The quote always matches the content between the stored offsets.
	record, err := essays.Get(ctx, "Jordan Li", "Why Stanford")
	require.NoError(t, err)
	require.Len(t, record.InlineComments, 1)
	stored := record.InlineComments[0]
	plain := PlainText(record.Content)
	require.Equal(t, stored.Quote, plain[stored.Start:stored.End])
}

func TestCommentServiceInlineCommentOffsetsOverPlainText(t *testing.T) {
	svc, essays := setupCommentService(t)
	seedSubmittedEssay(t, essays, "<p>The <em>quick</em> brown fox</p>")

	comment, err := svc.AddInlineComment(context.Background(), "Jordan Li", "Why Stanford", "Counselor Kim", dto.InlineCommentRequest{
		SelectedText:   "quick brown",
		SelectionStart: -1,
		Text:           "Good rhythm.",
	})
	require.NoError(t, err)

	// Offsets index the markup-free text, not the stored HTML.
	require.Equal(t, 4, comment.Start)
	require.Equal(t, 15, comment.End)
}

func TestCommentServiceInlineCommentRejectsDraft(t *testing.T) {
	svc, essays := setupCommentService(t)

	record := models.EssayRecord{Owner: "Jordan Li", Title: "Why Stanford", Content: "draft words"}
	record.ApplyDefaults()
	require.NoError(t, essays.Put(context.Background(), record))

	_, err := svc.AddInlineComment(context.Background(), "Jordan Li", "Why Stanford", "Counselor Kim", dto.InlineCommentRequest{
		SelectedText:   "draft",
		SelectionStart: -1,
		Text:           "too early",
	})
	require.ErrorIs(t, err, ErrEssayNotSubmitted)
}

func TestCommentServiceInlineCommentSelectionErrors(t *testing.T) {
	svc, essays := setupCommentService(t)
	seedSubmittedEssay(t, essays, "The quick brown fox")
	ctx := context.Background()

	_, err := svc.AddInlineComment(ctx, "Jordan Li", "Why Stanford", "Counselor Kim", dto.InlineCommentRequest{
		SelectedText:   "   ",
		SelectionStart: -1,
		Text:           "anchored to nothing",
	})
	require.ErrorIs(t, err, annotation.ErrEmptySelection)

	_, err = svc.AddInlineComment(ctx, "Jordan Li", "Why Stanford", "Counselor Kim", dto.InlineCommentRequest{
		SelectedText:   "purple elephant",
		SelectionStart: -1,
		Text:           "where is this",
	})
	require.ErrorIs(t, err, annotation.ErrSelectionNotFound)
}

func TestCommentServiceSanitizesCommentText(t *testing.T) {
	svc, essays := setupCommentService(t)
	seedSubmittedEssay(t, essays, "The quick brown fox")

	comment, err := svc.AddInlineComment(context.Background(), "Jordan Li", "Why Stanford", "Counselor Kim", dto.InlineCommentRequest{
		SelectedText:   "quick",
		SelectionStart: -1,
		Text:           `Watch out<script>alert("x")</script>`,
	})
	require.NoError(t, err)
	require.Equal(t, "Watch out", comment.Text)

	_, err = svc.AddInlineComment(context.Background(), "Jordan Li", "Why Stanford", "Counselor Kim", dto.InlineCommentRequest{
		SelectedText:   "quick",
		SelectionStart: -1,
		Text:           `<script>alert("x")</script>`,
	})
	require.Error(t, err)
}

func TestCommentServiceGeneralComment(t *testing.T) {
	svc, essays := setupCommentService(t)
	seedSubmittedEssay(t, essays, "The quick brown fox")
	ctx := context.Background()

	comment, err := svc.AddGeneralComment(ctx, "Jordan Li", "Why Stanford", "Counselor Kim", dto.GeneralCommentRequest{
		Text: "Strong start, keep going.",
	})
	require.NoError(t, err)
	require.Equal(t, "Strong start, keep going.", comment.Text)

	record, err := essays.Get(ctx, "Jordan Li", "Why Stanford")
	require.NoError(t, err)
	require.Len(t, record.GeneralComments, 1)
}

func TestCommentServiceRenderSegments(t *testing.T) {
	svc, essays := setupCommentService(t)
	seedSubmittedEssay(t, essays, "The quick brown fox")
	ctx := context.Background()

	_, err := svc.AddInlineComment(ctx, "Jordan Li", "Why Stanford", "Counselor Kim", dto.InlineCommentRequest{
		SelectedText:   "quick",
		SelectionStart: -1,
		Text:           "Nice verb choice.",
	})
	require.NoError(t, err)

	rendered, err := svc.Render(ctx, "Jordan Li", "Why Stanford")
	require.NoError(t, err)
	require.Len(t, rendered.Segments, 3)

	require.Equal(t, "The ", rendered.Segments[0].Text)
	require.Nil(t, rendered.Segments[0].Comment)

	require.Equal(t, "quick", rendered.Segments[1].Text)
	require.NotNil(t, rendered.Segments[1].Comment)
	require.Equal(t, "Nice verb choice.", rendered.Segments[1].Comment.Text)

	require.Equal(t, " brown fox", rendered.Segments[2].Text)
	require.Nil(t, rendered.Segments[2].Comment)
}

func TestCommentServiceRenderClampsStaleOffsets(t *testing.T) {
	svc, essays := setupCommentService(t)
	ctx := context.Background()

	// A comment anchored before the essay shrank runs past the new end.
	record := models.EssayRecord{
		Owner:   "Jordan Li",
		Title:   "Why Stanford",
		Content: "0123456789",
		Status:  models.EssayStatusSubmitted,
		InlineComments: []models.InlineComment{
			{ID: "c1", Author: "Counselor Kim", Quote: "456789 and more", Start: 4, End: 25, Text: "stale"},
		},
	}
	record.ApplyDefaults()
	record.Status = models.EssayStatusSubmitted
	require.NoError(t, essays.Put(ctx, record))

	rendered, err := svc.Render(ctx, "Jordan Li", "Why Stanford")
	require.NoError(t, err)
	require.Len(t, rendered.Segments, 2)
	require.Equal(t, "0123", rendered.Segments[0].Text)
	require.Equal(t, "456789", rendered.Segments[1].Text)
	require.NotNil(t, rendered.Segments[1].Comment)
}

func TestCommentServiceRenderEmptyEssay(t *testing.T) {
	svc, essays := setupCommentService(t)
	seedSubmittedEssay(t, essays, "plain text, no comments")

	rendered, err := svc.Render(context.Background(), "Jordan Li", "Why Stanford")
	require.NoError(t, err)
	require.Len(t, rendered.Segments, 1)
	require.Nil(t, rendered.Segments[0].Comment)
	require.NotNil(t, rendered.GeneralComments)
	require.Empty(t, rendered.GeneralComments)
}
