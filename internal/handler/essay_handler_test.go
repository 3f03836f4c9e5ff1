package handler_test

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/compass-advising/compass-api/internal/dto"
	"github.com/compass-advising/compass-api/internal/models"
)

func asStudent(req *http.Request, name string) *http.Request {
	req.Header.Set("X-Test-Role", "student")
	req.Header.Set("X-Test-User", name)
	return req
}

func TestEssayHandlerDraftSubmitAndQueue(t *testing.T) {
	a := setupReviewApp(t)

	// Student saves a draft.
	draftReq := asStudent(jsonRequest(t, "PUT", "/api/v2/essays", dto.EssayDraftRequest{
		Title:   "Why Stanford",
		Content: "The quick brown fox jumps over the lazy dog",
	}), "Jordan Li")
	draftResp, err := a.app.Test(draftReq)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, draftResp.StatusCode)

	var draftBody struct {
		Data dto.EssayResponse `json:"data"`
	}
	decodeResponse(t, draftResp, &draftBody)
	require.Equal(t, models.EssayStatusDraft, draftBody.Data.Status)
	require.Equal(t, 9, draftBody.Data.WordCount)

	// Drafts stay invisible to the counselor queue.
	queueResp, err := a.app.Test(jsonRequest(t, "GET", "/api/v2/review-queue", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, queueResp.StatusCode)
	var emptyQueue struct {
		Data []dto.EssayResponse `json:"data"`
	}
	decodeResponse(t, queueResp, &emptyQueue)
	require.Empty(t, emptyQueue.Data)

	// Student submits.
	submitResp, err := a.app.Test(asStudent(jsonRequest(t, "POST", "/api/v2/essays/Why%20Stanford/submit", nil), "Jordan Li"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, submitResp.StatusCode)

	// Further edits are rejected.
	editResp, err := a.app.Test(asStudent(jsonRequest(t, "PUT", "/api/v2/essays", dto.EssayDraftRequest{
		Title:   "Why Stanford",
		Content: "sneaky edit",
	}), "Jordan Li"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, editResp.StatusCode)

	// The submitted essay now appears in the counselor queue.
	queueResp, err = a.app.Test(jsonRequest(t, "GET", "/api/v2/review-queue", nil))
	require.NoError(t, err)
	var queue struct {
		Data []dto.EssayResponse `json:"data"`
	}
	decodeResponse(t, queueResp, &queue)
	require.Len(t, queue.Data, 1)
	require.Equal(t, models.EssayStatusSubmitted, queue.Data[0].Status)
}

func TestEssayHandlerCounselorCannotDraft(t *testing.T) {
	a := setupReviewApp(t)

	resp, err := a.app.Test(jsonRequest(t, "PUT", "/api/v2/essays", dto.EssayDraftRequest{
		Title:   "Not My Essay",
		Content: "counselors do not draft",
	}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestCommentHandlerAnnotateAndRender(t *testing.T) {
	a := setupReviewApp(t)
	a.seedSubmittedEssay(t)

	commentResp, err := a.app.Test(jsonRequest(t, "POST", "/api/v2/annotations/Jordan%20Li/Why%20Stanford/inline", dto.InlineCommentRequest{
		SelectedText:   "quick brown",
		SelectionStart: -1,
		Text:           "Nice concrete image.",
	}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, commentResp.StatusCode)

	var commentBody struct {
		Data models.InlineComment `json:"data"`
	}
	decodeResponse(t, commentResp, &commentBody)
	require.Equal(t, 4, commentBody.Data.Start)
	require.Equal(t, "quick brown", commentBody.Data.Quote)

	// Students cannot leave comments.
	blockedResp, err := a.app.Test(asStudent(jsonRequest(t, "POST", "/api/v2/annotations/Jordan%20Li/Why%20Stanford/general", dto.GeneralCommentRequest{
		Text: "self review",
	}), "Jordan Li"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, blockedResp.StatusCode)

	// The student can view the rendered essay with highlights.
	renderResp, err := a.app.Test(asStudent(jsonRequest(t, "GET", "/api/v2/annotations/Jordan%20Li/Why%20Stanford/rendered", nil), "Jordan Li"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, renderResp.StatusCode)

	var renderBody struct {
		Data dto.RenderedEssayResponse `json:"data"`
	}
	decodeResponse(t, renderResp, &renderBody)
	require.Len(t, renderBody.Data.Segments, 3)
	require.NotNil(t, renderBody.Data.Segments[1].Comment)
	require.Equal(t, "quick brown", renderBody.Data.Segments[1].Text)
}

func TestCommentHandlerSelectionNotFound(t *testing.T) {
	a := setupReviewApp(t)
	a.seedSubmittedEssay(t)

	resp, err := a.app.Test(jsonRequest(t, "POST", "/api/v2/annotations/Jordan%20Li/Why%20Stanford/inline", dto.InlineCommentRequest{
		SelectedText:   "purple elephant",
		SelectionStart: -1,
		Text:           "anchored nowhere",
	}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}
