package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/compass-advising/compass-api/internal/dto"
	"github.com/compass-advising/compass-api/internal/service"
	"github.com/compass-advising/compass-api/internal/utils"
)

// ReviewHandler manages essay review endpoints.
type ReviewHandler struct {
	service   service.ReviewService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewReviewHandler builds a review handler instance.
func NewReviewHandler(service service.ReviewService, validator *validator.Validate, logger zerolog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "review_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ReviewHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Get("/by-essay", h.getByEssay)
	router.Get("/:id", h.detail)
	router.Put("/:id/criteria/:criterionId", h.submitCriterionFeedback)
	router.Put("/:id/assessment", h.submitOverallAssessment)
	router.Post("/:id/complete", h.complete)
}

// RegisterFeedbackView exposes the read-only review lookup students use to
// see feedback on their submitted essays. Students only see completed
// reviews on essays they own; counselors can look up any completed review.
func (h *ReviewHandler) RegisterFeedbackView(router fiber.Router) {
	router.Get("", h.feedbackView)
}

func (h *ReviewHandler) create(c *fiber.Ctx) error {
	var payload dto.ReviewCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	review, err := h.service.Create(c.Context(), userIDFromContext(c), payload)
	if err != nil {
		return respondServiceError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "review created", review)
}

func (h *ReviewHandler) detail(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondServiceError(c, requestLogger(h.logger, c), err)
	}

	detail, err := h.service.GetDetail(c.Context(), id)
	if err != nil {
		return respondServiceError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "review retrieved", detail)
}

func (h *ReviewHandler) getByEssay(c *fiber.Ctx) error {
	student := c.Query("student")
	title := c.Query("title")
	if student == "" || title == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "student and title query parameters are required")
	}

	review, err := h.service.GetByEssay(c.Context(), student, title)
	if err != nil {
		return respondServiceError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "review retrieved", review)
}

func (h *ReviewHandler) feedbackView(c *fiber.Ctx) error {
	student := c.Query("student")
	title := c.Query("title")
	if student == "" || title == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "student and title query parameters are required")
	}

	// A student asking about someone else's essay gets the same answer as
	// asking about an essay that has no review.
	if !isCounselor(c) && userNameFromContext(c) != student {
		return respondServiceError(c, requestLogger(h.logger, c), service.ErrReviewNotFound)
	}

	review, err := h.service.GetCompletedByEssay(c.Context(), student, title)
	if err != nil {
		return respondServiceError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "review retrieved", review)
}

func (h *ReviewHandler) submitCriterionFeedback(c *fiber.Ctx) error {
	reviewID, err := parseUintParam(c, "id")
	if err != nil {
		return respondServiceError(c, requestLogger(h.logger, c), err)
	}
	criterionID, err := parseUintParam(c, "criterionId")
	if err != nil {
		return respondServiceError(c, requestLogger(h.logger, c), err)
	}

	var payload dto.CriterionFeedbackRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	feedback, err := h.service.SubmitCriterionFeedback(c.Context(), reviewID, criterionID, userIDFromContext(c), payload)
	if err != nil {
		return respondServiceError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "criterion feedback saved", feedback)
}

func (h *ReviewHandler) submitOverallAssessment(c *fiber.Ctx) error {
	reviewID, err := parseUintParam(c, "id")
	if err != nil {
		return respondServiceError(c, requestLogger(h.logger, c), err)
	}

	var payload dto.OverallAssessmentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	review, err := h.service.SubmitOverallAssessment(c.Context(), reviewID, userIDFromContext(c), payload)
	if err != nil {
		return respondServiceError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "overall assessment saved", review)
}

func (h *ReviewHandler) complete(c *fiber.Ctx) error {
	reviewID, err := parseUintParam(c, "id")
	if err != nil {
		return respondServiceError(c, requestLogger(h.logger, c), err)
	}

	review, err := h.service.Complete(c.Context(), reviewID, userIDFromContext(c))
	if err != nil {
		return respondServiceError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "review completed", review)
}
