package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/compass-advising/compass-api/internal/dto"
	"github.com/compass-advising/compass-api/internal/service"
	"github.com/compass-advising/compass-api/internal/utils"
)

// EssayHandler manages essay draft and submission endpoints.
type EssayHandler struct {
	service   service.EssayService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewEssayHandler builds an essay handler instance.
func NewEssayHandler(service service.EssayService, validator *validator.Validate, logger zerolog.Logger) *EssayHandler {
	return &EssayHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "essay_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group. Student routes
// operate on the caller's own essays; the review queue is for counselors.
func (h *EssayHandler) Register(student fiber.Router, counselor fiber.Router) {
	student.Get("", h.listOwned)
	student.Put("", h.saveDraft)
	student.Get("/:title", h.get)
	student.Post("/:title/submit", h.submit)

	counselor.Get("", h.listForReview)
}

func (h *EssayHandler) listOwned(c *fiber.Ctx) error {
	essays, err := h.service.ListOwned(c.Context(), userNameFromContext(c))
	if err != nil {
		return respondServiceError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "essays retrieved", essays)
}

func (h *EssayHandler) get(c *fiber.Ctx) error {
	essay, err := h.service.Get(c.Context(), userNameFromContext(c), pathParam(c, "title"))
	if err != nil {
		return respondServiceError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "essay retrieved", essay)
}

func (h *EssayHandler) saveDraft(c *fiber.Ctx) error {
	var payload dto.EssayDraftRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	essay, err := h.service.SaveDraft(c.Context(), userNameFromContext(c), payload)
	if err != nil {
		return respondServiceError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "draft saved", essay)
}

func (h *EssayHandler) submit(c *fiber.Ctx) error {
	essay, err := h.service.Submit(c.Context(), userNameFromContext(c), pathParam(c, "title"))
	if err != nil {
		return respondServiceError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "essay submitted", essay)
}

func (h *EssayHandler) listForReview(c *fiber.Ctx) error {
	essays, err := h.service.ListForReview(c.Context())
	if err != nil {
		return respondServiceError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "submitted essays retrieved", essays)
}
