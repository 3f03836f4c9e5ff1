package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/compass-advising/compass-api/internal/dto"
	"github.com/compass-advising/compass-api/internal/service"
	"github.com/compass-advising/compass-api/internal/utils"
)

// CommentHandler manages inline and general comments on submitted essays.
type CommentHandler struct {
	service   service.CommentService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewCommentHandler builds a comment handler instance.
func NewCommentHandler(service service.CommentService, validator *validator.Validate, logger zerolog.Logger) *CommentHandler {
	return &CommentHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "comment_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group. Routes are
// keyed by the essay owner and title since essays live in the document store.
// Any authenticated user may view the rendered essay; writeGuards gate the
// comment routes to counselors.
func (h *CommentHandler) Register(router fiber.Router, writeGuards ...fiber.Handler) {
	router.Get("/:owner/:title/rendered", h.render)
	router.Post("/:owner/:title/inline", append(writeGuards, h.addInline)...)
	router.Post("/:owner/:title/general", append(writeGuards, h.addGeneral)...)
}

func (h *CommentHandler) render(c *fiber.Ctx) error {
	rendered, err := h.service.Render(c.Context(), pathParam(c, "owner"), pathParam(c, "title"))
	if err != nil {
		return respondServiceError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "essay rendered", rendered)
}

func (h *CommentHandler) addInline(c *fiber.Ctx) error {
	var payload dto.InlineCommentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	comment, err := h.service.AddInlineComment(c.Context(), pathParam(c, "owner"), pathParam(c, "title"), userNameFromContext(c), payload)
	if err != nil {
		return respondServiceError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "inline comment added", comment)
}

func (h *CommentHandler) addGeneral(c *fiber.Ctx) error {
	var payload dto.GeneralCommentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	comment, err := h.service.AddGeneralComment(c.Context(), pathParam(c, "owner"), pathParam(c, "title"), userNameFromContext(c), payload)
	if err != nil {
		return respondServiceError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "general comment added", comment)
}
