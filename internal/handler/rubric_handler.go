package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/compass-advising/compass-api/internal/dto"
	"github.com/compass-advising/compass-api/internal/service"
	"github.com/compass-advising/compass-api/internal/utils"
)

// RubricHandler manages rubric and criterion endpoints.
type RubricHandler struct {
	service   service.RubricService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewRubricHandler builds a rubric handler instance.
func NewRubricHandler(service service.RubricService, validator *validator.Validate, logger zerolog.Logger) *RubricHandler {
	return &RubricHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "rubric_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *RubricHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Patch("/:id", h.update)
	router.Delete("/:id", h.delete)

	router.Post("/:id/criteria", h.addCriterion)
	router.Put("/:id/criteria/order", h.reorderCriteria)
	router.Patch("/criteria/:criterionId", h.updateCriterion)
	router.Delete("/criteria/:criterionId", h.deleteCriterion)
}

func (h *RubricHandler) list(c *fiber.Ctx) error {
	rubrics, err := h.service.List(c.Context())
	if err != nil {
		return respondServiceError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "rubrics retrieved", rubrics)
}

func (h *RubricHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondServiceError(c, requestLogger(h.logger, c), err)
	}

	rubric, err := h.service.Get(c.Context(), id)
	if err != nil {
		return respondServiceError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "rubric retrieved", rubric)
}

func (h *RubricHandler) create(c *fiber.Ctx) error {
	var payload dto.RubricCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	rubric, err := h.service.Create(c.Context(), userIDFromContext(c), payload)
	if err != nil {
		return respondServiceError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "rubric created", rubric)
}

func (h *RubricHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondServiceError(c, requestLogger(h.logger, c), err)
	}

	var payload dto.RubricUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	rubric, err := h.service.Update(c.Context(), id, userIDFromContext(c), payload)
	if err != nil {
		return respondServiceError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "rubric updated", rubric)
}

func (h *RubricHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondServiceError(c, requestLogger(h.logger, c), err)
	}

	if err := h.service.Delete(c.Context(), id, userIDFromContext(c)); err != nil {
		return respondServiceError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "rubric deleted", nil)
}

func (h *RubricHandler) addCriterion(c *fiber.Ctx) error {
	rubricID, err := parseUintParam(c, "id")
	if err != nil {
		return respondServiceError(c, requestLogger(h.logger, c), err)
	}

	var payload dto.CriterionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	criterion, err := h.service.AddCriterion(c.Context(), rubricID, userIDFromContext(c), payload)
	if err != nil {
		return respondServiceError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "criterion created", criterion)
}

func (h *RubricHandler) updateCriterion(c *fiber.Ctx) error {
	criterionID, err := parseUintParam(c, "criterionId")
	if err != nil {
		return respondServiceError(c, requestLogger(h.logger, c), err)
	}

	var payload dto.CriterionUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	criterion, err := h.service.UpdateCriterion(c.Context(), criterionID, userIDFromContext(c), payload)
	if err != nil {
		return respondServiceError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "criterion updated", criterion)
}

func (h *RubricHandler) deleteCriterion(c *fiber.Ctx) error {
	criterionID, err := parseUintParam(c, "criterionId")
	if err != nil {
		return respondServiceError(c, requestLogger(h.logger, c), err)
	}

	if err := h.service.DeleteCriterion(c.Context(), criterionID, userIDFromContext(c)); err != nil {
		return respondServiceError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "criterion deleted", nil)
}

func (h *RubricHandler) reorderCriteria(c *fiber.Ctx) error {
	rubricID, err := parseUintParam(c, "id")
	if err != nil {
		return respondServiceError(c, requestLogger(h.logger, c), err)
	}

	var payload dto.ReorderCriteriaRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	criteria, err := h.service.ReorderCriteria(c.Context(), rubricID, userIDFromContext(c), payload)
	if err != nil {
		return respondServiceError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "criteria reordered", criteria)
}
