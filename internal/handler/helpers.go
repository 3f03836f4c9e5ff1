package handler

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/compass-advising/compass-api/internal/annotation"
	"github.com/compass-advising/compass-api/internal/middleware"
	"github.com/compass-advising/compass-api/internal/repository"
	"github.com/compass-advising/compass-api/internal/service"
	"github.com/compass-advising/compass-api/internal/utils"
)

// pathParam returns the named route parameter with URL escaping undone, so
// essay titles with spaces round-trip through the path.
func pathParam(c *fiber.Ctx, key string) string {
	raw := c.Params(key)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

func parseUintParam(c *fiber.Ctx, key string) (uint, error) {
	value := strings.TrimSpace(c.Params(key))
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+key)
	}
	return uint(parsed), nil
}

func userIDFromContext(c *fiber.Ctx) uint {
	if v := c.Locals("user_id"); v != nil {
		if id, ok := v.(uint); ok {
			return id
		}
		if id, ok := v.(int); ok && id >= 0 {
			return uint(id)
		}
	}
	return 0
}

func userNameFromContext(c *fiber.Ctx) string {
	if v := c.Locals("user_name"); v != nil {
		if name, ok := v.(string); ok {
			return strings.TrimSpace(name)
		}
	}
	return ""
}

func userRoleFromContext(c *fiber.Ctx) string {
	if v := c.Locals("user_role"); v != nil {
		if role, ok := v.(string); ok {
			return strings.ToLower(strings.TrimSpace(role))
		}
	}
	return ""
}

func isCounselor(c *fiber.Ctx) bool {
	role := userRoleFromContext(c)
	return role == middleware.AuthRoleCounselor || role == "admin"
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

// respondServiceError maps domain errors onto HTTP statuses. Validation
// failures and gate rejections are user-correctable; they surface with the
// reason, never as a bare 500.
func respondServiceError(c *fiber.Ctx, logger *zerolog.Logger, err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var incomplete *service.IncompleteReviewError
	if errors.As(err, &incomplete) {
		return utils.SendError(c, fiber.StatusUnprocessableEntity, incomplete.Error())
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return utils.SendError(c, fiberErr.Code, fiberErr.Message)
	}

	switch {
	case errors.Is(err, service.ErrInvalidScore),
		errors.Is(err, service.ErrInvalidReference),
		errors.Is(err, service.ErrEssayNotSubmitted),
		errors.Is(err, service.ErrEssayReadOnly),
		errors.Is(err, service.ErrRubricHasNoCriteria),
		errors.Is(err, annotation.ErrEmptySelection):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, annotation.ErrSelectionNotFound):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrDuplicateReview),
		errors.Is(err, service.ErrReviewCompleted),
		errors.Is(err, service.ErrRubricInUse):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrReviewNotFound),
		errors.Is(err, service.ErrRubricNotFound),
		errors.Is(err, service.ErrCriterionNotFound),
		errors.Is(err, repository.ErrEssayNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotRubricOwner),
		errors.Is(err, service.ErrNotReviewOwner):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	}

	logger.Error().Err(err).Msg("unexpected service error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal error")
}
