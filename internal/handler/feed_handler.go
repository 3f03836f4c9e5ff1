package handler

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/compass-advising/compass-api/internal/service"
)

// FeedHandler wires the live essay change feed, including the websocket
// upgrade.
type FeedHandler struct {
	service service.EssayFeedService
	logger  zerolog.Logger
}

// NewFeedHandler creates a feed handler instance.
func NewFeedHandler(service service.EssayFeedService, logger zerolog.Logger) *FeedHandler {
	return &FeedHandler{
		service: service,
		logger:  logger.With().Str("component", "feed_handler").Logger(),
	}
}

// Register binds the feed routes under the provided router group.
func (h *FeedHandler) Register(router fiber.Router) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	router.Get("/ws", websocket.New(h.handleConnection))
}

func (h *FeedHandler) handleConnection(conn *websocket.Conn) {
	userID := fmt.Sprint(conn.Locals("user_name"))
	if strings.TrimSpace(userID) == "" || userID == "<nil>" {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(fiber.StatusUnauthorized, "user missing"))
		_ = conn.Close()
		return
	}

	// Counselors watch the whole queue by default; a student or a focused
	// counselor can narrow the stream to one essay.
	key := "*"
	owner := strings.TrimSpace(conn.Query("owner"))
	title := strings.TrimSpace(conn.Query("title"))
	if owner != "" && title != "" {
		key = owner + "/" + title
	}

	sub := service.FeedSubscription{
		UserID: userID,
		Key:    key,
	}

	h.logger.Info().Str("user", userID).Str("key", key).Msg("essay feed connected")
	h.service.ServeConnection(conn, sub)
	h.logger.Info().Str("user", userID).Str("key", key).Msg("essay feed disconnected")
}
