package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/compass-advising/compass-api/internal/config"
	"github.com/compass-advising/compass-api/internal/handler"
	"github.com/compass-advising/compass-api/internal/middleware"
	"github.com/compass-advising/compass-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	RubricHandler  *handler.RubricHandler
	ReviewHandler  *handler.ReviewHandler
	EssayHandler   *handler.EssayHandler
	CommentHandler *handler.CommentHandler
	FeedHandler    *handler.FeedHandler
	JWTMiddleware  fiber.Handler
}

func passThrough(c *fiber.Ctx) error { return c.Next() }

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = passThrough
	}

	counselorOnly := middleware.WithAuth(passThrough, middleware.AuthOptions{Role: middleware.AuthRoleCounselor})
	studentOnly := middleware.WithAuth(passThrough, middleware.AuthOptions{Role: middleware.AuthRoleStudent})
	authenticated := middleware.WithAuth(passThrough, middleware.AuthOptions{RequireUser: true})

	// Rubric management is a counselor tool.
	if deps.RubricHandler != nil {
		rubrics := app.Group("/api/v2/rubrics", jwtMiddleware, counselorOnly)
		deps.RubricHandler.Register(rubrics)
	}

	// Reviews are counselor-driven; students get a read-only feedback view.
	if deps.ReviewHandler != nil {
		reviews := app.Group("/api/v2/reviews", jwtMiddleware, counselorOnly)
		deps.ReviewHandler.Register(reviews)

		feedback := app.Group("/api/v2/feedback", jwtMiddleware, authenticated)
		deps.ReviewHandler.RegisterFeedbackView(feedback)
	}

	// Essay drafting belongs to students; the review queue to counselors.
	// Draft saves are autosave-driven, so they get a per-user rate limit.
	if deps.EssayHandler != nil {
		essays := app.Group("/api/v2/essays", jwtMiddleware, studentOnly, middleware.RateLimit("essays", 120, time.Minute))
		queue := app.Group("/api/v2/review-queue", jwtMiddleware, counselorOnly)
		deps.EssayHandler.Register(essays, queue)
	}

	// Rendered essay view for everyone signed in, commenting for counselors.
	if deps.CommentHandler != nil {
		annotations := app.Group("/api/v2/annotations", jwtMiddleware, authenticated)
		deps.CommentHandler.Register(annotations, counselorOnly, middleware.RateLimit("annotations", 60, time.Minute))
	}

	// Live essay change feed over websocket.
	if deps.FeedHandler != nil {
		feed := app.Group("/api/v2/essay-feed", jwtMiddleware, authenticated)
		deps.FeedHandler.Register(feed)
	}
}
