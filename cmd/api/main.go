package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/compass-advising/compass-api/internal/config"
	"github.com/compass-advising/compass-api/internal/database"
	"github.com/compass-advising/compass-api/internal/handler"
	"github.com/compass-advising/compass-api/internal/middleware"
	"github.com/compass-advising/compass-api/internal/repository"
	"github.com/compass-advising/compass-api/internal/router"
	"github.com/compass-advising/compass-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	rubricRepo := repository.NewRubricRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	essayStore := repository.NewEssayStore(redisClient, cfg.ChannelBase)

	scale := service.ScoreScale{Min: cfg.ScoreMin, Max: cfg.ScoreMax}

	rubricService := service.NewRubricService(rubricRepo, reviewRepo, validate, logger)
	reviewService := service.NewReviewService(reviewRepo, rubricRepo, essayStore, validate, scale, logger)
	essayService := service.NewEssayService(essayStore, validate, logger)
	commentService := service.NewCommentService(essayStore, validate, logger)
	feedService := service.NewEssayFeedService(redisClient, essayStore.Channel(), natsConn, logger)

	feedCtx, stopFeed := context.WithCancel(context.Background())
	defer stopFeed()
	feedService.Start(feedCtx)

	rubricHandler := handler.NewRubricHandler(rubricService, validate, logger)
	reviewHandler := handler.NewReviewHandler(reviewService, validate, logger)
	essayHandler := handler.NewEssayHandler(essayService, validate, logger)
	commentHandler := handler.NewCommentHandler(commentService, validate, logger)
	feedHandler := handler.NewFeedHandler(feedService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		RubricHandler:  rubricHandler,
		ReviewHandler:  reviewHandler,
		EssayHandler:   essayHandler,
		CommentHandler: commentHandler,
		FeedHandler:    feedHandler,
		JWTMiddleware:  middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
