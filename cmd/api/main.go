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

	"github.com/labelforge/labelforge-api/internal/config"
	"github.com/labelforge/labelforge-api/internal/database"
	"github.com/labelforge/labelforge-api/internal/handler"
	"github.com/labelforge/labelforge-api/internal/middleware"
	"github.com/labelforge/labelforge-api/internal/models"
	"github.com/labelforge/labelforge-api/internal/repository"
	"github.com/labelforge/labelforge-api/internal/router"
	"github.com/labelforge/labelforge-api/internal/service"
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

	if err := db.AutoMigrate(
		&models.Labeler{},
		&models.Task{},
		&models.TaskAssignment{},
		&models.Submission{},
		&models.ActivityLog{},
	); err != nil {
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

	taskRepo := repository.NewTaskRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	eventPublisher := service.NewEventPublisher(natsConn, cfg.EventSubject, logger)
	activityService := service.NewActivityService(activityRepo, validate, logger)
	taskService := service.NewTaskService(taskRepo, validate, activityService, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentRepo, taskRepo, validate, eventPublisher, activityService, logger)
	evaluationService := service.NewEvaluationService(validate, logger)
	dashboardService := service.NewDashboardService(assignmentRepo, submissionRepo, redisClient, cfg.DashboardCacheTTL, logger)

	taskHandler := handler.NewTaskHandler(taskService, logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, logger)
	evaluationHandler := handler.NewEvaluationHandler(evaluationService, logger)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, logger)
	activityHandler := handler.NewActivityHandler(activityService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		TaskHandler:       taskHandler,
		SubmissionHandler: submissionHandler,
		EvaluationHandler: evaluationHandler,
		DashboardHandler:  dashboardHandler,
		ActivityHandler:   activityHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
		SubmitRateLimit:   middleware.RateLimit("submissions", cfg.SubmitRateLimit, cfg.SubmitRateWindow),
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
