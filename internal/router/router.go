package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/labelforge/labelforge-api/internal/config"
	"github.com/labelforge/labelforge-api/internal/handler"
	"github.com/labelforge/labelforge-api/internal/middleware"
	"github.com/labelforge/labelforge-api/internal/models"
	"github.com/labelforge/labelforge-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	TaskHandler       *handler.TaskHandler
	SubmissionHandler *handler.SubmissionHandler
	EvaluationHandler *handler.EvaluationHandler
	DashboardHandler  *handler.DashboardHandler
	ActivityHandler   *handler.ActivityHandler
	JWTMiddleware     fiber.Handler
	SubmitRateLimit   fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	if deps.JWTMiddleware == nil {
		panic("router: JWT middleware is required")
	}
	jwtMiddleware := deps.JWTMiddleware

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	if deps.TaskHandler != nil {
		tasks := api.Group("/tasks", jwtMiddleware, middleware.RequireRole(models.RoleAdmin, models.RoleReviewer, models.RoleLabeler))
		deps.TaskHandler.Register(tasks)
	}

	if deps.SubmissionHandler != nil {
		submissions := api.Group("/submissions", jwtMiddleware)
		if deps.SubmitRateLimit != nil {
			submissions.Use(deps.SubmitRateLimit)
		}
		deps.SubmissionHandler.Register(submissions)

		reviewer := api.Group("/submissions", jwtMiddleware, middleware.RequireRole(models.RoleAdmin, models.RoleReviewer))
		deps.SubmissionHandler.RegisterReviewerRoutes(reviewer)
	}

	if deps.EvaluationHandler != nil {
		evaluations := api.Group("/evaluations", jwtMiddleware, middleware.RequireRole(models.RoleAdmin, models.RoleReviewer))
		deps.EvaluationHandler.Register(evaluations)
	}

	if deps.DashboardHandler != nil {
		dashboards := api.Group("/dashboards", jwtMiddleware)
		deps.DashboardHandler.Register(dashboards)

		oversight := api.Group("/dashboards", jwtMiddleware, middleware.RequireRole(models.RoleAdmin, models.RoleReviewer))
		deps.DashboardHandler.RegisterReviewerRoutes(oversight)
	}

	if deps.ActivityHandler != nil {
		activity := api.Group("/activity", jwtMiddleware, middleware.RequireRole(models.RoleAdmin))
		deps.ActivityHandler.Register(activity)
	}
}
