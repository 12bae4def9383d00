package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/labelforge/labelforge-api/internal/service"
	"github.com/labelforge/labelforge-api/internal/utils"
)

// DashboardHandler serves aggregated workload views for labelers.
type DashboardHandler struct {
	service service.DashboardService
	logger  zerolog.Logger
}

// NewDashboardHandler builds a dashboard handler instance.
func NewDashboardHandler(service service.DashboardService, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		logger:  logger.With().Str("component", "dashboard_handler").Logger(),
	}
}

// Register attaches the self-service routes to the provided router group.
func (h *DashboardHandler) Register(router fiber.Router) {
	router.Get("/me", h.me)
}

// RegisterReviewerRoutes attaches routes that expose other labelers'
// dashboards; the router guards the group with a reviewer/admin role check.
func (h *DashboardHandler) RegisterReviewerRoutes(router fiber.Router) {
	router.Get("/labelers/:id", h.byLabeler)
}

func (h *DashboardHandler) me(c *fiber.Ctx) error {
	labelerID := userIDFromContext(c)
	if labelerID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	dashboard, err := h.service.GetLabelerDashboard(requestContext(c), labelerID)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to build dashboard")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "dashboard retrieved", dashboard)
}

func (h *DashboardHandler) byLabeler(c *fiber.Ctx) error {
	labelerID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	dashboard, err := h.service.GetLabelerDashboard(requestContext(c), labelerID)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to build dashboard")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "dashboard retrieved", dashboard)
}
