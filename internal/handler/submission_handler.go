package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/labelforge/labelforge-api/internal/dto"
	"github.com/labelforge/labelforge-api/internal/service"
	"github.com/labelforge/labelforge-api/internal/utils"
)

// SubmissionHandler manages submission endpoints.
type SubmissionHandler struct {
	service service.SubmissionService
	logger  zerolog.Logger
}

// NewSubmissionHandler builds a submission handler instance.
func NewSubmissionHandler(service service.SubmissionService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
		logger:  logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *SubmissionHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("/draft", h.saveDraft)
	router.Post("/submit", h.submit)
	router.Get("/:id", h.get)
	router.Post("/:id/review", h.review)
}

// RegisterReviewerRoutes attaches routes limited to reviewers and admins.
func (h *SubmissionHandler) RegisterReviewerRoutes(router fiber.Router) {
	router.Post("/reviewer-answers", h.createReviewerAnswer)
}

func (h *SubmissionHandler) list(c *fiber.Ctx) error {
	filter := dto.SubmissionListFilter{}
	if taskID, err := parseQueryUint(c, "task_id"); err == nil && taskID != nil {
		filter.TaskID = taskID
	}
	if labelerID, err := parseQueryUint(c, "labeler_id"); err == nil && labelerID != nil {
		filter.LabelerID = labelerID
	}
	if status := c.Query("status"); status != "" {
		filter.Status = &status
	}
	if reviewerCreated, err := parseQueryBool(c, "reviewer_created"); err == nil && reviewerCreated != nil {
		filter.ReviewerCreated = reviewerCreated
	}
	filter.OrderByScore = c.QueryBool("order_by_score")

	submissions, err := h.service.List(requestContext(c), filter)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *SubmissionHandler) saveDraft(c *fiber.Ctx) error {
	var payload dto.SubmissionDraftRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	actor := activityActorFromContext(c)
	submission, err := h.service.SaveDraft(requestContext(c), payload, actor)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "draft saved", submission)
}

func (h *SubmissionHandler) submit(c *fiber.Ctx) error {
	var payload dto.SubmissionSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	actor := activityActorFromContext(c)
	submission, err := h.service.Submit(requestContext(c), payload, actor)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission evaluated", submission)
}

func (h *SubmissionHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.service.Get(requestContext(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission retrieved", submission)
}

func (h *SubmissionHandler) review(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SubmissionReviewRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	actor := activityActorFromContext(c)
	submission, err := h.service.Review(requestContext(c), id, payload, actor)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission reviewed", submission)
}

func (h *SubmissionHandler) createReviewerAnswer(c *fiber.Ctx) error {
	var payload dto.ReviewerAnswerRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	actor := activityActorFromContext(c)
	submission, err := h.service.CreateReviewerAnswer(requestContext(c), payload, actor)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "reviewer answer created", submission)
}

func (h *SubmissionHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrAssignmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
	case errors.Is(err, service.ErrTaskNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "task not found")
	case errors.Is(err, service.ErrAssignmentForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "assignment belongs to another labeler")
	case errors.Is(err, service.ErrTaskNotActive):
		return utils.SendError(c, fiber.StatusConflict, "task is not active")
	case errors.Is(err, service.ErrSubmissionNotEvaluated):
		return utils.SendError(c, fiber.StatusConflict, "submission has not been evaluated")
	case errors.Is(err, service.ErrGraderConfigInvalid):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
