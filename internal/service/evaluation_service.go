package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/labelforge/labelforge-api/internal/dto"
	"github.com/labelforge/labelforge-api/internal/grading"
	"github.com/labelforge/labelforge-api/internal/observability"
)

// EvaluationService runs the grading engine statelessly so admins can try
// grader configurations against sample responses while authoring tasks.
// Nothing is persisted.
type EvaluationService interface {
	Preview(ctx context.Context, payload dto.EvaluationPreviewRequest) (grading.EvaluationResult, error)
}

type evaluationService struct {
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewEvaluationService constructs the stateless preview evaluator.
func NewEvaluationService(validate *validator.Validate, logger zerolog.Logger) EvaluationService {
	return &evaluationService{
		validator: validate,
		logger:    logger.With().Str("component", "evaluation_service").Logger(),
		now:       time.Now,
	}
}

func (s *evaluationService) Preview(ctx context.Context, payload dto.EvaluationPreviewRequest) (grading.EvaluationResult, error) {
	tracer := otel.Tracer("github.com/labelforge/labelforge-api/internal/service/evaluation")
	_, span := tracer.Start(ctx, "evaluation.preview")
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		return grading.EvaluationResult{}, err
	}

	graders, err := parseGraders(payload.Graders)
	if err != nil {
		observability.Evaluations().WithLabelValues("config_error").Inc()
		return grading.EvaluationResult{}, err
	}

	start := s.now()
	evaluation, err := grading.EvaluateResponse(payload.ResponseText, graders)
	observability.EvaluationDuration().Observe(time.Since(start).Seconds())
	if err != nil {
		observability.Evaluations().WithLabelValues("config_error").Inc()
		return grading.EvaluationResult{}, err
	}

	observability.Evaluations().WithLabelValues("ok").Inc()
	observability.EvaluationScores().Observe(evaluation.PercentageScore)
	span.SetAttributes(attribute.Float64("evaluation.score", evaluation.PercentageScore))

	return evaluation, nil
}
