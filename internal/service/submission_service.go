package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/labelforge/labelforge-api/internal/dto"
	"github.com/labelforge/labelforge-api/internal/grading"
	"github.com/labelforge/labelforge-api/internal/models"
	"github.com/labelforge/labelforge-api/internal/observability"
	"github.com/labelforge/labelforge-api/internal/repository"
)

// ErrSubmissionNotFound indicates a submission could not be found.
var ErrSubmissionNotFound = errors.New("submission not found")

// ErrAssignmentNotFound indicates the task assignment was not located.
var ErrAssignmentNotFound = errors.New("assignment not found")

// ErrAssignmentForbidden indicates the actor does not own the assignment.
var ErrAssignmentForbidden = errors.New("assignment belongs to another labeler")

// ErrTaskNotActive indicates the task no longer accepts submissions.
var ErrTaskNotActive = errors.New("task is not active")

// ErrSubmissionNotEvaluated indicates a review was attempted on a draft.
var ErrSubmissionNotEvaluated = errors.New("submission has not been evaluated")

// SubmissionService orchestrates the labeling response lifecycle: drafts,
// evaluated submissions, reviews and reviewer-authored answer keys.
type SubmissionService interface {
	SaveDraft(ctx context.Context, payload dto.SubmissionDraftRequest, actor ActivityActor) (dto.SubmissionResponse, error)
	Submit(ctx context.Context, payload dto.SubmissionSubmitRequest, actor ActivityActor) (dto.SubmissionResponse, error)
	Get(ctx context.Context, id uint) (dto.SubmissionResponse, error)
	List(ctx context.Context, filter dto.SubmissionListFilter) ([]dto.SubmissionResponse, error)
	Review(ctx context.Context, id uint, payload dto.SubmissionReviewRequest, actor ActivityActor) (dto.SubmissionResponse, error)
	CreateReviewerAnswer(ctx context.Context, payload dto.ReviewerAnswerRequest, actor ActivityActor) (dto.SubmissionResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	tasks       repository.TaskRepository
	validator   *validator.Validate
	events      EventPublisher
	activity    ActivityRecorder
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(
	submissions repository.SubmissionRepository,
	assignments repository.AssignmentRepository,
	tasks repository.TaskRepository,
	validate *validator.Validate,
	events EventPublisher,
	activity ActivityRecorder,
	logger zerolog.Logger,
) SubmissionService {
	return &submissionService{
		submissions: submissions,
		assignments: assignments,
		tasks:       tasks,
		validator:   validate,
		events:      events,
		activity:    activity,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "submission_service").Logger(),
		now:         time.Now,
	}
}

// SaveDraft persists work in progress without touching the grading engine:
// partial saves must never produce or replace an evaluation.
func (s *submissionService) SaveDraft(ctx context.Context, payload dto.SubmissionDraftRequest, actor ActivityActor) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	assignment, err := s.lookupAssignment(ctx, payload.AssignmentID, actor)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByAssignment(ctx, assignment.ID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, err
		}
		submission = models.Submission{
			AssignmentID: assignment.ID,
			TaskID:       assignment.TaskID,
			LabelerID:    assignment.LabelerID,
			Status:       models.SubmissionStatusDraft,
		}
	}

	submission.ResponseText = payload.ResponseText

	if submission.ID == 0 {
		err = s.submissions.Create(ctx, &submission)
	} else {
		err = s.submissions.Update(ctx, &submission)
	}
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	if assignment.Status == models.AssignmentStatusAssigned {
		assignment.Status = models.AssignmentStatusInProgress
		if err := s.assignments.Update(ctx, &assignment); err != nil {
			s.logger.Warn().Err(err).Uint("assignment_id", assignment.ID).Msg("failed to advance assignment status")
		}
	}

	return s.reload(ctx, submission.ID)
}

// Submit finalizes a response: the engine evaluates it against the task's
// frozen grader list and the resulting record fully replaces any prior
// evaluation for this submission.
func (s *submissionService) Submit(ctx context.Context, payload dto.SubmissionSubmitRequest, actor ActivityActor) (dto.SubmissionResponse, error) {
	tracer := otel.Tracer("github.com/labelforge/labelforge-api/internal/service/submission")
	ctx, span := tracer.Start(ctx, "submission.submit")
	span.SetAttributes(
		attribute.Int64("submission.assignment_id", int64(payload.AssignmentID)),
		attribute.Int64("submission.actor_id", int64(actor.ID)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionResponse{}, err
	}

	assignment, err := s.lookupAssignment(ctx, payload.AssignmentID, actor)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "assignment_lookup_failed")
		return dto.SubmissionResponse{}, err
	}

	if !assignment.Task.IsActive() {
		span.SetStatus(codes.Error, "task_not_active")
		return dto.SubmissionResponse{}, ErrTaskNotActive
	}

	evaluation, err := s.evaluate(payload.ResponseText, assignment.Task)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "evaluation_failed")
		return dto.SubmissionResponse{}, err
	}

	resultPayload, err := json.Marshal(evaluation)
	if err != nil {
		return dto.SubmissionResponse{}, fmt.Errorf("failed to encode evaluation: %w", err)
	}

	submission, err := s.submissions.GetByAssignment(ctx, assignment.ID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, err
		}
		submission = models.Submission{
			AssignmentID: assignment.ID,
			TaskID:       assignment.TaskID,
			LabelerID:    assignment.LabelerID,
		}
	}

	score := evaluation.PercentageScore
	submission.ResponseText = payload.ResponseText
	submission.Status = models.SubmissionStatusSubmitted
	submission.GraderResults = datatypes.JSON(resultPayload)
	submission.Score = &score

	if submission.ID == 0 {
		err = s.submissions.Create(ctx, &submission)
	} else {
		err = s.submissions.Update(ctx, &submission)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_persist_failed")
		return dto.SubmissionResponse{}, err
	}

	if assignment.Status != models.AssignmentStatusCompleted {
		assignment.Status = models.AssignmentStatusCompleted
		if err := s.assignments.Update(ctx, &assignment); err != nil {
			s.logger.Warn().Err(err).Uint("assignment_id", assignment.ID).Msg("failed to complete assignment")
		}
	}

	s.publish(ctx, SubmissionEvent{
		Type:         EventSubmissionEvaluated,
		SubmissionID: submission.ID,
		TaskID:       submission.TaskID,
		LabelerID:    submission.LabelerID,
		Score:        &score,
	})

	s.recordActivity(ctx, actor, "submission.evaluated", submission.ID, map[string]interface{}{
		"task_id": submission.TaskID,
		"score":   score,
	})

	span.SetAttributes(attribute.Float64("submission.score", score))
	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("task_id", submission.TaskID).
		Float64("score", score).
		Msg("submission evaluated")

	return s.reload(ctx, submission.ID)
}

// evaluate runs the grading engine over the task's frozen grader list and
// records engine metrics. An ErrInvalidGrader from the engine means the task
// was authored incorrectly; it is surfaced to the caller, never scored as 0.
func (s *submissionService) evaluate(responseText string, task models.Task) (grading.EvaluationResult, error) {
	var graders []grading.GraderConfig
	if err := json.Unmarshal(task.Graders, &graders); err != nil {
		observability.Evaluations().WithLabelValues("config_error").Inc()
		return grading.EvaluationResult{}, fmt.Errorf("%w: stored grader payload unreadable: %v", ErrGraderConfigInvalid, err)
	}

	start := s.now()
	evaluation, err := grading.EvaluateResponse(responseText, graders)
	observability.EvaluationDuration().Observe(time.Since(start).Seconds())
	if err != nil {
		observability.Evaluations().WithLabelValues("config_error").Inc()
		return grading.EvaluationResult{}, fmt.Errorf("%w: %v", ErrGraderConfigInvalid, err)
	}

	observability.Evaluations().WithLabelValues("ok").Inc()
	observability.EvaluationScores().Observe(evaluation.PercentageScore)

	return evaluation, nil
}

func (s *submissionService) Get(ctx context.Context, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) List(ctx context.Context, filter dto.SubmissionListFilter) ([]dto.SubmissionResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, err
	}

	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{
		TaskID:          filter.TaskID,
		LabelerID:       filter.LabelerID,
		Status:          filter.Status,
		ReviewerCreated: filter.ReviewerCreated,
		OrderByScore:    filter.OrderByScore,
	})
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

// Review records a reviewer's sign-off on an evaluated submission. The stored
// evaluation is left untouched: reviewers audit the engine's output, they do
// not override it.
func (s *submissionService) Review(ctx context.Context, id uint, payload dto.SubmissionReviewRequest, actor ActivityActor) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if !submission.IsEvaluated() {
		return dto.SubmissionResponse{}, ErrSubmissionNotEvaluated
	}

	reviewedAt := s.now()
	reviewedBy := actor.ID
	submission.Status = models.SubmissionStatusReviewed
	submission.Feedback = s.sanitizer.Sanitize(payload.Feedback)
	submission.ReviewedBy = &reviewedBy
	submission.ReviewedAt = &reviewedAt

	if err := s.submissions.Update(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.publish(ctx, SubmissionEvent{
		Type:         EventSubmissionReviewed,
		SubmissionID: submission.ID,
		TaskID:       submission.TaskID,
		LabelerID:    submission.LabelerID,
		Score:        submission.Score,
		Feedback:     submission.Feedback,
	})

	s.recordActivity(ctx, actor, "submission.reviewed", submission.ID, map[string]interface{}{
		"task_id": submission.TaskID,
	})

	return s.reload(ctx, submission.ID)
}

// CreateReviewerAnswer stores a reviewer's filled form as an authoritative
// answer key. It runs through the exact same evaluation path as labeler
// submissions; the flag is the only difference.
func (s *submissionService) CreateReviewerAnswer(ctx context.Context, payload dto.ReviewerAnswerRequest, actor ActivityActor) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	task, err := s.tasks.GetByID(ctx, payload.TaskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrTaskNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	evaluation, err := s.evaluate(payload.ResponseText, task)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	resultPayload, err := json.Marshal(evaluation)
	if err != nil {
		return dto.SubmissionResponse{}, fmt.Errorf("failed to encode evaluation: %w", err)
	}

	score := evaluation.PercentageScore
	submission := models.Submission{
		TaskID:            task.ID,
		LabelerID:         actor.ID,
		ResponseText:      payload.ResponseText,
		Status:            models.SubmissionStatusSubmitted,
		GraderResults:     datatypes.JSON(resultPayload),
		Score:             &score,
		IsReviewerCreated: true,
	}

	if err := s.submissions.Create(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.recordActivity(ctx, actor, "submission.reviewer_answer_created", submission.ID, map[string]interface{}{
		"task_id": task.ID,
	})

	return s.reload(ctx, submission.ID)
}

func (s *submissionService) lookupAssignment(ctx context.Context, id uint, actor ActivityActor) (models.TaskAssignment, error) {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.TaskAssignment{}, ErrAssignmentNotFound
		}
		return models.TaskAssignment{}, err
	}

	// Admins may submit on behalf of labelers; everyone else only on their
	// own assignments.
	if actor.Role != models.RoleAdmin && assignment.LabelerID != actor.ID {
		return models.TaskAssignment{}, ErrAssignmentForbidden
	}

	return assignment, nil
}

func (s *submissionService) reload(ctx context.Context, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) publish(ctx context.Context, event SubmissionEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("event_type", event.Type).Msg("failed to publish submission event")
	}
}

func (s *submissionService) recordActivity(ctx context.Context, actor ActivityActor, action string, submissionID uint, metadata map[string]interface{}) {
	if s.activity == nil {
		return
	}
	if _, err := s.activity.Record(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "submission",
		EntityID:   &submissionID,
		Metadata:   metadata,
	}); err != nil {
		s.logger.Warn().Err(err).Msg("failed to record submission activity")
	}
}
