package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/labelforge/labelforge-api/internal/dto"
	"github.com/labelforge/labelforge-api/internal/grading"
	"github.com/labelforge/labelforge-api/internal/models"
	"github.com/labelforge/labelforge-api/internal/repository"
)

// ErrTaskNotFound indicates a task could not be located.
var ErrTaskNotFound = errors.New("task not found")

// ErrGraderConfigInvalid indicates an authored grader document failed schema
// or semantic validation.
var ErrGraderConfigInvalid = errors.New("grader configuration invalid")

// graderSchema is the structural contract for the authored grader document.
// Semantic rules (one active field list, known comparator types) are enforced
// by the grading engine afterwards.
const graderSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "array",
  "minItems": 1,
  "items": {
    "type": "object",
    "required": ["type", "name", "config"],
    "properties": {
      "type": {"enum": ["xml", "json", "text", "number", "unit_test"]},
      "name": {"type": "string", "minLength": 1},
      "weight": {"type": "number", "minimum": 0},
      "config": {
        "type": "object",
        "properties": {
          "structure": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["name", "type"],
              "properties": {
                "id": {"type": "string"},
                "name": {"type": "string", "minLength": 1},
                "type": {"enum": ["int", "string", "boolean", "float"]},
                "weight": {"type": "number", "minimum": 0},
                "comparator": {"$ref": "#/$defs/comparator"}
              }
            }
          },
          "test_cases": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["id", "type"],
              "properties": {
                "id": {"type": "string", "minLength": 1},
                "type": {"enum": ["int", "string", "boolean", "float"]},
                "weight": {"type": "number", "minimum": 0},
                "expected_value": {},
                "comparator": {"$ref": "#/$defs/comparator"}
              }
            }
          }
        }
      }
    }
  },
  "$defs": {
    "comparator": {
      "type": "object",
      "properties": {
        "type": {"enum": ["equals", "contains", "range", "regex"]},
        "config": {
          "type": "object",
          "properties": {
            "expected": {},
            "min": {"type": "number"},
            "max": {"type": "number"},
            "pattern": {"type": "string"}
          }
        }
      }
    }
  }
}`

var compiledGraderSchema = jsonschema.MustCompileString("graders.schema.json", graderSchema)

// TaskService orchestrates labeling task authoring and export.
type TaskService interface {
	Create(ctx context.Context, payload dto.TaskCreateRequest, actor ActivityActor) (dto.TaskResponse, error)
	Get(ctx context.Context, id uint) (dto.TaskResponse, error)
	List(ctx context.Context, filter dto.TaskListFilter) (dto.TaskListResponse, error)
	Duplicate(ctx context.Context, id uint, actor ActivityActor) (dto.TaskResponse, error)
	Export(ctx context.Context, id uint) (dto.TaskExportResponse, error)
}

type taskService struct {
	tasks     repository.TaskRepository
	validator *validator.Validate
	activity  ActivityRecorder
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewTaskService constructs a TaskService instance.
func NewTaskService(tasks repository.TaskRepository, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) TaskService {
	return &taskService{
		tasks:     tasks,
		validator: validate,
		activity:  activity,
		sanitizer: bluemonday.UGCPolicy(),
		logger:    logger.With().Str("component", "task_service").Logger(),
	}
}

func (s *taskService) Create(ctx context.Context, payload dto.TaskCreateRequest, actor ActivityActor) (dto.TaskResponse, error) {
	tracer := otel.Tracer("github.com/labelforge/labelforge-api/internal/service/task")
	ctx, span := tracer.Start(ctx, "task.create")
	span.SetAttributes(attribute.Int64("task.actor_id", int64(actor.ID)))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.TaskResponse{}, err
	}

	graders, err := parseGraders(payload.Graders)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "grader_config_invalid")
		return dto.TaskResponse{}, err
	}

	frozen, err := json.Marshal(graders)
	if err != nil {
		return dto.TaskResponse{}, fmt.Errorf("failed to freeze grader configuration: %w", err)
	}

	task := models.Task{
		Title:        payload.Title,
		Instructions: s.sanitizer.Sanitize(payload.Instructions),
		Status:       models.TaskStatusActive,
		Graders:      datatypes.JSON(frozen),
		CreatedBy:    actor.ID,
	}

	if err := s.tasks.Create(ctx, &task); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "task_create_failed")
		return dto.TaskResponse{}, err
	}

	s.recordActivity(ctx, actor, "task.created", task.ID, map[string]interface{}{
		"title":   task.Title,
		"graders": len(graders),
	})

	s.logger.Info().Uint("task_id", task.ID).Int("graders", len(graders)).Msg("task created")

	return dto.NewTaskResponse(task)
}

func (s *taskService) Get(ctx context.Context, id uint) (dto.TaskResponse, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TaskResponse{}, ErrTaskNotFound
		}
		return dto.TaskResponse{}, err
	}

	return dto.NewTaskResponse(task)
}

func (s *taskService) List(ctx context.Context, filter dto.TaskListFilter) (dto.TaskListResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return dto.TaskListResponse{}, err
	}

	tasks, total, err := s.tasks.List(ctx, repository.TaskFilter{
		Status:   filter.Status,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	})
	if err != nil {
		return dto.TaskListResponse{}, err
	}

	items := make([]dto.TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		item, err := dto.NewTaskResponse(task)
		if err != nil {
			s.logger.Warn().Err(err).Uint("task_id", task.ID).Msg("skipping task with unreadable grader payload")
			continue
		}
		items = append(items, item)
	}

	return dto.TaskListResponse{Items: items, Total: total}, nil
}

// Duplicate copies a task, including its frozen grader configuration. This is
// the only sanctioned way a grader list propagates to a new task.
func (s *taskService) Duplicate(ctx context.Context, id uint, actor ActivityActor) (dto.TaskResponse, error) {
	source, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TaskResponse{}, ErrTaskNotFound
		}
		return dto.TaskResponse{}, err
	}

	gradersCopy := make(datatypes.JSON, len(source.Graders))
	copy(gradersCopy, source.Graders)

	duplicate := models.Task{
		Title:        source.Title + " (copy)",
		Instructions: source.Instructions,
		Status:       models.TaskStatusDraft,
		Graders:      gradersCopy,
		CreatedBy:    actor.ID,
	}

	if err := s.tasks.Create(ctx, &duplicate); err != nil {
		return dto.TaskResponse{}, err
	}

	s.recordActivity(ctx, actor, "task.duplicated", duplicate.ID, map[string]interface{}{
		"source_task_id": source.ID,
	})

	return dto.NewTaskResponse(duplicate)
}

// Export produces the sanitized template copy of a task: grader expectations
// cleared, everything else intact. The live task is never mutated.
func (s *taskService) Export(ctx context.Context, id uint) (dto.TaskExportResponse, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TaskExportResponse{}, ErrTaskNotFound
		}
		return dto.TaskExportResponse{}, err
	}

	var graders []grading.GraderConfig
	if len(task.Graders) > 0 {
		if err := json.Unmarshal(task.Graders, &graders); err != nil {
			return dto.TaskExportResponse{}, fmt.Errorf("%w: stored grader payload unreadable: %v", ErrGraderConfigInvalid, err)
		}
	}

	return dto.TaskExportResponse{
		Title:        task.Title,
		Instructions: task.Instructions,
		Graders:      grading.ExportGraders(graders),
	}, nil
}

func (s *taskService) recordActivity(ctx context.Context, actor ActivityActor, action string, taskID uint, metadata map[string]interface{}) {
	if s.activity == nil {
		return
	}
	if _, err := s.activity.Record(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "task",
		EntityID:   &taskID,
		Metadata:   metadata,
	}); err != nil {
		s.logger.Warn().Err(err).Msg("failed to record task activity")
	}
}

// parseGraders validates an authored grader document structurally (schema)
// and semantically (engine) and returns the typed configuration.
func parseGraders(raw json.RawMessage) ([]grading.GraderConfig, error) {
	var document interface{}
	if err := json.Unmarshal(raw, &document); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGraderConfigInvalid, err)
	}

	if err := compiledGraderSchema.Validate(document); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGraderConfigInvalid, err)
	}

	var graders []grading.GraderConfig
	if err := json.Unmarshal(raw, &graders); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGraderConfigInvalid, err)
	}

	if err := grading.ValidateGraders(graders); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGraderConfigInvalid, err)
	}

	return graders, nil
}
