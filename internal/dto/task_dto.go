package dto

import (
	"encoding/json"
	"time"

	"github.com/labelforge/labelforge-api/internal/grading"
	"github.com/labelforge/labelforge-api/internal/models"
)

// TaskCreateRequest describes the payload for authoring a labeling task. The
// graders document is validated against the grader schema and frozen into the
// task record on success.
type TaskCreateRequest struct {
	Title        string          `json:"title" validate:"required,min=3,max=255"`
	Instructions string          `json:"instructions" validate:"omitempty,max=20000"`
	Graders      json.RawMessage `json:"graders" validate:"required"`
}

// TaskListFilter describes query string filters for listing tasks.
type TaskListFilter struct {
	Status   *string `query:"status" validate:"omitempty,oneof=draft active archived"`
	Page     int     `query:"page" validate:"omitempty,gte=1"`
	PageSize int     `query:"page_size" validate:"omitempty,gte=1,lte=100"`
}

// TaskResponse is returned to API clients when viewing tasks.
type TaskResponse struct {
	ID           uint                   `json:"id"`
	Title        string                 `json:"title"`
	Instructions string                 `json:"instructions"`
	Status       string                 `json:"status"`
	Graders      []grading.GraderConfig `json:"graders"`
	CreatedBy    uint                   `json:"created_by"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// TaskListResponse wraps a paginated task listing.
type TaskListResponse struct {
	Items []TaskResponse `json:"items"`
	Total int64          `json:"total"`
}

// TaskExportResponse is the sanitized, re-importable template produced by the
// export endpoint: grader expectations are cleared, everything else is
// preserved verbatim.
type TaskExportResponse struct {
	Title        string                 `json:"title"`
	Instructions string                 `json:"instructions"`
	Graders      []grading.GraderConfig `json:"graders"`
}

// TaskLite summarizes a task in submission responses.
type TaskLite struct {
	ID     uint   `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

// NewTaskResponse converts a Task model into a DTO.
func NewTaskResponse(model models.Task) (TaskResponse, error) {
	var graders []grading.GraderConfig
	if len(model.Graders) > 0 {
		if err := json.Unmarshal(model.Graders, &graders); err != nil {
			return TaskResponse{}, err
		}
	}

	return TaskResponse{
		ID:           model.ID,
		Title:        model.Title,
		Instructions: model.Instructions,
		Status:       model.Status,
		Graders:      graders,
		CreatedBy:    model.CreatedBy,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}, nil
}
