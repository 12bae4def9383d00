package dto

import (
	"encoding/json"
	"time"

	"github.com/labelforge/labelforge-api/internal/grading"
	"github.com/labelforge/labelforge-api/internal/models"
)

// SubmissionDraftRequest saves work in progress. Drafts never invoke the
// grading engine.
type SubmissionDraftRequest struct {
	AssignmentID uint   `json:"assignment_id" validate:"required,gt=0"`
	ResponseText string `json:"response_text"`
}

// SubmissionSubmitRequest finalizes a response and triggers evaluation.
type SubmissionSubmitRequest struct {
	AssignmentID uint   `json:"assignment_id" validate:"required,gt=0"`
	ResponseText string `json:"response_text" validate:"required"`
}

// SubmissionReviewRequest records a reviewer's sign-off.
type SubmissionReviewRequest struct {
	Feedback string `json:"feedback" validate:"omitempty,max=10000"`
}

// ReviewerAnswerRequest creates an authoritative answer-key submission
// authored by a reviewer. It goes through the normal evaluation path with no
// special casing.
type ReviewerAnswerRequest struct {
	TaskID       uint   `json:"task_id" validate:"required,gt=0"`
	ResponseText string `json:"response_text" validate:"required"`
}

// SubmissionListFilter describes query string filters for listing submissions.
type SubmissionListFilter struct {
	TaskID          *uint   `query:"task_id"`
	LabelerID       *uint   `query:"labeler_id"`
	Status          *string `query:"status" validate:"omitempty,oneof=draft submitted reviewed"`
	ReviewerCreated *bool   `query:"reviewer_created"`
	OrderByScore    bool    `query:"order_by_score"`
}

// EvaluationPreviewRequest runs the engine statelessly, so admins can try a
// grader configuration against a sample response while authoring it.
type EvaluationPreviewRequest struct {
	ResponseText string          `json:"response_text" validate:"required"`
	Graders      json.RawMessage `json:"graders" validate:"required"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID                uint                      `json:"id"`
	AssignmentID      uint                      `json:"assignment_id"`
	TaskID            uint                      `json:"task_id"`
	LabelerID         uint                      `json:"labeler_id"`
	ResponseText      string                    `json:"response_text"`
	Status            string                    `json:"status"`
	Score             *float64                  `json:"score"`
	GraderResults     *grading.EvaluationResult `json:"grader_results,omitempty"`
	IsReviewerCreated bool                      `json:"is_reviewer_created"`
	Feedback          string                    `json:"feedback"`
	ReviewedBy        *uint                     `json:"reviewed_by"`
	ReviewedAt        *time.Time                `json:"reviewed_at"`
	CreatedAt         time.Time                 `json:"created_at"`
	UpdatedAt         time.Time                 `json:"updated_at"`
	Task              TaskLite                  `json:"task"`
	Labeler           LabelerLite               `json:"labeler"`
}

// LabelerLite summarizes a labeler without exposing full profile data.
type LabelerLite struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewSubmissionResponse converts a Submission model into a DTO. A malformed
// grader_results payload is surfaced as an absent evaluation rather than an
// error; reviewers still see the duplicated score column.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	response := SubmissionResponse{
		ID:                model.ID,
		AssignmentID:      model.AssignmentID,
		TaskID:            model.TaskID,
		LabelerID:         model.LabelerID,
		ResponseText:      model.ResponseText,
		Status:            model.Status,
		Score:             model.Score,
		IsReviewerCreated: model.IsReviewerCreated,
		Feedback:          model.Feedback,
		ReviewedBy:        model.ReviewedBy,
		ReviewedAt:        model.ReviewedAt,
		CreatedAt:         model.CreatedAt,
		UpdatedAt:         model.UpdatedAt,
	}

	if len(model.GraderResults) > 0 {
		var evaluation grading.EvaluationResult
		if err := json.Unmarshal(model.GraderResults, &evaluation); err == nil {
			response.GraderResults = &evaluation
		}
	}

	if model.Task.ID != 0 {
		response.Task = TaskLite{
			ID:     model.Task.ID,
			Title:  model.Task.Title,
			Status: model.Task.Status,
		}
	}

	if model.Labeler.ID != 0 {
		response.Labeler = LabelerLite{
			ID:    model.Labeler.ID,
			Name:  model.Labeler.Name,
			Email: model.Labeler.Email,
		}
	}

	return response
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(items []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(items))
	for _, submission := range items {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}
