package dto

import "time"

// AssignmentSummary aggregates a labeler's workload counts.
type AssignmentSummary struct {
	TotalAssignments int      `json:"total_assignments"`
	Completed        int      `json:"completed"`
	InProgress       int      `json:"in_progress"`
	Pending          int      `json:"pending"`
	Overdue          int      `json:"overdue"`
	AverageScore     *float64 `json:"average_score"`
}

// RecentEvaluation is a compact view of a recent evaluated submission.
type RecentEvaluation struct {
	SubmissionID uint      `json:"submission_id"`
	TaskID       uint      `json:"task_id"`
	TaskTitle    string    `json:"task_title"`
	Score        *float64  `json:"score"`
	Status       string    `json:"status"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

// LabelerDashboardResponse is the cached dashboard payload for one labeler.
type LabelerDashboardResponse struct {
	Summary AssignmentSummary  `json:"summary"`
	Recent  []RecentEvaluation `json:"recent"`
}

// ActivityResponse serializes one audit trail entry.
type ActivityResponse struct {
	ID         uint                   `json:"id"`
	ActorID    uint                   `json:"actor_id"`
	ActorRole  string                 `json:"actor_role"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entity_type"`
	EntityID   *uint                  `json:"entity_id"`
	Metadata   map[string]interface{} `json:"metadata"`
	CreatedAt  time.Time              `json:"created_at"`
}

// ActivityListRequest describes filters for browsing the audit trail.
type ActivityListRequest struct {
	Page       int    `query:"page" validate:"omitempty,gte=1"`
	PageSize   int    `query:"page_size" validate:"omitempty,gte=1,lte=100"`
	ActorID    *uint  `query:"actor_id"`
	Action     string `query:"action"`
	EntityType string `query:"entity_type"`
}

// ActivityListResponse wraps a paginated audit trail listing.
type ActivityListResponse struct {
	Items []ActivityResponse `json:"items"`
	Total int64              `json:"total"`
}
