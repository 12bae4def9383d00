package models

import (
	"time"

	"gorm.io/datatypes"
)

// Submission represents a labeler's response to a task. GraderResults stores
// the engine's EvaluationResult verbatim; Score duplicates its percentage so
// reviewers can query and sort without unpacking the JSON payload.
type Submission struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	AssignmentID      uint           `gorm:"index" json:"assignment_id"`
	TaskID            uint           `gorm:"not null;index" json:"task_id"`
	LabelerID         uint           `gorm:"not null;index" json:"labeler_id"`
	ResponseText      string         `gorm:"type:text" json:"response_text"`
	Status            string         `gorm:"size:32;not null" json:"status"`
	GraderResults     datatypes.JSON `gorm:"type:json" json:"grader_results"`
	Score             *float64       `gorm:"index" json:"score"`
	IsReviewerCreated bool           `gorm:"not null;default:false" json:"is_reviewer_created"`
	Feedback          string         `gorm:"type:text" json:"feedback"`
	ReviewedBy        *uint          `json:"reviewed_by"`
	ReviewedAt        *time.Time     `json:"reviewed_at"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	Task              Task           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"task"`
	Labeler           Labeler        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"labeler"`
}

const (
	// SubmissionStatusDraft indicates a partial save that has never been evaluated.
	SubmissionStatusDraft = "draft"
	// SubmissionStatusSubmitted indicates the response has been submitted and evaluated.
	SubmissionStatusSubmitted = "submitted"
	// SubmissionStatusReviewed indicates a reviewer has signed off on the evaluation.
	SubmissionStatusReviewed = "reviewed"
)

// IsEvaluated reports whether the submission carries an evaluation record.
func (s Submission) IsEvaluated() bool {
	return len(s.GraderResults) > 0 && s.Status != SubmissionStatusDraft
}
