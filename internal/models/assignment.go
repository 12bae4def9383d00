package models

import "time"

// TaskAssignment links a task to the labeler expected to work on it.
type TaskAssignment struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	TaskID    uint       `gorm:"not null;index:idx_task_labeler,unique" json:"task_id"`
	LabelerID uint       `gorm:"not null;index:idx_task_labeler,unique" json:"labeler_id"`
	Status    string     `gorm:"size:32;not null" json:"status"`
	DueAt     *time.Time `json:"due_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Task      Task       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"task"`
	Labeler   Labeler    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"labeler"`
}

// Assignment lifecycle states.
const (
	AssignmentStatusAssigned   = "assigned"
	AssignmentStatusInProgress = "in_progress"
	AssignmentStatusCompleted  = "completed"
)

// IsPastDue returns true when the assignment deadline has already passed.
func (a TaskAssignment) IsPastDue(reference time.Time) bool {
	return a.DueAt != nil && reference.After(*a.DueAt)
}
