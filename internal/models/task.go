package models

import (
	"time"

	"gorm.io/datatypes"
)

// Task is a labeling task definition. The Graders payload is the task's
// frozen grader configuration: authored once at creation time and immutable
// afterwards, except through duplication (which copies it) and export (which
// sanitizes a copy).
type Task struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Title        string         `gorm:"size:255;not null" json:"title"`
	Instructions string         `gorm:"type:text" json:"instructions"`
	Status       string         `gorm:"size:32;not null" json:"status"`
	Graders      datatypes.JSON `gorm:"type:json" json:"graders"`
	CreatedBy    uint           `gorm:"not null" json:"created_by"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	Assignments  []TaskAssignment
}

// Task lifecycle states.
const (
	TaskStatusDraft    = "draft"
	TaskStatusActive   = "active"
	TaskStatusArchived = "archived"
)

// IsActive reports whether the task accepts new submissions.
func (t Task) IsActive() bool {
	return t.Status == TaskStatusActive
}
