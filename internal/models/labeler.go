package models

import "time"

// Labeler represents a platform user that can be assigned labeling tasks.
type Labeler struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Role      string    `gorm:"size:32;not null" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Roles recognised by the platform.
const (
	RoleAdmin    = "admin"
	RoleReviewer = "reviewer"
	RoleLabeler  = "labeler"
)
