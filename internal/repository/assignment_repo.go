package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/labelforge/labelforge-api/internal/models"
)

// AssignmentFilter narrows task assignment queries.
type AssignmentFilter struct {
	TaskID    *uint
	LabelerID *uint
	Status    *string
}

// AssignmentRepository defines data operations for task assignments.
type AssignmentRepository interface {
	List(ctx context.Context, filter AssignmentFilter) ([]models.TaskAssignment, error)
	GetByID(ctx context.Context, id uint) (models.TaskAssignment, error)
	Create(ctx context.Context, assignment *models.TaskAssignment) error
	Update(ctx context.Context, assignment *models.TaskAssignment) error
}

type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository instantiates the repository.
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.TaskAssignment{}).
		Preload("Task").
		Preload("Labeler")
}

func (r *assignmentRepository) List(ctx context.Context, filter AssignmentFilter) ([]models.TaskAssignment, error) {
	query := r.baseQuery(ctx)

	if filter.TaskID != nil {
		query = query.Where("task_id = ?", *filter.TaskID)
	}

	if filter.LabelerID != nil {
		query = query.Where("labeler_id = ?", *filter.LabelerID)
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var assignments []models.TaskAssignment
	if err := query.Order("created_at DESC").Find(&assignments).Error; err != nil {
		return nil, err
	}

	return assignments, nil
}

func (r *assignmentRepository) GetByID(ctx context.Context, id uint) (models.TaskAssignment, error) {
	var assignment models.TaskAssignment
	if err := r.baseQuery(ctx).First(&assignment, id).Error; err != nil {
		return models.TaskAssignment{}, err
	}

	return assignment, nil
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *models.TaskAssignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *assignmentRepository) Update(ctx context.Context, assignment *models.TaskAssignment) error {
	return r.db.WithContext(ctx).Save(assignment).Error
}
