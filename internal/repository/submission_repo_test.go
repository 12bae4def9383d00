package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/labelforge/labelforge-api/internal/models"
)

func setupSubmissionTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Labeler{}, &models.Task{}, &models.TaskAssignment{}, &models.Submission{}))
	return db
}

func scorePtr(v float64) *float64 { return &v }

func TestSubmissionRepositoryListFilters(t *testing.T) {
	db := setupSubmissionTestDB(t)
	repo := NewSubmissionRepository(db)

	labeler := models.Labeler{Name: "Ada", Email: "ada@example.com", Role: models.RoleLabeler}
	require.NoError(t, db.Create(&labeler).Error)
	task := models.Task{Title: "Classify intents", Status: models.TaskStatusActive, CreatedBy: 1, Graders: []byte(`[]`)}
	require.NoError(t, db.Create(&task).Error)

	submitted := models.Submission{TaskID: task.ID, LabelerID: labeler.ID, AssignmentID: 1, Status: models.SubmissionStatusSubmitted, Score: scorePtr(80)}
	draft := models.Submission{TaskID: task.ID, LabelerID: labeler.ID, AssignmentID: 2, Status: models.SubmissionStatusDraft}
	reviewerAnswer := models.Submission{TaskID: task.ID, LabelerID: labeler.ID, AssignmentID: 3, Status: models.SubmissionStatusSubmitted, IsReviewerCreated: true, Score: scorePtr(100)}
	require.NoError(t, db.Create(&submitted).Error)
	require.NoError(t, db.Create(&draft).Error)
	require.NoError(t, db.Create(&reviewerAnswer).Error)

	status := models.SubmissionStatusSubmitted
	items, err := repo.List(context.Background(), SubmissionFilter{TaskID: &task.ID, Status: &status})
	require.NoError(t, err)
	require.Len(t, items, 2)

	reviewerOnly := true
	items, err = repo.List(context.Background(), SubmissionFilter{ReviewerCreated: &reviewerOnly})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.True(t, items[0].IsReviewerCreated)
}

func TestSubmissionRepositoryOrderByScore(t *testing.T) {
	db := setupSubmissionTestDB(t)
	repo := NewSubmissionRepository(db)

	task := models.Task{Title: "Rank answers", Status: models.TaskStatusActive, CreatedBy: 1, Graders: []byte(`[]`)}
	require.NoError(t, db.Create(&task).Error)

	low := models.Submission{TaskID: task.ID, LabelerID: 1, AssignmentID: 1, Status: models.SubmissionStatusSubmitted, Score: scorePtr(40)}
	high := models.Submission{TaskID: task.ID, LabelerID: 2, AssignmentID: 2, Status: models.SubmissionStatusSubmitted, Score: scorePtr(95)}
	require.NoError(t, db.Create(&low).Error)
	require.NoError(t, db.Create(&high).Error)

	items, err := repo.List(context.Background(), SubmissionFilter{TaskID: &task.ID, OrderByScore: true})
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, high.ID, items[0].ID)
}

func TestSubmissionRepositoryGetByAssignmentReturnsLatest(t *testing.T) {
	db := setupSubmissionTestDB(t)
	repo := NewSubmissionRepository(db)

	task := models.Task{Title: "Extract entities", Status: models.TaskStatusActive, CreatedBy: 1, Graders: []byte(`[]`)}
	require.NoError(t, db.Create(&task).Error)

	first := models.Submission{TaskID: task.ID, LabelerID: 1, AssignmentID: 7, Status: models.SubmissionStatusDraft, ResponseText: "v1"}
	require.NoError(t, db.Create(&first).Error)

	found, err := repo.GetByAssignment(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, first.ID, found.ID)

	_, err = repo.GetByAssignment(context.Background(), 99)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
