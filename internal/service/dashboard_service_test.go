package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/labelforge/labelforge-api/internal/dto"
	"github.com/labelforge/labelforge-api/internal/models"
)

func TestDashboardServiceAggregationAndCaching(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: mini.Addr()})

	assignments := newFakeAssignmentRepo()
	submissions := newFakeSubmissionRepo()

	labelerID := uint(42)
	now := time.Now().UTC()
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	seeds := []models.TaskAssignment{
		{TaskID: 1, LabelerID: labelerID, Status: models.AssignmentStatusCompleted},
		{TaskID: 2, LabelerID: labelerID, Status: models.AssignmentStatusInProgress, DueAt: &future},
		{TaskID: 3, LabelerID: labelerID, Status: models.AssignmentStatusAssigned, DueAt: &past},
		{TaskID: 4, LabelerID: 99, Status: models.AssignmentStatusAssigned},
	}
	for i := range seeds {
		require.NoError(t, assignments.Create(context.Background(), &seeds[i]))
	}

	score := 80.0
	require.NoError(t, submissions.Create(context.Background(), &models.Submission{
		AssignmentID:  seeds[0].ID,
		TaskID:        1,
		LabelerID:     labelerID,
		Status:        models.SubmissionStatusSubmitted,
		GraderResults: []byte(`{"totalScore":0.8,"maxScore":1,"percentageScore":80,"graderResults":[]}`),
		Score:         &score,
		Task:          models.Task{ID: 1, Title: "First task", Status: models.TaskStatusActive},
	}))
	require.NoError(t, submissions.Create(context.Background(), &models.Submission{
		AssignmentID: seeds[1].ID,
		TaskID:       2,
		LabelerID:    labelerID,
		Status:       models.SubmissionStatusDraft,
	}))

	svc := NewDashboardService(assignments, submissions, redisClient, time.Minute, testLogger())

	ctx := context.Background()
	first, err := svc.GetLabelerDashboard(ctx, labelerID)
	require.NoError(t, err)
	require.Equal(t, 3, first.Summary.TotalAssignments)
	require.Equal(t, 1, first.Summary.Completed)
	require.Equal(t, 1, first.Summary.InProgress)
	require.Equal(t, 1, first.Summary.Pending)
	require.Equal(t, 1, first.Summary.Overdue)
	require.NotNil(t, first.Summary.AverageScore)
	require.InDelta(t, 80.0, *first.Summary.AverageScore, 0.01)
	require.Len(t, first.Recent, 1)
	require.Equal(t, "First task", first.Recent[0].TaskTitle)

	// Mutate the store to prove the cached response is returned unchanged.
	mutated := seeds[0]
	mutated.Status = models.AssignmentStatusAssigned
	require.NoError(t, assignments.Update(ctx, &mutated))

	second, err := svc.GetLabelerDashboard(ctx, labelerID)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestDashboardServiceCacheHit(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	svc := NewDashboardService(newFakeAssignmentRepo(), newFakeSubmissionRepo(), redisClient, time.Minute, testLogger())

	ctx := context.Background()
	cached := dto.LabelerDashboardResponse{
		Summary: dto.AssignmentSummary{TotalAssignments: 7},
		Recent:  []dto.RecentEvaluation{},
	}
	payload, err := json.Marshal(cached)
	require.NoError(t, err)
	require.NoError(t, redisClient.Set(ctx, "dashboard:labeler:10", payload, time.Minute).Err())

	response, err := svc.GetLabelerDashboard(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, cached, response)
}

func TestDashboardServiceWorksWithoutCache(t *testing.T) {
	svc := NewDashboardService(newFakeAssignmentRepo(), newFakeSubmissionRepo(), nil, time.Minute, testLogger())

	response, err := svc.GetLabelerDashboard(context.Background(), 5)
	require.NoError(t, err)
	require.Zero(t, response.Summary.TotalAssignments)
	require.Empty(t, response.Recent)
}
