package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/labelforge/labelforge-api/internal/dto"
	"github.com/labelforge/labelforge-api/internal/models"
	"github.com/labelforge/labelforge-api/internal/repository"
)

// DashboardService produces aggregated workload metrics for one labeler.
type DashboardService interface {
	GetLabelerDashboard(ctx context.Context, labelerID uint) (dto.LabelerDashboardResponse, error)
}

type dashboardService struct {
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
	now         func() time.Time
}

// NewDashboardService builds the dashboard aggregator.
func NewDashboardService(assignments repository.AssignmentRepository, submissions repository.SubmissionRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) DashboardService {
	return &dashboardService{
		assignments: assignments,
		submissions: submissions,
		cache:       cache,
		cacheTTL:    ttl,
		logger:      logger.With().Str("component", "dashboard_service").Logger(),
		now:         time.Now,
	}
}

func (s *dashboardService) GetLabelerDashboard(ctx context.Context, labelerID uint) (dto.LabelerDashboardResponse, error) {
	cacheKey := fmt.Sprintf("dashboard:labeler:%d", labelerID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.LabelerDashboardResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Uint("labeler_id", labelerID).Msg("dashboard cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read dashboard cache")
		}
	}

	assignments, err := s.assignments.List(ctx, repository.AssignmentFilter{LabelerID: &labelerID})
	if err != nil {
		return dto.LabelerDashboardResponse{}, err
	}

	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{LabelerID: &labelerID})
	if err != nil {
		return dto.LabelerDashboardResponse{}, err
	}

	response := s.buildResponse(assignments, submissions)

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store dashboard cache")
			}
		}
	}

	return response, nil
}

func (s *dashboardService) buildResponse(assignments []models.TaskAssignment, submissions []models.Submission) dto.LabelerDashboardResponse {
	now := s.now()

	summary := dto.AssignmentSummary{}
	var scoreTotal float64
	var scoredCount int

	for _, assignment := range assignments {
		summary.TotalAssignments++

		switch assignment.Status {
		case models.AssignmentStatusCompleted:
			summary.Completed++
		case models.AssignmentStatusInProgress:
			summary.InProgress++
			if assignment.IsPastDue(now) {
				summary.Overdue++
			}
		default:
			summary.Pending++
			if assignment.IsPastDue(now) {
				summary.Overdue++
			}
		}
	}

	recent := make([]dto.RecentEvaluation, 0, 5)
	for _, submission := range submissions {
		if submission.Score != nil {
			scoreTotal += *submission.Score
			scoredCount++
		}
		if len(recent) < 5 && submission.Status != models.SubmissionStatusDraft {
			recent = append(recent, dto.RecentEvaluation{
				SubmissionID: submission.ID,
				TaskID:       submission.TaskID,
				TaskTitle:    submission.Task.Title,
				Score:        submission.Score,
				Status:       submission.Status,
				SubmittedAt:  submission.UpdatedAt,
			})
		}
	}

	if scoredCount > 0 {
		average := scoreTotal / float64(scoredCount)
		summary.AverageScore = &average
	}

	return dto.LabelerDashboardResponse{
		Summary: summary,
		Recent:  recent,
	}
}
