package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/labelforge/labelforge-api/internal/dto"
	"github.com/labelforge/labelforge-api/internal/models"
)

type submissionFixture struct {
	svc         SubmissionService
	submissions *fakeSubmissionRepo
	assignments *fakeAssignmentRepo
	tasks       *fakeTaskRepo
	events      *fakeEventPublisher
	recorder    *fakeActivityRecorder
}

func newSubmissionFixture(t *testing.T) *submissionFixture {
	t.Helper()

	submissions := newFakeSubmissionRepo()
	assignments := newFakeAssignmentRepo()
	tasks := newFakeTaskRepo()
	events := &fakeEventPublisher{}
	recorder := &fakeActivityRecorder{}
	validate := validator.New(validator.WithRequiredStructEnabled())

	return &submissionFixture{
		svc:         NewSubmissionService(submissions, assignments, tasks, validate, events, recorder, testLogger()),
		submissions: submissions,
		assignments: assignments,
		tasks:       tasks,
		events:      events,
		recorder:    recorder,
	}
}

// seedAssignment creates an active task with one xml grader expecting <x>5</x>
// and assigns it to the given labeler.
func (f *submissionFixture) seedAssignment(t *testing.T, labelerID uint, taskStatus string) models.TaskAssignment {
	t.Helper()

	task := models.Task{
		Title:  "Extract number",
		Status: taskStatus,
		Graders: datatypes.JSON(`[
			{
				"type": "xml",
				"name": "number check",
				"weight": 1,
				"config": {
					"structure": [
						{
							"id": "f1",
							"name": "x",
							"type": "int",
							"weight": 1,
							"comparator": {"type": "equals", "config": {"expected": 5}}
						}
					]
				}
			}
		]`),
		CreatedBy: 1,
	}
	require.NoError(t, f.tasks.Create(context.Background(), &task))

	assignment := models.TaskAssignment{
		TaskID:    task.ID,
		LabelerID: labelerID,
		Status:    models.AssignmentStatusAssigned,
		Task:      task,
	}
	require.NoError(t, f.assignments.Create(context.Background(), &assignment))

	return assignment
}

func TestSubmissionServiceSaveDraftNeverEvaluates(t *testing.T) {
	f := newSubmissionFixture(t)
	assignment := f.seedAssignment(t, 42, models.TaskStatusActive)
	actor := ActivityActor{ID: 42, Role: models.RoleLabeler}

	draft, err := f.svc.SaveDraft(context.Background(), dto.SubmissionDraftRequest{
		AssignmentID: assignment.ID,
		ResponseText: "<x>5</x>",
	}, actor)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusDraft, draft.Status)
	require.Nil(t, draft.Score)
	require.Nil(t, draft.GraderResults)

	// Repeated saves update the same record.
	updated, err := f.svc.SaveDraft(context.Background(), dto.SubmissionDraftRequest{
		AssignmentID: assignment.ID,
		ResponseText: "<x>7</x>",
	}, actor)
	require.NoError(t, err)
	require.Equal(t, draft.ID, updated.ID)
	require.Equal(t, "<x>7</x>", updated.ResponseText)

	stored, err := f.assignments.GetByID(context.Background(), assignment.ID)
	require.NoError(t, err)
	require.Equal(t, models.AssignmentStatusInProgress, stored.Status)
}

func TestSubmissionServiceSubmitEvaluatesAndStoresScore(t *testing.T) {
	f := newSubmissionFixture(t)
	assignment := f.seedAssignment(t, 42, models.TaskStatusActive)
	actor := ActivityActor{ID: 42, Role: models.RoleLabeler}

	result, err := f.svc.Submit(context.Background(), dto.SubmissionSubmitRequest{
		AssignmentID: assignment.ID,
		ResponseText: "<x>5</x>",
	}, actor)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusSubmitted, result.Status)
	require.NotNil(t, result.Score)
	require.InDelta(t, 100.0, *result.Score, 1e-9)
	require.NotNil(t, result.GraderResults)
	require.InDelta(t, 100.0, result.GraderResults.PercentageScore, 1e-9)

	stored, err := f.assignments.GetByID(context.Background(), assignment.ID)
	require.NoError(t, err)
	require.Equal(t, models.AssignmentStatusCompleted, stored.Status)

	require.Len(t, f.events.events, 1)
	require.Equal(t, EventSubmissionEvaluated, f.events.events[0].Type)
	require.Len(t, f.recorder.entries, 1)
	require.Equal(t, "submission.evaluated", f.recorder.entries[0].Action)
}

func TestSubmissionServiceSubmitReplacesDraftEvaluation(t *testing.T) {
	f := newSubmissionFixture(t)
	assignment := f.seedAssignment(t, 42, models.TaskStatusActive)
	actor := ActivityActor{ID: 42, Role: models.RoleLabeler}

	draft, err := f.svc.SaveDraft(context.Background(), dto.SubmissionDraftRequest{
		AssignmentID: assignment.ID,
		ResponseText: "<x>",
	}, actor)
	require.NoError(t, err)

	first, err := f.svc.Submit(context.Background(), dto.SubmissionSubmitRequest{
		AssignmentID: assignment.ID,
		ResponseText: "<x>7</x>",
	}, actor)
	require.NoError(t, err)
	require.Equal(t, draft.ID, first.ID)
	require.InDelta(t, 0.0, *first.Score, 1e-9)

	// Resubmitting fully replaces the prior evaluation.
	second, err := f.svc.Submit(context.Background(), dto.SubmissionSubmitRequest{
		AssignmentID: assignment.ID,
		ResponseText: "<x>5</x>",
	}, actor)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.InDelta(t, 100.0, *second.Score, 1e-9)
}

func TestSubmissionServiceSubmitMissingFieldsScoresZero(t *testing.T) {
	f := newSubmissionFixture(t)
	assignment := f.seedAssignment(t, 42, models.TaskStatusActive)

	result, err := f.svc.Submit(context.Background(), dto.SubmissionSubmitRequest{
		AssignmentID: assignment.ID,
		ResponseText: "no tags here",
	}, ActivityActor{ID: 42, Role: models.RoleLabeler})
	require.NoError(t, err)
	require.NotNil(t, result.Score)
	require.InDelta(t, 0.0, *result.Score, 1e-9)
}

func TestSubmissionServiceSubmitRejectsInactiveTask(t *testing.T) {
	f := newSubmissionFixture(t)
	assignment := f.seedAssignment(t, 42, models.TaskStatusArchived)

	_, err := f.svc.Submit(context.Background(), dto.SubmissionSubmitRequest{
		AssignmentID: assignment.ID,
		ResponseText: "<x>5</x>",
	}, ActivityActor{ID: 42, Role: models.RoleLabeler})
	require.ErrorIs(t, err, ErrTaskNotActive)
}

func TestSubmissionServiceSubmitForbiddenForOtherLabeler(t *testing.T) {
	f := newSubmissionFixture(t)
	assignment := f.seedAssignment(t, 42, models.TaskStatusActive)

	_, err := f.svc.Submit(context.Background(), dto.SubmissionSubmitRequest{
		AssignmentID: assignment.ID,
		ResponseText: "<x>5</x>",
	}, ActivityActor{ID: 99, Role: models.RoleLabeler})
	require.ErrorIs(t, err, ErrAssignmentForbidden)

	// Admins may act on any assignment.
	_, err = f.svc.Submit(context.Background(), dto.SubmissionSubmitRequest{
		AssignmentID: assignment.ID,
		ResponseText: "<x>5</x>",
	}, ActivityActor{ID: 99, Role: models.RoleAdmin})
	require.NoError(t, err)
}

func TestSubmissionServiceSubmitUnknownAssignment(t *testing.T) {
	f := newSubmissionFixture(t)

	_, err := f.svc.Submit(context.Background(), dto.SubmissionSubmitRequest{
		AssignmentID: 404,
		ResponseText: "<x>5</x>",
	}, ActivityActor{ID: 1, Role: models.RoleLabeler})
	require.ErrorIs(t, err, ErrAssignmentNotFound)
}

func TestSubmissionServiceSubmitBrokenGraderPayload(t *testing.T) {
	f := newSubmissionFixture(t)

	task := models.Task{Title: "Broken", Status: models.TaskStatusActive, Graders: datatypes.JSON(`{not json`)}
	require.NoError(t, f.tasks.Create(context.Background(), &task))
	assignment := models.TaskAssignment{TaskID: task.ID, LabelerID: 42, Status: models.AssignmentStatusAssigned, Task: task}
	require.NoError(t, f.assignments.Create(context.Background(), &assignment))

	_, err := f.svc.Submit(context.Background(), dto.SubmissionSubmitRequest{
		AssignmentID: assignment.ID,
		ResponseText: "<x>5</x>",
	}, ActivityActor{ID: 42, Role: models.RoleLabeler})
	require.ErrorIs(t, err, ErrGraderConfigInvalid)
	require.Empty(t, f.submissions.submissions)
}

func TestSubmissionServiceSubmitSemanticallyInvalidGrader(t *testing.T) {
	f := newSubmissionFixture(t)

	// Parses fine but fails engine validation: no structure or test_cases.
	task := models.Task{
		Title:   "Misauthored",
		Status:  models.TaskStatusActive,
		Graders: datatypes.JSON(`[{"type": "xml", "name": "g", "weight": 1, "config": {}}]`),
	}
	require.NoError(t, f.tasks.Create(context.Background(), &task))
	assignment := models.TaskAssignment{TaskID: task.ID, LabelerID: 42, Status: models.AssignmentStatusAssigned, Task: task}
	require.NoError(t, f.assignments.Create(context.Background(), &assignment))

	_, err := f.svc.Submit(context.Background(), dto.SubmissionSubmitRequest{
		AssignmentID: assignment.ID,
		ResponseText: "<x>5</x>",
	}, ActivityActor{ID: 42, Role: models.RoleLabeler})
	require.ErrorIs(t, err, ErrGraderConfigInvalid)
	require.Empty(t, f.submissions.submissions)
}

func TestSubmissionServiceReviewRequiresEvaluation(t *testing.T) {
	f := newSubmissionFixture(t)
	assignment := f.seedAssignment(t, 42, models.TaskStatusActive)
	actor := ActivityActor{ID: 42, Role: models.RoleLabeler}

	draft, err := f.svc.SaveDraft(context.Background(), dto.SubmissionDraftRequest{
		AssignmentID: assignment.ID,
		ResponseText: "<x>5</x>",
	}, actor)
	require.NoError(t, err)

	_, err = f.svc.Review(context.Background(), draft.ID, dto.SubmissionReviewRequest{Feedback: "nice"}, ActivityActor{ID: 9, Role: models.RoleReviewer})
	require.ErrorIs(t, err, ErrSubmissionNotEvaluated)
}

func TestSubmissionServiceReviewSanitizesFeedback(t *testing.T) {
	f := newSubmissionFixture(t)
	assignment := f.seedAssignment(t, 42, models.TaskStatusActive)

	submitted, err := f.svc.Submit(context.Background(), dto.SubmissionSubmitRequest{
		AssignmentID: assignment.ID,
		ResponseText: "<x>5</x>",
	}, ActivityActor{ID: 42, Role: models.RoleLabeler})
	require.NoError(t, err)

	reviewed, err := f.svc.Review(context.Background(), submitted.ID, dto.SubmissionReviewRequest{
		Feedback: `good work<script>alert(1)</script>`,
	}, ActivityActor{ID: 9, Role: models.RoleReviewer})
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusReviewed, reviewed.Status)
	require.NotContains(t, reviewed.Feedback, "<script>")
	require.Contains(t, reviewed.Feedback, "good work")
	require.NotNil(t, reviewed.ReviewedBy)
	require.Equal(t, uint(9), *reviewed.ReviewedBy)
	require.NotNil(t, reviewed.ReviewedAt)

	// The stored evaluation survives a review untouched.
	require.NotNil(t, reviewed.GraderResults)
	require.InDelta(t, 100.0, reviewed.GraderResults.PercentageScore, 1e-9)

	require.Len(t, f.events.events, 2)
	require.Equal(t, EventSubmissionReviewed, f.events.events[1].Type)
}

func TestSubmissionServiceReviewerAnswerGoesThroughEngine(t *testing.T) {
	f := newSubmissionFixture(t)
	assignment := f.seedAssignment(t, 42, models.TaskStatusActive)

	answer, err := f.svc.CreateReviewerAnswer(context.Background(), dto.ReviewerAnswerRequest{
		TaskID:       assignment.TaskID,
		ResponseText: "<x>5</x>",
	}, ActivityActor{ID: 9, Role: models.RoleReviewer})
	require.NoError(t, err)
	require.True(t, answer.IsReviewerCreated)
	require.Zero(t, answer.AssignmentID)
	require.NotNil(t, answer.Score)
	require.InDelta(t, 100.0, *answer.Score, 1e-9)
}

func TestSubmissionServiceListFiltersReviewerCreated(t *testing.T) {
	f := newSubmissionFixture(t)
	assignment := f.seedAssignment(t, 42, models.TaskStatusActive)

	_, err := f.svc.Submit(context.Background(), dto.SubmissionSubmitRequest{
		AssignmentID: assignment.ID,
		ResponseText: "<x>5</x>",
	}, ActivityActor{ID: 42, Role: models.RoleLabeler})
	require.NoError(t, err)

	_, err = f.svc.CreateReviewerAnswer(context.Background(), dto.ReviewerAnswerRequest{
		TaskID:       assignment.TaskID,
		ResponseText: "<x>5</x>",
	}, ActivityActor{ID: 9, Role: models.RoleReviewer})
	require.NoError(t, err)

	reviewerOnly := true
	listed, err := f.svc.List(context.Background(), dto.SubmissionListFilter{ReviewerCreated: &reviewerOnly})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.True(t, listed[0].IsReviewerCreated)
}
