package service

import (
	"context"
	"io"
	"sort"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/labelforge/labelforge-api/internal/dto"
	"github.com/labelforge/labelforge-api/internal/models"
	"github.com/labelforge/labelforge-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

type fakeTaskRepo struct {
	tasks  map[uint]models.Task
	nextID uint
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: map[uint]models.Task{}, nextID: 1}
}

func (f *fakeTaskRepo) List(ctx context.Context, filter repository.TaskFilter) ([]models.Task, int64, error) {
	var items []models.Task
	for _, task := range f.tasks {
		if filter.Status != nil && task.Status != *filter.Status {
			continue
		}
		if filter.CreatedBy != nil && task.CreatedBy != *filter.CreatedBy {
			continue
		}
		items = append(items, task)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, int64(len(items)), nil
}

func (f *fakeTaskRepo) GetByID(ctx context.Context, id uint) (models.Task, error) {
	task, ok := f.tasks[id]
	if !ok {
		return models.Task{}, gorm.ErrRecordNotFound
	}
	return task, nil
}

func (f *fakeTaskRepo) Create(ctx context.Context, task *models.Task) error {
	task.ID = f.nextID
	f.nextID++
	f.tasks[task.ID] = *task
	return nil
}

func (f *fakeTaskRepo) Update(ctx context.Context, task *models.Task) error {
	f.tasks[task.ID] = *task
	return nil
}

type fakeSubmissionRepo struct {
	submissions map[uint]models.Submission
	nextID      uint
}

func newFakeSubmissionRepo() *fakeSubmissionRepo {
	return &fakeSubmissionRepo{submissions: map[uint]models.Submission{}, nextID: 1}
}

func (f *fakeSubmissionRepo) List(ctx context.Context, filter repository.SubmissionFilter) ([]models.Submission, error) {
	var items []models.Submission
	for _, submission := range f.submissions {
		if filter.TaskID != nil && submission.TaskID != *filter.TaskID {
			continue
		}
		if filter.LabelerID != nil && submission.LabelerID != *filter.LabelerID {
			continue
		}
		if filter.Status != nil && submission.Status != *filter.Status {
			continue
		}
		if filter.ReviewerCreated != nil && submission.IsReviewerCreated != *filter.ReviewerCreated {
			continue
		}
		items = append(items, submission)
	}
	sort.Slice(items, func(i, j int) bool {
		if filter.OrderByScore {
			left, right := items[i].Score, items[j].Score
			if left != nil && right != nil && *left != *right {
				return *left > *right
			}
		}
		return items[i].ID > items[j].ID
	})
	return items, nil
}

func (f *fakeSubmissionRepo) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	submission, ok := f.submissions[id]
	if !ok {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	return submission, nil
}

func (f *fakeSubmissionRepo) GetByAssignment(ctx context.Context, assignmentID uint) (models.Submission, error) {
	var latest models.Submission
	found := false
	for _, submission := range f.submissions {
		if submission.AssignmentID != assignmentID {
			continue
		}
		if !found || submission.ID > latest.ID {
			latest = submission
			found = true
		}
	}
	if !found {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	return latest, nil
}

func (f *fakeSubmissionRepo) Create(ctx context.Context, submission *models.Submission) error {
	submission.ID = f.nextID
	f.nextID++
	f.submissions[submission.ID] = *submission
	return nil
}

func (f *fakeSubmissionRepo) Update(ctx context.Context, submission *models.Submission) error {
	f.submissions[submission.ID] = *submission
	return nil
}

type fakeAssignmentRepo struct {
	assignments map[uint]models.TaskAssignment
	nextID      uint
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{assignments: map[uint]models.TaskAssignment{}, nextID: 1}
}

func (f *fakeAssignmentRepo) List(ctx context.Context, filter repository.AssignmentFilter) ([]models.TaskAssignment, error) {
	var items []models.TaskAssignment
	for _, assignment := range f.assignments {
		if filter.TaskID != nil && assignment.TaskID != *filter.TaskID {
			continue
		}
		if filter.LabelerID != nil && assignment.LabelerID != *filter.LabelerID {
			continue
		}
		if filter.Status != nil && assignment.Status != *filter.Status {
			continue
		}
		items = append(items, assignment)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (f *fakeAssignmentRepo) GetByID(ctx context.Context, id uint) (models.TaskAssignment, error) {
	assignment, ok := f.assignments[id]
	if !ok {
		return models.TaskAssignment{}, gorm.ErrRecordNotFound
	}
	return assignment, nil
}

func (f *fakeAssignmentRepo) Create(ctx context.Context, assignment *models.TaskAssignment) error {
	assignment.ID = f.nextID
	f.nextID++
	f.assignments[assignment.ID] = *assignment
	return nil
}

func (f *fakeAssignmentRepo) Update(ctx context.Context, assignment *models.TaskAssignment) error {
	f.assignments[assignment.ID] = *assignment
	return nil
}

type fakeEventPublisher struct {
	events []SubmissionEvent
}

func (f *fakeEventPublisher) Publish(ctx context.Context, event SubmissionEvent) error {
	f.events = append(f.events, event)
	return nil
}

type fakeActivityRecorder struct {
	entries []ActivityEntry
}

func (f *fakeActivityRecorder) Record(ctx context.Context, entry ActivityEntry) (dto.ActivityResponse, error) {
	f.entries = append(f.entries, entry)
	return dto.ActivityResponse{}, nil
}
