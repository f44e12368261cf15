package task

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	apperrors "github.com/frahmantamala/personnel-suite/internal"
	"github.com/frahmantamala/personnel-suite/internal/core/common/validation"
	departmentDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/department"
	personDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/person"
	taskDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/task"
	"github.com/frahmantamala/personnel-suite/internal/core/events"
)

type RepositoryAPI interface {
	Create(ctx context.Context, t *taskDatamodel.Task) error
	// GetByID preloads assignee, creator and department.
	GetByID(ctx context.Context, id int64) (*taskDatamodel.Task, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	List(ctx context.Context) ([]*taskDatamodel.Task, error)
	ListAssignedTo(ctx context.Context, personID int64) ([]*taskDatamodel.Task, error)
	ListCreatedBy(ctx context.Context, personID int64) ([]*taskDatamodel.Task, error)

	GetPerson(ctx context.Context, id int64) (*personDatamodel.Person, error)
	GetPersonByEmail(ctx context.Context, email string) (*personDatamodel.Person, error)
	GetDepartment(ctx context.Context, id int64) (*departmentDatamodel.Department, error)
}

type Service struct {
	repo      RepositoryAPI
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateTask records the caller as creator when they have a person record
// (administrators usually do not) and notifies the assignee.
func (s *Service) CreateTask(ctx context.Context, req CreateTaskRequest) (*Task, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	assignee, err := s.repo.GetPerson(ctx, req.AssigneeID)
	if err != nil {
		return nil, fmt.Errorf("get assignee: %w", err)
	}
	if assignee == nil {
		return nil, apperrors.ErrPersonNotFound
	}

	t := &taskDatamodel.Task{
		Title:       req.Title,
		Description: strings.TrimSpace(req.Description),
		Status:      StatusAssigned,
		Priority:    req.Priority,
		AssigneeID:  &assignee.ID,
		Assignee:    assignee,
	}
	if req.DueDate != nil {
		t.DueDate, _ = validation.ParseDate(*req.DueDate)
	}
	if req.DepartmentID != nil {
		d, err := s.repo.GetDepartment(ctx, *req.DepartmentID)
		if err != nil {
			return nil, fmt.Errorf("get department: %w", err)
		}
		if d == nil {
			return nil, apperrors.ErrDepartmentNotFound
		}
		t.DepartmentID = &d.ID
		t.Department = d
	}

	creator, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	if creator != nil {
		t.CreatedByID = &creator.ID
		t.CreatedBy = creator
	}

	if err := s.repo.Create(ctx, t); err != nil {
		s.logger.Error("failed to create task", "error", err)
		return nil, fmt.Errorf("create task: %w", err)
	}
	s.logger.Info("task created", "task_id", t.ID, "assignee_id", assignee.ID)

	s.publishAssignment(ctx, t)
	return FromDataModel(t), nil
}

// UpdateTaskStatus lets the assignee move a task one step forward.
func (s *Service) UpdateTaskStatus(ctx context.Context, id int64, req UpdateStatusRequest) (*Task, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	t, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	principal, ok := apperrors.PrincipalFromContext(ctx)
	if !ok {
		return nil, apperrors.ErrMissingPrincipal
	}
	if t.Assignee == nil || !strings.EqualFold(t.Assignee.Email, principal.Email) {
		return nil, apperrors.ErrNotTaskAssignee
	}
	if !CanAdvance(t.Status, req.Status) {
		return nil, apperrors.ErrInvalidTaskTransition
	}

	if err := s.repo.UpdateStatus(ctx, id, req.Status); err != nil {
		return nil, fmt.Errorf("update task status: %w", err)
	}
	s.logger.Info("task status changed", "task_id", id, "from", t.Status, "to", req.Status)
	t.Status = req.Status
	return FromDataModel(t), nil
}

// CloseTask lets the creator close a completed task.
func (s *Service) CloseTask(ctx context.Context, id int64) (*Task, error) {
	t, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	principal, ok := apperrors.PrincipalFromContext(ctx)
	if !ok {
		return nil, apperrors.ErrMissingPrincipal
	}
	if t.CreatedBy == nil || !strings.EqualFold(t.CreatedBy.Email, principal.Email) {
		return nil, apperrors.ErrNotTaskCreator
	}
	if t.Status != StatusCompleted {
		return nil, apperrors.ErrInvalidTaskTransition
	}

	if err := s.repo.UpdateStatus(ctx, id, StatusClosed); err != nil {
		return nil, fmt.Errorf("close task: %w", err)
	}
	s.logger.Info("task closed", "task_id", id)
	t.Status = StatusClosed
	return FromDataModel(t), nil
}

func (s *Service) ListTasks(ctx context.Context) ([]*Task, error) {
	tasks, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return FromDataModelSlice(tasks), nil
}

// ListMyTasks returns the tasks assigned to the caller.
func (s *Service) ListMyTasks(ctx context.Context) ([]*Task, error) {
	me, err := s.caller(ctx)
	if err != nil || me == nil {
		return []*Task{}, err
	}
	tasks, err := s.repo.ListAssignedTo(ctx, me.ID)
	if err != nil {
		return nil, fmt.Errorf("list assigned tasks: %w", err)
	}
	return FromDataModelSlice(tasks), nil
}

// ListUserTasks returns the tasks the caller created or was given, newest
// first.
func (s *Service) ListUserTasks(ctx context.Context) ([]*Task, error) {
	me, err := s.caller(ctx)
	if err != nil || me == nil {
		return []*Task{}, err
	}

	created, err := s.repo.ListCreatedBy(ctx, me.ID)
	if err != nil {
		return nil, fmt.Errorf("list created tasks: %w", err)
	}
	assigned, err := s.repo.ListAssignedTo(ctx, me.ID)
	if err != nil {
		return nil, fmt.Errorf("list assigned tasks: %w", err)
	}

	seen := make(map[int64]bool, len(created)+len(assigned))
	merged := make([]*taskDatamodel.Task, 0, len(created)+len(assigned))
	for _, t := range append(created, assigned...) {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		merged = append(merged, t)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})
	return FromDataModelSlice(merged), nil
}

func (s *Service) get(ctx context.Context, id int64) (*taskDatamodel.Task, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if t == nil {
		return nil, apperrors.ErrTaskNotFound
	}
	return t, nil
}

// caller returns the person record of the authenticated user, or nil when
// there is none.
func (s *Service) caller(ctx context.Context) (*personDatamodel.Person, error) {
	principal, ok := apperrors.PrincipalFromContext(ctx)
	if !ok {
		return nil, apperrors.ErrMissingPrincipal
	}
	p, err := s.repo.GetPersonByEmail(ctx, principal.Email)
	if err != nil {
		return nil, fmt.Errorf("get caller: %w", err)
	}
	return p, nil
}

func (s *Service) publishAssignment(ctx context.Context, t *taskDatamodel.Task) {
	payload := events.TaskAssigned{
		TaskID:         t.ID,
		Title:          t.Title,
		Description:    t.Description,
		Priority:       t.Priority,
		DueDate:        t.DueDate,
		AssigneeEmail:  t.Assignee.Email,
		AssigneeName:   t.Assignee.FullName(),
		AssignedByName: "Admin",
		DepartmentName: "General",
	}
	if t.CreatedBy != nil {
		payload.AssignedByName = t.CreatedBy.FullName()
	}
	if t.Department != nil {
		payload.DepartmentName = t.Department.Name
	}

	evt := events.NewTaskAssignedEvent(payload)
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("failed to publish task assignment", "task_id", t.ID, "error", err)
	}
}
