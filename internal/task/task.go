package task

import (
	"time"

	personDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/person"
	taskDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/task"
)

const (
	StatusAssigned   = "ASSIGNED"
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
	StatusClosed     = "CLOSED"
)

const (
	PriorityLow    = "LOW"
	PriorityMedium = "MEDIUM"
	PriorityHigh   = "HIGH"
)

// assigneeTransitions are the moves an assignee may make, keyed by target.
var assigneeTransitions = map[string]string{
	StatusInProgress: StatusAssigned,
	StatusCompleted:  StatusInProgress,
}

// CanAdvance reports whether an assignee may move a task from current to next.
func CanAdvance(current, next string) bool {
	from, ok := assigneeTransitions[next]
	return ok && from == current
}

type PersonRef struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type DepartmentRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Task struct {
	ID          int64          `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Status      string         `json:"status"`
	Priority    string         `json:"priority"`
	DueDate     *string        `json:"dueDate"`
	Assignee    *PersonRef     `json:"assignee"`
	CreatedBy   *PersonRef     `json:"createdBy"`
	Department  *DepartmentRef `json:"department"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

func FromDataModel(t *taskDatamodel.Task) *Task {
	out := &Task{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		Assignee:    personRef(t.AssigneeID, t.Assignee),
		CreatedBy:   personRef(t.CreatedByID, t.CreatedBy),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if t.DueDate != nil {
		d := t.DueDate.Format("2006-01-02")
		out.DueDate = &d
	}
	if t.DepartmentID != nil && t.Department != nil {
		out.Department = &DepartmentRef{ID: t.Department.ID, Name: t.Department.Name}
	}
	return out
}

func FromDataModelSlice(tasks []*taskDatamodel.Task) []*Task {
	result := make([]*Task, len(tasks))
	for i, t := range tasks {
		result[i] = FromDataModel(t)
	}
	return result
}

func personRef(id *int64, p *personDatamodel.Person) *PersonRef {
	if id == nil || p == nil {
		return nil
	}
	return &PersonRef{ID: p.ID, Name: p.FullName(), Email: p.Email}
}
