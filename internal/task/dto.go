package task

import (
	"strings"

	"github.com/frahmantamala/personnel-suite/internal/core/common/validation"
)

type CreateTaskRequest struct {
	Title        string  `json:"title" validate:"required,max=200"`
	Description  string  `json:"description" validate:"max=2000"`
	Priority     string  `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH"`
	AssigneeID   int64   `json:"assigneeId" validate:"required,gt=0"`
	DepartmentID *int64  `json:"departmentId" validate:"omitempty,gt=0"`
	DueDate      *string `json:"dueDate" validate:"omitempty,isodate"`
}

func (r *CreateTaskRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	r.Priority = strings.ToUpper(strings.TrimSpace(r.Priority))
	if verr := validation.Struct(r); verr != nil {
		return verr
	}
	if r.Priority == "" {
		r.Priority = PriorityMedium
	}
	return nil
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=IN_PROGRESS COMPLETED"`
}

func (r *UpdateStatusRequest) Validate() error {
	r.Status = strings.ToUpper(strings.TrimSpace(r.Status))
	if verr := validation.Struct(r); verr != nil {
		return verr
	}
	return nil
}
