package title

import (
	"strings"

	apperrors "github.com/frahmantamala/personnel-suite/internal"
	"github.com/frahmantamala/personnel-suite/internal/core/common/validation"
)

type CreateTitleRequest struct {
	Name         string `json:"name" validate:"required,max=100"`
	DepartmentID int64  `json:"departmentId" validate:"required,gt=0"`
}

func (r *CreateTitleRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if verr := validation.Struct(r); verr != nil {
		return verr
	}
	return nil
}

type UpdateTitleRequest struct {
	Name         *string `json:"name" validate:"omitempty,max=100"`
	DepartmentID *int64  `json:"departmentId" validate:"omitempty,gt=0"`
}

func (r *UpdateTitleRequest) Validate() error {
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		if name == "" {
			return apperrors.NewValidationFieldError("name", "name cannot be blank", apperrors.ErrCodeValidationFailed)
		}
		r.Name = &name
	}
	if verr := validation.Struct(r); verr != nil {
		return verr
	}
	return nil
}
