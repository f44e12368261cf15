package department

import (
	"strings"

	apperrors "github.com/frahmantamala/personnel-suite/internal"
	"github.com/frahmantamala/personnel-suite/internal/core/common/validation"
)

type CreateDepartmentRequest struct {
	Name  string  `json:"name" validate:"required,max=100"`
	Color *string `json:"color"`
}

func (r *CreateDepartmentRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if verr := validation.Struct(r); verr != nil {
		return verr
	}
	return nil
}

type UpdateDepartmentRequest struct {
	Name  *string `json:"name" validate:"omitempty,max=100"`
	Color *string `json:"color"`
}

func (r *UpdateDepartmentRequest) Validate() error {
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

type AssignHeadRequest struct {
	PersonID int64 `json:"personId" validate:"required,gt=0"`
}

func (r *AssignHeadRequest) Validate() error {
	if verr := validation.Struct(r); verr != nil {
		return verr
	}
	return nil
}
