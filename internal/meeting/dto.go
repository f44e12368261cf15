package meeting

import (
	"strings"

	"github.com/frahmantamala/personnel-suite/internal/core/common/validation"
)

type CreateMeetingRequest struct {
	Title          string  `json:"title" validate:"required,max=200"`
	Description    string  `json:"description" validate:"max=2000"`
	Day            string  `json:"day" validate:"required,isodate"`
	StartTime      string  `json:"startTime" validate:"required,clock"`
	EndTime        string  `json:"endTime" validate:"required,clock"`
	Location       string  `json:"location" validate:"max=200"`
	DepartmentID   *int64  `json:"departmentId" validate:"omitempty,gt=0"`
	ParticipantIDs []int64 `json:"participantIds"`
}

func (r *CreateMeetingRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.Location = strings.TrimSpace(r.Location)
	r.Day = strings.TrimSpace(r.Day)
	r.StartTime = strings.TrimSpace(r.StartTime)
	r.EndTime = strings.TrimSpace(r.EndTime)
	if verr := validation.Struct(r); verr != nil {
		return verr
	}
	return nil
}
