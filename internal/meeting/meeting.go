package meeting

import (
	"time"

	"github.com/frahmantamala/personnel-suite/internal/core/common/validation"
	meetingDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/meeting"
	personDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/person"
)

const (
	StatusBefore  = "BEFORE"
	StatusOngoing = "ONGOING"
	StatusAfter   = "AFTER"
)

type PersonRef struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type DepartmentRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Meeting struct {
	ID           int64          `json:"id"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Day          string         `json:"day"`
	StartTime    string         `json:"startTime"`
	EndTime      string         `json:"endTime"`
	Location     string         `json:"location"`
	Status       string         `json:"status"`
	Finalized    bool           `json:"finalized"`
	Organizer    *PersonRef     `json:"organizer"`
	Department   *DepartmentRef `json:"department"`
	Participants []PersonRef    `json:"participants"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// Window returns the start and end of m on its day, in loc.
func Window(m *meetingDatamodel.Meeting, loc *time.Location) (time.Time, time.Time) {
	return at(m.Day, m.StartTime, loc), at(m.Day, m.EndTime, loc)
}

// ComputeStatus derives the lifecycle state of m as seen at now.
func ComputeStatus(m *meetingDatamodel.Meeting, now time.Time) string {
	if m.Finalized {
		return StatusAfter
	}
	start, end := Window(m, now.Location())
	switch {
	case now.Before(start):
		return StatusBefore
	case now.After(end):
		return StatusAfter
	default:
		return StatusOngoing
	}
}

func FromDataModel(m *meetingDatamodel.Meeting, now time.Time) *Meeting {
	out := &Meeting{
		ID:           m.ID,
		Title:        m.Title,
		Description:  m.Description,
		Day:          m.Day.Format(validation.DateLayout),
		StartTime:    m.StartTime,
		EndTime:      m.EndTime,
		Location:     m.Location,
		Status:       ComputeStatus(m, now),
		Finalized:    m.Finalized,
		Participants: make([]PersonRef, 0, len(m.Participants)),
		CreatedAt:    m.CreatedAt,
	}
	if m.OrganizerID != nil && m.Organizer != nil {
		ref := personRef(m.Organizer)
		out.Organizer = &ref
	}
	if m.DepartmentID != nil && m.Department != nil {
		out.Department = &DepartmentRef{ID: m.Department.ID, Name: m.Department.Name}
	}
	for _, p := range m.Participants {
		out.Participants = append(out.Participants, personRef(p))
	}
	return out
}

func FromDataModelSlice(meetings []*meetingDatamodel.Meeting, now time.Time) []*Meeting {
	result := make([]*Meeting, len(meetings))
	for i, m := range meetings {
		result[i] = FromDataModel(m, now)
	}
	return result
}

func personRef(p *personDatamodel.Person) PersonRef {
	return PersonRef{ID: p.ID, Name: p.FullName(), Email: p.Email}
}

// at combines the calendar day of day with an HH:MM clock value.
func at(day time.Time, clock string, loc *time.Location) time.Time {
	t, err := time.Parse(validation.TimeLayout, clock)
	if err != nil {
		return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, loc)
}
