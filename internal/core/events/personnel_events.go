package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypePersonChanged     = "person.changed"
	EventTypeTaskAssigned      = "task.assigned"
	EventTypeMeetingInvitation = "meeting.invitation"
	EventTypeUserProvisioned   = "user.provisioned"
)

// FieldChange is one entry of a person change list. Old and New are nil
// when the value was or became absent.
type FieldChange struct {
	Field string  `json:"field"`
	Old   *string `json:"old"`
	New   *string `json:"new"`
}

type PersonChanged struct {
	PersonID       int64         `json:"personId"`
	PersonEmail    string        `json:"personEmail"`
	PersonName     string        `json:"personName"`
	UpdatedByEmail string        `json:"updatedByEmail"`
	UpdatedByName  string        `json:"updatedByName"`
	UpdatedAt      time.Time     `json:"updatedAt"`
	Changes        []FieldChange `json:"changes"`
}

type PersonChangedEvent struct {
	BaseEvent
	PersonChanged
}

func (e *PersonChangedEvent) Payload() interface{} {
	return e.PersonChanged
}

func NewPersonChangedEvent(payload PersonChanged) *PersonChangedEvent {
	return &PersonChangedEvent{
		BaseEvent:     newBase(EventTypePersonChanged),
		PersonChanged: payload,
	}
}

type TaskAssigned struct {
	TaskID         int64      `json:"taskId"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Priority       string     `json:"priority"`
	DueDate        *time.Time `json:"dueDate,omitempty"`
	AssigneeEmail  string     `json:"assigneeEmail"`
	AssigneeName   string     `json:"assigneeName"`
	AssignedByName string     `json:"assignedByName"`
	DepartmentName string     `json:"departmentName"`
}

type TaskAssignedEvent struct {
	BaseEvent
	TaskAssigned
}

func (e *TaskAssignedEvent) Payload() interface{} {
	return e.TaskAssigned
}

func NewTaskAssignedEvent(payload TaskAssigned) *TaskAssignedEvent {
	return &TaskAssignedEvent{
		BaseEvent:    newBase(EventTypeTaskAssigned),
		TaskAssigned: payload,
	}
}

type MeetingInvitation struct {
	MeetingID         int64             `json:"meetingId"`
	Title             string            `json:"title"`
	Description       string            `json:"description"`
	Day               string            `json:"day"`
	StartTime         string            `json:"startTime"`
	EndTime           string            `json:"endTime"`
	Location          string            `json:"location"`
	OrganizerName     string            `json:"organizerName"`
	DepartmentName    string            `json:"departmentName"`
	ParticipantEmails []string          `json:"participantEmails"`
	ParticipantNames  []string          `json:"participantNames"`
	EmailToName       map[string]string `json:"emailToName"`
}

type MeetingInvitationEvent struct {
	BaseEvent
	MeetingInvitation
}

func (e *MeetingInvitationEvent) Payload() interface{} {
	return e.MeetingInvitation
}

func NewMeetingInvitationEvent(payload MeetingInvitation) *MeetingInvitationEvent {
	return &MeetingInvitationEvent{
		BaseEvent:         newBase(EventTypeMeetingInvitation),
		MeetingInvitation: payload,
	}
}

type UserProvisioned struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Password string `json:"password"`
}

type UserProvisionedEvent struct {
	BaseEvent
	UserProvisioned
}

func (e *UserProvisionedEvent) Payload() interface{} {
	return e.UserProvisioned
}

func NewUserProvisionedEvent(payload UserProvisioned) *UserProvisionedEvent {
	return &UserProvisionedEvent{
		BaseEvent:       newBase(EventTypeUserProvisioned),
		UserProvisioned: payload,
	}
}

func newBase(eventType string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
	}
}
