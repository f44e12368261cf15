package notification

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/frahmantamala/personnel-suite/internal/core/common/validation"
	"github.com/frahmantamala/personnel-suite/internal/core/events"
)

const (
	TemplatePersonUpdate      = "person_update.html"
	TemplateTaskAssignment    = "task_assignment.html"
	TemplateMeetingInvitation = "meeting_invitation.html"
	TemplateUserProvisioned   = "user_provisioned.html"
)

//go:embed templates/*.html
var templateFS embed.FS

// Message is one rendered e-mail ready for the mailer.
type Message struct {
	To       string
	Subject  string
	HTML     string
	Template string
}

type Renderer struct {
	templates *template.Template
}

func NewRenderer() (*Renderer, error) {
	t, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse mail templates: %w", err)
	}
	return &Renderer{templates: t}, nil
}

type changeRow struct {
	Label string
	Old   string
	New   string
}

func (r *Renderer) PersonUpdate(evt events.PersonChanged) (Message, error) {
	rows := make([]changeRow, 0, len(evt.Changes))
	for _, c := range evt.Changes {
		rows = append(rows, changeRow{
			Label: FieldLabel(c.Field),
			Old:   FormatValue(c.Field, c.Old),
			New:   FormatValue(c.Field, c.New),
		})
	}

	return r.render(evt.PersonEmail, "Profile Update Notification", TemplatePersonUpdate, map[string]interface{}{
		"PersonName":    evt.PersonName,
		"UpdatedByName": evt.UpdatedByName,
		"UpdatedAt":     evt.UpdatedAt.Format(timestampLayout),
		"Changes":       rows,
	})
}

func (r *Renderer) TaskAssignment(evt events.TaskAssigned, assignedAt time.Time) (Message, error) {
	data := map[string]interface{}{
		"AssigneeName":   evt.AssigneeName,
		"Title":          evt.Title,
		"Description":    evt.Description,
		"Priority":       evt.Priority,
		"AssignedByName": orDefault(evt.AssignedByName, "Admin"),
		"DepartmentName": orDefault(evt.DepartmentName, "General"),
		"AssignedAt":     assignedAt.Format(timestampLayout),
		"DueDate":        "",
	}
	if evt.DueDate != nil {
		data["DueDate"] = evt.DueDate.Format(dayLayout)
	}
	return r.render(evt.AssigneeEmail, "New Task Assignment: "+evt.Title, TemplateTaskAssignment, data)
}

// MeetingInvitation renders one message per distinct, non-blank participant
// address, in the order the addresses were listed.
func (r *Renderer) MeetingInvitation(evt events.MeetingInvitation) ([]Message, error) {
	day := evt.Day
	if d, err := time.Parse(validation.DateLayout, evt.Day); err == nil {
		day = d.Format(dayLayout)
	}

	base := map[string]interface{}{
		"Title":            evt.Title,
		"Description":      evt.Description,
		"OrganizerName":    orDefault(evt.OrganizerName, "Admin"),
		"DepartmentName":   orDefault(evt.DepartmentName, "General"),
		"Location":         evt.Location,
		"Day":              day,
		"StartTime":        clock(evt.StartTime),
		"EndTime":          clock(evt.EndTime),
		"ParticipantNames": strings.Join(evt.ParticipantNames, ", "),
	}
	subject := "Meeting Invitation: " + evt.Title

	seen := make(map[string]bool, len(evt.ParticipantEmails))
	var out []Message
	for _, to := range evt.ParticipantEmails {
		to = strings.TrimSpace(to)
		if to == "" || seen[to] {
			continue
		}
		seen[to] = true

		data := make(map[string]interface{}, len(base)+1)
		for k, v := range base {
			data[k] = v
		}
		data["RecipientName"] = "Participant"
		if name, ok := evt.EmailToName[to]; ok && strings.TrimSpace(name) != "" {
			data["RecipientName"] = name
		}

		msg, err := r.render(to, subject, TemplateMeetingInvitation, data)
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, nil
}

func (r *Renderer) UserProvisioned(evt events.UserProvisioned) (Message, error) {
	return r.render(evt.Email, "Your Account Has Been Created", TemplateUserProvisioned, map[string]interface{}{
		"RecipientName": orDefault(evt.FullName, "User"),
		"Password":      evt.Password,
	})
}

func (r *Renderer) render(to, subject, name string, data interface{}) (Message, error) {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", name, err)
	}
	return Message{To: to, Subject: subject, HTML: buf.String(), Template: name}, nil
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

// clock normalises "9:05" or "09:05:00" to HH:MM.
func clock(v string) string {
	for _, layout := range []string{validation.TimeLayout, "15:04:05"} {
		if t, err := time.Parse(layout, strings.TrimSpace(v)); err == nil {
			return t.Format(clockLayout)
		}
	}
	return v
}
