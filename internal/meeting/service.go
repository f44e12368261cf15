package meeting

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	apperrors "github.com/frahmantamala/personnel-suite/internal"
	"github.com/frahmantamala/personnel-suite/internal/core/common/validation"
	departmentDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/department"
	meetingDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/meeting"
	personDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/person"
	"github.com/frahmantamala/personnel-suite/internal/core/events"
)

type RepositoryAPI interface {
	// Create stores m and links its participants without touching the people rows.
	Create(ctx context.Context, m *meetingDatamodel.Meeting) error
	GetByID(ctx context.Context, id int64) (*meetingDatamodel.Meeting, error)
	List(ctx context.Context) ([]*meetingDatamodel.Meeting, error)
	ListByOrganizer(ctx context.Context, personID int64) ([]*meetingDatamodel.Meeting, error)
	ListByParticipant(ctx context.Context, personID int64) ([]*meetingDatamodel.Meeting, error)
	ListByDepartment(ctx context.Context, departmentID int64) ([]*meetingDatamodel.Meeting, error)
	// FinalizeBefore marks every open meeting held before day as finalized.
	FinalizeBefore(ctx context.Context, day time.Time) (int64, error)

	GetPersonByEmail(ctx context.Context, email string) (*personDatamodel.Person, error)
	PeopleByIDs(ctx context.Context, ids []int64) ([]*personDatamodel.Person, error)
	GetDepartment(ctx context.Context, id int64) (*departmentDatamodel.Department, error)
}

type Service struct {
	repo      RepositoryAPI
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo RepositoryAPI, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) CreateMeeting(ctx context.Context, req CreateMeetingRequest) (*Meeting, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	day, err := validation.ParseDate(req.Day)
	if err != nil || day == nil {
		return nil, apperrors.NewValidationFieldError("day", "day must be a date in YYYY-MM-DD format", apperrors.ErrCodeInvalidDate)
	}

	m := &meetingDatamodel.Meeting{
		Title:       req.Title,
		Description: req.Description,
		Day:         *day,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Location:    req.Location,
	}

	now := s.now()
	start, end := Window(m, now.Location())
	if !start.After(now) {
		return nil, apperrors.NewValidationFieldError("startTime", "start must be after the current time", apperrors.ErrCodeInvalidMeetingWindow)
	}
	if !end.After(start) {
		return nil, apperrors.NewValidationFieldError("endTime", "end must be after start", apperrors.ErrCodeInvalidMeetingWindow)
	}

	organizer, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	if organizer != nil {
		m.OrganizerID = &organizer.ID
		m.Organizer = organizer
	}

	if req.DepartmentID != nil {
		d, err := s.repo.GetDepartment(ctx, *req.DepartmentID)
		if err != nil {
			return nil, fmt.Errorf("get department: %w", err)
		}
		if d == nil {
			return nil, apperrors.ErrDepartmentNotFound
		}
		m.DepartmentID = &d.ID
		m.Department = d
	}

	if len(req.ParticipantIDs) > 0 {
		// ids without a person are dropped silently
		m.Participants, err = s.repo.PeopleByIDs(ctx, req.ParticipantIDs)
		if err != nil {
			return nil, fmt.Errorf("get participants: %w", err)
		}
	}

	if err := s.repo.Create(ctx, m); err != nil {
		s.logger.Error("failed to create meeting", "error", err)
		return nil, fmt.Errorf("create meeting: %w", err)
	}
	s.logger.Info("meeting created", "meeting_id", m.ID, "participants", len(m.Participants))

	if len(m.Participants) > 0 {
		s.publishInvitation(ctx, m)
	}
	return FromDataModel(m, now), nil
}

func (s *Service) ListMeetings(ctx context.Context) ([]*Meeting, error) {
	s.finalizePast(ctx)
	meetings, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}
	return FromDataModelSlice(meetings, s.now()), nil
}

func (s *Service) GetMeeting(ctx context.Context, id int64) (*Meeting, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get meeting: %w", err)
	}
	if m == nil {
		return nil, apperrors.ErrMeetingNotFound
	}
	return FromDataModel(m, s.now()), nil
}

// ListMyMeetings returns the meetings the caller organizes or attends.
func (s *Service) ListMyMeetings(ctx context.Context) ([]*Meeting, error) {
	s.finalizePast(ctx)
	me, err := s.caller(ctx)
	if err != nil || me == nil {
		return []*Meeting{}, err
	}
	return s.meetingsOf(ctx, me.ID)
}

// ListUserMeetings is ListMyMeetings under the name the dashboard uses.
func (s *Service) ListUserMeetings(ctx context.Context) ([]*Meeting, error) {
	return s.ListMyMeetings(ctx)
}

func (s *Service) ListDepartmentMeetings(ctx context.Context, departmentID int64) ([]*Meeting, error) {
	s.finalizePast(ctx)
	d, err := s.repo.GetDepartment(ctx, departmentID)
	if err != nil {
		return nil, fmt.Errorf("get department: %w", err)
	}
	if d == nil {
		return nil, apperrors.ErrDepartmentNotFound
	}
	meetings, err := s.repo.ListByDepartment(ctx, departmentID)
	if err != nil {
		return nil, fmt.Errorf("list department meetings: %w", err)
	}
	return FromDataModelSlice(meetings, s.now()), nil
}

func (s *Service) meetingsOf(ctx context.Context, personID int64) ([]*Meeting, error) {
	organized, err := s.repo.ListByOrganizer(ctx, personID)
	if err != nil {
		return nil, fmt.Errorf("list organized meetings: %w", err)
	}
	attended, err := s.repo.ListByParticipant(ctx, personID)
	if err != nil {
		return nil, fmt.Errorf("list attended meetings: %w", err)
	}

	seen := make(map[int64]bool, len(organized)+len(attended))
	merged := make([]*meetingDatamodel.Meeting, 0, len(organized)+len(attended))
	for _, group := range [][]*meetingDatamodel.Meeting{organized, attended} {
		for _, m := range group {
			if seen[m.ID] {
				continue
			}
			seen[m.ID] = true
			merged = append(merged, m)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		a, b := merged[i], merged[j]
		if !a.Day.Equal(b.Day) {
			return a.Day.Before(b.Day)
		}
		return a.StartTime < b.StartTime
	})
	return FromDataModelSlice(merged, s.now()), nil
}

// finalizePast is best-effort; a failure only delays the AFTER status.
func (s *Service) finalizePast(ctx context.Context) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	n, err := s.repo.FinalizeBefore(ctx, today)
	if err != nil {
		s.logger.Warn("failed to finalize past meetings", "error", err)
		return
	}
	if n > 0 {
		s.logger.Debug("finalized past meetings", "count", n)
	}
}

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

func (s *Service) publishInvitation(ctx context.Context, m *meetingDatamodel.Meeting) {
	payload := events.MeetingInvitation{
		MeetingID:         m.ID,
		Title:             m.Title,
		Description:       m.Description,
		Day:               m.Day.Format(validation.DateLayout),
		StartTime:         m.StartTime,
		EndTime:           m.EndTime,
		Location:          m.Location,
		OrganizerName:     "Admin",
		DepartmentName:    "General",
		ParticipantEmails: make([]string, 0, len(m.Participants)),
		ParticipantNames:  make([]string, 0, len(m.Participants)),
		EmailToName:       make(map[string]string, len(m.Participants)+1),
	}
	for _, p := range m.Participants {
		payload.ParticipantEmails = append(payload.ParticipantEmails, p.Email)
		payload.ParticipantNames = append(payload.ParticipantNames, p.FullName())
		payload.EmailToName[p.Email] = p.FullName()
	}
	if m.Organizer != nil {
		payload.OrganizerName = m.Organizer.FullName()
		payload.EmailToName[m.Organizer.Email] = m.Organizer.FullName()
	}
	if m.Department != nil {
		payload.DepartmentName = m.Department.Name
	}

	evt := events.NewMeetingInvitationEvent(payload)
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("failed to publish meeting invitation", "meeting_id", m.ID, "error", err)
	}
}
