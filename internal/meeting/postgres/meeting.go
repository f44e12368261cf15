package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	departmentDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/department"
	meetingDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/meeting"
	personDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/person"
	"github.com/frahmantamala/personnel-suite/internal/meeting"
	"gorm.io/gorm"
)

const meetingOrder = "meetings.day ASC, meetings.start_time ASC, meetings.id ASC"

type MeetingRepository struct {
	db *gorm.DB
}

func NewMeetingRepository(db *gorm.DB) meeting.RepositoryAPI {
	return &MeetingRepository{db: db}
}

func (r *MeetingRepository) withRelations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&meetingDatamodel.Meeting{}).
		Preload("Organizer").
		Preload("Department").
		Preload("Participants", func(db *gorm.DB) *gorm.DB {
			return db.Order("people.id ASC")
		})
}

// Create links participants through the join table only; "Participants.*"
// keeps gorm from upserting the people themselves.
func (r *MeetingRepository) Create(ctx context.Context, m *meetingDatamodel.Meeting) error {
	return r.db.WithContext(ctx).
		Omit("Organizer", "Department", "Participants.*").
		Create(m).Error
}

func (r *MeetingRepository) GetByID(ctx context.Context, id int64) (*meetingDatamodel.Meeting, error) {
	var m meetingDatamodel.Meeting
	if err := r.withRelations(ctx).Where("meetings.id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *MeetingRepository) List(ctx context.Context) ([]*meetingDatamodel.Meeting, error) {
	var meetings []*meetingDatamodel.Meeting
	err := r.withRelations(ctx).Order(meetingOrder).Find(&meetings).Error
	return meetings, err
}

func (r *MeetingRepository) ListByOrganizer(ctx context.Context, personID int64) ([]*meetingDatamodel.Meeting, error) {
	var meetings []*meetingDatamodel.Meeting
	err := r.withRelations(ctx).
		Where("meetings.organizer_id = ?", personID).
		Order(meetingOrder).
		Find(&meetings).Error
	return meetings, err
}

func (r *MeetingRepository) ListByParticipant(ctx context.Context, personID int64) ([]*meetingDatamodel.Meeting, error) {
	var meetings []*meetingDatamodel.Meeting
	err := r.withRelations(ctx).
		Joins("JOIN meeting_participants mp ON mp.meeting_id = meetings.id").
		Where("mp.person_id = ?", personID).
		Order(meetingOrder).
		Find(&meetings).Error
	return meetings, err
}

func (r *MeetingRepository) ListByDepartment(ctx context.Context, departmentID int64) ([]*meetingDatamodel.Meeting, error) {
	var meetings []*meetingDatamodel.Meeting
	err := r.withRelations(ctx).
		Where("meetings.department_id = ?", departmentID).
		Order(meetingOrder).
		Find(&meetings).Error
	return meetings, err
}

func (r *MeetingRepository) FinalizeBefore(ctx context.Context, day time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&meetingDatamodel.Meeting{}).
		Where("finalized = ? AND day < ?", false, day).
		Update("finalized", true)
	return res.RowsAffected, res.Error
}

func (r *MeetingRepository) GetPersonByEmail(ctx context.Context, email string) (*personDatamodel.Person, error) {
	var p personDatamodel.Person
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *MeetingRepository) PeopleByIDs(ctx context.Context, ids []int64) ([]*personDatamodel.Person, error) {
	var people []*personDatamodel.Person
	if len(ids) == 0 {
		return people, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&people).Error
	return people, err
}

func (r *MeetingRepository) GetDepartment(ctx context.Context, id int64) (*departmentDatamodel.Department, error) {
	var d departmentDatamodel.Department
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&d).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}
