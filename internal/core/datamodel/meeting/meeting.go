package meeting

import (
	"time"

	"github.com/frahmantamala/personnel-suite/internal/core/datamodel/department"
	"github.com/frahmantamala/personnel-suite/internal/core/datamodel/person"
)

type Meeting struct {
	ID           int64                  `gorm:"primaryKey"`
	Title        string                 `gorm:"column:title;not null"`
	Description  string                 `gorm:"column:description"`
	Day          time.Time              `gorm:"column:day;type:date;not null;index"`
	StartTime    string                 `gorm:"column:start_time;type:varchar(5);not null"`
	EndTime      string                 `gorm:"column:end_time;type:varchar(5);not null"`
	Location     string                 `gorm:"column:location"`
	Finalized    bool                   `gorm:"column:finalized;not null;default:false"`
	OrganizerID  *int64                 `gorm:"column:organizer_id;index"`
	Organizer    *person.Person         `gorm:"foreignKey:OrganizerID"`
	DepartmentID *int64                 `gorm:"column:department_id;index"`
	Department   *department.Department `gorm:"foreignKey:DepartmentID"`
	Participants []*person.Person       `gorm:"many2many:meeting_participants;joinForeignKey:MeetingID;joinReferences:PersonID"`
	CreatedAt    time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

func (Meeting) TableName() string {
	return "meetings"
}
