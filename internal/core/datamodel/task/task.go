package task

import (
	"time"

	"github.com/frahmantamala/personnel-suite/internal/core/datamodel/department"
	"github.com/frahmantamala/personnel-suite/internal/core/datamodel/person"
)

type Task struct {
	ID           int64                  `gorm:"primaryKey"`
	Title        string                 `gorm:"column:title;not null"`
	Description  string                 `gorm:"column:description"`
	Status       string                 `gorm:"column:status;not null;default:'ASSIGNED'"`
	Priority     string                 `gorm:"column:priority;not null;default:'MEDIUM'"`
	DueDate      *time.Time             `gorm:"column:due_date;type:date"`
	AssigneeID   *int64                 `gorm:"column:assignee_id;index"`
	Assignee     *person.Person         `gorm:"foreignKey:AssigneeID"`
	CreatedByID  *int64                 `gorm:"column:created_by_id;index"`
	CreatedBy    *person.Person         `gorm:"foreignKey:CreatedByID"`
	DepartmentID *int64                 `gorm:"column:department_id;index"`
	Department   *department.Department `gorm:"foreignKey:DepartmentID"`
	CreatedAt    time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

func (Task) TableName() string {
	return "tasks"
}
