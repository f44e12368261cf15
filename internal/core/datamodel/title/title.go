package title

import (
	"time"

	"github.com/frahmantamala/personnel-suite/internal/core/datamodel/department"
)

type Title struct {
	ID           int64                  `gorm:"primaryKey"`
	Name         string                 `gorm:"column:name;not null"`
	DepartmentID *int64                 `gorm:"column:department_id;index"`
	Department   *department.Department `gorm:"foreignKey:DepartmentID"`
	CreatedAt    time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

func (Title) TableName() string {
	return "titles"
}
