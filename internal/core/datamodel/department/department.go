package department

import "time"

type Department struct {
	ID                 int64     `gorm:"primaryKey"`
	Name               string    `gorm:"column:name;uniqueIndex;not null"`
	Color              string    `gorm:"column:color;not null;default:'#999999'"`
	HeadOfDepartmentID *int64    `gorm:"column:head_of_department_id;uniqueIndex"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Department) TableName() string {
	return "departments"
}
