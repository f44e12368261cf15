package person

import (
	"time"

	"github.com/frahmantamala/personnel-suite/internal/core/datamodel/department"
	"github.com/frahmantamala/personnel-suite/internal/core/datamodel/title"
)

type Person struct {
	ID                int64                  `gorm:"primaryKey"`
	FirstName         string                 `gorm:"column:first_name;not null"`
	LastName          string                 `gorm:"column:last_name;not null"`
	Email             string                 `gorm:"column:email;uniqueIndex;not null"`
	PhoneNumber       *string                `gorm:"column:phone_number"`
	NationalID        *string                `gorm:"column:national_id"`
	DepartmentID      *int64                 `gorm:"column:department_id;index"`
	Department        *department.Department `gorm:"foreignKey:DepartmentID"`
	TitleID           *int64                 `gorm:"column:title_id;index"`
	Title             *title.Title           `gorm:"foreignKey:TitleID"`
	ContractType      *string                `gorm:"column:contract_type"`
	Salary            *int64                 `gorm:"column:salary"`
	ContractStartDate *time.Time             `gorm:"column:contract_start_date;type:date"`
	ContractEndDate   *time.Time             `gorm:"column:contract_end_date;type:date"`
	BirthDate         *time.Time             `gorm:"column:birth_date;type:date"`
	Gender            *string                `gorm:"column:gender"`
	Address           *string                `gorm:"column:address"`
	BankAccount       *string                `gorm:"column:bank_account"`
	InsuranceNumber   *string                `gorm:"column:insurance_number"`
	ProfilePictureURL *string                `gorm:"column:profile_picture_url"`
	CreatedAt         time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

func (Person) TableName() string {
	return "people"
}

func (p *Person) FullName() string {
	return p.FirstName + " " + p.LastName
}
