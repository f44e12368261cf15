package person

import (
	"time"

	departmentDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/department"
	personDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/person"
	titleDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/title"
)

const dateLayout = "2006-01-02"

type DepartmentRef struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type TitleRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Person is the API view of a personnel record.
type Person struct {
	ID                int64          `json:"id"`
	FirstName         string         `json:"firstName"`
	LastName          string         `json:"lastName"`
	Email             string         `json:"email"`
	PhoneNumber       *string        `json:"phoneNumber"`
	NationalID        *string        `json:"nationalId"`
	Department        *DepartmentRef `json:"department"`
	Title             *TitleRef      `json:"title"`
	ContractType      *string        `json:"contractType"`
	Salary            *int64         `json:"salary"`
	ContractStartDate *string        `json:"contractStartDate"`
	ContractEndDate   *string        `json:"contractEndDate"`
	BirthDate         *string        `json:"birthDate"`
	Gender            *string        `json:"gender"`
	Address           *string        `json:"address"`
	BankAccount       *string        `json:"bankAccount"`
	InsuranceNumber   *string        `json:"insuranceNumber"`
	ProfilePictureURL *string        `json:"profilePictureUrl"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
}

func (p *Person) FullName() string {
	return p.FirstName + " " + p.LastName
}

func FromDataModel(p *personDatamodel.Person) *Person {
	out := &Person{
		ID:                p.ID,
		FirstName:         p.FirstName,
		LastName:          p.LastName,
		Email:             p.Email,
		PhoneNumber:       p.PhoneNumber,
		NationalID:        p.NationalID,
		ContractType:      p.ContractType,
		Salary:            p.Salary,
		ContractStartDate: formatDate(p.ContractStartDate),
		ContractEndDate:   formatDate(p.ContractEndDate),
		BirthDate:         formatDate(p.BirthDate),
		Gender:            p.Gender,
		Address:           p.Address,
		BankAccount:       p.BankAccount,
		InsuranceNumber:   p.InsuranceNumber,
		ProfilePictureURL: p.ProfilePictureURL,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
	if p.Department != nil && p.DepartmentID != nil {
		out.Department = departmentRef(p.Department)
	}
	if p.Title != nil && p.TitleID != nil {
		out.Title = &TitleRef{ID: p.Title.ID, Name: p.Title.Name}
	}
	return out
}

func FromDataModelSlice(people []*personDatamodel.Person) []*Person {
	result := make([]*Person, len(people))
	for i, p := range people {
		result[i] = FromDataModel(p)
	}
	return result
}

func departmentRef(d *departmentDatamodel.Department) *DepartmentRef {
	return &DepartmentRef{ID: d.ID, Name: d.Name, Color: d.Color}
}

func departmentName(d *departmentDatamodel.Department) string {
	if d == nil {
		return ""
	}
	return d.Name
}

func titleName(t *titleDatamodel.Title) string {
	if t == nil {
		return ""
	}
	return t.Name
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}
