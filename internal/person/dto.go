package person

import (
	"math"
	"strings"

	apperrors "github.com/frahmantamala/personnel-suite/internal"
	"github.com/frahmantamala/personnel-suite/internal/core/common/validation"
)

type CreatePersonRequest struct {
	FirstName         string  `json:"firstName" validate:"required,max=100"`
	LastName          string  `json:"lastName" validate:"required,max=100"`
	Email             string  `json:"email" validate:"required,email,max=255"`
	PhoneNumber       *string `json:"phoneNumber" validate:"omitempty,max=50"`
	NationalID        *string `json:"nationalId" validate:"omitempty,max=50"`
	DepartmentID      *int64  `json:"departmentId"`
	TitleID           *int64  `json:"titleId"`
	ContractType      *string `json:"contractType" validate:"omitempty,max=50"`
	Salary            *int64  `json:"salary" validate:"omitempty,min=0"`
	ContractStartDate *string `json:"contractStartDate" validate:"omitempty,isodate"`
	ContractEndDate   *string `json:"contractEndDate" validate:"omitempty,isodate"`
	BirthDate         *string `json:"birthDate" validate:"omitempty,isodate"`
	Gender            *string `json:"gender" validate:"omitempty,max=20"`
	Address           *string `json:"address" validate:"omitempty,max=500"`
	BankAccount       *string `json:"bankAccount" validate:"omitempty,max=100"`
	InsuranceNumber   *string `json:"insuranceNumber" validate:"omitempty,max=100"`
	ProfilePictureURL *string `json:"profilePictureUrl" validate:"omitempty,max=1000"`
}

func (r *CreatePersonRequest) Validate() error {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = strings.TrimSpace(r.Email)
	if verr := validation.Struct(r); verr != nil {
		return verr
	}
	return nil
}

// UpdatePersonRequest is a partial update. A nil scalar leaves the stored
// value alone and an empty string clears it. DepartmentID and TitleID are
// different: nil (or a non-positive id) removes the relation.
//
// Salary and the dates are strings so a value that does not parse can be
// told apart from an absent one.
type UpdatePersonRequest struct {
	FirstName         *string `json:"firstName" validate:"omitempty,max=100"`
	LastName          *string `json:"lastName" validate:"omitempty,max=100"`
	Email             *string `json:"email" validate:"omitempty,max=255"`
	PhoneNumber       *string `json:"phoneNumber" validate:"omitempty,max=50"`
	NationalID        *string `json:"nationalId" validate:"omitempty,max=50"`
	DepartmentID      *int64  `json:"departmentId"`
	TitleID           *int64  `json:"titleId"`
	ContractType      *string `json:"contractType" validate:"omitempty,max=50"`
	Salary            *string `json:"salary"`
	ContractStartDate *string `json:"contractStartDate"`
	ContractEndDate   *string `json:"contractEndDate"`
	BirthDate         *string `json:"birthDate"`
	Gender            *string `json:"gender" validate:"omitempty,max=20"`
	Address           *string `json:"address" validate:"omitempty,max=500"`
	BankAccount       *string `json:"bankAccount" validate:"omitempty,max=100"`
	InsuranceNumber   *string `json:"insuranceNumber" validate:"omitempty,max=100"`
	ProfilePictureURL *string `json:"profilePictureUrl" validate:"omitempty,max=1000"`
}

func (r *UpdatePersonRequest) Validate() error {
	required := []struct {
		field string
		value *string
	}{
		{"firstName", r.FirstName},
		{"lastName", r.LastName},
		{"email", r.Email},
	}
	for _, f := range required {
		if f.value != nil && strings.TrimSpace(*f.value) == "" {
			return apperrors.NewValidationFieldError(f.field, f.field+" cannot be blank", apperrors.ErrCodeValidationFailed)
		}
	}

	if verr := validation.Struct(r); verr != nil {
		return verr
	}

	if r.Email != nil {
		if err := validation.Var(strings.TrimSpace(*r.Email), "email"); err != nil {
			return apperrors.NewValidationFieldError("email", "email must be a valid email address", apperrors.ErrCodeValidationFailed)
		}
	}
	return nil
}

// ListFilter holds the query parameters of GET /people.
type ListFilter struct {
	Query             string
	FirstName         string
	LastName          string
	Email             string
	PhoneNumber       string
	Address           string
	Gender            string
	DepartmentID      int64
	TitleID           int64
	ContractStartFrom *string
	ContractStartTo   *string
	BirthDateFrom     *string
	BirthDateTo       *string
	Page              int
	Size              int
	SortBy            string
	Direction         string
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	// MaxPage keeps Page*Size inside a 32-bit offset.
	MaxPage = math.MaxInt32 / MaxPageSize
)

func (f *ListFilter) Normalize() error {
	if f.Page < 0 {
		f.Page = 0
	}
	if f.Page > MaxPage {
		f.Page = MaxPage
	}
	if f.Size <= 0 {
		f.Size = DefaultPageSize
	}
	if f.Size > MaxPageSize {
		f.Size = MaxPageSize
	}
	if _, ok := sortColumns[f.SortBy]; !ok {
		f.SortBy = "id"
	}
	f.Direction = strings.ToLower(f.Direction)
	if f.Direction != "desc" {
		f.Direction = "asc"
	}

	dates := []struct {
		name  string
		value *string
	}{
		{"contractStartFrom", f.ContractStartFrom},
		{"contractStartTo", f.ContractStartTo},
		{"birthDateFrom", f.BirthDateFrom},
		{"birthDateTo", f.BirthDateTo},
	}
	for _, d := range dates {
		if d.value == nil {
			continue
		}
		if _, err := validation.ParseDate(*d.value); err != nil {
			return apperrors.NewValidationFieldError(d.name, d.name+" must be a date in YYYY-MM-DD format", apperrors.ErrCodeInvalidDate)
		}
	}
	return nil
}

// sortColumns whitelists sortBy values.
var sortColumns = map[string]string{
	"id":                "id",
	"firstName":         "first_name",
	"lastName":          "last_name",
	"email":             "email",
	"birthDate":         "birth_date",
	"contractStartDate": "contract_start_date",
	"salary":            "salary",
}

func SortColumn(sortBy string) string {
	if col, ok := sortColumns[sortBy]; ok {
		return col
	}
	return "id"
}

type Page struct {
	Content       []*Person `json:"content"`
	Page          int       `json:"page"`
	Size          int       `json:"size"`
	TotalElements int64     `json:"totalElements"`
	TotalPages    int       `json:"totalPages"`
}

func NewPage(content []*Person, filter ListFilter, total int64) *Page {
	pages := 0
	if filter.Size > 0 {
		pages = int((total + int64(filter.Size) - 1) / int64(filter.Size))
	}
	return &Page{
		Content:       content,
		Page:          filter.Page,
		Size:          filter.Size,
		TotalElements: total,
		TotalPages:    pages,
	}
}
