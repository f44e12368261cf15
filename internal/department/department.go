package department

import (
	"regexp"
	"strings"
	"time"

	departmentDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/department"
	personDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/person"
)

const DefaultColor = "#999999"

type PersonSummary struct {
	ID        int64   `json:"id"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Email     string  `json:"email"`
	Title     *string `json:"title"`
}

type Department struct {
	ID               int64          `json:"id"`
	Name             string         `json:"name"`
	Color            string         `json:"color"`
	HeadOfDepartment *PersonSummary `json:"headOfDepartment"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

type OrganizationUnit struct {
	ID               int64           `json:"id"`
	Name             string          `json:"name"`
	Color            string          `json:"color"`
	HeadOfDepartment *PersonSummary  `json:"headOfDepartment"`
	Employees        []PersonSummary `json:"employees"`
}

type OrganizationStructure struct {
	Departments []OrganizationUnit `json:"departments"`
}

func FromDataModel(d *departmentDatamodel.Department, head *personDatamodel.Person) *Department {
	return &Department{
		ID:               d.ID,
		Name:             d.Name,
		Color:            d.Color,
		HeadOfDepartment: summarize(head),
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

func summarize(p *personDatamodel.Person) *PersonSummary {
	if p == nil {
		return nil
	}
	s := &PersonSummary{
		ID:        p.ID,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Email:     p.Email,
	}
	if p.Title != nil && p.TitleID != nil {
		name := p.Title.Name
		s.Title = &name
	}
	return s
}

var (
	longHex  = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	shortHex = regexp.MustCompile(`^#[0-9a-fA-F]{3}$`)
)

// NormalizeColor turns user input into an upper-case #RRGGBB value. Missing
// or malformed input yields DefaultColor.
func NormalizeColor(in *string) string {
	if in == nil {
		return DefaultColor
	}
	s := strings.TrimSpace(*in)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	switch {
	case longHex.MatchString(s):
		return strings.ToUpper(s)
	case shortHex.MatchString(s):
		r, g, b := s[1:2], s[2:3], s[3:4]
		return strings.ToUpper("#" + r + r + g + g + b + b)
	default:
		return DefaultColor
	}
}
