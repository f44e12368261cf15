package person

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/frahmantamala/personnel-suite/internal/core/common/validation"
	departmentDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/department"
	personDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/person"
	titleDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/title"
	"github.com/frahmantamala/personnel-suite/internal/core/events"
)

// ChangeRecord is one changed field with stringified values; nil means the
// field had or has no value.
type ChangeRecord = events.FieldChange

var canonicalOrder = []string{
	"firstName",
	"lastName",
	"email",
	"phoneNumber",
	"nationalId",
	"departmentId",
	"titleId",
	"contractType",
	"salary",
	"contractStartDate",
	"contractEndDate",
	"birthDate",
	"gender",
	"address",
	"bankAccount",
	"insuranceNumber",
	"profilePictureUrl",
}

// Targets are the department and title an update resolves to. Nil clears
// the relation.
type Targets struct {
	Department *departmentDatamodel.Department
	Title      *titleDatamodel.Title
}

// DetectChanges compares current with what req would make of it and returns
// the changed fields in canonical order. It does not modify its arguments.
//
// A salary or date that does not parse counts as unchanged.
func DetectChanges(current *personDatamodel.Person, req *UpdatePersonRequest, targets Targets) []ChangeRecord {
	found := make(map[string]ChangeRecord)
	record := func(field string, old, new *string) {
		if equalValues(old, new) {
			return
		}
		found[field] = ChangeRecord{Field: field, Old: old, New: new}
	}

	if req.FirstName != nil {
		record("firstName", stringPtr(current.FirstName), stringPtr(strings.TrimSpace(*req.FirstName)))
	}
	if req.LastName != nil {
		record("lastName", stringPtr(current.LastName), stringPtr(strings.TrimSpace(*req.LastName)))
	}
	if req.Email != nil {
		record("email", stringPtr(current.Email), stringPtr(strings.TrimSpace(*req.Email)))
	}

	text := []struct {
		field string
		old   *string
		new   *string
	}{
		{"phoneNumber", current.PhoneNumber, req.PhoneNumber},
		{"nationalId", current.NationalID, req.NationalID},
		{"contractType", current.ContractType, req.ContractType},
		{"gender", current.Gender, req.Gender},
		{"address", current.Address, req.Address},
		{"bankAccount", current.BankAccount, req.BankAccount},
		{"insuranceNumber", current.InsuranceNumber, req.InsuranceNumber},
		{"profilePictureUrl", current.ProfilePictureURL, req.ProfilePictureURL},
	}
	for _, f := range text {
		if f.new != nil {
			record(f.field, f.old, clearable(*f.new))
		}
	}

	if !sameID(current.DepartmentID, departmentID(targets.Department)) {
		found["departmentId"] = ChangeRecord{
			Field: "departmentId",
			Old:   currentDepartmentName(current),
			New:   namePtr(departmentName(targets.Department)),
		}
	}
	if !sameID(current.TitleID, titleID(targets.Title)) {
		found["titleId"] = ChangeRecord{
			Field: "titleId",
			Old:   currentTitleName(current),
			New:   namePtr(titleName(targets.Title)),
		}
	}

	if req.Salary != nil {
		if salary, ok := parseSalary(*req.Salary); ok {
			record("salary", formatSalary(current.Salary), formatSalary(salary))
		}
	}

	dates := []struct {
		field string
		old   *time.Time
		new   *string
	}{
		{"contractStartDate", current.ContractStartDate, req.ContractStartDate},
		{"contractEndDate", current.ContractEndDate, req.ContractEndDate},
		{"birthDate", current.BirthDate, req.BirthDate},
	}
	for _, f := range dates {
		if f.new == nil {
			continue
		}
		if d, ok := parseDate(*f.new); ok {
			record(f.field, formatDate(f.old), formatDate(d))
		}
	}

	return orderChanges(found)
}

func orderChanges(found map[string]ChangeRecord) []ChangeRecord {
	changes := make([]ChangeRecord, 0, len(found))
	for _, field := range canonicalOrder {
		if c, ok := found[field]; ok {
			changes = append(changes, c)
			delete(found, field)
		}
	}

	rest := make([]string, 0, len(found))
	for field := range found {
		rest = append(rest, field)
	}
	sort.Strings(rest)
	for _, field := range rest {
		changes = append(changes, found[field])
	}
	return changes
}

// clearable maps the empty string to nil.
func clearable(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// parseSalary reports ok=false when s is neither blank nor a whole,
// non-negative amount.
func parseSalary(s string) (*int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, true
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v < 0 {
		return nil, false
	}
	return &v, true
}

func formatSalary(v *int64) *string {
	if v == nil {
		return nil
	}
	s := strconv.FormatInt(*v, 10)
	return &s
}

func parseDate(s string) (*time.Time, bool) {
	d, err := validation.ParseDate(s)
	if err != nil {
		return nil, false
	}
	return d, true
}

func currentDepartmentName(p *personDatamodel.Person) *string {
	if p.DepartmentID == nil || p.Department == nil {
		return nil
	}
	return namePtr(p.Department.Name)
}

func currentTitleName(p *personDatamodel.Person) *string {
	if p.TitleID == nil || p.Title == nil {
		return nil
	}
	return namePtr(p.Title.Name)
}

func departmentID(d *departmentDatamodel.Department) *int64 {
	if d == nil {
		return nil
	}
	return &d.ID
}

func titleID(t *titleDatamodel.Title) *int64 {
	if t == nil {
		return nil
	}
	return &t.ID
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func equalValues(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func namePtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func stringPtr(s string) *string {
	return &s
}
